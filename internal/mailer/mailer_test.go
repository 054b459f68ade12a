package mailer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSendVerificationCode_NotConfigured(t *testing.T) {
	m := NewSMTPMailer("", "587", "", "", "")
	err := m.SendVerificationCode("a@x.com", "alice", "123456")
	require.Error(t, err)
}

func TestVerificationTemplate(t *testing.T) {
	m := NewSMTPMailer("smtp.example.com", "587", "user", "pass", "noreply@example.com")

	var body bytes.Buffer
	err := m.tmpl.Execute(&body, map[string]string{"Username": "alice", "Code": "123456"})
	require.NoError(t, err)
	require.Contains(t, body.String(), "alice")
	require.Contains(t, body.String(), "123456")
}
