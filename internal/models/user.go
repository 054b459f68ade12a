package models

import "time"

// User represents a registered mailbox owner.
//
// VerifyCode and VerifyCodeExpiry are set together while email ownership is
// unproven and cleared together on successful verification.
type User struct {
	ID                  string     `json:"id"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"` // Never expose this to the client
	VerifyCode          *string    `json:"-"`
	VerifyCodeExpiry    *time.Time `json:"-"`
	IsVerified          bool       `json:"isVerified"`
	IsAcceptingMessages bool       `json:"isAcceptingMessages"`
	CreatedAt           time.Time  `json:"createdAt"`
}
