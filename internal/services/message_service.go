package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/whisperbox/whisperbox-be/internal/apperr"
	"github.com/whisperbox/whisperbox-be/internal/database"
	"github.com/whisperbox/whisperbox-be/internal/models"
)

// Message content bounds, counted in runes after trimming.
const (
	minContentLen = 10
	maxContentLen = 300
)

// MessageServiceProvider defines the interface for mailbox services.
type MessageServiceProvider interface {
	Send(username, content string) (models.Message, error)
	List(ownerID string) ([]models.Message, error)
	Delete(ownerID, messageID string) error
	SetAccepting(ownerID string, accepting bool) (bool, error)
	GetAccepting(ownerID string) (bool, error)
}

// MessageService provides business logic for the per-user mailbox.
type MessageService struct {
	db *database.Store
}

// NewMessageService creates a new MessageService.
func NewMessageService(db *database.Store) *MessageService {
	return &MessageService{db: db}
}

// Send appends an anonymous message to the named user's mailbox. No sender
// identity is recorded.
func (s *MessageService) Send(username, content string) (models.Message, error) {
	content = strings.TrimSpace(content)
	if n := utf8.RuneCountInString(content); n < minContentLen || n > maxContentLen {
		return models.Message{}, apperr.ErrValidation
	}

	var ownerID string
	var accepting bool
	row := s.db.QueryRow("SELECT id, is_accepting_messages FROM users WHERE username = ?", username)
	err := row.Scan(&ownerID, &accepting)
	if err == sql.ErrNoRows {
		return models.Message{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to look up user: %w", err)
	}
	if !accepting {
		return models.Message{}, apperr.ErrNotAccepting
	}

	msg := models.Message{
		ID:        uuid.New().String(),
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	stmt, err := s.db.Prepare("INSERT INTO messages (id, user_id, content, created_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		return models.Message{}, err
	}
	defer stmt.Close()

	if _, err = stmt.Exec(msg.ID, ownerID, msg.Content, msg.CreatedAt); err != nil {
		return models.Message{}, fmt.Errorf("failed to store message: %w", err)
	}
	return msg, nil
}

// List returns the owner's messages newest first. The id tiebreak keeps the
// order stable for messages sharing a timestamp.
func (s *MessageService) List(ownerID string) ([]models.Message, error) {
	var exists bool
	err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)", ownerID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !exists {
		return nil, apperr.ErrNotFound
	}

	rows, err := s.db.Query(
		"SELECT id, content, created_at FROM messages WHERE user_id = ? ORDER BY created_at DESC, id DESC",
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// Delete removes a single message from the owner's mailbox. Re-deleting an
// absent message on a live owner reports ErrAlreadyDeleted rather than
// ErrNotFound, so two concurrent deletes stay distinguishable: exactly one
// caller observes the removal. ErrNotFound is reserved for a missing owner
// or a message that belongs to someone else.
func (s *MessageService) Delete(ownerID, messageID string) error {
	res, err := s.db.Exec("DELETE FROM messages WHERE id = ? AND user_id = ?", messageID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	var ownerExists bool
	err = s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)", ownerID).Scan(&ownerExists)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if !ownerExists {
		return apperr.ErrNotFound
	}

	var belongsElsewhere bool
	err = s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM messages WHERE id = ?)", messageID).Scan(&belongsElsewhere)
	if err != nil {
		return fmt.Errorf("failed to look up message: %w", err)
	}
	if belongsElsewhere {
		return apperr.ErrNotFound
	}

	return apperr.ErrAlreadyDeleted
}

// SetAccepting persists the accept-messages flag and returns the new value.
func (s *MessageService) SetAccepting(ownerID string, accepting bool) (bool, error) {
	res, err := s.db.Exec("UPDATE users SET is_accepting_messages = ? WHERE id = ?", accepting, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to update accept flag: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, apperr.ErrNotFound
	}
	return accepting, nil
}

// GetAccepting returns the current accept-messages flag.
func (s *MessageService) GetAccepting(ownerID string) (bool, error) {
	var accepting bool
	err := s.db.QueryRow("SELECT is_accepting_messages FROM users WHERE id = ?", ownerID).Scan(&accepting)
	if err == sql.ErrNoRows {
		return false, apperr.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to read accept flag: %w", err)
	}
	return accepting, nil
}
