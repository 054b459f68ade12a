package models

import "time"

// Message is a single anonymous note in a user's mailbox. Messages are never
// edited after creation; they are only appended and deleted.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
