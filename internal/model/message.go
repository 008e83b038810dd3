package model

import "time"

// Message is an immutable thread entry on a task. Exactly one of Text and
// ImageURL is set; image bytes live in the blob store, only the reference
// is recorded here.
type Message struct {
	ID       int64
	TaskID   int64
	SenderID int64
	Text     string
	ImageURL string

	CreatedAt time.Time
}

func (Message) TableName() string { return "messages" }
