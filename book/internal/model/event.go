package model

import "time"

type EventType string

const (
	EventBookCreated  EventType = "BOOK_CREATED"
	EventBookUpdated  EventType = "BOOK_UPDATED"
	EventBookBorrowed EventType = "BOOK_BORROWED"
	EventBookReturned EventType = "BOOK_RETURNED"
	EventBookDeleted  EventType = "BOOK_DELETED"
)

// BookEvent is published after a successful write.
type BookEvent struct {
	ID              string    `json:"id"`
	Type            EventType `json:"type"`
	BookID          int64     `json:"bookId"`
	ISBN            string    `json:"isbn,omitempty"`
	TotalCopies     int       `json:"totalCopies"`
	AvailableCopies int       `json:"availableCopies"`
	OccurredAt      time.Time `json:"occurredAt"`
}
