package internal

import "time"

// Version is one saved chapter text, identified by (Owner, Book, Chapter).
type Version struct {
	Owner     string    `json:"owner,omitempty"`
	Book      string    `json:"book"`
	Chapter   string    `json:"chapter"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}
