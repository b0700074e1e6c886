package chat

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/somaedu/soma/core"
)

// Message is one discussion entry under a subject. Append-only; ordered by
// creation time. Author fields are denormalized for display.
type Message struct {
	ID          string    `json:"id"`
	SubjectID   string    `json:"subject_id"`
	AuthorID    string    `json:"author_id"`
	AuthorName  string    `json:"author_name"`
	AuthorRoles []string  `json:"author_roles"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

// NewMessage contains information needed to post a discussion message.
// Author fields are filled in from the authenticated user.
type NewMessage struct {
	SubjectID   string   `json:"subject_id" validate:"required"`
	AuthorID    string   `json:"-"`
	AuthorName  string   `json:"-"`
	AuthorRoles []string `json:"-"`
	Body        string   `json:"body" validate:"required"`
}

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.Body = core.CleanString(nm.Body)
	return validate.Struct(nm)
}
