package feedback

import (
	"net/mail"
	"strings"
	"time"
)

type Feedback struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"user_id,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

type Comment struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"item_id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	maxMessageLen = 5000
	maxCommentLen = 2000
)

// InvalidError reports a rejected submission.
type InvalidError struct {
	Field  string
	Reason string
}

func (e *InvalidError) Error() string {
	return e.Field + ": " + e.Reason
}

// Validate trims fields in place.
func (f *Feedback) Validate() error {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Subject = strings.TrimSpace(f.Subject)
	f.Message = strings.TrimSpace(f.Message)
	switch {
	case f.Name == "":
		return &InvalidError{Field: "name", Reason: "is required"}
	case f.Message == "":
		return &InvalidError{Field: "message", Reason: "is required"}
	case len(f.Message) > maxMessageLen:
		return &InvalidError{Field: "message", Reason: "is too long"}
	case f.Rating < 0 || f.Rating > 5:
		return &InvalidError{Field: "rating", Reason: "must be between 1 and 5 when given"}
	}
	if _, err := mail.ParseAddress(f.Email); err != nil {
		return &InvalidError{Field: "email", Reason: "must be a valid address"}
	}
	return nil
}

func (c *Comment) Validate() error {
	c.Body = strings.TrimSpace(c.Body)
	if c.Body == "" {
		return &InvalidError{Field: "body", Reason: "is required"}
	}
	if len(c.Body) > maxCommentLen {
		return &InvalidError{Field: "body", Reason: "is too long"}
	}
	return nil
}
