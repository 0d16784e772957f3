package models

import "time"

type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // Don't expose in JSON
}

// Session is one row of the sessions table. Username is empty for anonymous sessions.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username,omitempty"`
	Data      string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a one-shot flash message shown on the next rendered page.
type Notice struct {
	Kind    NoticeKind
	Message string
	Link    string
}
