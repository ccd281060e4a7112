package model

import "time"

// Session is a local login session. It carries the identity the backend
// returned, the backend bearer token when one was issued, and the session's
// active patient.
type Session struct {
	ID          int64
	Token       string
	UserID      int64
	Username    string
	FullName    string
	AccessLevel string
	APIToken    string
	Patient     *Patient
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// User returns the backend identity stored on the session.
func (s *Session) User() User {
	return User{
		ID:          s.UserID,
		Username:    s.Username,
		FullName:    s.FullName,
		AccessLevel: s.AccessLevel,
	}
}
