package domain

import (
	"fmt"
	"strings"
)

// Session carries the caller identity into every operation that talks to the
// backend or touches per-user state. Nothing caches it between calls.
type Session struct {
	UserID string
	Token  string
}

func NewSession(userID, token string) (Session, error) {
	s := Session{
		UserID: strings.TrimSpace(userID),
		Token:  strings.TrimSpace(token),
	}
	if err := s.Validate(); err != nil {
		return Session{}, err
	}
	return s, nil
}

func (s Session) Validate() error {
	if s.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidSession)
	}
	return nil
}
