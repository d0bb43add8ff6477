package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidParams  = errors.New("invalid parameters")
	ErrInvalidSession = errors.New("invalid session")
	ErrInvalidAdType  = errors.New("invalid ad type")
	ErrUpstream       = errors.New("scraping backend error")
)
