package errors

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrEmptyClientID   = errors.New("empty client id")
	ErrMalformedEntity = errors.New("malformed entity")
	ErrUnknownClient   = errors.New("unknown client")
)
