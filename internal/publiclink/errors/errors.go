package errors

import "errors"

var (
	ErrNotFound  = errors.New("booking link not found")
	ErrDuplicate = errors.New("active booking link already exists for client")
)
