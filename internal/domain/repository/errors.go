package repository

import "errors"

// ErrNotFound is returned by repositories when the requested row does
// not exist. ErrDuplicateEmail backs the email uniqueness constraint.
var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already exists")
)
