package models

import "errors"

// ErrDuplicateKey is returned by stores when an insert violates a unique
// constraint.
var ErrDuplicateKey = errors.New("duplicate key")
