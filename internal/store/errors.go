package store

import "errors"

// ErrDuplicateKey is returned when a notification was already recorded.
var ErrDuplicateKey = errors.New("history record already exists")
