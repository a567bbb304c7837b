package data

import "errors"

// ErrEmptyKey is returned by cache operations given an empty key.
var ErrEmptyKey = errors.New("key cannot be empty")
