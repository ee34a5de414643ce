package bstar

import "github.com/cockroachdb/errors"

var (
	ErrNotOpen       = errors.New("bstar: tree is not open")
	ErrAlreadyOpen   = errors.New("bstar: tree is already open")
	ErrCorrupt       = errors.New("bstar: corrupt store")
	ErrEmptyKey      = errors.New("bstar: empty key")
	ErrInvalidRange  = errors.New("bstar: invalid range")
	ErrCursorInvalid = errors.New("bstar: cursor is not positioned")
)
