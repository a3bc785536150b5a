package alarms

import "errors"

// ErrNotFound indicates a missing alarm record.
var ErrNotFound = errors.New("alarm: not found")

// ErrMissingIdentity indicates an ingestion record without a global alarm id.
var ErrMissingIdentity = errors.New("missing global alarm id")

// ErrInvalidSeverity indicates an unsupported severity value.
var ErrInvalidSeverity = errors.New("invalid severity")

// ErrEmptyComment indicates a comment with no text.
var ErrEmptyComment = errors.New("alarm: empty comment text")
