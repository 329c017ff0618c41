package timeline

import "errors"

var (
	ErrInvalidClip     = errors.New("invalid clip")
	ErrInvalidSequence = errors.New("invalid sequence")
	ErrNoSequence      = errors.New("project has no sequence")
)
