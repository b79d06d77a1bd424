package types

import (
	"errors"
	"fmt"
)

var (
	ErrInput               = errors.New("invalid input")
	ErrDetection           = errors.New("silence detection failed")
	ErrMalformedReport     = errors.New("malformed silence report")
	ErrInsufficientSilence = errors.New("insufficient silence data")
	ErrExtraction          = errors.New("extraction failed")
	ErrFilesystem          = errors.New("missing intermediate artifact")
)

// JobError reports the clip pipeline and stage where a failure happened.
type JobError struct {
	Index int
	Stage Stage
	Err   error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("clip %d: %s: %v", e.Index, e.Stage, e.Err)
}

func (e *JobError) Unwrap() error { return e.Err }
