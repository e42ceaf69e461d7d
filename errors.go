package parstream

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLimit is returned by Run when the concurrency limit is below 1.
	ErrInvalidLimit = errors.New("parstream: concurrency limit must be at least 1")

	// ErrNilSource is returned by Run when the input sequence is nil.
	ErrNilSource = errors.New("parstream: nil input sequence")

	// ErrNilWorker is returned by Run when the worker callback is nil.
	ErrNilWorker = errors.New("parstream: nil worker")

	// ErrNilConsumer is returned by Run when the consumer callback is nil.
	ErrNilConsumer = errors.New("parstream: nil consumer")
)

// Stage identifies which callback produced a run error.
type Stage string

const (
	StageWorker   Stage = "worker"
	StageConsumer Stage = "consumer"
)

// StageError is the first failure observed during a run, tagged with the
// stage that produced it and the zero-based index of the failing item.
type StageError struct {
	Stage Stage
	Index int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("parstream: %s failed on item %d: %v", e.Stage, e.Index, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
