package rag

import (
	"errors"
	"fmt"
)

var (
	// ErrModelUnavailable is matched by every ModelUnavailableError.
	ErrModelUnavailable = errors.New("embedding model unavailable")
	// ErrLengthMismatch is returned when chunks and metadata differ in length.
	ErrLengthMismatch = errors.New("chunks and metadata length mismatch")
	// ErrNoChunks is returned by Store.Build when there is nothing to index.
	ErrNoChunks = errors.New("no chunks to index")
	// ErrDimensionMismatch is returned when vectors of different widths meet.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// ModelUnavailableError reports an embedding model that could not be initialised.
type ModelUnavailableError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ModelUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("embedding model %s/%s unavailable", e.Provider, e.Model)
	}
	return fmt.Sprintf("embedding model %s/%s unavailable: %v", e.Provider, e.Model, e.Err)
}

func (e *ModelUnavailableError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrModelUnavailable) match.
func (e *ModelUnavailableError) Is(target error) bool { return target == ErrModelUnavailable }

// DecodeError reports a document whose bytes could not be turned into text.
type DecodeError struct {
	Filename string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Filename, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// PersistenceError reports a snapshot read or write failure.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s snapshot %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
