package rag

import (
	"errors"
	"fmt"
)

// Sentinel errors for the indexing and retrieval core. Callers match with
// errors.Is / errors.As to decide whether an operation is retryable.
var (
	// ErrConfig marks invalid parameters: bad chunk sizes, or a query vector
	// whose dimension does not match the index. Never retryable.
	ErrConfig = errors.New("invalid configuration")

	// ErrCorruptBlob marks a stored blob pair that cannot be decoded or whose
	// halves disagree with each other. Queries against such a pair fail closed.
	ErrCorruptBlob = errors.New("corrupt or incompatible index blob")
)

// ExtractionError reports that a file's bytes could not be parsed as the
// format its name declares. It aborts the whole rebuild so an instructor is
// never presented with a silently incomplete index.
type ExtractionError struct {
	Filename string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Filename, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// EmbeddingError wraps a failure of the external embedding service. The whole
// rebuild or query fails as a unit; the caller may retry the entire operation.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding service: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }
