package domain

import "fmt"

// MalformedRowError reports a dataset row that lacks required fields.
// Ingestion halts on it rather than silently skipping records.
type MalformedRowError struct {
	Row    int
	Reason string
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed row %d: %s", e.Row, e.Reason)
}

// EmbeddingError reports that the embedding capability could not produce
// a vector for a given text.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// IndexUnavailableError reports an I/O or storage failure in the vector
// index. Fatal to the current operation.
type IndexUnavailableError struct {
	Op  string
	Err error
}

func (e *IndexUnavailableError) Error() string {
	return fmt.Sprintf("vector index %s: %v", e.Op, e.Err)
}

func (e *IndexUnavailableError) Unwrap() error { return e.Err }

// IngestionError reports a failed ingestion run. Offset is the position of
// the first record in the batch that failed; batches committed before it
// remain in the index.
type IngestionError struct {
	Offset int
	Err    error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingestion failed at record offset %d: %v", e.Offset, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }
