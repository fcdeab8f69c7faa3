package docModel

import (
	"errors"
	"fmt"
)

// Failure taxonomy of the extraction pipeline. Handlers and the job tracker
// map these onto user-facing messages; everything else is wrapped as-is.
var (
	// ErrDocumentCorrupt means the upload could not be parsed as a paginated
	// document. Fatal, not retryable.
	ErrDocumentCorrupt = errors.New("document cannot be read")

	// ErrSizeExceeded means the upload is over the byte ceiling.
	ErrSizeExceeded = errors.New("document exceeds the size limit")

	// ErrPageCountExceeded means the document is over the hard page cap.
	ErrPageCountExceeded = errors.New("document exceeds the page limit")

	// ErrBackendUnavailable means the recognition service could not be
	// reached at all, as opposed to a per-document problem.
	ErrBackendUnavailable = errors.New("recognition service unreachable")
)

// ChunkRecognitionError reports the first chunk whose backend call failed.
// Index is 1-based for user messages.
type ChunkRecognitionError struct {
	Index int
	Err   error
}

func (e *ChunkRecognitionError) Error() string {
	return fmt.Sprintf("recognition failed for chunk %d: %v", e.Index, e.Err)
}

func (e *ChunkRecognitionError) Unwrap() error {
	return e.Err
}
