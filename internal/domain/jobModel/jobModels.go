package jobModel

import (
	"context"
	"time"

	"github.com/aruiz/feinscan/internal/domain/docModel"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// IsTerminal reports whether a status may never be left again.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

func (s JobStatus) rank() int {
	switch s {
	case JobStatusPending:
		return 0
	case JobStatusProcessing:
		return 1
	case JobStatusCompleted, JobStatusFailed:
		return 2
	}
	return -1
}

// CanAdvanceTo reports whether moving from s to next respects the
// one-directional lifecycle. Pollers must only ever observe forward movement.
func (s JobStatus) CanAdvanceTo(next JobStatus) bool {
	if s.IsTerminal() {
		return false
	}
	return next.rank() > s.rank()
}

// Job tracks one background extraction run. Only the pipeline instance that
// owns the job transitions it; pollers read it through the store.
type Job struct {
	Id          string    `json:"id"`
	TraceId     string    `json:"trace_id"`
	DocumentId  string    `json:"document_id"`
	Status      JobStatus `json:"status"`
	CreatedTime time.Time `json:"created_time"`
	EndTime     time.Time `json:"end_time,omitempty"`

	// progress metadata, known as soon as segmentation finishes
	TotalPages int   `json:"total_pages,omitempty"`
	ChunkCount int   `json:"chunk_count,omitempty"`
	ElapsedMs  int64 `json:"elapsed_ms,omitempty"`

	Payload JobPayload                 `json:"payload,omitempty"`
	Result  *docModel.ExtractionResult `json:"result,omitempty"`
	Error   JobError                   `json:"error,omitempty"`
}

// JobPayload points the worker at the uploaded file for runs that never
// started synchronously. Runs detached after a deadline carry no payload;
// their pipeline is already in flight.
type JobPayload struct {
	DocumentName string `json:"document_name,omitempty"`
	DocumentPath string `json:"document_path,omitempty"`
	MediaType    string `json:"media_type,omitempty"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}
