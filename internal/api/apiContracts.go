package api

import (
	"time"

	"github.com/aruiz/feinscan/internal/domain/docModel"
)

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

// ExtractionResponse is the 200 body when the synchronous path wins the
// deadline race.
type ExtractionResponse struct {
	Status string                     `json:"status" example:"COMPLETED"`
	Result *docModel.ExtractionResult `json:"result"`
}

// InitJobResponse is the 202 body: either the document was routed to
// background processing up front, or the synchronous attempt timed out and
// was detached.
type InitJobResponse struct {
	Id        string `json:"id"`
	Status    string `json:"status" example:"PROCESSING_IN_BACKGROUND"`
	StatusURL string `json:"status_url"`
}

type JobResponse struct {
	Id         string                     `json:"id" example:"job_cz109"`
	DocumentId string                     `json:"document_id,omitempty"`
	Status     string                     `json:"status"`
	Progress   int                        `json:"progress"`
	TotalPages int                        `json:"total_pages,omitempty"`
	ChunkCount int                        `json:"chunk_count,omitempty"`
	StartTime  time.Time                  `json:"start_time"`
	EndTime    time.Time                  `json:"end_time,omitempty"`
	ElapsedMs  int64                      `json:"elapsed_ms,omitempty"`
	Result     *docModel.ExtractionResult `json:"result,omitempty"`
	Error      *JobOutgoingError          `json:"error,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}
