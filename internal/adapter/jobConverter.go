package adapter

import (
	"fmt"
	"time"

	"github.com/aruiz/feinscan/internal/api"
	"github.com/aruiz/feinscan/internal/domain/docModel"
	"github.com/aruiz/feinscan/internal/domain/jobModel"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		Status:    "PROCESSING_IN_BACKGROUND",
		StatusURL: fmt.Sprintf("jobs/%s", id),
	}
}

func ToExtractionResponse(result *docModel.ExtractionResult) api.ExtractionResponse {
	return api.ExtractionResponse{
		Status: string(jobModel.JobStatusCompleted),
		Result: result,
	}
}

// progressFor buckets progress by lifecycle state. Finer-grained numbers
// would imply precision the pipeline does not have.
func progressFor(status jobModel.JobStatus) int {
	switch status {
	case jobModel.JobStatusPending:
		return 10
	case jobModel.JobStatusProcessing:
		return 50
	case jobModel.JobStatusCompleted, jobModel.JobStatusFailed:
		return 100
	}
	return 0
}

func ToJobResponse(job jobModel.Job) api.JobResponse {
	resp := api.JobResponse{
		Id:         job.Id,
		DocumentId: job.DocumentId,
		Status:     string(job.Status),
		Progress:   progressFor(job.Status),
		TotalPages: job.TotalPages,
		ChunkCount: job.ChunkCount,
		StartTime:  job.CreatedTime,
		EndTime:    job.EndTime,
		ElapsedMs:  job.ElapsedMs,
	}

	// the field set is visible only once the job completed, and the error
	// only once it failed
	switch job.Status {
	case jobModel.JobStatusCompleted:
		resp.Result = job.Result
	case jobModel.JobStatusFailed:
		resp.Error = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}
	return resp
}

func BadRequest(id string, errorMessage string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		Status:    string(api.JobStatusError),
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: errorMessage,
			Retry:   false,
		},
	}
}
