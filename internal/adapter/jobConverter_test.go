package adapter

import (
	"testing"

	"github.com/aruiz/feinscan/internal/domain/docModel"
	"github.com/aruiz/feinscan/internal/domain/jobModel"
)

func TestProgressFor(t *testing.T) {
	cases := []struct {
		status jobModel.JobStatus
		want   int
	}{
		{jobModel.JobStatusPending, 10},
		{jobModel.JobStatusProcessing, 50},
		{jobModel.JobStatusCompleted, 100},
		{jobModel.JobStatusFailed, 100},
	}
	for _, c := range cases {
		if got := progressFor(c.status); got != c.want {
			t.Errorf("progressFor(%s) = %d, want %d", c.status, got, c.want)
		}
	}
}

func TestToJobResponse_ResultGating(t *testing.T) {
	result := &docModel.ExtractionResult{DocumentId: "doc-1"}
	jobErr := jobModel.JobError{Code: 502, Message: "backend down", Retry: true}

	t.Run("processing exposes neither", func(t *testing.T) {
		resp := ToJobResponse(jobModel.Job{Id: "j", Status: jobModel.JobStatusProcessing, Result: result, Error: jobErr})
		if resp.Result != nil || resp.Error != nil {
			t.Errorf("result/error leaked before a terminal state: %+v", resp)
		}
	})

	t.Run("completed exposes the result", func(t *testing.T) {
		resp := ToJobResponse(jobModel.Job{Id: "j", Status: jobModel.JobStatusCompleted, Result: result})
		if resp.Result == nil || resp.Error != nil {
			t.Errorf("completed job response = %+v", resp)
		}
	})

	t.Run("failed exposes the error", func(t *testing.T) {
		resp := ToJobResponse(jobModel.Job{Id: "j", Status: jobModel.JobStatusFailed, Error: jobErr})
		if resp.Error == nil || resp.Result != nil {
			t.Fatalf("failed job response = %+v", resp)
		}
		if resp.Error.Code != 502 || !resp.Error.Retry {
			t.Errorf("error = %+v", resp.Error)
		}
	})
}

func TestToInitJobResponse(t *testing.T) {
	resp := ToInitJobResponse("abc")
	if resp.Id != "abc" || resp.StatusURL != "jobs/abc" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Status != "PROCESSING_IN_BACKGROUND" {
		t.Errorf("status = %q", resp.Status)
	}
}
