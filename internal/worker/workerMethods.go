package worker

import (
	"context"
	"os"
	"sync/atomic"
	"time"

	"github.com/aruiz/feinscan/internal/config"
	"github.com/aruiz/feinscan/internal/domain/docModel"
	jobmodel "github.com/aruiz/feinscan/internal/domain/jobModel"
	"github.com/aruiz/feinscan/internal/metrics"
	"github.com/aruiz/feinscan/internal/pipeline"
)

func executeJob(currentJob jobmodel.Job) {
	start := time.Now()
	defer func() {
		// Record total time at the end
		metrics.CaptureJobMetrics(string(currentJob.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, currentJob.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, config.AsyncRunTimeout)
	defer cancel()
	log := logger.With("traceId", currentJob.TraceId, "jobId", currentJob.Id)
	log.Debug("Processing job:", "document", currentJob.Payload.DocumentName)

	// stale queue entries may already be terminal in the store
	if !currentJob.Status.CanAdvanceTo(jobmodel.JobStatusProcessing) {
		log.Warn("Skipping job, lifecycle does not allow processing", "status", currentJob.Status)
		return
	}
	currentJob = saveJobState(ctx, currentJob, jobmodel.JobStatusProcessing)

	doc, err := loadDocument(currentJob)
	if err == nil {
		currentJob = runExtraction(ctx, currentJob, doc)
	} else {
		log.Error("Failed to load stored document", "path", currentJob.Payload.DocumentPath, "err", err)
		currentJob.Error = pipeline.ToJobError(err)
	}
	cleanupStoredDocument(currentJob)

	currentJob.EndTime = time.Now()
	currentJob.ElapsedMs = time.Since(start).Milliseconds()
	if currentJob.Error != (jobmodel.JobError{}) {
		currentJob = saveJobState(ctx, currentJob, jobmodel.JobStatusFailed)
		return
	}
	currentJob = saveJobState(ctx, currentJob, jobmodel.JobStatusCompleted)
}

func removeWorker(reason string) {

	workerWaitGroup.Done()
	atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker ", "reason", reason, "workerCount", currentWorkerCount)
	metrics.DecrementActiveWorkerCount()

}

func loadDocument(currentJob jobmodel.Job) (docModel.Document, error) {
	content, err := os.ReadFile(currentJob.Payload.DocumentPath)
	if err != nil {
		return docModel.Document{}, docModel.ErrDocumentCorrupt
	}

	pageCount, err := pipeline.PageCount(content)
	if err != nil {
		return docModel.Document{}, err
	}

	return docModel.Document{
		Id:        currentJob.DocumentId,
		Name:      currentJob.Payload.DocumentName,
		MediaType: currentJob.Payload.MediaType,
		PageCount: pageCount,
		Content:   content,
	}, nil
}

func runExtraction(ctx context.Context, currentJob jobmodel.Job, doc docModel.Document) jobmodel.Job {
	result, stats, err := _pipelineService.Run(ctx, doc, func(totalPages, chunkCount int) {
		currentJob.TotalPages = totalPages
		currentJob.ChunkCount = chunkCount
		if saveErr := _jobService.JobStore.SaveJob(ctx, currentJob); saveErr != nil {
			logger.Error("Failed to publish segmentation progress", "err", saveErr)
		}
	})
	if err != nil {
		currentJob.Error = pipeline.ToJobError(err)
		return currentJob
	}
	currentJob.Result = result
	currentJob.TotalPages = stats.TotalPages
	currentJob.ChunkCount = stats.ChunkCount
	return currentJob
}

func cleanupStoredDocument(currentJob jobmodel.Job) {
	if currentJob.Payload.DocumentPath == "" {
		return
	}
	if err := os.Remove(currentJob.Payload.DocumentPath); err != nil {
		logger.Warn("Couldn't remove stored document", "path", currentJob.Payload.DocumentPath, "err", err)
	}
}

func saveJobState(ctx context.Context, currentJob jobmodel.Job, jobStatus jobmodel.JobStatus) jobmodel.Job {
	currentJob.Status = jobStatus
	if err := _jobService.JobStore.SaveJob(ctx, currentJob); err != nil {
		logger.Error("Failed to update status in Redis", "err", err)
	}
	return currentJob
}
