package pipeline

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/aruiz/feinscan/internal/config"
	"github.com/aruiz/feinscan/internal/domain/docModel"
	"github.com/aruiz/feinscan/internal/domain/jobModel"
	"github.com/aruiz/feinscan/internal/job"
	"github.com/aruiz/feinscan/internal/metrics"
	"github.com/aruiz/feinscan/pkg/logger_i"
)

// Controller decides, per submission, between the synchronous path raced
// against a deadline and the asynchronous job path. A deadline expiry never
// cancels recognition work already in flight - the run is detached and its
// outcome lands in the job store.
type Controller struct {
	pipeline     *Service
	jobs         *job.Service
	syncDeadline time.Duration
	logger       *logger_i.Logger
}

func NewController(p *Service, jobs *job.Service) *Controller {
	return &Controller{
		pipeline:     p,
		jobs:         jobs,
		syncDeadline: config.SyncDeadline,
		logger:       logger_i.NewLogger("Controller"),
	}
}

// Outcome of a submission. Exactly one of Result (synchronous completion)
// and JobId (asynchronous acceptance) is set. Background means the stored
// upload is still needed by the worker; the handler must not delete it.
type Outcome struct {
	Result     *docModel.ExtractionResult
	JobId      string
	Background bool
}

type runOutcome struct {
	result *docModel.ExtractionResult
	stats  RunStats
	err    error
}

// Submit validates the upload, then routes it. Pre-flight order: size
// ceiling, page hard cap, background eligibility. storedPath is where the
// handler parked the upload; only jobs that start from scratch need it.
func (c *Controller) Submit(ctx context.Context, name, mediaType string, content []byte, storedPath string) (Outcome, error) {
	traceId, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	log := c.logger.With("traceId", traceId, "document", name)

	if int64(len(content)) > config.MaxUploadSizeBytes {
		return Outcome{}, docModel.ErrSizeExceeded
	}

	pageCount, err := PageCount(content)
	if err != nil {
		return Outcome{}, err
	}
	if pageCount > config.MaxPageCount {
		return Outcome{}, docModel.ErrPageCountExceeded
	}

	doc := docModel.Document{
		Id:        uuid.New().String(),
		Name:      name,
		MediaType: mediaType,
		PageCount: pageCount,
		Content:   content,
	}

	if BackgroundEligible(int64(len(content)), pageCount) {
		log.Info("Document routed to background processing", "pages", pageCount, "bytes", len(content))
		metrics.CountSubmissionOutcome("background")
		return Outcome{JobId: c.enqueue(ctx, doc, name, mediaType, storedPath, traceId), Background: true}, nil
	}

	return c.runWithDeadline(log, doc, traceId)
}

// BackgroundEligible reports whether a document skips the synchronous
// attempt entirely.
func BackgroundEligible(sizeBytes int64, pageCount int) bool {
	return pageCount > config.BackgroundPageThreshold || sizeBytes > config.BackgroundSizeThreshold
}

func (c *Controller) runWithDeadline(log *logger_i.Logger, doc docModel.Document, traceId string) (Outcome, error) {
	// The run gets its own context: the caller's wait can expire without
	// tearing down calls that are already paid for.
	runCtx := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	runCtx, cancel := context.WithTimeout(runCtx, config.AsyncRunTimeout)

	done := make(chan runOutcome, 1)
	go func() {
		defer cancel()
		result, stats, err := c.pipeline.Run(runCtx, doc, nil)
		done <- runOutcome{result: result, stats: stats, err: err}
	}()

	timer := time.NewTimer(c.syncDeadline)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			metrics.CountSubmissionOutcome("sync_failed")
			return Outcome{}, out.err
		}
		metrics.CountSubmissionOutcome("sync_ok")
		return Outcome{Result: out.result}, nil

	case <-timer.C:
		newJob := jobModel.Job{
			Id:          uuid.New().String(),
			TraceId:     traceId,
			DocumentId:  doc.Id,
			Status:      jobModel.JobStatusProcessing,
			CreatedTime: time.Now(),
			TotalPages:  doc.PageCount,
			ChunkCount:  chunkCountFor(doc.PageCount, config.ChunkSizePages),
		}
		saveCtx := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
		if err := c.jobs.JobStore.SaveJob(saveCtx, newJob); err != nil {
			log.Error("Failed to persist detached job", "error", err)
		}
		go c.finishDetached(saveCtx, newJob, done)

		log.Info("Synchronous deadline exceeded, run detached", "jobId", newJob.Id)
		metrics.CountSubmissionOutcome("sync_timeout")
		return Outcome{JobId: newJob.Id}, nil
	}
}

// finishDetached waits for the in-flight run and writes its outcome into the
// job. The caller is long gone; only the store hears about it.
func (c *Controller) finishDetached(ctx context.Context, detached jobModel.Job, done <-chan runOutcome) {
	out := <-done
	detached.EndTime = time.Now()
	detached.ElapsedMs = out.stats.Elapsed.Milliseconds()
	if out.stats.ChunkCount > 0 {
		detached.ChunkCount = out.stats.ChunkCount
	}

	if out.err != nil {
		detached.Status = jobModel.JobStatusFailed
		detached.Error = ToJobError(out.err)
	} else {
		detached.Status = jobModel.JobStatusCompleted
		detached.Result = out.result
	}
	if err := c.jobs.JobStore.SaveJob(ctx, detached); err != nil {
		c.logger.Error("Failed to save detached job outcome", "jobId", detached.Id, "error", err)
	}
}

// enqueue creates a pending job backed by the stored upload and hands it to
// the worker pool. The blocking send is deliberate back-pressure.
func (c *Controller) enqueue(ctx context.Context, doc docModel.Document, name, mediaType, storedPath, traceId string) string {
	newJob := jobModel.Job{
		Id:          uuid.New().String(),
		TraceId:     traceId,
		DocumentId:  doc.Id,
		Status:      jobModel.JobStatusPending,
		CreatedTime: time.Now(),
		TotalPages:  doc.PageCount,
		Payload: jobModel.JobPayload{
			DocumentName: name,
			DocumentPath: storedPath,
			MediaType:    mediaType,
		},
	}
	if err := c.jobs.JobStore.SaveJob(ctx, newJob); err != nil {
		c.logger.Error("Failed to persist pending job", "jobId", newJob.Id, "error", err)
	}

	metrics.IncrementJobsInQueue()
	c.jobs.JobChannel <- newJob

	// background document runs are heavy, so every one nudges the dispatcher
	atomic.AddInt64(&c.jobs.RequestCount, 1)
	c.jobs.DispatcherChannel <- true
	return newJob.Id
}

// ToJobError maps the pipeline failure taxonomy onto the job's user-facing
// error shape.
func ToJobError(err error) jobModel.JobError {
	var chunkErr *docModel.ChunkRecognitionError
	switch {
	case errors.Is(err, docModel.ErrDocumentCorrupt):
		return jobModel.JobError{Code: http.StatusBadRequest, Message: "The document could not be read. Please upload a valid PDF.", Retry: false}
	case errors.Is(err, docModel.ErrSizeExceeded):
		return jobModel.JobError{Code: http.StatusRequestEntityTooLarge, Message: "The document is too large. Please upload a smaller file.", Retry: false}
	case errors.Is(err, docModel.ErrPageCountExceeded):
		return jobModel.JobError{Code: http.StatusRequestEntityTooLarge, Message: "The document has too many pages. Please upload a shorter file.", Retry: false}
	case errors.Is(err, docModel.ErrBackendUnavailable):
		return jobModel.JobError{Code: http.StatusBadGateway, Message: "The recognition service is unreachable. Please try again later.", Retry: true}
	case errors.As(err, &chunkErr):
		return jobModel.JobError{Code: http.StatusBadGateway, Message: chunkErr.Error(), Retry: true}
	default:
		return jobModel.JobError{Code: http.StatusInternalServerError, Message: err.Error(), Retry: false}
	}
}
