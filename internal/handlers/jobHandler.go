package handlers

import (
	"context"
	"sync"

	"github.com/aruiz/feinscan/internal/config"
	"github.com/aruiz/feinscan/internal/domain/jobModel"
	"github.com/aruiz/feinscan/internal/job"
	"github.com/aruiz/feinscan/internal/pipeline"
	"github.com/aruiz/feinscan/pkg/logger_i"
)

var (
	handlerInstance *DocumentJobHandler //private singleton
	once            sync.Once
	logJH           *logger_i.Logger
)

type DocumentJobHandler struct {
	service    *job.Service
	controller *pipeline.Controller
}

func InitHandlers(jobService *job.Service, controller *pipeline.Controller) {
	once.Do(func() {
		handlerInstance = &DocumentJobHandler{service: jobService, controller: controller}

		logJH = logger_i.NewLogger("JobHandler")
		logRH = logger_i.NewLogger("RequestHandler")
		logJH.Info("Starting document handlers")
	})
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.service.JobStore.GetJob(ctxC, id)
	}
	return result, false
}
