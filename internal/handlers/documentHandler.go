package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aruiz/feinscan/internal/adapter"
	"github.com/aruiz/feinscan/internal/adapter/utils"
	"github.com/aruiz/feinscan/internal/config"
	"github.com/aruiz/feinscan/pkg/logger_i"
)

var logRH *logger_i.Logger

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// PostDocumentHandler godoc
// @Summary      Submit a loan disclosure document
// @Description  Receives a PDF via multipart/form-data and extracts its financial fields. Fast documents complete synchronously; large or slow ones return a job ID to poll.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        document  formData  file  true  "The loan disclosure PDF"
// @Success      200  {object}  api.ExtractionResponse  "Synchronous extraction result"
// @Success      202  {object}  api.InitJobResponse     "Accepted for background processing"
// @Failure      400  {object}  api.JobResponse  "Unreadable document"
// @Failure      413  {object}  api.JobResponse  "Document too large or too long"
// @Failure      415  {object}  api.JobResponse  "Unsupported media type"
// @Failure      502  {object}  api.JobResponse  "Recognition service unreachable"
// @Router       /documents [post]
func PostDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("Invalid Context by request ", "remoteAddr", r.RemoteAddr)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSizeBytes+(1<<20))
	if err := r.ParseMultipartForm(config.MaxUploadSizeBytes); err != nil {
		WriteErrorResponse(w, http.StatusRequestEntityTooLarge, "", "File too large or bad request")
		return
	}

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	mediaType := fileMetadata.Header.Get("Content-Type")
	if mediaType == "" {
		mediaType = config.RecognitionMediaType
	}
	if mediaType != config.RecognitionMediaType {
		WriteErrorResponse(w, http.StatusUnsupportedMediaType, fileMetadata.Filename, "Only PDF documents are supported")
		return
	}

	content, err := io.ReadAll(fileReader)
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, fileMetadata.Filename, "Could not read file")
		return
	}

	// park the upload on disk; only background jobs keep it
	tempFilePath, errString := storeUpload(fileMetadata.Filename, content)
	if errString != "" {
		logRH.Error("Couldn't store upload", "err", errString)
		WriteErrorResponse(w, http.StatusInternalServerError, fileMetadata.Filename, errString)
		return
	}

	outcome, err := handlerInstance.controller.Submit(r.Context(), fileMetadata.Filename, mediaType, content, tempFilePath)
	if err != nil {
		removeUpload(tempFilePath)
		jobErr := pipelineErrorToResponse(err)
		WriteErrorResponse(w, jobErr.Code, fileMetadata.Filename, jobErr.Message)
		return
	}

	if outcome.Result != nil {
		removeUpload(tempFilePath)
		writeJsonResponse(w, http.StatusOK, adapter.ToExtractionResponse(outcome.Result))
		return
	}
	if !outcome.Background {
		//detached deadline run - the pipeline already holds the bytes
		removeUpload(tempFilePath)
	}
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(outcome.JobId))
}

// GetJobStatusHandler godoc
// @Summary      Get extraction job status
// @Description  Retrieves state and coarse progress for a job; the field set appears once completed, the error once failed. Unknown IDs are 404, distinct from failed jobs.
// @Tags         Jobs
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse  "The current status of the job"
// @Failure      404  {object}  api.JobResponse  "Job not found"
// @Router       /jobs/{id} [get]
func GetJobStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("Invalid Context by request ", "remoteAddr", r.RemoteAddr)
		return
	}

	idString := utils.GetChiURLParam(r, "id")
	result, isFound := validateId(idString, r.Context().Value(config.TRACE_ID_KEY).(string))

	logRH.Debug("Get Status Request:", "URL path", r.URL.Path)
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}

	writeJsonResponse(w, http.StatusOK, adapter.ToJobResponse(result))
}

func storeUpload(originalName string, content []byte) (string, string) {
	targetDir, errString := getTargetDirectory()
	if errString != "" {
		return "", errString
	}
	filename := fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(originalName))
	tempFilePath := filepath.Join(targetDir, filename)
	if err := os.WriteFile(tempFilePath, content, 0o600); err != nil {
		return "", "Storage error"
	}
	return tempFilePath, ""
}

func removeUpload(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil {
		logRH.Warn("Couldn't remove stored upload", "path", path, "err", err)
	}
}
