package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/aruiz/feinscan/internal/config"
	"github.com/aruiz/feinscan/internal/customHttpClient"
	"github.com/aruiz/feinscan/internal/domain/docModel"
	"github.com/aruiz/feinscan/pkg/logger_i"
)

// Response is the backend's wire contract for one chunk. Anything that is
// not a 2xx with valid JSON is treated as Success=false by the client.
type Response struct {
	Success  bool              `json:"success"`
	Entities []docModel.Entity `json:"entities,omitempty"`
	Text     string            `json:"text,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// Recognizer sends one chunk's bytes to the recognition backend. A non-nil
// error means the service itself could not be reached or answered garbage;
// a Success=false Response means the backend processed and rejected the
// chunk. Implementations never retry - that policy belongs to the caller.
type Recognizer interface {
	Recognize(ctx context.Context, content []byte, mediaType string) (Response, error)
}

type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	timeout    time.Duration
	logger     *logger_i.Logger
}

// GetRecognitionClient builds the HTTP recognizer from RECOGNITION_URL and
// optional RECOGNITION_API_KEY. Returns nil when unconfigured so main can
// refuse to start, same as the other external services.
func GetRecognitionClient() *Client {
	log := logger_i.NewLogger("Recognition")
	endpoint := os.Getenv("RECOGNITION_URL")
	if endpoint == "" {
		log.Error("RECOGNITION_URL is not set")
		return nil
	}
	return &Client{
		endpoint:   endpoint,
		apiKey:     os.Getenv("RECOGNITION_API_KEY"),
		httpClient: customHttpClient.NewPooledClient(),
		timeout:    config.RecognitionCallTimeout,
		logger:     log,
	}
}

func (c *Client) Recognize(ctx context.Context, content []byte, mediaType string) (Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.endpoint, bytes.NewReader(content))
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", docModel.ErrBackendUnavailable, err)
	}
	req.Header.Set("Content-Type", mediaType)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Recognition call failed", "error", err)
		return Response{}, fmt.Errorf("%w: %v", docModel.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("Recognition call finished", "status", resp.StatusCode, "elapsed", time.Since(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", docModel.ErrBackendUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("Recognition backend rejected chunk", "status", resp.StatusCode)
		return Response{Success: false, Error: fmt.Sprintf("backend returned status %d", resp.StatusCode)}, nil
	}

	var parsed Response
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.logger.Warn("Recognition backend returned malformed JSON", "error", err)
		return Response{Success: false, Error: "malformed backend response"}, nil
	}
	return parsed, nil
}
