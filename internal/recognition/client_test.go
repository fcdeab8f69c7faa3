package recognition

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aruiz/feinscan/internal/customHttpClient"
	"github.com/aruiz/feinscan/internal/domain/docModel"
	"github.com/aruiz/feinscan/pkg/logger_i"
)

func testClient(endpoint string) *Client {
	return &Client{
		endpoint:   endpoint,
		apiKey:     "test-key",
		httpClient: customHttpClient.NewPooledClient(),
		timeout:    2 * time.Second,
		logger:     logger_i.NewLogger("RecognitionTest"),
	}
}

func TestRecognize_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Content-Type") != "application/pdf" {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"text":"TIN: 2,95 %","entities":[{"type":"tin","mentionText":"2,95 %","confidence":0.9}]}`))
	}))
	defer srv.Close()

	resp, err := testClient(srv.URL).Recognize(context.Background(), []byte("pdf"), "application/pdf")
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success")
	}
	if len(resp.Entities) != 1 || resp.Entities[0].Type != "tin" {
		t.Errorf("entities = %+v", resp.Entities)
	}
	if resp.Text != "TIN: 2,95 %" {
		t.Errorf("text = %q", resp.Text)
	}
}

// a reachable backend that rejects the chunk is not a transport failure
func TestRecognize_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	resp, err := testClient(srv.URL).Recognize(context.Background(), []byte("pdf"), "application/pdf")
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}
	if resp.Success {
		t.Fatal("rejection reported as success")
	}
	if resp.Error == "" {
		t.Error("no error message for rejected chunk")
	}
}

func TestRecognize_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway error</html>"))
	}))
	defer srv.Close()

	resp, err := testClient(srv.URL).Recognize(context.Background(), []byte("pdf"), "application/pdf")
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}
	if resp.Success {
		t.Fatal("garbage reported as success")
	}
}

func TestRecognize_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() //nothing listening anymore

	_, err := testClient(srv.URL).Recognize(context.Background(), []byte("pdf"), "application/pdf")
	if !errors.Is(err, docModel.ErrBackendUnavailable) {
		t.Errorf("err = %v, want ErrBackendUnavailable", err)
	}
}

func TestRecognize_Timeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() { close(block); srv.Close() }()

	c := testClient(srv.URL)
	c.timeout = 50 * time.Millisecond

	_, err := c.Recognize(context.Background(), []byte("pdf"), "application/pdf")
	if !errors.Is(err, docModel.ErrBackendUnavailable) {
		t.Errorf("err = %v, want ErrBackendUnavailable", err)
	}
}

func TestGetRecognitionClient_Unconfigured(t *testing.T) {
	t.Setenv("RECOGNITION_URL", "")
	if c := GetRecognitionClient(); c != nil {
		t.Error("expected nil client without RECOGNITION_URL")
	}
}
