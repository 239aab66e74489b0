package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/MereWhiplash/specrag/internal/api"
	"github.com/MereWhiplash/specrag/internal/apperr"
	"github.com/MereWhiplash/specrag/internal/client"
	"github.com/MereWhiplash/specrag/internal/index"
	"github.com/MereWhiplash/specrag/internal/service"
	"github.com/MereWhiplash/specrag/internal/types"
)

func writeSpec(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write spec: %v", err)
	}
	return path
}

func TestClient_Ingest_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/ingest" {
			t.Errorf("expected /v1/ingest, got %s", r.URL.Path)
		}

		var req api.IngestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Format != "json" || !req.Force || req.Spec != `{"openapi":"3.0.0"}` {
			t.Errorf("unexpected request: %+v", req)
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(service.IngestReport{Title: "Shop API", Chunks: 3})
	}))
	defer server.Close()

	c := client.New(server.URL+"/", 0)
	report, err := c.Ingest(context.Background(), writeSpec(t, "spec.json", `{"openapi":"3.0.0"}`), true)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if report.Title != "Shop API" || report.Chunks != 3 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestClient_Ingest_LocalErrors(t *testing.T) {
	c := client.New("http://127.0.0.1:1", 0)

	_, err := c.Ingest(context.Background(), "spec.txt", false)
	if !errors.Is(err, apperr.ErrSpecParsing) {
		t.Errorf("expected spec parsing error for bad extension, got %v", err)
	}

	_, err = c.Ingest(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), false)
	if !errors.Is(err, apperr.ErrSpecParsing) {
		t.Errorf("expected spec parsing error for missing file, got %v", err)
	}
}

func TestClient_Query_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/query" {
			t.Errorf("expected /v1/query, got %s", r.URL.Path)
		}

		var req api.QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Query != "approve a payment" || req.TopK != 3 || !req.Validate {
			t.Errorf("unexpected request: %+v", req)
		}
		if req.Filters["method"] != "POST" {
			t.Errorf("expected method filter, got %v", req.Filters)
		}

		json.NewEncoder(w).Encode(service.QueryResult{
			Generation: types.GenerationResponse{Curl: types.CurlCommand{Command: "curl -X POST https://x"}},
		})
	}))
	defer server.Close()

	c := client.New(server.URL, 0)
	result, err := c.Query(context.Background(), service.QueryOptions{
		Text:     "approve a payment",
		TopK:     3,
		Filters:  types.Filters{"method": "POST"},
		Validate: true,
	})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if result.Generation.Curl.Command != "curl -X POST https://x" {
		t.Errorf("unexpected command: %q", result.Generation.Curl.Command)
	}
}

func TestClient_Query_LocalOnlyOptions(t *testing.T) {
	c := client.New("http://127.0.0.1:1", 0)

	_, err := c.Query(context.Background(), service.QueryOptions{Text: "q", SpecPath: "spec.yaml"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for spec path, got %v", err)
	}

	_, err = c.Query(context.Background(), service.QueryOptions{Text: "q", OnFragment: func(string) error { return nil }})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for streaming, got %v", err)
	}
}

func TestClient_ErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   api.ErrorResponse
		want   error
	}{
		{"retrieval", http.StatusBadRequest, api.ErrorResponse{Error: "top_k must be between 1 and 20, got 50", Kind: "retrieval"}, apperr.ErrRetrieval},
		{"insufficient", http.StatusUnprocessableEntity, api.ErrorResponse{Error: "insufficient information: refunds", Kind: "insufficient_information"}, apperr.ErrInsufficientInfo},
		{"no kind 400", http.StatusBadRequest, api.ErrorResponse{Error: "query is required"}, apperr.ErrValidation},
		{"no kind 502", http.StatusBadGateway, api.ErrorResponse{}, apperr.ErrConnectivity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(tt.body)
			}))
			defer server.Close()

			_, err := client.New(server.URL, 0).Query(context.Background(), service.QueryOptions{Text: "q"})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestClient_InsufficientInformation_KeepsItem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(api.ErrorResponse{Error: "insufficient information: refund endpoint", Kind: "insufficient_information"})
	}))
	defer server.Close()

	_, err := client.New(server.URL, 0).Query(context.Background(), service.QueryOptions{Text: "q"})
	if err == nil || err.Error() != "insufficient information: refund endpoint" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestClient_Info(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" || r.URL.Path != "/v1/collection" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(index.Info{Name: "api_spec_endpoints", Count: 7})
	}))
	defer server.Close()

	info, err := client.New(server.URL, 0).Info(context.Background())
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.Name != "api_spec_endpoints" || info.Count != 7 {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestClient_Health(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.HealthResponse{Status: "ok"})
	}))
	defer server.Close()

	if err := client.New(server.URL, 0).Health(context.Background()); err != nil {
		t.Errorf("Health failed: %v", err)
	}
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	err := client.New(url, 0).Health(context.Background())
	if !errors.Is(err, apperr.ErrConnectivity) {
		t.Errorf("expected connectivity error, got %v", err)
	}
}
