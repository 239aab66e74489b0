// internal/client/client.go
// Package client talks to a running specrag HTTP server. It satisfies the
// same Pipeline interface as the local service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/MereWhiplash/specrag/internal/api"
	"github.com/MereWhiplash/specrag/internal/apperr"
	"github.com/MereWhiplash/specrag/internal/index"
	"github.com/MereWhiplash/specrag/internal/service"
	"github.com/MereWhiplash/specrag/internal/specparse"
)

// Client is an HTTP client for the specrag API
type Client struct {
	baseURL string
	http    *http.Client
}

var _ service.Pipeline = (*Client)(nil)

// New creates a new API client. A zero timeout means no client-side limit,
// since a query waits on a full generation.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConnectivity, err, "cannot reach specrag server at %s", c.baseURL)
	}
	return resp, nil
}

// call sends body and decodes a response with the expected status into out.
func (c *Client) call(ctx context.Context, method, path string, body interface{}, want int, out interface{}) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError rebuilds a typed error from an ErrorResponse.
func decodeError(resp *http.Response) error {
	var errResp api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Error == "" {
		errResp.Error = resp.Status
	}

	kind := apperr.Kind(errResp.Kind)
	if kind == "" {
		kind = apperr.KindValidation
		if resp.StatusCode >= http.StatusInternalServerError {
			kind = apperr.KindConnectivity
		}
	}
	if kind == apperr.KindInsufficientInfo {
		return apperr.InsufficientInformation(missingFrom(errResp.Error))
	}
	return apperr.New(kind, "API error: %s", errResp.Error)
}

// missingFrom recovers the missing item from an insufficient-information
// message of the form "...: item".
func missingFrom(msg string) string {
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

// Health reports whether the server is up
func (c *Client) Health(ctx context.Context) error {
	var resp api.HealthResponse
	if err := c.call(ctx, http.MethodGet, "/health", nil, http.StatusOK, &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return apperr.New(apperr.KindConnectivity, "server unhealthy: %s", resp.Status)
	}
	return nil
}

// Ingest uploads the local spec file at path
func (c *Client) Ingest(ctx context.Context, path string, force bool) (*service.IngestReport, error) {
	format, err := specparse.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, apperr.New(apperr.KindSpecParsing, "spec file not found: %s", path)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindSpecParsing, err, "failed to read spec file %s", path)
	}

	req := api.IngestRequest{Spec: string(data), Format: string(format), Force: force}
	var report service.IngestReport
	if err := c.call(ctx, http.MethodPost, "/v1/ingest", req, http.StatusCreated, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Query runs a query on the server. Spec hydration and streaming need local
// access and are rejected.
func (c *Client) Query(ctx context.Context, opts service.QueryOptions) (*service.QueryResult, error) {
	if opts.SpecPath != "" {
		return nil, apperr.New(apperr.KindValidation, "spec hydration is not supported over HTTP")
	}
	if opts.OnFragment != nil {
		return nil, apperr.New(apperr.KindValidation, "streaming is not supported over HTTP")
	}

	req := api.QueryRequest{
		Query:    opts.Text,
		TopK:     opts.TopK,
		Filters:  opts.Filters,
		Validate: opts.Validate,
		Strict:   opts.Strict,
	}
	var result service.QueryResult
	if err := c.call(ctx, http.MethodPost, "/v1/query", req, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Info returns the server's collection info
func (c *Client) Info(ctx context.Context) (index.Info, error) {
	var info index.Info
	err := c.call(ctx, http.MethodGet, "/v1/collection", nil, http.StatusOK, &info)
	return info, err
}
