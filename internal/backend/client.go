package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/salesdeck/insight-console/internal/kind"
	"github.com/salesdeck/insight-console/internal/tracker"
	"github.com/salesdeck/insight-console/pkg/requestid"
	"go.uber.org/zap"
)

var _ tracker.Backend = (*Client)(nil)

var (
	ErrEmptyResponse  = errors.New("empty response")
	ErrUnexpectedBody = errors.New("unexpected response body")
)

// StatusError is returned for any non 2xx answer of the backend.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s failed: %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Method, e.Path, http.StatusText(e.StatusCode))
}

// Client talks to the generation backend for a single job kind.
type Client struct {
	server     string
	kind       kind.Kind
	httpClient *http.Client
}

func NewClient(server string, k kind.Kind, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		server:     strings.TrimRight(server, "/"),
		kind:       k,
		httpClient: httpClient,
	}
}

type submitResponse struct {
	Accepted   *bool  `json:"accepted,omitempty"`
	QueueToken string `json:"queue_token,omitempty"`
}

// SubmitJob posts the payload. Any 2xx answer is an acknowledgement unless
// the body explicitly says otherwise.
func (c *Client) SubmitJob(ctx context.Context, payload kind.Payload) (tracker.Ack, error) {
	raw, err := c.do(ctx, http.MethodPost, c.kind.SubmitPath, payload)
	if err != nil {
		return tracker.Ack{}, err
	}

	ack := tracker.Ack{Accepted: true}
	if len(bytes.TrimSpace(raw)) == 0 {
		return ack, nil
	}

	var resp submitResponse
	// the body of an acknowledgement is free form; only a json object is inspected
	if err := json.Unmarshal(raw, &resp); err != nil {
		return ack, nil
	}
	if resp.Accepted != nil {
		ack.Accepted = *resp.Accepted
	}
	ack.QueueToken = resp.QueueToken
	return ack, nil
}

// ListResults fetches the whole result collection of the kind.
func (c *Client) ListResults(ctx context.Context) ([]tracker.Result, error) {
	raw, err := c.do(ctx, http.MethodGet, c.kind.ListPath, nil)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.Wrapf(ErrEmptyResponse, "list %s results", c.kind.Name)
	}

	var envelope map[string]json.RawMessage
	if err := decode(raw, &envelope); err != nil {
		return nil, errors.Wrapf(ErrUnexpectedBody, "list %s results: %v", c.kind.Name, err)
	}
	items, ok := envelope[c.kind.ListKey]
	if !ok {
		return nil, errors.Wrapf(ErrUnexpectedBody, "list %s results: missing %q", c.kind.Name, c.kind.ListKey)
	}

	var records []map[string]any
	if err := decode(items, &records); err != nil {
		return nil, errors.Wrapf(ErrUnexpectedBody, "list %s results: %v", c.kind.Name, err)
	}

	results := make([]tracker.Result, 0, len(records))
	for _, record := range records {
		r, err := toResult(c.kind, record)
		if err != nil {
			zap.S().Named("backend").Warnw("skipping malformed result", "kind", c.kind.Name, "error", err)
			continue
		}
		results = append(results, r)
	}
	return results, nil
}

func (c *Client) DeleteResult(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, c.kind.DeleteURLPath(id), nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(bs)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.server+path, reader)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(middleware.RequestIDHeader, requestid.FromContextOrNew(ctx))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.S().Named("backend").Debugw("failed to close response body", "error", err)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s: read body", method, path)
	}

	zap.S().Named("backend").Debugw("backend call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed", time.Since(start))

	if resp.StatusCode/100 != 2 {
		return nil, &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}
	return raw, nil
}

// errorMessage extracts the message of an error body, if any.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Detail  any    `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	if s, ok := body.Detail.(string); ok {
		return s
	}
	return ""
}

func decode(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}
