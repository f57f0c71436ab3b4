package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxErrorBody caps how much of a failed response body is kept in errors.
const maxErrorBody = 2048

// ErrDecode is wrapped when a 2xx response body cannot be decoded.
var ErrDecode = errors.New("decode response")

// Client wraps HTTP operations used by the model backends.
//
// Client provides:
//   - Configured User-Agent header
//   - Optional timeout handling
//   - JSON request/response encoding
//   - Status errors that keep the response code for classification
//
// Example usage:
//
//	client := NewClient(0)
//
//	var out GenerateResponse
//	err := client.PostJSON(ctx, endpoint, map[string]string{"x-goog-api-key": key}, req, &out)
//	var se *StatusError
//	if errors.As(err, &se) && se.Code == 401 {
//	    // bad key
//	}
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a new HTTP client.
//
// A zero timeout means requests are never cut off by the client; callers
// can still bound them with a context deadline.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: "concert-scanner",
	}
}

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	// Code is the HTTP status code.
	Code int

	// Status is the status line, e.g. "401 Unauthorized".
	Status string

	// Body holds the start of the response body.
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d: %s", e.Code, e.Status)
	}
	return fmt.Sprintf("HTTP %d: %s: %s", e.Code, e.Status, e.Body)
}

// PostJSON marshals in as the request body, POSTs it to url with the given
// extra headers and decodes a 2xx JSON response into out.
//
// Returns an error if:
//   - The request cannot be built or sent
//   - The response status is not 2xx (as *StatusError)
//   - The body is not valid JSON for out
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Status: resp.Status, Body: string(bytes.TrimSpace(body))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}
