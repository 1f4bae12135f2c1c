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

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Code   int
	Status string
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s (%s)", e.Code, e.Status, e.URL)
}

// Temporary reports whether retrying the request may succeed.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Client wraps HTTP operations with comic-API specific configuration.
//
// Client provides:
//   - Configured User-Agent and default headers on every request
//   - Timeout handling
//   - JSON decoding and raw byte downloads
//
// Example usage:
//
//	client := NewClient()
//
//	var resp apiResponse
//	err := client.GetJSON(ctx, "https://api.example.com/api/v3/comic2/name", nil, &resp)
//
//	data, contentType, err := client.GetBytes(ctx, imageURL, nil)
type Client struct {
	httpClient  *http.Client
	userAgent   string
	headers     map[string]string
	maxBodySize int64
}

// DefaultMaxBodySize caps the bodies read by GetBytes.
const DefaultMaxBodySize = 64 << 20

// ErrBodyTooLarge is returned by GetBytes when a body exceeds the size cap.
var ErrBodyTooLarge = errors.New("response body too large")

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

// WithMaxBodySize changes the cap on bodies read by GetBytes.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) { c.maxBodySize = n }
}

// NewClient creates a new HTTP client.
//
// The client is configured with:
//   - 60 second timeout
//   - A desktop browser User-Agent header
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36",
		headers:     make(map[string]string),
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProgressWriter wraps a writer to track download progress.
//
// Example:
//
//	pw := &ProgressWriter{
//	    Writer: &buf,
//	    Total:  contentLength,
//	    OnUpdate: func(written, total int64) {
//	        fmt.Printf("%d / %d bytes\n", written, total)
//	    },
//	}
//	io.Copy(pw, response.Body)
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header).
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

func (c *Client) do(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status, URL: url}
	}
	return resp, nil
}

// GetJSON performs a GET request and decodes the JSON body into v.
//
// Returns an error if:
//   - The request fails
//   - The response status is not 2xx (as *StatusError)
//   - The body is not valid JSON for v (wrapped *json.SyntaxError or similar)
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, v any) error {
	resp, err := c.do(ctx, url, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &DecodeError{URL: url, Err: err}
	}
	return nil
}

// DecodeError wraps a response body that could not be decoded.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode %s: %v", e.URL, e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// GetBytes downloads a resource into memory and returns it along with its
// Content-Type header.
//
// onProgress is optional and receives (bytesRead, contentLength) after
// every chunk. Bodies larger than the client's size cap fail with
// ErrBodyTooLarge.
//
// Example:
//
//	data, contentType, err := client.GetBytes(ctx, pageURL, nil)
func (c *Client) GetBytes(ctx context.Context, url string, onProgress func(written, total int64)) ([]byte, string, error) {
	resp, err := c.do(ctx, url, nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.ContentLength > c.maxBodySize {
		return nil, "", fmt.Errorf("%s: %d bytes: %w", url, resp.ContentLength, ErrBodyTooLarge)
	}

	var buf bytes.Buffer
	if resp.ContentLength > 0 {
		buf.Grow(int(resp.ContentLength))
	}
	var w io.Writer = &buf
	if onProgress != nil {
		w = &ProgressWriter{Writer: &buf, Total: resp.ContentLength, OnUpdate: onProgress}
	}
	if _, err := io.Copy(w, io.LimitReader(resp.Body, c.maxBodySize+1)); err != nil {
		return nil, "", err
	}
	if int64(buf.Len()) > c.maxBodySize {
		return nil, "", fmt.Errorf("%s: more than %d bytes: %w", url, c.maxBodySize, ErrBodyTooLarge)
	}
	return buf.Bytes(), resp.Header.Get("Content-Type"), nil
}
