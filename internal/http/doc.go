// Package http provides an HTTP client configured for comic API requests.
//
// The Client in this package handles:
//   - User-Agent and default headers (authorization, platform)
//   - JSON decoding of API envelopes
//   - In-memory image downloads with progress tracking
//   - Timeout handling
//
// Non-2xx responses surface as *StatusError, undecodable bodies as *DecodeError,
// so callers can tell transient failures from permanent ones.
//
// # Basic Usage
//
//	client := http.NewClient(http.WithHeader("platform", "3"))
//
//	var resp envelope
//	err := client.GetJSON(ctx, "https://api.example.com/api/v3/comic2/name", nil, &resp)
//
//	data, contentType, err := client.GetBytes(ctx, imageURL, nil)
//
// # Progress Tracking
//
// The ProgressWriter type can be used to wrap any io.Writer for progress tracking:
//
//	pw := &http.ProgressWriter{
//	    Writer:   &buf,
//	    Total:    contentLength,
//	    OnUpdate: func(written, total int64) { /* update UI */ },
//	}
package http
