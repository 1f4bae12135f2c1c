package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.Header.Get("platform"))
		assert.Equal(t, "Token abc", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":200,"message":"ok"}`))
	}))
	defer srv.Close()

	client := NewClient(WithHeader("platform", "3"))

	var out struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	err := client.GetJSON(context.Background(), srv.URL, map[string]string{"Authorization": "Token abc"}, &out)
	require.NoError(t, err)
	require.Equal(t, 200, out.Code)
	require.Equal(t, "ok", out.Message)
}

func TestClient_GetJSON_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	var out map[string]any
	err := NewClient().GetJSON(context.Background(), srv.URL, nil, &out)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
}

func TestClient_StatusError(t *testing.T) {
	tests := []struct {
		code      int
		temporary bool
	}{
		{http.StatusNotFound, false},
		{http.StatusForbidden, false},
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
			}))
			defer srv.Close()

			_, _, err := NewClient().GetBytes(context.Background(), srv.URL, nil)

			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			require.Equal(t, tt.code, statusErr.Code)
			require.Equal(t, tt.temporary, statusErr.Temporary())
		})
	}
}

func TestClient_GetBytes_Progress(t *testing.T) {
	payload := make([]byte, 64*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/webp")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	var last int64
	data, contentType, err := NewClient().GetBytes(context.Background(), srv.URL, func(written, total int64) {
		last = written
	})
	require.NoError(t, err)
	require.Len(t, data, len(payload))
	require.Equal(t, "image/webp", contentType)
	require.Equal(t, int64(len(payload)), last)
}

func TestClient_GetBytes_SizeCap(t *testing.T) {
	payload := make([]byte, 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/chunked" {
			// Flushing before the body hides the length from the client.
			w.(http.Flusher).Flush()
		}
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	tests := []struct {
		name  string
		limit int64
		path  string
		ok    bool
	}{
		{name: "within cap", limit: 4096, path: "/", ok: true},
		{name: "declared length over cap", limit: 1024, path: "/"},
		{name: "streamed body over cap", limit: 1024, path: "/chunked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, _, err := NewClient(WithMaxBodySize(tt.limit)).GetBytes(context.Background(), srv.URL+tt.path, nil)
			if tt.ok {
				require.NoError(t, err)
				require.Len(t, data, len(payload))
				return
			}
			require.ErrorIs(t, err, ErrBodyTooLarge)
		})
	}
}
