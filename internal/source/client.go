package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/handiism/comic-downloader/internal/http"
	ioutils "github.com/handiism/comic-downloader/internal/io"
	"github.com/handiism/comic-downloader/internal/metrics"
	"github.com/handiism/comic-downloader/internal/model"
	"github.com/handiism/comic-downloader/internal/source/dto"
)

const (
	codeOK          = 200
	codeRiskControl = 210

	chapterPageSize = 100
)

// Client talks to the comic API.
//
// Example usage:
//
//	client := source.NewClient(http.NewClient(), "api.mangacopy.com", token)
//
//	comic, err := client.FetchComic(ctx, "dragonball")
//	pages, err := client.FetchChapterPages(ctx, comic.PathWord, chapterUUID)
//	data, format, err := client.FetchImage(ctx, pages[0].URL, nil)
type Client struct {
	http       *http.Client
	baseURL    string
	token      string
	libraryDir string
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLibrary makes FetchComic link comics already present under dir.
func WithLibrary(dir string) Option {
	return func(c *Client) { c.libraryDir = dir }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Client for domain. A domain without a scheme is
// reached over https.
func NewClient(httpClient *http.Client, domain, token string, opts ...Option) *Client {
	base := strings.TrimSuffix(domain, "/")
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	c := &Client{
		http:    httpClient,
		baseURL: base,
		token:   token,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) headers() map[string]string {
	h := map[string]string{"platform": "3"}
	if c.token != "" {
		h["Authorization"] = "Token " + c.token
	}
	return h
}

// getResults fetches path, unwraps the response envelope and decodes its
// results into v.
//
// Envelope code 210 becomes a *RiskControlError and any other non-200 code
// an *APIError. Bodies that do not decode and 4xx statuses other than 429
// are marked ErrPermanent; everything else is left for the caller to retry.
func (c *Client) getResults(ctx context.Context, op, path string, query url.Values, v any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	start := time.Now()
	var env dto.Envelope
	err := c.http.GetJSON(ctx, u, c.headers(), &env)
	metrics.UpstreamLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		return classify(err)
	}

	switch env.Code {
	case codeOK:
	case codeRiskControl:
		return &RiskControlError{Code: env.Code, Message: env.Message}
	default:
		return &APIError{Code: env.Code, Message: env.Message}
	}

	if err := json.Unmarshal(env.Results, v); err != nil {
		return fmt.Errorf("%w: decode %s results: %w", ErrPermanent, op, err)
	}
	return nil
}

func classify(err error) error {
	var decodeErr *http.DecodeError
	if errors.As(err, &decodeErr) {
		return fmt.Errorf("%w: %w", ErrPermanent, err)
	}
	var statusErr *http.StatusError
	if errors.As(err, &statusErr) && !statusErr.Temporary() {
		return fmt.Errorf("%w: %w", ErrPermanent, err)
	}
	if errors.Is(err, http.ErrBodyTooLarge) {
		return fmt.Errorf("%w: %w", ErrPermanent, err)
	}
	return err
}

// FetchComic returns the comic with every chapter of every group.
func (c *Client) FetchComic(ctx context.Context, pathWord string) (*model.Comic, error) {
	var resp dto.JSONComic
	if err := c.getResults(ctx, "comic", "/api/v3/comic2/"+url.PathEscape(pathWord), nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch comic %s: %w", pathWord, err)
	}

	chapters := make(map[string][]dto.JSONChapter, len(resp.Groups))
	for groupPathWord := range resp.Groups {
		list, err := c.fetchGroupChapters(ctx, pathWord, groupPathWord)
		if err != nil {
			return nil, err
		}
		chapters[groupPathWord] = list
	}

	comic := resp.ToComic(chapters)
	if c.libraryDir != "" {
		c.linkLibrary(comic)
	}
	return comic, nil
}

func (c *Client) fetchGroupChapters(ctx context.Context, pathWord, groupPathWord string) ([]dto.JSONChapter, error) {
	path := fmt.Sprintf("/api/v3/comic/%s/group/%s/chapters", url.PathEscape(pathWord), url.PathEscape(groupPathWord))

	var all []dto.JSONChapter
	for offset := 0; ; offset += chapterPageSize {
		query := url.Values{}
		query.Set("limit", fmt.Sprint(chapterPageSize))
		query.Set("offset", fmt.Sprint(offset))

		var page dto.JSONChapterList
		if err := c.getResults(ctx, "chapters", path, query, &page); err != nil {
			return nil, fmt.Errorf("fetch chapters of %s/%s at offset %d: %w", pathWord, groupPathWord, offset, err)
		}
		all = append(all, page.List...)
		if len(page.List) == 0 || len(all) >= page.Total {
			return all, nil
		}
	}
}

func (c *Client) linkLibrary(comic *model.Comic) {
	library, err := model.ScanLibrary(c.libraryDir)
	if err != nil {
		c.logger.Warn("failed to scan library", "dir", c.libraryDir, "err", err)
		return
	}
	dir, ok := library[comic.PathWord]
	if !ok {
		return
	}
	if err := comic.LinkDownloadDir(dir); err != nil {
		c.logger.Warn("failed to link downloaded comic", "comic", comic.Name, "dir", dir, "err", err)
	}
}

// FetchChapterPages returns the pages of a chapter in reading order.
func (c *Client) FetchChapterPages(ctx context.Context, comicPathWord, chapterUUID string) ([]model.Page, error) {
	path := fmt.Sprintf("/api/v3/comic/%s/chapter2/%s", url.PathEscape(comicPathWord), url.PathEscape(chapterUUID))

	var resp dto.JSONChapterPages
	if err := c.getResults(ctx, "chapter", path, nil, &resp); err != nil {
		return nil, err
	}
	pages, err := resp.ToPages()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPermanent, err)
	}
	return pages, nil
}

// FetchImage downloads an image and detects its format from the bytes,
// falling back to the Content-Type header. onBytes, when set, receives the
// size of every chunk as it arrives.
func (c *Client) FetchImage(ctx context.Context, imageURL string, onBytes func(n int)) ([]byte, ioutils.ImageFormat, error) {
	var onProgress func(written, total int64)
	if onBytes != nil {
		var last int64
		onProgress = func(written, _ int64) {
			onBytes(int(written - last))
			last = written
		}
	}

	start := time.Now()
	data, contentType, err := c.http.GetBytes(ctx, imageURL, onProgress)
	metrics.UpstreamLatency.WithLabelValues("image").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, ioutils.FormatUnknown, classify(err)
	}

	format := ioutils.DetectFormat(data)
	if format == ioutils.FormatUnknown {
		mediaType, _, _ := strings.Cut(contentType, ";")
		format = ioutils.ParseImageFormat(strings.TrimPrefix(strings.TrimSpace(mediaType), "image/"))
	}
	return data, format, nil
}
