package stems

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	werrors "github.com/tessro/woodshed/internal/errors"
)

// Fetcher retrieves the raw bytes of a stem resource.
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// HTTPFetcher fetches http(s) resources.
type HTTPFetcher struct {
	client *resty.Client
}

// NewHTTPFetcher creates a fetcher. A zero timeout leaves deadlines to the
// caller's context.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	client := resty.New().
		SetRetryCount(2).
		SetRetryWaitTime(250 * time.Millisecond).
		SetHeader("User-Agent", "woodshed")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &HTTPFetcher{client: client}
}

// Fetch downloads source.
func (f *HTTPFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", werrors.ErrFetch, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %s returned %s", werrors.ErrFetch, source, resp.Status())
	}
	return resp.Body(), nil
}

// FileFetcher reads local files.
type FileFetcher struct{}

// Fetch reads source from disk. A file:// prefix is accepted.
func (FileFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(strings.TrimPrefix(source, "file://"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", werrors.ErrFetch, err)
	}
	return data, nil
}

// MultiFetcher dispatches on the source scheme.
type MultiFetcher struct {
	HTTP Fetcher
	File Fetcher
}

// NewFetcher returns a fetcher for both URLs and paths.
func NewFetcher(timeout time.Duration) *MultiFetcher {
	return &MultiFetcher{
		HTTP: NewHTTPFetcher(timeout),
		File: FileFetcher{},
	}
}

// Fetch implements Fetcher.
func (m *MultiFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	if IsURL(source) {
		return m.HTTP.Fetch(ctx, source)
	}
	return m.File.Fetch(ctx, source)
}

// IsURL reports whether source is an http(s) URL.
func IsURL(source string) bool {
	s := strings.ToLower(source)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
