package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"airbnb-pipeline/utils"
)

// LocalSource opens files on disk. Relative paths resolve against BaseDir
// when it is set.
type LocalSource struct {
	BaseDir string
}

func (l *LocalSource) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := ref
	if l.BaseDir != "" && !filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			path = filepath.Join(l.BaseDir, ref)
		}
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("local: open %q: %w", path, err)
	}
	return f, nil
}

// HTTPSource downloads over http(s). Server errors are retried; 4xx
// responses are not.
type HTTPSource struct {
	client *http.Client
	retry  *utils.RetryConfig
}

func NewHTTPSource(timeout time.Duration, retry *utils.RetryConfig) *HTTPSource {
	return &HTTPSource{client: &http.Client{Timeout: timeout}, retry: retry}
}

func (h *HTTPSource) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	var body io.ReadCloser
	err := h.retry.Do(ctx, "http-get", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		if err != nil {
			return fmt.Errorf("%w: %v", utils.ErrPermanent, err)
		}
		resp, err := h.client.Do(req)
		if err != nil {
			return err
		}
		switch {
		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return fmt.Errorf("%w: %w: %s", utils.ErrPermanent, ErrObjectNotFound, ref)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			resp.Body.Close()
			return fmt.Errorf("%w: GET %s: %s", utils.ErrPermanent, ref, resp.Status)
		case resp.StatusCode >= 300:
			resp.Body.Close()
			return fmt.Errorf("GET %s: %s", ref, resp.Status)
		}
		body = resp.Body
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	return body, nil
}
