package board

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxImageBytes = 10 << 20

// ImageRef is a loaded external image that can be placed on the canvas
type ImageRef struct {
	URL         string `json:"url"`
	ContentType string `json:"contentType,omitempty"`
	Bytes       int    `json:"bytes"`
}

// ImageLoader fetches an image by URL
type ImageLoader interface {
	Load(ctx context.Context, url string) (ImageRef, error)
}

// HTTPImageLoader loads absolute image URLs over HTTP. Relative URLs (catalog
// assets served by the presentation layer) are accepted without fetching.
type HTTPImageLoader struct {
	client *http.Client
}

func NewHTTPImageLoader(timeout time.Duration) *HTTPImageLoader {
	return &HTTPImageLoader{client: &http.Client{Timeout: timeout}}
}

func (l *HTTPImageLoader) Load(ctx context.Context, url string) (ImageRef, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return ImageRef{URL: url}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ImageRef{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return ImageRef{}, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ImageRef{}, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return ImageRef{}, fmt.Errorf("fetch image: unexpected content type %q", contentType)
	}

	n, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return ImageRef{}, fmt.Errorf("read image: %w", err)
	}

	return ImageRef{URL: url, ContentType: contentType, Bytes: int(n)}, nil
}
