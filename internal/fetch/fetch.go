// Package fetch retrieves the raw HTML of wiki pages.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-scripts/pathcrawl/internal/types"
)

// DefaultBaseURL is the article root pages are resolved against
const DefaultBaseURL = "https://en.wikipedia.org/wiki/"

// DefaultUserAgent is sent with every request
const DefaultUserAgent = "pathcrawl/1.0 (+https://github.com/go-scripts/pathcrawl)"

// FetchError reports a failed page download
type FetchError struct {
	PageID     types.PageID
	StatusCode int // zero for transport failures
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.PageID, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.PageID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// PageURL joins the base URL and a page id
func PageURL(baseURL string, id types.PageID) string {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return baseURL + url.PathEscape(string(id))
}

// HTTPFetcher downloads pages with a plain HTTP client
type HTTPFetcher struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher. A zero timeout means requests never time out.
func NewHTTPFetcher(baseURL string, timeout time.Duration) *HTTPFetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPFetcher{
		BaseURL:   baseURL,
		UserAgent: DefaultUserAgent,
		Client:    &http.Client{Timeout: timeout},
	}
}

// Fetch downloads the page and returns its body
func (f *HTTPFetcher) Fetch(ctx context.Context, id types.PageID) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, PageURL(f.BaseURL, id), nil)
	if err != nil {
		return nil, &FetchError{PageID: id, Err: err}
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{PageID: id, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			PageID:     id,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", resp.Status),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{PageID: id, Err: fmt.Errorf("reading body: %w", err)}
	}
	return body, nil
}
