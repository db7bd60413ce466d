package fetch

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/go-scripts/pathcrawl/internal/types"
)

// BrowserFetcher renders pages in headless Chrome and returns the resulting HTML.
// It is slower than HTTPFetcher but sees links inserted by scripts.
type BrowserFetcher struct {
	BaseURL       string
	WaitTime      time.Duration
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
}

// NewBrowserFetcher starts a browser shared by every fetch
func NewBrowserFetcher(baseURL, userAgent string) *BrowserFetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Headless,
		chromedp.UserAgent(userAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	return &BrowserFetcher{
		BaseURL:       baseURL,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
	}
}

// Close shuts the browser down
func (f *BrowserFetcher) Close() {
	f.browserCancel()
	f.allocCancel()
}

// Fetch opens the page in a new tab and returns the rendered document
func (f *BrowserFetcher) Fetch(ctx context.Context, id types.PageID) ([]byte, error) {
	tabCtx, cancel := chromedp.NewContext(f.browserCtx)
	defer cancel()

	// stop the tab when the caller gives up
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	tasks := []chromedp.Action{
		chromedp.Navigate(PageURL(f.BaseURL, id)),
		chromedp.WaitReady("body"),
	}
	if f.WaitTime > 0 {
		tasks = append(tasks, chromedp.Sleep(f.WaitTime))
	}

	var pageHTML string
	tasks = append(tasks, chromedp.OuterHTML("html", &pageHTML))

	if err := chromedp.Run(tabCtx, tasks...); err != nil {
		return nil, &FetchError{PageID: id, Err: err}
	}
	return []byte(pageHTML), nil
}
