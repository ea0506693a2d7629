package capture

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Default capture parameters. The width keeps the page above the breakpoint
// where the grid gives way to the list.
const (
	DefaultWidth    = 1280
	DefaultHeight   = 900
	DefaultTimeout  = 30 * time.Second
	DefaultSelector = "#week-grid"
)

// Errors
var (
	ErrMissingBaseURL = errors.New("capture: base URL is required")
	ErrMissingOutput  = errors.New("capture: output path is required")
	ErrInvalidWeek    = errors.New("capture: week must be YYYY-MM-DD")
)

// Options defines one week grid snapshot.
type Options struct {
	// BaseURL is the server root, e.g. "http://127.0.0.1:8080".
	BaseURL string
	// Week is any date inside the week to capture; empty means the current week.
	Week string
	// Token is sent as a bearer token when the server has no dev identity.
	Token string

	OutputPath string
	Width      int
	Height     int
	Timeout    time.Duration
}

func (o *Options) normalize() error {
	if strings.TrimSpace(o.BaseURL) == "" {
		return ErrMissingBaseURL
	}
	if strings.TrimSpace(o.OutputPath) == "" {
		return ErrMissingOutput
	}
	if o.Week != "" {
		if _, err := time.Parse("2006-01-02", o.Week); err != nil {
			return ErrInvalidWeek
		}
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return nil
}

// CalendarURL returns the grid view URL for week under baseURL.
func CalendarURL(baseURL, week string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("capture: base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("capture: base URL must be http(s), got %q", baseURL)
	}
	u.Path += "/calendar"
	q := url.Values{}
	q.Set("view", "grid")
	if week != "" {
		q.Set("week", week)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// WeekGridPNG opens the calendar page in headless Chromium, waits for the
// week grid and writes a PNG of the grid element to opts.OutputPath.
// PRE: a trainerdesk server is reachable at opts.BaseURL
// POST: the PNG is written, or an error says which step failed
func WeekGridPNG(parentCtx context.Context, opts Options) error {
	if err := opts.normalize(); err != nil {
		return err
	}
	target, err := CalendarURL(opts.BaseURL, opts.Week)
	if err != nil {
		return err
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
	}
	if opts.Token != "" {
		tasks = append(tasks,
			network.Enable(),
			network.SetExtraHTTPHeaders(network.Headers{"Authorization": "Bearer " + opts.Token}),
		)
	}
	tasks = append(tasks,
		chromedp.Navigate(target),
		chromedp.WaitVisible(DefaultSelector, chromedp.ByQuery),
		// Let the inline script set the scroll offset and now line.
		chromedp.Sleep(300*time.Millisecond),
		chromedp.Screenshot(DefaultSelector, &png, chromedp.NodeVisible, chromedp.ByQuery),
	)

	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}
	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}
	return nil
}
