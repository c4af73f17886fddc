// Package bbref fetches player tables from basketball-reference.com.
package bbref

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/fortuna/vesta/internal/logging"
	"github.com/fortuna/vesta/internal/metrics"
)

const (
	// UserAgent for requests
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// MinRequestInterval to stay under the site's rate limit
	MinRequestInterval = 2 * time.Second
)

var (
	// ErrUpstream wraps transport failures, unexpected statuses and render errors.
	ErrUpstream = errors.New("bbref: upstream fetch failed")
	// ErrNotFound is a 404 page or a table that never appeared.
	ErrNotFound = errors.New("bbref: not found")
	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = errors.New("bbref: circuit open")
)

// ClientConfig holds the upstream settings of a Client.
type ClientConfig struct {
	BaseURL            string
	RequestTimeout     time.Duration
	MinRequestInterval time.Duration
	RenderTimeout      time.Duration
	Headless           bool
	BreakerMaxFailures int
	BreakerTimeout     time.Duration
}

// DefaultClientConfig mirrors the config package defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:            "https://www.basketball-reference.com",
		RequestTimeout:     30 * time.Second,
		MinRequestInterval: MinRequestInterval,
		RenderTimeout:      30 * time.Second,
		Headless:           true,
		BreakerMaxFailures: 5,
		BreakerTimeout:     60 * time.Second,
	}
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger logrus.FieldLogger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.Component(logger, "bbref")
		}
	}
}

// WithMetrics records fetch counts and latency.
func WithMetrics(m *metrics.Manager) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// Client fetches pages with pacing and a circuit breaker. Static pages go
// through resty; tables that the site fills in with script go through a
// headless browser.
type Client struct {
	cfg     ClientConfig
	http    *resty.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Manager
	logger  *logrus.Entry

	// Chromedp allocator for headless renders
	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewClient creates a basketball-reference client.
func NewClient(cfg ClientConfig, opts ...ClientOption) *Client {
	c := &Client{
		cfg:    cfg,
		logger: logging.Component(logging.Discard(), "bbref"),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.http = resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.RequestTimeout).
		SetHeader("User-Agent", UserAgent).
		SetHeader("Accept", "text/html")

	limit := rate.Inf
	if cfg.MinRequestInterval > 0 {
		limit = rate.Every(cfg.MinRequestInterval)
	}
	c.limiter = rate.NewLimiter(limit, 1)

	maxFailures := uint32(max(cfg.BreakerMaxFailures, 1))
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "basketball-reference",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// A missing page is an answer, not an outage. Caller cancellation
		// says nothing about the site either.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.WithFields(logrus.Fields{
				"breaker":    name,
				"from_state": from.String(),
				"to_state":   to.String(),
			}).Warn("circuit breaker state changed")
			c.metrics.SetBreakerState(int(to))
		},
	})

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(UserAgent),
	)
	c.allocCtx, c.cancel = chromedp.NewExecAllocator(context.Background(), allocOpts...)

	return c
}

// Close releases the browser allocator.
func (c *Client) Close() {
	if c.cancel != nil {
		c.cancel()
	}
}

// Get fetches a page body by path, e.g. "/players/j/jamesle01.html".
func (c *Client) Get(ctx context.Context, path string) (string, error) {
	start := time.Now()
	body, err := c.guard(ctx, func() (string, error) { return c.get(ctx, path) })
	c.metrics.RecordUpstreamFetch(metrics.ModeStatic, fetchResult(err), time.Since(start))
	return body, err
}

// Render loads path in a headless browser, waits for table#tableID and
// returns the table's outer HTML. A table that never shows up within the
// render timeout is reported as ErrNotFound.
func (c *Client) Render(ctx context.Context, path, tableID string) (string, error) {
	start := time.Now()
	html, err := c.guard(ctx, func() (string, error) { return c.render(ctx, path, tableID) })
	c.metrics.RecordUpstreamFetch(metrics.ModeRender, fetchResult(err), time.Since(start))
	return html, err
}

// fetchResult labels a fetch outcome the same way the breaker judges it.
func fetchResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, ErrNotFound):
		return metrics.ResultNotFound
	default:
		return metrics.ResultError
	}
}

func (c *Client) guard(ctx context.Context, fn func() (string, error)) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for request slot: %w", err)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (c *Client) get(ctx context.Context, path string) (string, error) {
	resp, err := c.http.R().SetContext(ctx).Get(path)
	if err != nil {
		return "", fmt.Errorf("%w: GET %s: %v", ErrUpstream, path, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		c.logger.WithFields(logrus.Fields{"path": path, "bytes": len(resp.Body())}).Debug("fetched page")
		return resp.String(), nil
	case http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	default:
		return "", fmt.Errorf("%w: GET %s: status %d", ErrUpstream, path, resp.StatusCode())
	}
}

func (c *Client) render(ctx context.Context, path, tableID string) (string, error) {
	browserCtx, cancel := chromedp.NewContext(c.allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, c.cfg.RenderTimeout)
	defer cancel()

	// The browser context hangs off the allocator, so carry the caller's
	// cancellation over by hand.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	selector := fmt.Sprintf(`//table[@id=%q]`, tableID)
	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(c.cfg.BaseURL+path),
		chromedp.WaitVisible(selector, chromedp.BySearch),
		chromedp.OuterHTML(selector, &html, chromedp.BySearch),
	)

	switch {
	case err == nil:
	case ctx.Err() != nil:
		return "", ctx.Err()
	case errors.Is(browserCtx.Err(), context.DeadlineExceeded):
		c.logger.WithFields(logrus.Fields{"path": path, "table": tableID}).Debug("table did not render")
		return "", fmt.Errorf("%w: table %s on %s", ErrNotFound, tableID, path)
	default:
		return "", fmt.Errorf("%w: render %s: %v", ErrUpstream, path, err)
	}

	if html == "" {
		return "", fmt.Errorf("%w: empty render of %s", ErrUpstream, path)
	}
	return html, nil
}
