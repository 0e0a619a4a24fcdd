// Package collyfetcher implements the page fetcher using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/bookharvest/bookharvest/internal/crawler"
)

// Config controls collector behavior.
type Config struct {
	UserAgent   string
	Timeout     time.Duration
	Parallelism int           // max in-flight requests to the host
	Delay       time.Duration // politeness delay between requests
}

// Fetcher performs single-URL GETs via a cloned Colly collector, retrying
// transient failures per the configured policy.
type Fetcher struct {
	cfg           Config
	retry         *crawler.ExponentialRetryPolicy
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// New builds a Fetcher.
func New(cfg Config, retry *crawler.ExponentialRetryPolicy, logger *zap.Logger) (*Fetcher, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 8
	}
	if retry == nil {
		retry = crawler.NewExponentialRetryPolicy(0, 0, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	base := colly.NewCollector(colly.Async(false))
	base.AllowURLRevisit = true // the frontier owns dedup, not the collector
	base.IgnoreRobotsTxt = true
	if cfg.UserAgent != "" {
		base.UserAgent = cfg.UserAgent
	}
	base.SetRequestTimeout(cfg.Timeout)
	base.WithTransport(newHTTPTransport())
	if err := base.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.Parallelism,
		Delay:       cfg.Delay,
	}); err != nil {
		return nil, fmt.Errorf("set collector limits: %w", err)
	}

	return &Fetcher{
		cfg:           cfg,
		retry:         retry,
		baseCollector: base,
		logger:        logger,
	}, nil
}

// Fetch executes an HTTP GET, retrying timeouts, connection failures, and
// 429/5xx responses with backoff. On success the returned page carries the
// final resolved URL after redirects.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (crawler.Page, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return crawler.Page{}, fmt.Errorf("fetch canceled: %w", err)
		}
		page, err := f.fetchOnce(ctx, rawURL)
		if err == nil {
			crawler.PagesFetched.Inc()
			return page, nil
		}
		lastErr = err
		if !f.retry.ShouldRetry(err, attempt+1) {
			break
		}
		crawler.FetchRetries.Inc()
		backoff := f.retry.Backoff(attempt)
		f.logger.Debug("retrying fetch",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return crawler.Page{}, fmt.Errorf("fetch canceled: %w", ctx.Err())
		case <-timer.C:
		}
	}
	crawler.FetchErrors.Inc()
	return crawler.Page{}, lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (crawler.Page, error) {
	collector := f.baseCollector.Clone()

	var (
		page    crawler.Page
		got     bool
		status  int
		respErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		page = crawler.Page{
			URL:        rawURL,
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
		}
		got = true
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		respErr = err
	})

	done := make(chan error, 1)
	go func() {
		err := collector.Visit(rawURL)
		collector.Wait()
		done <- err
	}()

	select {
	case <-ctx.Done():
		return crawler.Page{}, &crawler.FetchError{
			URL: rawURL, Kind: crawler.FetchTimeout, Err: ctx.Err(),
		}
	case visitErr := <-done:
		if got {
			return page, nil
		}
		err := respErr
		if err == nil {
			err = visitErr
		}
		if err == nil {
			err = errors.New("collector produced no response")
		}
		return crawler.Page{}, classify(rawURL, status, err)
	}
}

// classify maps a transport-level error onto the fetch error taxonomy.
func classify(rawURL string, status int, err error) *crawler.FetchError {
	if status >= 400 {
		return &crawler.FetchError{
			URL: rawURL, Kind: crawler.FetchHTTPStatus, StatusCode: status, Err: err,
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &crawler.FetchError{URL: rawURL, Kind: crawler.FetchTimeout, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &crawler.FetchError{URL: rawURL, Kind: crawler.FetchTimeout, Err: err}
	}
	return &crawler.FetchError{URL: rawURL, Kind: crawler.FetchConnection, Err: err}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}
