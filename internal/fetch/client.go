// Package fetch retrieves the documents of an inspected page.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/GriffinCanCode/FrameLens/backend/internal/frames"
	"github.com/GriffinCanCode/FrameLens/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/FrameLens/backend/internal/infrastructure/resilience"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	ErrInvalidURL = errors.New("invalid url")
	ErrServer     = errors.New("server error")
	ErrTooLarge   = errors.New("document too large")
)

// Config defines fetch behaviour
type Config struct {
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RateLimit is requests per second across all hosts; 0 means unlimited.
	RateLimit   float64
	UserAgent   string
	MaxBodySize int
}

// DefaultConfig returns the settings used by the server
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		RetryMax:     2,
		RetryWaitMin: 500 * time.Millisecond,
		RetryWaitMax: 5 * time.Second,
		RateLimit:    20,
		UserAgent:    "Mozilla/5.0 (FrameLens Inspector/1.0) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		MaxBodySize:  10 * 1024 * 1024,
	}
}

// Options modify a single fetch
type Options struct {
	// BypassCache asks every cache on the way to revalidate, the same as a
	// hard reload.
	BypassCache bool
	Referer     string
}

// Document is a fetched response
type Document struct {
	// URL is the final address after redirects.
	URL         string
	Status      int
	ContentType string
	Body        []byte
	Cookies     []*http.Cookie
	Duration    time.Duration
}

// Client fetches documents with retries, a global rate limit and one
// circuit breaker per origin.
type Client struct {
	resty    *resty.Client
	limiter  *rate.Limiter
	breakers *resilience.Group
	logger   *logging.Logger
	maxBody  int
}

// NewClient creates a client from cfg
func NewClient(cfg Config, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.Component("fetch")

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = retryLogger{logger.Sugar()}
	// once retries run out, hand back the last response so its status
	// decides the outcome in Fetch
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	// redirects are followed by the outer client so every hop passes
	// through the redirect policy
	retryClient.HTTPClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.9").
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10), resty.RedirectPolicyFunc(collectHopCookies))

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	breakers := resilience.NewGroup(resilience.Settings{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Origin breaker changed state",
				zap.String("origin", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		resty:    restyClient,
		limiter:  limiter,
		breakers: breakers,
		logger:   logger,
		maxBody:  cfg.MaxBodySize,
	}
}

// Fetch retrieves rawURL. HTTP error statuses below 500 are returned as a
// document; 5xx responses and transport failures are errors and count
// against the origin's breaker.
func (c *Client) Fetch(ctx context.Context, rawURL string, opts Options) (*Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	origin := frames.Origin(rawURL, "")
	breaker := c.breakers.Get(origin)
	if breaker.State() == resilience.StateOpen {
		return nil, fmt.Errorf("%s: %w", origin, resilience.ErrCircuitOpen)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	hops := &hopCookies{}
	req := c.request(context.WithValue(ctx, hopCookiesKey{}, hops), opts)
	resp, err := resilience.Do(breaker, func() (*resty.Response, error) {
		hops.reset()
		resp, err := req.Get(rawURL)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= 500 {
			return resp, fmt.Errorf("%w: HTTP %d", ErrServer, resp.StatusCode())
		}
		return resp, nil
	})
	if err != nil {
		c.logger.Debug("Fetch failed", logging.URL(rawURL), zap.Error(err))
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	if c.maxBody > 0 && len(resp.Body()) > c.maxBody {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, ErrTooLarge)
	}

	doc := &Document{
		URL:         rawURL,
		Status:      resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
		Body:        resp.Body(),
		Cookies:     append(hops.list(), resp.Cookies()...),
		Duration:    resp.Time(),
	}
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		doc.URL = raw.Request.URL.String()
	}

	c.logger.Debug("Fetched document",
		logging.URL(doc.URL),
		zap.Int("status", doc.Status),
		zap.Int("cookies", len(doc.Cookies)),
		zap.Duration("duration", doc.Duration),
	)
	return doc, nil
}

// hopCookies gathers the cookies set by redirect responses of one fetch.
type hopCookies struct {
	mu      sync.Mutex
	cookies []*http.Cookie
}

type hopCookiesKey struct{}

func (h *hopCookies) reset() {
	h.mu.Lock()
	h.cookies = nil
	h.mu.Unlock()
}

func (h *hopCookies) list() []*http.Cookie {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*http.Cookie(nil), h.cookies...)
}

// collectHopCookies records the cookies of the redirect response that led to
// req. Host-only cookies get the hop's host as their domain so they are
// not attributed to the final document's host.
func collectHopCookies(req *http.Request, _ []*http.Request) error {
	hops, ok := req.Context().Value(hopCookiesKey{}).(*hopCookies)
	if !ok || req.Response == nil {
		return nil
	}
	var host string
	if prev := req.Response.Request; prev != nil && prev.URL != nil {
		host = prev.URL.Hostname()
	}

	hops.mu.Lock()
	defer hops.mu.Unlock()
	for _, hc := range req.Response.Cookies() {
		if hc.Domain == "" {
			hc.Domain = host
		}
		hops.cookies = append(hops.cookies, hc)
	}
	return nil
}

func (c *Client) request(ctx context.Context, opts Options) *resty.Request {
	req := c.resty.R().SetContext(ctx)
	if opts.BypassCache {
		req.SetHeader("Cache-Control", "no-cache").SetHeader("Pragma", "no-cache")
	}
	if opts.Referer != "" {
		req.SetHeader("Referer", opts.Referer)
	}
	return req
}

// SetRateLimit changes the global request rate; rps <= 0 disables it.
func (c *Client) SetRateLimit(rps float64) {
	if rps <= 0 {
		c.limiter.SetLimit(rate.Inf)
		return
	}
	c.limiter.SetLimit(rate.Limit(rps))
	c.limiter.SetBurst(max(1, int(rps)))
}

// BreakerStates reports the breaker state per origin
func (c *Client) BreakerStates() map[string]string {
	states := c.breakers.States()
	out := make(map[string]string, len(states))
	for origin, s := range states {
		out[origin] = s.String()
	}
	return out
}

// retryLogger adapts zap to retryablehttp's leveled logger.
type retryLogger struct {
	s *zap.SugaredLogger
}

func (l retryLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l retryLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l retryLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l retryLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
