// Package gateway implements the per-source HTTP Gateway shared by every
// scraper adapter: a token-bucket rate limiter and a counting-semaphore
// concurrency cap (kept as two distinct primitives, per design note —
// they address issuance rate and queue depth respectively and must not be
// collapsed into one), header rotation, block/CAPTCHA detection, retry
// with exponential backoff on transport errors, and a per-source circuit
// breaker.
//
// Grounded on scrapers/base.py's BaseScraper (AsyncLimiter + Semaphore
// pairing, the _get()/_fetch_with_retry() flow) and on
// evalaf/eval/runner.go's combination of a golang.org/x/time/rate.Limiter
// with a buffered-channel semaphore for parallel fan-out.
package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config mirrors config.py's SourceConfig: rate limit, concurrency, retry
// and timeout settings for one source.
type Config struct {
	Name              string
	Enabled           bool
	RequestsPerSecond float64
	MaxConcurrent     int
	MaxRetries        int
	Timeout           time.Duration
}

// BlockKind classifies a detected bot-defense response.
type BlockKind int

const (
	BlockNone BlockKind = iota
	BlockBlocked
	BlockRateLimited
	BlockCaptcha
)

// BlockedError is returned by Get when the upstream blocked the request.
type BlockedError struct {
	Kind BlockKind
}

func (e *BlockedError) Error() string {
	switch e.Kind {
	case BlockBlocked:
		return "blocked (403)"
	case BlockRateLimited:
		return "rate limited (429)"
	case BlockCaptcha:
		return "captcha detected"
	default:
		return "blocked"
	}
}

var captchaMarkers = []string{
	"captcha", "recaptcha", "hcaptcha", "cf-turnstile",
	"challenge-platform", "cf-chl-bypass", "just a moment...",
	"checking your browser", "access denied", "automated access",
}

// DetectCaptcha reports whether a response body contains any known
// bot-challenge marker. The marker list is preserved verbatim from
// utils.py's detect_captcha.
func DetectCaptcha(body string) bool {
	lower := strings.ToLower(body)
	for _, m := range captchaMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Edg/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
}

// BrowserHeaders returns realistic browser headers with a rotated
// User-Agent, for HTML-page requests.
func BrowserHeaders() http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("DNT", "1")
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade-Insecure-Requests", "1")
	return h
}

// APIHeaders returns headers appropriate for JSON-responding endpoints.
func APIHeaders() http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])
	h.Set("Accept", "application/json, text/plain, */*")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Connection", "keep-alive")
	return h
}

// Gateway is the per-source HTTP access point used by every scraper
// adapter. All sources share one *http.Client (per the spec's Open
// Question resolution: one shared client, per-source gateways on top).
type Gateway struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	sem     chan struct{}
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
}

// New builds a Gateway for one source against a shared *http.Client.
func New(cfg Config, client *http.Client, log *zap.Logger) *Gateway {
	st := gobreaker.Settings{
		Name:    cfg.Name,
		Timeout: 0, // gobreaker's 60s default: after it, one half-open probe call; its success closes the circuit
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 10
		},
	}
	return &Gateway{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		sem:     make(chan struct{}, cfg.MaxConcurrent),
		breaker: gobreaker.NewCircuitBreaker(st),
		log:     log,
	}
}

// IsCircuitOpen reports whether the per-source circuit breaker is open.
func (g *Gateway) IsCircuitOpen() bool {
	return g.breaker.State() == gobreaker.StateOpen
}

// Get issues a rate-limited, concurrency-bounded, retried GET request and
// classifies block/CAPTCHA responses. A *BlockedError or a transport
// error left after retries counts as a failure against the circuit
// breaker; any other response with a readable body, whatever its status
// code, counts as a success.
func (g *Gateway) Get(ctx context.Context, url string, headers http.Header, params map[string]string) (*http.Response, []byte, error) {
	select {
	case g.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	defer func() { <-g.sem }()

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	result, err := g.breaker.Execute(func() (any, error) {
		resp, body, err := g.fetchWithRetry(ctx, url, headers, params)
		if err != nil {
			return nil, err
		}
		switch resp.StatusCode {
		case http.StatusForbidden:
			return nil, &BlockedError{Kind: BlockBlocked}
		case http.StatusTooManyRequests:
			return nil, &BlockedError{Kind: BlockRateLimited}
		}
		if DetectCaptcha(string(body)) {
			return nil, &BlockedError{Kind: BlockCaptcha}
		}
		return &fetchResult{resp: resp, body: body}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	fr := result.(*fetchResult)
	return fr.resp, fr.body, nil
}

type fetchResult struct {
	resp *http.Response
	body []byte
}

// fetchWithRetry retries only on connect/timeout-class errors, with
// exponential backoff capped between 2s and 15s, up to cfg.MaxRetries
// attempts — never on a status-code failure (those are surfaced once and
// classified by the caller).
func (g *Gateway) fetchWithRetry(ctx context.Context, url string, headers http.Header, params map[string]string) (*http.Response, []byte, error) {
	req, err := buildRequest(ctx, url, headers, params)
	if err != nil {
		return nil, nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
		req = req.WithContext(reqCtx)

		resp, err := g.client.Do(req)
		cancel()
		if err == nil {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				lastErr = readErr
			} else {
				return resp, body, nil
			}
		} else if !isRetryable(err) {
			return nil, nil, err
		} else {
			lastErr = err
		}

		if attempt < g.cfg.MaxRetries {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			if backoff < 2*time.Second {
				backoff = 2 * time.Second
			}
			if backoff > 15*time.Second {
				backoff = 15 * time.Second
			}
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			}
		}
	}
	return nil, nil, fmt.Errorf("gateway %s: exhausted retries: %w", g.cfg.Name, lastErr)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return strings.Contains(err.Error(), "context deadline exceeded") ||
		strings.Contains(err.Error(), "EOF")
}

func buildRequest(ctx context.Context, url string, headers http.Header, params map[string]string) (*http.Request, error) {
	if len(params) > 0 {
		q := make([]string, 0, len(params))
		for k, v := range params {
			q = append(q, k+"="+v)
		}
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url = url + sep + strings.Join(q, "&")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, bytes.NewReader(nil))
	if err != nil {
		return nil, err
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}
