package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestDetectCaptcha(t *testing.T) {
	if !DetectCaptcha("<html>Please complete the CAPTCHA below</html>") {
		t.Error("expected a captcha marker to be detected")
	}
	if !DetectCaptcha("Checking your browser before accessing the site...") {
		t.Error("expected a cloudflare-style challenge marker to be detected")
	}
	if DetectCaptcha("<html><body>normal listing page</body></html>") {
		t.Error("expected ordinary content not to trigger a false positive")
	}
}

func newTestGateway(t *testing.T, maxRetries int) *Gateway {
	t.Helper()
	cfg := Config{
		Name:              "test",
		Enabled:           true,
		RequestsPerSecond: 1000,
		MaxConcurrent:     4,
		MaxRetries:        maxRetries,
		Timeout:           2 * time.Second,
	}
	return New(cfg, http.DefaultClient, zap.NewNop())
}

func TestGateway_Get_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	g := newTestGateway(t, 0)
	resp, body, err := g.Get(context.Background(), srv.URL, BrowserHeaders(), nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if string(body) != "<html>ok</html>" {
		t.Errorf("body = %q", string(body))
	}
}

func TestGateway_Get_BlockedReturnsBlockedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	g := newTestGateway(t, 0)
	_, _, err := g.Get(context.Background(), srv.URL, BrowserHeaders(), nil)
	if err == nil {
		t.Fatal("expected an error for a 403 response")
	}
	blockedErr, ok := err.(*BlockedError)
	if !ok {
		t.Fatalf("err = %T(%v), want *BlockedError", err, err)
	}
	if blockedErr.Kind != BlockBlocked {
		t.Errorf("Kind = %v, want BlockBlocked", blockedErr.Kind)
	}
}

func TestGateway_CircuitOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := newTestGateway(t, 0)
	for i := 0; i < 10; i++ {
		_, _, _ = g.Get(context.Background(), srv.URL, BrowserHeaders(), nil)
	}
	if !g.IsCircuitOpen() {
		t.Error("expected circuit breaker to open after 10 consecutive failures")
	}
}

func TestGateway_Get_ConcurrencyCapReleasesSlot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := Config{Name: "test", RequestsPerSecond: 1000, MaxConcurrent: 1, MaxRetries: 0, Timeout: time.Second}
	g := New(cfg, http.DefaultClient, zap.NewNop())

	for i := 0; i < 3; i++ {
		resp, _, err := g.Get(context.Background(), srv.URL, nil, nil)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}
