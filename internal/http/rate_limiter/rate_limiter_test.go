package rate_limiter

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rogerio-castellano/enterprise-bi/internal/http/ban"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func request(h http.Handler, remote string) int {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/metrics/departments", nil)
	req.RemoteAddr = remote
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Code
}

func TestMiddleware_LimitsPerClient(t *testing.T) {
	l := New(0.001, 2, nil)
	h := l.Middleware(okHandler())

	for i := range 2 {
		if code := request(h, "10.0.0.1:5000"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, code)
		}
	}
	if code := request(h, "10.0.0.1:5001"); code != http.StatusTooManyRequests {
		t.Errorf("expected 429 once the burst is spent, got %d", code)
	}
	if code := request(h, "10.0.0.2:5000"); code != http.StatusOK {
		t.Errorf("another client should not be limited, got %d", code)
	}
}

func TestMiddleware_BansRepeatOffenders(t *testing.T) {
	store := ban.NewMemoryStore(ban.Policy{MaxStrikes: 2, BanTTL: time.Hour, StrikeWindow: time.Hour})
	l := New(0.001, 1, store)
	h := l.Middleware(okHandler())

	codes := []int{
		request(h, "10.0.0.9:1"),
		request(h, "10.0.0.9:1"),
		request(h, "10.0.0.9:1"),
		request(h, "10.0.0.9:1"),
	}
	want := []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusForbidden}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d: expected %d, got %d", i, want[i], codes[i])
		}
	}
}

func TestCleanupVisitors(t *testing.T) {
	l := New(1, 1, nil)
	l.GetVisitor("a")
	l.GetVisitor("b")

	l.CleanupVisitors(time.Hour)
	if n := l.VisitorCount(); n != 2 {
		t.Errorf("recent visitors must be kept, got %d", n)
	}

	l.CleanupVisitors(-time.Second)
	if n := l.VisitorCount(); n != 0 {
		t.Errorf("expected idle visitors removed, got %d", n)
	}

	l.GetVisitor("c")
	l.CleanupAllVisitors()
	if n := l.VisitorCount(); n != 0 {
		t.Errorf("expected no visitors, got %d", n)
	}
}
