package ratelim

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
)

func TestLimitPerClient(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	h := rl.Limit(func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	})

	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/user", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h(rec, req, nil)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := call("10.0.0.1:5000"); code != http.StatusOK {
			t.Fatalf("request %d: got=%d", i, code)
		}
	}
	if code := call("10.0.0.1:5001"); code != http.StatusTooManyRequests {
		t.Fatalf("third request: want=%d got=%d", http.StatusTooManyRequests, code)
	}
	if code := call("10.0.0.2:5000"); code != http.StatusOK {
		t.Fatalf("other client: got=%d", code)
	}
}

func TestCleanupDropsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.limiterFor("a")

	now = now.Add(10 * time.Minute)
	rl.limiterFor("b")
	rl.Cleanup()

	if _, ok := rl.visitors["a"]; ok {
		t.Fatal("idle visitor a should be dropped")
	}
	if _, ok := rl.visitors["b"]; !ok {
		t.Fatal("active visitor b should remain")
	}
}

func TestForwardedForOnlyFromTrustedProxy(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	rl.TrustProxies("10.0.0.254")
	h := rl.Limit(func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	})

	call := func(peer, forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/user", nil)
		req.RemoteAddr = peer
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		h(rec, req, nil)
		return rec.Code
	}

	// A direct client rotating the header is still keyed by its address.
	if code := call("203.0.113.7:4000", "1.1.1.1"); code != http.StatusOK {
		t.Fatalf("first direct request: got=%d", code)
	}
	if code := call("203.0.113.7:4001", "2.2.2.2"); code != http.StatusTooManyRequests {
		t.Fatalf("rotated header: want=%d got=%d", http.StatusTooManyRequests, code)
	}

	// Behind the proxy, the rightmost untrusted hop identifies the client.
	if code := call("10.0.0.254:80", "9.9.9.9, 198.51.100.1"); code != http.StatusOK {
		t.Fatalf("proxied client: got=%d", code)
	}
	if code := call("10.0.0.254:80", "8.8.8.8, 198.51.100.1"); code != http.StatusTooManyRequests {
		t.Fatalf("spoofed leftmost hop: want=%d got=%d", http.StatusTooManyRequests, code)
	}
	if code := call("10.0.0.254:80", "198.51.100.2"); code != http.StatusOK {
		t.Fatalf("second proxied client: got=%d", code)
	}
}
