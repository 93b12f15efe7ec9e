package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *time.Time) {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	t.Cleanup(rl.Stop)

	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }
	return rl, &clock
}

func TestAllowWithinWindow(t *testing.T) {
	rl, clock := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d rejected", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("fourth request allowed")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatal("other client rejected")
	}

	*clock = clock.Add(time.Minute)
	if !rl.Allow("10.0.0.1") {
		t.Fatal("request after window rejected")
	}

	m := rl.GetMetrics()
	if m.Rejected != 1 {
		t.Errorf("Rejected = %d, want 1", m.Rejected)
	}
	if m.ClientCount != 2 {
		t.Errorf("ClientCount = %d, want 2", m.ClientCount)
	}
}

func TestSteadyTrafficDoesNotExtendWindow(t *testing.T) {
	rl, clock := newTestLimiter(t, 2)

	rl.Allow("a")
	*clock = clock.Add(30 * time.Second)
	rl.Allow("a")
	*clock = clock.Add(31 * time.Second)
	if !rl.Allow("a") {
		t.Fatal("window did not reset after a minute from its start")
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, clock := newTestLimiter(t, 5)
	rl.Allow("old")
	*clock = clock.Add(11 * time.Minute)
	rl.Allow("new")

	rl.cleanupStaleEntries()
	if got := rl.ActiveClients(); got != 1 {
		t.Fatalf("ActiveClients = %d, want 1", got)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(Config{})
	rl.Stop()
	rl.Stop()
	if rl.requestsPerMinute != 60 {
		t.Errorf("default limit = %d", rl.requestsPerMinute)
	}
}

func TestMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	byRemote := func(r *http.Request) string { return r.RemoteAddr }

	tests := []struct {
		name    string
		onLimit func(http.ResponseWriter, *http.Request)
		want    int
	}{
		{name: "default response", want: http.StatusTooManyRequests},
		{
			name: "custom response",
			onLimit: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			want: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := rl.Middleware(byRemote, tt.onLimit)(ok)
			req := httptest.NewRequest(http.MethodPost, "/transaction", nil)
			req.RemoteAddr = tt.name

			first := httptest.NewRecorder()
			h.ServeHTTP(first, req)
			if first.Code != http.StatusNoContent {
				t.Fatalf("first status = %d", first.Code)
			}

			second := httptest.NewRecorder()
			h.ServeHTTP(second, req)
			if second.Code != tt.want {
				t.Fatalf("second status = %d, want %d", second.Code, tt.want)
			}
			if second.Header().Get("Retry-After") != "60" {
				t.Errorf("Retry-After = %q", second.Header().Get("Retry-After"))
			}
		})
	}
}

func TestMutatingOnly(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := MutatingOnly(rl.Middleware(func(*http.Request) string { return "c" }, nil))(ok)

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %d status = %d", i, rec.Code)
		}
	}

	codes := []int{}
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("POST codes = %v", codes)
	}
}
