package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pulseboard/pkg/logging"
	"github.com/pulseboard/pkg/retry"
)

func testLogger() *logging.Logger {
	return logging.NewLogger("test", "httpclient", "error")
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "tester/1" {
			t.Errorf("user agent: got %q", got)
		}
		w.Write([]byte(`{"name":"x","count":3}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(Config{UserAgent: "tester/1"}, testLogger(), nil)

	var out struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	if err := c.GetJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("get json: %v", err)
	}
	if out.Name != "x" || out.Count != 3 {
		t.Errorf("decoded: got %+v", out)
	}
}

func TestRetriesTransientStatus(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok")) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(Config{
		Retry: retry.Config{
			MaxRetries:     3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     5 * time.Millisecond,
			Multiplier:     2,
		},
	}, testLogger(), nil)

	body, err := c.GetBytes(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("body: got %s", body)
	}
	if n := hits.Load(); n != 3 {
		t.Errorf("attempts: got %d, want 3", n)
	}
}

func TestClientErrorNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(Config{
		Retry: retry.Config{MaxRetries: 3, InitialBackoff: time.Millisecond, Multiplier: 2},
	}, testLogger(), nil)

	if _, err := c.GetBytes(context.Background(), srv.URL); err == nil {
		t.Fatal("404 must surface as error")
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("4xx should not be retried: got %d attempts", n)
	}
}

func TestRequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(Config{Timeout: 20 * time.Millisecond}, testLogger(), nil)
	if _, err := c.GetBytes(context.Background(), srv.URL); err == nil {
		t.Fatal("slow upstream must time out")
	}
}
