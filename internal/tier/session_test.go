package tier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/perpdash/perpdash/internal/model"
)

func TestNewClient_Options(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient("https://session.example.com", "test-token")

		if c.baseURL != "https://session.example.com" {
			t.Errorf("baseURL = %q, want %q", c.baseURL, "https://session.example.com")
		}
		if c.httpClient.Timeout != 10*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 10*time.Second)
		}
		if c.maxRetries != 3 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 3)
		}
		if c.logger == nil {
			t.Error("logger should not be nil")
		}
	})

	t.Run("with retries option", func(t *testing.T) {
		c := NewClient("https://session.example.com", "", WithRetries(5, 2*time.Second))
		if c.maxRetries != 5 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 5)
		}
		if c.retryBackoff != 2*time.Second {
			t.Errorf("retryBackoff = %v, want %v", c.retryBackoff, 2*time.Second)
		}
	})
}

func TestGetSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != sessionPath {
			t.Errorf("path = %q, want %q", r.URL.Path, sessionPath)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tier":2,"refresh_interval_ms":900000}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-token")
	session, err := c.GetSession(context.Background())
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}

	if session.Tier != model.TierElite {
		t.Errorf("Tier = %v, want elite", session.Tier)
	}
	if session.RefreshInterval != 15*time.Minute {
		t.Errorf("RefreshInterval = %v, want 15m", session.RefreshInterval)
	}
}

func TestGetSession_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"tier":0,"refresh_interval_ms":900000}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", WithRetries(3, time.Millisecond))
	session, err := c.GetSession(context.Background())
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}

	if session.Tier != model.TierFree {
		t.Errorf("Tier = %v, want free", session.Tier)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3 (two retries)", got)
	}
}

func TestGetSession_DoesNotRetryAuthFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad-token", WithRetries(3, time.Millisecond))
	_, err := c.GetSession(context.Background())
	if err == nil {
		t.Fatal("GetSession succeeded, want error")
	}

	var svcErr *ServiceError
	if !errors.As(err, &svcErr) || svcErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("error = %v, want 401 ServiceError", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1 (auth failures are not retried)", got)
	}
}

func TestGetSession_RejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown tier", body: `{"tier":7,"refresh_interval_ms":900000}`},
		{name: "zero interval", body: `{"tier":1,"refresh_interval_ms":0}`},
		{name: "not json", body: `tier=1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "")
			if _, err := c.GetSession(context.Background()); err == nil {
				t.Error("GetSession succeeded, want error")
			}
		})
	}
}
