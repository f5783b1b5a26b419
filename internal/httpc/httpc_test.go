package httpc

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCheckHealth(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		healthy bool
		wantErr bool
	}{
		{"healthy", `{"status":"healthy","database":"connected","app_mode":"production"}`, http.StatusOK, true, false},
		{"degraded", `{"status":"degraded","database":"disconnected","app_mode":"dev"}`, http.StatusOK, false, false},
		{"server error", `{"status":"healthy"}`, http.StatusInternalServerError, false, false},
		{"not json", `<html></html>`, http.StatusOK, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health" {
					http.NotFound(w, r)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			h := &Httpc{Timeout: time.Second}
			got, err := h.CheckHealth(context.Background(), srv.URL+"/health")
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckHealth() err = %v, wantErr %v", err, tt.wantErr)
			}
			if got.Healthy() != tt.healthy {
				t.Fatalf("Healthy() = %v, health = %+v", got.Healthy(), got)
			}
		})
	}
}

func TestCheckHealth_Fields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"degraded","database":"disconnected","app_mode":"dev"}`))
	}))
	defer srv.Close()

	got, err := (&Httpc{}).CheckHealth(context.Background(), srv.URL+"/health")
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if got.Status != "degraded" || got.Database != "disconnected" || got.AppMode != "dev" {
		t.Fatalf("CheckHealth() = %+v", got)
	}
}

func TestCheckHealth_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := (&Httpc{Timeout: 200 * time.Millisecond}).CheckHealth(context.Background(), url+"/health"); err == nil {
		t.Fatal("expected error for closed server")
	}
}

func TestNew_TLSDefaults(t *testing.T) {
	cfg := &tls.Config{}
	h := &Httpc{TlsConfig: cfg}
	if c := h.New(); c == nil {
		t.Fatal("New() returned nil")
	}
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Fatalf("MinVersion = %x", cfg.MinVersion)
	}
}
