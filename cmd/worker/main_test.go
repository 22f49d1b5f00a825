package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iho/ledgertx/internal/adapter/http/handler"
)

func TestOpsRouter(t *testing.T) {
	ok := handler.PingerFunc(func(ctx context.Context) error { return nil })
	down := handler.PingerFunc(func(ctx context.Context) error { return errors.New("down") })

	metricsHit := false
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metricsHit = true
	})

	tests := []struct {
		name   string
		redis  handler.Pinger
		path   string
		status int
	}{
		{name: "liveness", redis: ok, path: "/health", status: http.StatusOK},
		{name: "ready", redis: ok, path: "/ready", status: http.StatusOK},
		{name: "not ready", redis: down, path: "/ready", status: http.StatusServiceUnavailable},
		{name: "metrics", redis: ok, path: "/metrics", status: http.StatusOK},
		{name: "unknown", redis: ok, path: "/api/v1/accounts", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newOpsRouter(handler.NewHealthHandler(ok, tt.redis), metricsHandler)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.status {
				t.Fatalf("GET %s: expected %d, got %d", tt.path, tt.status, rec.Code)
			}
		})
	}

	if !metricsHit {
		t.Fatal("expected metrics handler to be mounted")
	}
}
