package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

func TestHealth_Liveness(t *testing.T) {
	h := NewHealthHandler(nil)
	c, rec := newJSONContext(http.MethodGet, "/health", "")

	if err := h.Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealth_Readiness(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	cases := []struct {
		name   string
		checks map[string]HealthCheck
		want   int
	}{
		{"all up", map[string]HealthCheck{"mongodb": ok, "redis": ok}, http.StatusOK},
		{"redis down", map[string]HealthCheck{"mongodb": ok, "redis": down}, http.StatusServiceUnavailable},
		{"memory store only", map[string]HealthCheck{}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthHandler(tc.checks)
			c, rec := newJSONContext(http.MethodGet, "/health/ready", "")

			if err := h.Readiness(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}

			var resp readinessResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if len(resp.Dependencies) != len(tc.checks) {
				t.Fatalf("expected %d dependencies, got %d", len(tc.checks), len(resp.Dependencies))
			}
		})
	}
}
