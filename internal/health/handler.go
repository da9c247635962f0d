// Package health serves liveness and readiness probes.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

// Handler is the liveness probe; it always reports ok.
func Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Check probes one dependency and returns nil when it is reachable
type Check func(ctx context.Context) error

// CheckResult is the outcome of one readiness check
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency"`
}

// Report is the readiness response body
type Report struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Status values
const (
	StatusOK          = "ok"
	StatusUnavailable = "unavailable"
)

// Readiness runs every check with a timeout and returns 503 if any fails.
func Readiness(checks map[string]Check, timeout time.Duration) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		report := Report{Status: StatusOK, Checks: make(map[string]CheckResult, len(checks))}
		for _, name := range names {
			start := time.Now()
			err := checks[name](ctx)
			result := CheckResult{Status: StatusOK, Latency: time.Since(start).String()}
			if err != nil {
				result.Status = StatusUnavailable
				result.Message = err.Error()
				report.Status = StatusUnavailable
			}
			report.Checks[name] = result
		}

		code := http.StatusOK
		if report.Status != StatusOK {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(report)
	}
}
