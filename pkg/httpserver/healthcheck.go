package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/dmitrymomot/billingkit/pkg/logger"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LivenessHandler always reports the process as alive.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, http.StatusOK, healthResponse{Status: "alive"})
	}
}

// ReadinessHandler runs all checks concurrently, each bounded by timeout,
// and answers 503 when any of them fails.
func ReadinessHandler(log *slog.Logger, timeout time.Duration, checks map[string]Check) http.HandlerFunc {
	if log == nil {
		log = logger.Noop()
	}
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		var (
			mu      sync.Mutex
			wg      sync.WaitGroup
			results = make(map[string]string, len(names))
			healthy = true
		)
		for _, name := range names {
			wg.Add(1)
			go func() {
				defer wg.Done()
				status := "ok"
				if err := checks[name](ctx); err != nil {
					status = "failed"
					log.WarnContext(ctx, "readiness check failed", slog.String("check", name), logger.Error(err))
				}
				mu.Lock()
				results[name] = status
				if status != "ok" {
					healthy = false
				}
				mu.Unlock()
			}()
		}
		wg.Wait()

		if !healthy {
			writeHealth(w, http.StatusServiceUnavailable, healthResponse{Status: "not_ready", Checks: results})
			return
		}
		writeHealth(w, http.StatusOK, healthResponse{Status: "ready", Checks: results})
	}
}

func writeHealth(w http.ResponseWriter, status int, body healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
