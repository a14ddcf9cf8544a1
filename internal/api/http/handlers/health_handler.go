package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency probed by the readiness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	service string
	version string
	started time.Time
	deps    map[string]Pinger
}

// NewHealthHandler registers the dependencies that gate readiness. A memory-backed
// instance with no Redis has none and is always ready.
func NewHealthHandler(service, version string, deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{service: service, version: version, started: time.Now(), deps: deps}
}

func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.service,
		"version": h.version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

type probeResult struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

// Ready pings every dependency concurrently and answers 503 if any fails.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]probeResult, len(h.deps))
		healthy = true
	)
	for name, dep := range h.deps {
		name, dep := name, dep
		wg.Add(1)
		go func() {
			defer wg.Done()
			began := time.Now()
			err := dep.Ping(ctx)
			res := probeResult{Status: "ok", LatencyMS: time.Since(began).Milliseconds()}
			if err != nil {
				res.Status, res.Error = "down", err.Error()
			}
			mu.Lock()
			results[name] = res
			healthy = healthy && err == nil
			mu.Unlock()
		}()
	}
	wg.Wait()

	if !healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": results,
		})
	}
	return c.JSON(fiber.Map{"status": "ready", "dependencies": results})
}
