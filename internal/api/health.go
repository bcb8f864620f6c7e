package api

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/games"
)

// Build information, set with -ldflags at release time.
var (
	EngineVersion = "dev"
	GitCommit     = ""
	BuildTime     = ""
)

// GetVersionInfo returns the build information.
func GetVersionInfo() VersionInfo {
	return VersionInfo{EngineVersion: EngineVersion, GitCommit: GitCommit, BuildTime: BuildTime}
}

// HealthStatus represents the overall health status
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheckResponse represents a comprehensive health check response
type HealthCheckResponse struct {
	Status        HealthStatus           `json:"status"`
	Timestamp     string                 `json:"timestamp"`
	EngineVersion string                 `json:"engine_version"`
	GitCommit     string                 `json:"git_commit,omitempty"`
	BuildTime     string                 `json:"build_time,omitempty"`
	Uptime        string                 `json:"uptime"`
	Checks        map[string]HealthCheck `json:"checks"`
	System        SystemInfo             `json:"system"`
	RequestID     string                 `json:"request_id,omitempty"`
}

// HealthCheck represents an individual health check
type HealthCheck struct {
	Status      HealthStatus `json:"status"`
	Message     string       `json:"message,omitempty"`
	LastChecked string       `json:"last_checked"`
	Duration    string       `json:"duration,omitempty"`
}

// SystemInfo contains system information
type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	NumCPU        int    `json:"num_cpu"`
	MemoryAlloc   uint64 `json:"memory_alloc_bytes"`
	GCCycles      uint32 `json:"gc_cycles"`
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// handleHealth runs every check and reports the worst status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]HealthCheck{
		"games":   s.checkGames(),
		"history": s.checkHistory(r.Context()),
		"ledger":  s.checkLedger(),
	}

	overall := HealthStatusHealthy
	for _, c := range checks {
		switch c.Status {
		case HealthStatusUnhealthy:
			overall = HealthStatusUnhealthy
		case HealthStatusDegraded:
			if overall == HealthStatusHealthy {
				overall = HealthStatusDegraded
			}
		}
	}

	status := http.StatusOK
	if overall == HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, HealthCheckResponse{
		Status:        overall,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		EngineVersion: EngineVersion,
		GitCommit:     GitCommit,
		BuildTime:     BuildTime,
		Uptime:        time.Since(s.startTime).String(),
		Checks:        checks,
		System:        systemInfo(),
		RequestID:     middleware.GetReqID(r.Context()),
	})
}

// handleLiveness answers as long as the process serves HTTP.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"alive":          true,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"engine_version": EngineVersion,
		"uptime":         time.Since(s.startTime).String(),
		"request_id":     middleware.GetReqID(r.Context()),
	})
}

// handleReadiness fails when history storage is unreachable.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	ready, message := true, "Ready"
	if c := s.checkHistory(r.Context()); c.Status == HealthStatusUnhealthy {
		ready, message = false, c.Message
	}
	if len(games.ListGames()) == 0 {
		ready, message = false, "No games available"
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, map[string]any{
		"ready":          ready,
		"message":        message,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"engine_version": EngineVersion,
		"request_id":     middleware.GetReqID(r.Context()),
	})
}

func (s *Server) checkGames() HealthCheck {
	start := time.Now()
	n := len(games.ListGames())
	c := HealthCheck{Status: HealthStatusHealthy, Message: fmt.Sprintf("%d games available", n)}
	if n == 0 {
		c.Status, c.Message = HealthStatusUnhealthy, "No games available"
	}
	return stamp(c, start)
}

func (s *Server) checkHistory(ctx context.Context) HealthCheck {
	start := time.Now()
	if s.history == nil {
		return stamp(HealthCheck{Status: HealthStatusDegraded, Message: "History not configured"}, start)
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.history.Ping(ctx); err != nil {
		return stamp(HealthCheck{Status: HealthStatusUnhealthy, Message: "History unreachable: " + err.Error()}, start)
	}
	return stamp(HealthCheck{Status: HealthStatusHealthy, Message: "History store healthy"}, start)
}

func (s *Server) checkLedger() HealthCheck {
	start := time.Now()
	snap := s.engine.Snapshot()
	c := HealthCheck{Status: HealthStatusHealthy, Message: "Balance " + snap.Balance.String()}
	if snap.Balance.IsNegative() {
		c.Status, c.Message = HealthStatusUnhealthy, "Negative balance "+snap.Balance.String()
	}
	return stamp(c, start)
}

func stamp(c HealthCheck, start time.Time) HealthCheck {
	c.LastChecked = time.Now().UTC().Format(time.RFC3339)
	c.Duration = time.Since(start).String()
	return c
}

func systemInfo() SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return SystemInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		MemoryAlloc:   m.Alloc,
		GCCycles:      m.NumGC,
	}
}
