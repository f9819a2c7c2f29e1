// Package health performs readiness checks on the controller's
// external dependencies and on the control loop's own domain
// invariants: database, redis, the dispatcher's tick cadence, and the
// loaded sector catalog against the active window.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/waterwise/irrigo/internal/watering/catalog"
	"github.com/waterwise/irrigo/internal/watering/model"
)

// Status is the JSON body served at the health endpoint.
type Status struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Version    string            `json:"version"`
	Uptime     time.Duration     `json:"uptime"`
	Components map[string]string `json:"components"`
	ErrorCount int               `json:"error_count"`
}

// DispatcherStatus exposes the one thing the health checker needs from
// the control dispatcher: the unix timestamp of its last completed
// tick, so a stalled 1 Hz loop (spec.md section 4.8) shows up as a
// readiness failure instead of silently not advancing state.
type DispatcherStatus interface {
	LastTick() int64
}

// Checker performs health checks on the controller's components.
type Checker struct {
	db             *gorm.DB
	redis          *redis.Client
	logger         *zap.Logger
	version        string
	startTime      time.Time
	dispatcher     DispatcherStatus
	catalog        *catalog.Catalog
	window         *model.WaterWin
	tickStaleAfter time.Duration
	errorCounter   *ErrorCounter
}

// ErrorCounter tracks recent errors with a sliding window.
type ErrorCounter struct {
	mu      sync.RWMutex
	errors  []time.Time
	window  time.Duration
	maxRate int
}

// NewErrorCounter builds a counter that alerts once the error rate
// exceeds maxRate errors per minute within window.
func NewErrorCounter(window time.Duration, maxRate int) *ErrorCounter {
	return &ErrorCounter{window: window, maxRate: maxRate}
}

// Add records a new error occurrence.
func (ec *ErrorCounter) Add() {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	now := time.Now()
	ec.errors = append(ec.errors, now)
	ec.cleanup(now)
}

// Count returns the number of errors within the current window.
func (ec *ErrorCounter) Count() int {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	ec.cleanup(time.Now())
	return len(ec.errors)
}

func (ec *ErrorCounter) cleanup(now time.Time) {
	cutoff := now.Add(-ec.window)
	valid := make([]time.Time, 0, len(ec.errors))
	for _, t := range ec.errors {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	ec.errors = valid
}

// ShouldAlert reports whether the current error rate exceeds maxRate.
func (ec *ErrorCounter) ShouldAlert() bool {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	if len(ec.errors) == 0 {
		return false
	}
	perMinute := float64(len(ec.errors)) / ec.window.Minutes()
	return int(perMinute) > ec.maxRate
}

// NewChecker builds a Checker. dispatcher and cat/window may be nil in
// tests that don't exercise the control loop; tickStaleAfter bounds
// how long a missed tick is tolerated before the dispatcher component
// is reported unhealthy (the control loop ticks at 1 Hz, so a few
// seconds of slack absorbs scheduling jitter without masking a real
// stall).
func NewChecker(db *gorm.DB, redisClient *redis.Client, logger *zap.Logger, version string, dispatcher DispatcherStatus, cat *catalog.Catalog, window *model.WaterWin) *Checker {
	return &Checker{
		db:             db,
		redis:          redisClient,
		logger:         logger,
		version:        version,
		startTime:      time.Now(),
		dispatcher:     dispatcher,
		catalog:        cat,
		window:         window,
		tickStaleAfter: 10 * time.Second,
		errorCounter:   NewErrorCounter(5*time.Minute, 10),
	}
}

// RecordError records an error for the sliding-window rate check,
// warning if the rate crosses the alert threshold.
func (c *Checker) RecordError() {
	c.errorCounter.Add()
	if c.errorCounter.ShouldAlert() {
		c.logger.Warn("high error rate detected",
			zap.Int("error_count", c.errorCounter.Count()),
			zap.Duration("window", 5*time.Minute))
	}
}

// Check runs every component check and aggregates the result.
func (c *Checker) Check(ctx context.Context) *Status {
	components := make(map[string]string)
	healthy := true

	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err != nil {
			components["database"] = "error: " + err.Error()
			healthy = false
		} else if err := sqlDB.PingContext(ctx); err != nil {
			components["database"] = "error: " + err.Error()
			healthy = false
		} else {
			components["database"] = "ok"
		}
	} else {
		components["database"] = "not_configured"
	}

	if c.redis != nil {
		if err := c.redis.Ping(ctx).Err(); err != nil {
			components["redis"] = "error: " + err.Error()
			healthy = false
		} else {
			components["redis"] = "ok"
		}
	} else {
		components["redis"] = "not_configured"
	}

	if c.dispatcher != nil {
		if status, ok := c.checkDispatcher(); !ok {
			components["dispatcher"] = status
			healthy = false
		} else {
			components["dispatcher"] = status
		}
	} else {
		components["dispatcher"] = "not_configured"
	}

	if c.catalog != nil && c.window != nil {
		if err := c.checkCatalogInvariants(); err != nil {
			components["catalog"] = "error: " + err.Error()
			healthy = false
		} else {
			components["catalog"] = fmt.Sprintf("ok: %d sectors", len(c.catalog.All()))
		}
	} else {
		components["catalog"] = "not_configured"
	}

	status := "ok"
	if !healthy {
		status = "error"
	}

	return &Status{
		Status:     status,
		Timestamp:  time.Now(),
		Version:    c.version,
		Uptime:     time.Since(c.startTime),
		Components: components,
		ErrorCount: c.errorCounter.Count(),
	}
}

// checkDispatcher reports whether the control loop's last tick is
// recent enough to trust (spec.md section 4.8's 1 Hz loop).
func (c *Checker) checkDispatcher() (string, bool) {
	lastTick := c.dispatcher.LastTick()
	if lastTick == 0 {
		return "not_ticked", false
	}
	age := time.Since(time.Unix(lastTick, 0))
	if age > c.tickStaleAfter {
		return fmt.Sprintf("stale: last tick %s ago", age.Round(time.Second)), false
	}
	return "ticking", true
}

// checkCatalogInvariants re-validates every loaded sector against
// spec.md section 3's invariants, using the live window's current
// duration. A sector can only drift out of bounds here if the catalog
// was built from corrupt persisted data, since the in-process mutators
// (catalog.AccrueProgress, ApplyDailyAdjustment) never push a sector
// out of range.
func (c *Checker) checkCatalogInvariants() error {
	sectors := c.catalog.All()
	if len(sectors) == 0 {
		return fmt.Errorf("no sectors loaded")
	}
	windowDuration := c.window.Duration()
	for _, s := range sectors {
		if err := s.Validate(windowDuration); err != nil {
			return err
		}
	}
	return nil
}

// Handler returns a plain net/http handler suitable for mounting
// outside the Echo router (e.g. on a separate metrics/health port).
func (c *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := c.Check(ctx)

		w.Header().Set("Content-Type", "application/json")
		if status.Status == "ok" {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		if err := json.NewEncoder(w).Encode(status); err != nil {
			c.logger.Error("failed to encode health status", zap.Error(err))
		}
	}
}
