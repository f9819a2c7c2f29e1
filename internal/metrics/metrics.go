// Package metrics exposes the controller's Prometheus instrumentation
// (tick count, valve activations, plan regenerations, pause duration),
// grounded on the teacher's pkg/metrics package-level promauto
// singleton pattern.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	ticksTotal prometheus.Counter

	valveActivationsTotal   *prometheus.CounterVec
	valveActivationErrors   *prometheus.CounterVec
	valveDeactivationErrors *prometheus.CounterVec

	planRegenerationsTotal *prometheus.CounterVec

	pauseDurationSeconds prometheus.Histogram
	pausesActive         prometheus.Gauge

	wateringEventLogErrors prometheus.Counter
)

func init() { Init() }

// Init registers every metric exactly once. The package's init calls
// it, so every Record* function is usable as soon as the package is
// imported; later calls are no-ops.
func Init() {
	once.Do(func() {
		ticksTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "irrigo_dispatcher_ticks_total",
			Help: "Total number of control dispatcher ticks processed.",
		})

		valveActivationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "irrigo_valve_activations_total",
			Help: "Total number of valve activation commands issued, by sector.",
		}, []string{"sector_id"})

		valveActivationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "irrigo_valve_activation_errors_total",
			Help: "Total number of failed valve activation commands, by sector.",
		}, []string{"sector_id"})

		valveDeactivationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "irrigo_valve_deactivation_errors_total",
			Help: "Total number of failed valve deactivation commands, by sector.",
		}, []string{"sector_id"})

		planRegenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "irrigo_plan_regenerations_total",
			Help: "Total number of daily plan regenerations, by mode.",
		}, []string{"mode"})

		pauseDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "irrigo_pause_duration_seconds",
			Help:    "Duration of weather-triggered pauses in seconds.",
			Buckets: []float64{1, 10, 30, 60, 300, 900, 1800, 3600},
		})

		pausesActive = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "irrigo_pauses_active",
			Help: "1 if the controller is currently paused for weather, 0 otherwise.",
		})

		wateringEventLogErrors = promauto.NewCounter(prometheus.CounterOpts{
			Name: "irrigo_watering_event_log_errors_total",
			Help: "Total number of failed attempts to persist a watering event.",
		})
	})
}

// RecordTick increments the dispatcher tick counter.
func RecordTick() {
	ticksTotal.Inc()
}

// RecordValveActivation records a valve activation attempt outcome.
func RecordValveActivation(sectorID string, err error) {
	if err != nil {
		valveActivationErrors.WithLabelValues(sectorID).Inc()
		return
	}
	valveActivationsTotal.WithLabelValues(sectorID).Inc()
}

// RecordValveDeactivationError records a failed valve deactivation.
func RecordValveDeactivationError(sectorID string) {
	valveDeactivationErrors.WithLabelValues(sectorID).Inc()
}

// RecordPlanRegeneration records a daily plan rebuild for the given
// mode ("auto" or "wizard").
func RecordPlanRegeneration(mode string) {
	planRegenerationsTotal.WithLabelValues(mode).Inc()
}

// ObservePauseDuration records how long a weather pause lasted once
// the controller resumes.
func ObservePauseDuration(d time.Duration) {
	pauseDurationSeconds.Observe(d.Seconds())
}

// SetPausedActive reflects whether the controller is currently
// paused for weather.
func SetPausedActive(paused bool) {
	if paused {
		pausesActive.Set(1)
		return
	}
	pausesActive.Set(0)
}

// RecordWateringEventLogError records a non-fatal persistence failure
// when logging a completed watering session.
func RecordWateringEventLogError() {
	wateringEventLogErrors.Inc()
}
