// Package dispatcher implements the control dispatcher (C7, spec.md
// section 4.8): the outer 1 Hz loop that advances logical time,
// detects day-boundary crossings to trigger the daily adjustment,
// drains the control-signal bus, and drives the state machine.
package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/waterwise/irrigo/internal/metrics"
	"github.com/waterwise/irrigo/internal/watering/catalog"
	"github.com/waterwise/irrigo/internal/watering/model"
	"github.com/waterwise/irrigo/internal/watering/planner"
	"github.com/waterwise/irrigo/internal/watering/statemachine"
	"github.com/waterwise/irrigo/internal/watering/timeprovider"
)

// WeatherSource resolves a day's ET/rain readings for the daily
// adjustment (spec.md section 4.6 step 1). Satisfied by
// weather.CompositeSource, which layers the database, the Redis
// cache and the scraped fallback.
type WeatherSource interface {
	GetDailyET(ctx context.Context, dayStartUnix int64) (float64, bool, error)
	GetLastDayRain(ctx context.Context, dayStartUnix int64) (float64, bool, error)
}

// Response is one message on the outbound response bus, emitted for
// GetState/GetCycle queries (spec.md section 6).
type Response struct {
	Kind  model.ControlSignalKind
	State *statemachine.StateSnapshot
	Cycle *statemachine.CycleSnapshot
	Err   error
}

// queryRequest is a read-only GetState/GetCycle request carrying its
// own reply channel, so concurrent HTTP callers each get their own
// answer without correlating against one shared broadcast channel
// (spec.md section 5's "second broadcast channel" implemented here as
// per-caller request/reply to keep the dispatcher goroutine the sole
// mutator of machine/catalog/window with no locks involved).
type queryRequest struct {
	kind   model.ControlSignalKind
	respCh chan Response
}

// Params bundles the planner constants loaded from config (spec.md
// section 6).
type Params struct {
	TransitionSlack    int64
	MaxDurationSeconds int64
	MinWateringSeconds int64
	WindowStartHour    int
	WindowDurationHrs  int
}

// Dispatcher is the single owner of the state machine, sector
// catalog, cycles and window (spec.md section 5): no locks guard
// these because the dispatcher's run loop is their only mutator.
type Dispatcher struct {
	logger  *zap.Logger
	weather WeatherSource
	catalog *catalog.Catalog
	window  *model.WaterWin
	machine *statemachine.Machine
	clock   timeprovider.Provider
	params  Params

	autoSchedule model.Schedule

	controlCh  chan model.ControlSignal
	responseCh chan Response
	queryCh    chan queryRequest
	shutdownCh chan struct{}

	lastDayMarker int64
	lastWeekday   time.Weekday
	lastTickUnix  int64

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// LastTick returns the unix timestamp of the most recently completed
// tick, or zero if Run has never ticked. Used by internal/health to
// detect a stalled control loop.
func (d *Dispatcher) LastTick() int64 {
	return atomic.LoadInt64(&d.lastTickUnix)
}

// New builds a Dispatcher. catalog, window and machine must already
// be wired together (the machine holds pointers into the same
// catalog and window passed here).
func New(
	logger *zap.Logger,
	weather WeatherSource,
	cat *catalog.Catalog,
	window *model.WaterWin,
	machine *statemachine.Machine,
	clock timeprovider.Provider,
	autoSchedule model.Schedule,
	params Params,
) *Dispatcher {
	return &Dispatcher{
		logger:       logger,
		weather:      weather,
		catalog:      cat,
		window:       window,
		machine:      machine,
		clock:        clock,
		autoSchedule: autoSchedule,
		params:       params,
		controlCh:    make(chan model.ControlSignal, 16),
		responseCh:   make(chan Response, 16),
		queryCh:      make(chan queryRequest, 64),
		shutdownCh:   make(chan struct{}),
	}
}

// Submit enqueues a control signal for the dispatcher to process on
// its next tick. It never blocks: a full control bus drops the oldest
// queued signal, preferring fresh state over backpressure on
// producers (spec.md section 9, "broadcast channel as signal bus").
func (d *Dispatcher) Submit(sig model.ControlSignal) {
	select {
	case d.controlCh <- sig:
	default:
		select {
		case <-d.controlCh:
		default:
		}
		select {
		case d.controlCh <- sig:
		default:
		}
	}
}

// Responses exposes the outbound response bus for the HTTP layer to
// read GetState/GetCycle results from.
func (d *Dispatcher) Responses() <-chan Response {
	return d.responseCh
}

// Query submits a GetState or GetCycle request and blocks until the
// dispatcher goroutine answers it on the next tick, or ctx is done.
// This is the HTTP layer's synchronous entry point into the
// otherwise-async control bus.
func (d *Dispatcher) Query(ctx context.Context, kind model.ControlSignalKind) (Response, error) {
	req := queryRequest{kind: kind, respCh: make(chan Response, 1)}

	select {
	case d.queryCh <- req:
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}

	select {
	case resp := <-req.respCh:
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// Shutdown signals the run loop to exit after completing its current
// tick (spec.md section 5, "cancellation").
func (d *Dispatcher) Shutdown() {
	close(d.shutdownCh)
}

// Run executes the 1 Hz control loop until ctx is cancelled or
// Shutdown is called (spec.md section 4.8). It is intended to run in
// its own goroutine for the lifetime of the process.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("dispatcher: already running")
	}
	d.running = true
	d.mu.Unlock()

	d.logger.Info("control dispatcher starting")

	now := time.Unix(d.clock.Now(), 0).UTC()
	d.lastDayMarker = model.StartOfDay(now)
	d.lastWeekday = now.Weekday()
	d.regenerateAutoPlan(now)
	d.regenerateWizardPlan(now)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("control dispatcher stopping: context cancelled")
			return ctx.Err()
		case <-d.shutdownCh:
			d.logger.Info("control dispatcher stopping: shutdown requested")
			return nil
		default:
		}

		d.tick(ctx)
		d.clock.Advance(ctx)
	}
}

func (d *Dispatcher) tick(ctx context.Context) {
	metrics.RecordTick()
	nowUnix := d.clock.Now()
	now := time.Unix(nowUnix, 0).UTC()
	// Stamped from the real wall clock, not d.clock: health staleness
	// must reflect actual elapsed time even under a fake/fast-forwarded
	// clock in tests.
	atomic.StoreInt64(&d.lastTickUnix, time.Now().Unix())

	dayStart := model.StartOfDay(now)
	if dayStart != d.lastDayMarker {
		d.runDailyAdjustment(ctx, now, dayStart)
		d.lastDayMarker = dayStart
	}

	d.drainOneSignal(ctx, nowUnix)

	d.machine.Update(ctx, nowUnix)

	d.drainQueries()
}

// drainQueries answers every pending GetState/GetCycle request queued
// since the last tick. Queries never mutate state, so answering all
// of them per tick (rather than one like control signals) keeps HTTP
// latency bounded by the tick interval without starving callers under
// load.
func (d *Dispatcher) drainQueries() {
	for {
		select {
		case req := <-d.queryCh:
			d.answerQuery(req)
		default:
			return
		}
	}
}

func (d *Dispatcher) answerQuery(req queryRequest) {
	var resp Response
	switch req.kind {
	case model.SigGetState:
		snap := d.machine.GetState()
		resp = Response{Kind: req.kind, State: &snap}
	case model.SigGetCycle:
		resp = Response{Kind: req.kind, Cycle: d.machine.GetCycle()}
	}
	req.respCh <- resp
}

// drainOneSignal performs a non-blocking read of at most one control
// signal per tick and dispatches it (spec.md section 4.8 step 3).
func (d *Dispatcher) drainOneSignal(ctx context.Context, now int64) {
	select {
	case sig := <-d.controlCh:
		d.dispatchSignal(ctx, now, sig)
	default:
	}
}

func (d *Dispatcher) dispatchSignal(ctx context.Context, now int64, sig model.ControlSignal) {
	switch sig.Kind {
	case model.SigChgMode:
		d.machine.SetMode(sig.Mode)
	case model.SigWeather:
		d.machine.HandleWeather(ctx, now, sig.Weather)
	case model.SigStopMachine:
		d.machine.StopMachine()
	case model.SigManualActivate:
		d.machine.HandleManualActivate(ctx, now, sig.SectorID, sig.Duration)
	case model.SigManualDeactivate:
		d.machine.HandleManualDeactivate(ctx, now, sig.SectorID)
	case model.SigGetState:
		snap := d.machine.GetState()
		d.emitResponse(Response{Kind: sig.Kind, State: &snap})
	case model.SigGetCycle:
		snap := d.machine.GetCycle()
		d.emitResponse(Response{Kind: sig.Kind, Cycle: snap})
	case model.SigDevicesState, model.SigGenWeather:
		// Reserved for ingest adapters; no SM effect in the core
		// (spec.md section 6).
	}
}

func (d *Dispatcher) emitResponse(resp Response) {
	select {
	case d.responseCh <- resp:
	default:
		select {
		case <-d.responseCh:
		default:
		}
		select {
		case d.responseCh <- resp:
		default:
		}
	}
}

// runDailyAdjustment executes spec.md section 4.6 on a detected day
// boundary: percolation/ET/rain adjustment per sector, then
// regeneration of both the Wizard and Auto plans.
func (d *Dispatcher) runDailyAdjustment(ctx context.Context, now time.Time, dayStart int64) {
	newWeek := now.Weekday() == time.Monday && d.lastWeekday != time.Monday
	d.lastWeekday = now.Weekday()

	dailyET, _, err := d.weather.GetDailyET(ctx, dayStart)
	if err != nil {
		d.logger.Error("failed to resolve daily ET from any source, defaulting to 0", zap.Error(err))
	}
	dailyRain, _, err := d.weather.GetLastDayRain(ctx, dayStart)
	if err != nil {
		d.logger.Error("failed to resolve daily rain from any source, defaulting to 0", zap.Error(err))
	}

	for _, sector := range d.catalog.All() {
		delta := planner.DailyAdjustment(sector, dailyET, dailyRain, newWeek)
		d.catalog.ApplyDailyAdjustment(sector.ID, delta)
	}

	d.regenerateWizardPlan(now)
	d.regenerateAutoPlan(now)
}

func (d *Dispatcher) regenerateWizardPlan(now time.Time) {
	d.window.Roll(now.Unix())
	plans := planner.Wizard(planner.WizardInput{
		Sectors:            d.catalog.All(),
		Now:                now,
		Window:             *d.window,
		TransitionSlack:    d.params.TransitionSlack,
		MinWateringSeconds: d.params.MinWateringSeconds,
	})
	d.machine.SetWizardPlans(plans)
	metrics.RecordPlanRegeneration("wizard")
}

func (d *Dispatcher) regenerateAutoPlan(now time.Time) {
	plans := planner.Auto(d.autoSchedule, now)
	d.machine.SetAutoPlans(plans)
	metrics.RecordPlanRegeneration("auto")
}
