package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/waterwise/irrigo/internal/apperr"
	"github.com/waterwise/irrigo/internal/httpresponse"
	"github.com/waterwise/irrigo/internal/watering/dispatcher"
	"github.com/waterwise/irrigo/internal/watering/model"
	"github.com/waterwise/irrigo/internal/watering/repository"
)

// AuthMiddleware guards the mutating control routes.
type AuthMiddleware interface {
	Middleware() echo.MiddlewareFunc
}

// ControlHandler exposes the dispatcher's control-signal bus and
// query interface over HTTP, grounded on
// registerAlarmWeatherHandler.go's handler-struct-plus-route
// registration shape.
type ControlHandler struct {
	dispatcher *dispatcher.Dispatcher
	repo       repository.Repository
	logger     *zap.Logger
}

// Register wires every control route onto e, guarding the mutating
// ones (ChgMode, StopMachine, manual activation) with auth.
func Register(e *echo.Echo, d *dispatcher.Dispatcher, repo repository.Repository, logger *zap.Logger, auth AuthMiddleware) *ControlHandler {
	h := &ControlHandler{dispatcher: d, repo: repo, logger: logger}

	e.GET("/v0.1/watering/state", h.GetState)
	e.GET("/v0.1/watering/cycle", h.GetCycle)
	e.GET("/v0.1/watering/history", h.ListHistory)

	e.POST("/v0.1/watering/mode", h.ChgMode, auth.Middleware())
	e.POST("/v0.1/watering/weather", h.Weather, auth.Middleware())
	e.POST("/v0.1/watering/stop", h.StopMachine, auth.Middleware())
	e.POST("/v0.1/watering/manual/activate", h.ManualActivate, auth.Middleware())
	e.POST("/v0.1/watering/manual/deactivate", h.ManualDeactivate, auth.Middleware())

	return h
}

// ChgMode switches the active control regime.
// @Router /v0.1/watering/mode [post]
// @Summary Switch control mode
// @Description Switches the irrigation controller between auto, manual and wizard regimes. Requires operator auth.
// @Description
// @Description ■ errCode with 400
// @Description VALIDATION_ERROR : unknown mode
// @Description
// @Description ■ errCode with 401
// @Description UNAUTHORIZED : missing or invalid operator token
// @Param Authorization header string true "Bearer {token}"
// @Param json body ReqChgMode true "target mode"
// @Produce json
// @Success 200 {object} httpresponse.SuccessResponse
// @Failure 400 {object} httpresponse.ErrorResponse
// @Failure 401 {object} httpresponse.ErrorResponse
// @Tags watering
func (h *ControlHandler) ChgMode(c echo.Context) error {
	req := new(ReqChgMode)
	if err := c.Bind(req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return apperr.ValidationError(err.Error())
	}
	mode, err := parseMode(req.Mode)
	if err != nil {
		return err
	}
	h.dispatcher.Submit(model.ControlSignal{Kind: model.SigChgMode, Mode: mode})
	return c.JSON(http.StatusOK, httpresponse.Success(nil, "mode change queued"))
}

// Weather reports a weather event from the ingest adapter.
// @Router /v0.1/watering/weather [post]
// @Summary Report a weather event
// @Description Reports rain or wind events that pause or resume Wizard-mode watering.
// @Param Authorization header string true "Bearer {token}"
// @Param json body ReqWeather true "weather signal"
// @Produce json
// @Success 200 {object} httpresponse.SuccessResponse
// @Failure 400 {object} httpresponse.ErrorResponse
// @Tags watering
func (h *ControlHandler) Weather(c echo.Context) error {
	req := new(ReqWeather)
	if err := c.Bind(req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return apperr.ValidationError(err.Error())
	}
	sig, err := parseWeatherSignal(req.Signal)
	if err != nil {
		return err
	}
	h.dispatcher.Submit(model.ControlSignal{Kind: model.SigWeather, Weather: sig})
	return c.JSON(http.StatusOK, httpresponse.Success(nil, "weather signal queued"))
}

// StopMachine halts plan advancement without forcing a running valve
// closed.
// @Router /v0.1/watering/stop [post]
// @Summary Stop the controller
// @Description Switches to manual mode and halts automatic plan advancement. Does not forcibly close an already-open valve.
// @Param Authorization header string true "Bearer {token}"
// @Produce json
// @Success 200 {object} httpresponse.SuccessResponse
// @Failure 401 {object} httpresponse.ErrorResponse
// @Tags watering
func (h *ControlHandler) StopMachine(c echo.Context) error {
	h.dispatcher.Submit(model.ControlSignal{Kind: model.SigStopMachine})
	return c.JSON(http.StatusOK, httpresponse.Success(nil, "stop queued"))
}

// ManualActivate starts a manual watering run on one sector.
// @Router /v0.1/watering/manual/activate [post]
// @Summary Start manual watering
// @Description Activates one sector for duration_seconds. Only takes effect while in manual mode and idle.
// @Param Authorization header string true "Bearer {token}"
// @Param json body ReqManualActivate true "sector and duration"
// @Produce json
// @Success 200 {object} httpresponse.SuccessResponse
// @Failure 400 {object} httpresponse.ErrorResponse
// @Tags watering
func (h *ControlHandler) ManualActivate(c echo.Context) error {
	req := new(ReqManualActivate)
	if err := c.Bind(req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return apperr.ValidationError(err.Error())
	}
	h.dispatcher.Submit(model.ControlSignal{
		Kind:     model.SigManualActivate,
		SectorID: req.SectorID,
		Duration: req.Duration,
	})
	return c.JSON(http.StatusOK, httpresponse.Success(nil, "manual activation queued"))
}

// ManualDeactivate stops a manual watering run on one sector.
// @Router /v0.1/watering/manual/deactivate [post]
// @Summary Stop manual watering
// @Description Deactivates one sector if it is the one currently watering under manual mode.
// @Param Authorization header string true "Bearer {token}"
// @Param json body ReqManualDeactivate true "sector"
// @Produce json
// @Success 200 {object} httpresponse.SuccessResponse
// @Failure 400 {object} httpresponse.ErrorResponse
// @Tags watering
func (h *ControlHandler) ManualDeactivate(c echo.Context) error {
	req := new(ReqManualDeactivate)
	if err := c.Bind(req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return apperr.ValidationError(err.Error())
	}
	h.dispatcher.Submit(model.ControlSignal{Kind: model.SigManualDeactivate, SectorID: req.SectorID})
	return c.JSON(http.StatusOK, httpresponse.Success(nil, "manual deactivation queued"))
}

// GetState returns the controller's current mode and state.
// @Router /v0.1/watering/state [get]
// @Summary Get controller state
// @Description Returns the active mode and a human-readable description of the current state.
// @Produce json
// @Success 200 {object} httpresponse.SuccessResponse
// @Failure 503 {object} httpresponse.ErrorResponse
// @Tags watering
func (h *ControlHandler) GetState(c echo.Context) error {
	resp, err := h.dispatcher.Query(c.Request().Context(), model.SigGetState)
	if err != nil {
		return apperr.Unavailable("controller did not respond in time")
	}
	return c.JSON(http.StatusOK, httpresponse.Success(toResState(*resp.State), ""))
}

// GetCycle returns the currently active cycle, if any.
// @Router /v0.1/watering/cycle [get]
// @Summary Get active cycle
// @Description Returns the currently active watering cycle's sector plan, or null if idle.
// @Produce json
// @Success 200 {object} httpresponse.SuccessResponse
// @Failure 503 {object} httpresponse.ErrorResponse
// @Tags watering
func (h *ControlHandler) GetCycle(c echo.Context) error {
	resp, err := h.dispatcher.Query(c.Request().Context(), model.SigGetCycle)
	if err != nil {
		return apperr.Unavailable("controller did not respond in time")
	}
	return c.JSON(http.StatusOK, httpresponse.Success(toResCycle(resp.Cycle), ""))
}

// ListHistory returns the most recent logged watering events.
// @Router /v0.1/watering/history [get]
// @Summary List watering history
// @Description Returns the most recently completed or aborted watering runs, newest first.
// @Param limit query int false "max rows, default 50"
// @Produce json
// @Success 200 {object} httpresponse.SuccessResponse
// @Failure 500 {object} httpresponse.ErrorResponse
// @Tags watering
func (h *ControlHandler) ListHistory(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := parsePositiveInt(raw); err == nil {
			limit = n
		}
	}
	events, err := h.repo.ListWateringEvents(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("failed to list watering history", zap.Error(err))
		return apperr.DatabaseError(err)
	}
	out := make([]ResWateringEvent, 0, len(events))
	for _, e := range events {
		out = append(out, toResWateringEvent(e))
	}
	return c.JSON(http.StatusOK, httpresponse.Success(out, ""))
}
