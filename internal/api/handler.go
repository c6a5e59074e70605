package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"ChartSentinel/internal/cache"
	"ChartSentinel/internal/model"
	"ChartSentinel/internal/recorder"
)

// Handler serves stored indicator data.
type Handler struct {
	recorder recorder.Recorder
	cache    cache.FrameCache
}

func NewHandler(rec recorder.Recorder, fc cache.FrameCache) *Handler {
	return &Handler{recorder: rec, cache: fc}
}

// RegisterRoutes mounts the read endpoints under /api/v1.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/indicators/:symbol/:interval", h.indicators)
	g.GET("/latest/:symbol/:interval", h.latest)
	g.GET("/reports/:symbol/:interval", h.reports)
}

type pairRequest struct {
	Symbol   string `param:"symbol" validate:"required,alphanum"`
	Interval string `param:"interval" validate:"required,oneof=15m 4h 1d"`
}

type listRequest struct {
	Symbol   string `param:"symbol" validate:"required,alphanum"`
	Interval string `param:"interval" validate:"required,oneof=15m 4h 1d"`
	Limit    int    `query:"limit" default:"100" validate:"gte=1,lte=1000"`
}

func pairKey(symbol, interval string) (string, model.Interval) {
	return strings.ToUpper(symbol), model.Interval(interval)
}

func (h *Handler) indicators(c echo.Context) error {
	var req listRequest
	if errs := readRequest(c, &req); errs != nil {
		return dataResponse(c, http.StatusBadRequest, errs)
	}
	symbol, interval := pairKey(req.Symbol, req.Interval)
	rows, err := h.recorder.LatestIndicators(c.Request().Context(), symbol, interval, req.Limit)
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Str("interval", interval.String()).Msg("load indicators")
		return dataResponse(c, http.StatusInternalServerError, nil)
	}
	if rows == nil {
		rows = []model.IndicatorRow{}
	}
	return dataResponse(c, http.StatusOK, model.IndicatorFrame{Symbol: symbol, Interval: interval, Rows: rows})
}

func (h *Handler) latest(c echo.Context) error {
	var req pairRequest
	if errs := readRequest(c, &req); errs != nil {
		return dataResponse(c, http.StatusBadRequest, errs)
	}
	symbol, interval := pairKey(req.Symbol, req.Interval)
	ctx := c.Request().Context()

	row, err := h.cache.Latest(ctx, symbol, interval)
	if err == nil {
		return dataResponse(c, http.StatusOK, row)
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.Warn().Err(err).Str("symbol", symbol).Msg("cache read failed, falling back to recorder")
	}

	rows, err := h.recorder.LatestIndicators(ctx, symbol, interval, 1)
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Str("interval", interval.String()).Msg("load latest row")
		return dataResponse(c, http.StatusInternalServerError, nil)
	}
	if len(rows) == 0 {
		return dataResponse(c, http.StatusNotFound, nil)
	}
	return dataResponse(c, http.StatusOK, rows[0])
}

func (h *Handler) reports(c echo.Context) error {
	var req listRequest
	if errs := readRequest(c, &req); errs != nil {
		return dataResponse(c, http.StatusBadRequest, errs)
	}
	symbol, interval := pairKey(req.Symbol, req.Interval)
	recs, err := h.recorder.LatestReports(c.Request().Context(), symbol, interval, req.Limit)
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Str("interval", interval.String()).Msg("load reports")
		return dataResponse(c, http.StatusInternalServerError, nil)
	}
	if recs == nil {
		recs = []recorder.ReportRecord{}
	}
	return dataResponse(c, http.StatusOK, recs)
}
