package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	models "MarketPulse/internal/domain/models"
	icache "MarketPulse/internal/service/cache"
	"MarketPulse/internal/service/metrics"
	"MarketPulse/internal/service/ratelimit"
	"MarketPulse/internal/services/scoring"
	"MarketPulse/internal/usecase"
	xhttp "MarketPulse/pkg/http"
	xlogger "MarketPulse/pkg/logger"
	xutil "MarketPulse/pkg/util"

	"github.com/labstack/echo/v4"
)

// HealthCheck is one named dependency probe for the health endpoint.
type HealthCheck func(ctx context.Context) error

// ScoresEchoHandler exposes the scoring core over HTTP.
type ScoresEchoHandler struct {
	logger *xlogger.Logger
	engine *scoring.Engine
	eval   *usecase.SymbolEvaluator
	hist   *usecase.HistoryUseCase

	cache     icache.BytesCache
	scoreTTL  time.Duration
	signalTTL time.Duration
	rl        *ratelimit.Limiter
	checks    map[string]HealthCheck
}

func NewScoresEchoHandler(logger *xlogger.Logger, engine *scoring.Engine, eval *usecase.SymbolEvaluator, hist *usecase.HistoryUseCase) *ScoresEchoHandler {
	metrics.Register()
	return &ScoresEchoHandler{
		logger:    logger,
		engine:    engine,
		eval:      eval,
		hist:      hist,
		scoreTTL:  15 * time.Second,
		signalTTL: 30 * time.Second,
		rl:        ratelimit.New(),
		checks:    map[string]HealthCheck{},
	}
}

// SetCache enables response caching for the score and signal endpoints.
func (h *ScoresEchoHandler) SetCache(c icache.BytesCache, scoreTTL, signalTTL time.Duration) {
	h.cache = c
	if scoreTTL > 0 {
		h.scoreTTL = scoreTTL
	}
	if signalTTL > 0 {
		h.signalTTL = signalTTL
	}
}

// AddHealthCheck registers a named dependency probe.
func (h *ScoresEchoHandler) AddHealthCheck(name string, fn HealthCheck) {
	h.checks[name] = fn
}

func (h *ScoresEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/score", h.Score)
	g.GET("/signal", h.Signal)
	g.GET("/signals", h.Signals)
	g.GET("/history", h.History)
	g.GET("/health", h.Health)
}

// Score standardizes one caller-supplied indicator value.
func (h *ScoresEchoHandler) Score(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.ScoringLatency.WithLabelValues("score").Observe(time.Since(start).Seconds()) }()

	req := &models.ScoreRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, "score", 10, 5) {
		return xhttp.DataResponse(c, 429, "rate limited")
	}

	cacheKey := fmt.Sprintf("score:%s:%s:%g", req.Symbol, req.Indicator, req.Value)
	if b, ok := h.cached(cacheKey); ok {
		return c.JSONBlob(200, b)
	}

	res := h.engine.Score(c.Request().Context(), req.Symbol, models.IndicatorKind(req.Indicator), req.Value)
	h.store(cacheKey, res, h.scoreTTL)
	return xhttp.SuccessResponse(c, res)
}

// Signal evaluates one symbol end to end.
func (h *ScoresEchoHandler) Signal(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.ScoringLatency.WithLabelValues("signal").Observe(time.Since(start).Seconds()) }()

	req := &models.SignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, "signal", 5, 2) {
		return xhttp.DataResponse(c, 429, "rate limited")
	}

	cacheKey := "signal:" + req.Symbol
	if b, ok := h.cached(cacheKey); ok {
		return c.JSONBlob(200, b)
	}

	ev, err := h.eval.Evaluate(c.Request().Context(), req.Symbol)
	if err != nil {
		metrics.ScoringErrors.WithLabelValues("signal").Inc()
		h.logger.Error("signal usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	h.eval.Record(c.Request().Context(), ev)
	h.store(cacheKey, ev, h.signalTTL)
	return xhttp.SuccessResponse(c, ev)
}

// Signals evaluates a comma-separated list of symbols.
func (h *ScoresEchoHandler) Signals(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.ScoringLatency.WithLabelValues("signals").Observe(time.Since(start).Seconds()) }()

	req := &models.BatchSignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, "signals", 3, 1) {
		return xhttp.DataResponse(c, 429, "rate limited")
	}

	symbols := splitSymbols(req.Symbols)
	if len(symbols) == 0 {
		return xhttp.BadRequestResponse(c, "symbols required")
	}

	out := h.eval.EvaluateBatch(c.Request().Context(), symbols)
	for _, ev := range out {
		h.eval.Record(c.Request().Context(), ev)
	}
	return xhttp.ListResponse(c, out, int64(len(out)))
}

// History returns the deduplicated daily series for one indicator.
func (h *ScoresEchoHandler) History(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.ScoringLatency.WithLabelValues("history").Observe(time.Since(start).Seconds()) }()

	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, "history", 10, 5) {
		return xhttp.DataResponse(c, 429, "rate limited")
	}

	res, err := h.hist.GetHistory(c.Request().Context(), usecase.GetHistoryParams{
		Symbol: req.Symbol,
		Kind:   models.IndicatorKind(req.Indicator),
		Days:   req.Days,
	})
	if err != nil {
		metrics.ScoringErrors.WithLabelValues("history").Inc()
		h.logger.Error("history usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Health probes every registered dependency.
func (h *ScoresEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	status := "ok"
	deps := make(map[string]string, len(h.checks))
	for name, fn := range h.checks {
		if err := fn(ctx); err != nil {
			deps[name] = err.Error()
			status = "degraded"
		} else {
			deps[name] = "ok"
		}
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status": status,
		"deps":   deps,
	})
}

func (h *ScoresEchoHandler) allow(c echo.Context, endpoint string, capacity, refill float64) bool {
	if h.rl == nil {
		return true
	}
	if h.rl.Allow(c.RealIP()+":"+endpoint, capacity, refill) {
		return true
	}
	if h.logger != nil {
		h.logger.Warn("rate limited",
			xlogger.String("endpoint", endpoint),
			xlogger.String("remote", c.RealIP()),
		)
	}
	return false
}

func (h *ScoresEchoHandler) cached(key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(key)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("cache get error", xlogger.Error(err))
		}
		return nil, false
	}
	return b, ok
}

func (h *ScoresEchoHandler) store(key string, v interface{}, ttl time.Duration) {
	if h.cache == nil {
		return
	}
	// cached bytes mirror the SuccessResponse envelope so hits and misses
	// return the same shape
	b, err := json.Marshal(xhttp.APIResponse{Status: 200, Message: "OK", Data: v})
	if err != nil {
		return
	}
	if err := h.cache.SetBytes(key, b, ttl); err != nil && h.logger != nil {
		h.logger.Warn("cache set error", xlogger.Error(err))
	}
}

func splitSymbols(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = xutil.NormalizeSymbol(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
