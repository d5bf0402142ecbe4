package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"equity-advisor/internal/logger"
	"equity-advisor/internal/service"
	"equity-advisor/internal/trace"
	"equity-advisor/internal/types"
)

// Advisor is the part of service.Advisor the routes need.
type Advisor interface {
	AnalyzeSymbol(ctx context.Context, symbol string) (*service.Result, error)
	RefreshAll(ctx context.Context) (service.RefreshSummary, error)
	TopChanges(ctx context.Context, daysBack int) ([]service.ChangeView, error)
	Latest(ctx context.Context, symbol string) (*types.Recommendation, error)
	ListLatest(ctx context.Context) ([]types.Recommendation, error)
}

var _ Advisor = (*service.Advisor)(nil)

type handler struct {
	advisor Advisor
}

// NewRouter wires the API routes. metrics may be nil.
func NewRouter(advisor Advisor, metrics http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	h := &handler{advisor: advisor}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	api := r.Group("/api")
	{
		api.GET("/analyze/:symbol", h.analyze)
		api.GET("/refresh-all", h.refreshAll)
		api.GET("/stocks", h.listStocks)
		api.GET("/stocks/top-changes", h.topChanges)
		api.GET("/stocks/:symbol", h.stock)
	}
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := trace.StartSpan(c.Request.Context(), "http "+c.Request.Method+" "+c.FullPath())
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if status >= http.StatusInternalServerError {
			logger.Warn(ctx, "HTTP request failed", args...)
			return
		}
		logger.Debug(ctx, "HTTP request", args...)
	}
}

func (h *handler) analyze(c *gin.Context) {
	res, err := h.advisor.AnalyzeSymbol(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handler) refreshAll(c *gin.Context) {
	sum, err := h.advisor.RefreshAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *handler) listStocks(c *gin.Context) {
	recs, err := h.advisor.ListLatest(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (h *handler) topChanges(c *gin.Context) {
	days := 7
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 365 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be an integer between 1 and 365"})
			return
		}
		days = n
	}
	changes, err := h.advisor.TopChanges(c.Request.Context(), days)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, changes)
}

func (h *handler) stock(c *gin.Context) {
	rec, err := h.advisor.Latest(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func writeError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}

	var (
		pe *types.PersistenceError
		se *types.SynthesisError
	)
	status := http.StatusInternalServerError
	// branch and store errors may wrap ErrNotFound; the typed cases win
	switch {
	case errors.Is(err, types.ErrInvalidSymbol):
		status = http.StatusBadRequest
	case errors.Is(err, types.ErrAnalysisUnavailable):
		status = http.StatusServiceUnavailable
		body["missing_signals"] = types.MissingSignals(err)
	case errors.As(err, &se):
		status = http.StatusServiceUnavailable
		body["signals_present"] = se.Present
	case errors.As(err, &pe):
		body["recommendation"] = pe.Recommendation
	case errors.Is(err, types.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// client went away
		status = 499
	}
	if status >= http.StatusInternalServerError {
		logger.ErrorWithErr(c.Request.Context(), "Request failed", err, "path", c.Request.URL.Path)
	}
	c.JSON(status, body)
}
