package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/air-quality-advisor/internal/domain/forecast"
	"github.com/yanqian/air-quality-advisor/internal/domain/historical"
	"github.com/yanqian/air-quality-advisor/internal/domain/location"
	"github.com/yanqian/air-quality-advisor/internal/domain/notification"
	apperrors "github.com/yanqian/air-quality-advisor/pkg/errors"
)

const msgInvalidBody = "The request body must be a valid JSON object."

// Handler wires the HTTP transport to domain services.
type Handler struct {
	forecastSvc     forecast.Service
	historicalSvc   historical.Service
	notificationSvc notification.Service
	logger          *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(forecastSvc forecast.Service, historicalSvc historical.Service, notificationSvc notification.Service, logger *slog.Logger) *Handler {
	return &Handler{
		forecastSvc:     forecastSvc,
		historicalSvc:   historicalSvc,
		notificationSvc: notificationSvc,
		logger:          logger.With("component", "http.handler"),
	}
}

// Forecast returns a generated forecast for one location.
func (h *Handler) Forecast(c *gin.Context) {
	var req forecast.Request
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.forecastSvc.Forecast(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History analyzes a location's air quality over a date range.
func (h *Handler) History(c *gin.Context) {
	var req historical.Request
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.historicalSvc.Analyze(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// NotificationStrategy suggests how a user should be alerted.
func (h *Handler) NotificationStrategy(c *gin.Context) {
	var req notification.Request
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.notificationSvc.Strategy(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Locations suggests supported locations matching ?q=.
func (h *Handler) Locations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"locations": location.Search(c.Query("q"))})
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abortWithError(c, apperrors.Wrap(apperrors.CodeInvalidInput, msgInvalidBody, err))
		return false
	}
	return true
}
