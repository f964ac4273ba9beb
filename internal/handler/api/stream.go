package api

import (
	models "MarketDash/internal/domain/models"
	"MarketDash/internal/service/stream"
	xlogger "MarketDash/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SnapshotSource supplies the frames a new subscriber starts from.
type SnapshotSource interface {
	Snapshot() []models.TickerFrame
}

// StreamHandler upgrades ticker subscribers onto the websocket hub.
type StreamHandler struct {
	logger *xlogger.Logger
	hub    *stream.Hub
	snap   SnapshotSource
}

func NewStreamHandler(logger *xlogger.Logger, hub *stream.Hub, snap SnapshotSource) *StreamHandler {
	return &StreamHandler{logger: logger, hub: hub, snap: snap}
}

func (h *StreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/ws/ticker", h.Ticker)
}

func (h *StreamHandler) Ticker(c echo.Context) error {
	var initial []models.TickerFrame
	if h.snap != nil {
		initial = h.snap.Snapshot()
	}
	if err := h.hub.Serve(c.Response(), c.Request(), initial); err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.String("remote", c.RealIP()), xlogger.Error(err))
	}
	return nil
}
