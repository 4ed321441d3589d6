package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StreamController starts and stops the streaming unit.
type StreamController interface {
	Running(ctx context.Context) bool
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Restart(ctx context.Context) error
}

// LANAddressSource reports the host's LAN address.
type LANAddressSource interface {
	DiscoverLANAddress(ctx context.Context) string
}

// StreamHandler exposes the streaming unit.
//
// Supported operations:
//   - GET  /api/stream/status
//   - GET  /api/stream/url
//   - POST /api/stream/start
//   - POST /api/stream/stop
//   - POST /api/stream/restart
type StreamHandler struct {
	log   *zap.Logger
	ctrl  StreamController
	store StreamConfigStore
	lan   LANAddressSource
}

// NewStreamHandler constructs a StreamHandler instance.
func NewStreamHandler(log *zap.Logger, ctrl StreamController, store StreamConfigStore, lan LANAddressSource) *StreamHandler {
	return &StreamHandler{
		log:   log.Named("stream"),
		ctrl:  ctrl,
		store: store,
		lan:   lan,
	}
}

// GetStatus handles GET /api/stream/status.
func (h *StreamHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"running": h.ctrl.Running(c.Request.Context())})
}

// GetURL handles GET /api/stream/url.
//
// Status Codes:
//   - 200 OK  → {"rtsp_url":"rtsp://host:port/path"}
//   - 500 Internal Server Error → stored config unreadable
func (h *StreamHandler) GetURL(c *gin.Context) {
	cfg, err := h.store.Load()
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rtsp_url": cfg.RTSPURL(h.lan.DiscoverLANAddress(c.Request.Context()))})
}

// Start handles POST /api/stream/start.
func (h *StreamHandler) Start(c *gin.Context) { h.action(c, h.ctrl.Start, "started") }

// Stop handles POST /api/stream/stop.
func (h *StreamHandler) Stop(c *gin.Context) { h.action(c, h.ctrl.Stop, "stopped") }

// Restart handles POST /api/stream/restart.
func (h *StreamHandler) Restart(c *gin.Context) { h.action(c, h.ctrl.Restart, "restarted") }

func (h *StreamHandler) action(c *gin.Context, fn func(context.Context) error, done string) {
	if err := fn(c.Request.Context()); err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": done})
}
