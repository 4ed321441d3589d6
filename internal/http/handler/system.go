package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/edirooss/picam-panel/internal/service"
	"github.com/edirooss/picam-panel/internal/telemetry"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TelemetrySampler takes a point-in-time telemetry snapshot.
type TelemetrySampler interface {
	Sample(ctx context.Context) telemetry.Snapshot
}

// Rebooter schedules a delayed host reboot.
type Rebooter interface {
	Schedule() bool
	Delay() time.Duration
}

// SystemHandler serves host-level endpoints.
type SystemHandler struct {
	log      *zap.Logger
	sampler  TelemetrySampler
	rebooter Rebooter
	hostInfo func(ctx context.Context) service.SystemInfo
}

// NewSystemHandler constructs a SystemHandler instance.
func NewSystemHandler(log *zap.Logger, sampler TelemetrySampler, rebooter Rebooter) *SystemHandler {
	return &SystemHandler{
		log:      log.Named("system"),
		sampler:  sampler,
		rebooter: rebooter,
		hostInfo: service.HostInfo,
	}
}

// GetStats handles GET /api/system/stats.
// Blocks for the sampling window; always 200.
func (h *SystemHandler) GetStats(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, h.sampler.Sample(c.Request.Context()))
}

// GetInfo handles GET /api/system/info.
func (h *SystemHandler) GetInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.hostInfo(c.Request.Context()))
}

// Reboot handles POST /api/system/reboot.
//
// The response is sent before the reboot runs; a repeated request while one
// is pending gets the same acknowledgement.
func (h *SystemHandler) Reboot(c *gin.Context) {
	if h.rebooter.Schedule() {
		h.log.Warn("reboot requested", zap.String("client_ip", c.ClientIP()))
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "rebooting",
		"message": fmt.Sprintf("System will reboot in %s", h.rebooter.Delay()),
	})
}
