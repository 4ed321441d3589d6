package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/edirooss/picam-panel/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LocalAddrSource lists local IPv4 interface addresses.
type LocalAddrSource interface {
	GetLocalAddrs(ctx context.Context) ([]service.IPv4Address, error)
}

type LocalAddrHandler struct {
	log *zap.Logger
	svc LocalAddrSource
}

// NewLocalAddrHandler constructs a LocalAddrHandler instance.
func NewLocalAddrHandler(log *zap.Logger, svc LocalAddrSource) *LocalAddrHandler {
	return &LocalAddrHandler{
		log: log.Named("localaddr"),
		svc: svc,
	}
}

// GetLocalAddrList handles GET /api/system/net/localaddrs.
func (h *LocalAddrHandler) GetLocalAddrList(c *gin.Context) {
	localAddrs, err := h.svc.GetLocalAddrs(c.Request.Context())
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.Header("X-Total-Count", strconv.Itoa(len(localAddrs)))
	c.JSON(http.StatusOK, localAddrs)
}
