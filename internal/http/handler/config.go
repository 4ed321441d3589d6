package handler

import (
	"errors"
	"net/http"

	"github.com/edirooss/picam-panel/internal/domain/streamconfig"
	"github.com/edirooss/picam-panel/pkg/jsonx"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StreamConfigStore is the persistence the config endpoints depend on.
type StreamConfigStore interface {
	Load() (streamconfig.StreamConfig, error)
	Update(patch streamconfig.Patch) (streamconfig.StreamConfig, error)
}

// ConfigHandler serves the stream configuration.
//
// Supported operations:
//   - GET  /api/config → Current configuration
//   - POST /api/config → Merge-update (partial object, unknown keys ignored)
type ConfigHandler struct {
	log   *zap.Logger
	store StreamConfigStore
}

// NewConfigHandler constructs a ConfigHandler instance.
func NewConfigHandler(log *zap.Logger, store StreamConfigStore) *ConfigHandler {
	return &ConfigHandler{
		log:   log.Named("config"),
		store: store,
	}
}

// GetConfig handles GET /api/config.
//
// Status Codes:
//   - 200 OK  → full configuration record
//   - 500 Internal Server Error → stored file unreadable
func (h *ConfigHandler) GetConfig(c *gin.Context) {
	cfg, err := h.store.Load()
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// UpdateConfig handles POST /api/config.
//
// Behavior:
//   - Body is a JSON object of field → value; values are coerced to field types.
//   - All-or-nothing: a single bad value leaves the stored record unchanged.
//
// Status Codes:
//   - 200 OK  → {"status":"ok","config":{...}}
//   - 400 Bad Request → body is not a single JSON object
//   - 422 Unprocessable Entity → value cannot be coerced
//   - 500 Internal Server Error → storage failure
func (h *ConfigHandler) UpdateConfig(c *gin.Context) {
	obj, err := jsonx.DecodeObject(c.Request.Body, jsonx.DefaultMaxBytes)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	cfg, err := h.store.Update(streamconfig.Patch(obj))
	if err != nil {
		c.Error(err)

		var verr *streamconfig.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"message": verr.Error(),
				"field":   verr.Field,
			})
			return
		}

		// *repo.StorageError and anything unexpected
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "config": cfg})
}
