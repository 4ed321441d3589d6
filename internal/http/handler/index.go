package handler

import (
	"context"
	"net/http"

	"github.com/edirooss/picam-panel/internal/domain/streamconfig"
	"github.com/edirooss/picam-panel/internal/telemetry"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// IndexPage is the data rendered into index.html.
type IndexPage struct {
	Fields      []streamconfig.FieldValue
	ConfigError string // set when the stored file is unreadable; Fields then hold defaults
	RTSPURL     string
	LANAddress  string
	Unit        string
	Running     bool
	Stats       telemetry.Snapshot
}

// IndexHandler renders the control panel page.
type IndexHandler struct {
	log     *zap.Logger
	store   StreamConfigStore
	ctrl    StreamController
	sampler TelemetrySampler
	lan     LANAddressSource
	unit    string
}

// NewIndexHandler constructs an IndexHandler instance.
func NewIndexHandler(log *zap.Logger, store StreamConfigStore, ctrl StreamController, sampler TelemetrySampler, lan LANAddressSource, unit string) *IndexHandler {
	return &IndexHandler{
		log:     log.Named("index"),
		store:   store,
		ctrl:    ctrl,
		sampler: sampler,
		lan:     lan,
		unit:    unit,
	}
}

// GetIndex handles GET /.
//
// Config, LAN address, unit state and telemetry are gathered concurrently;
// the page never fails on their account.
func (h *IndexHandler) GetIndex(c *gin.Context) {
	page := h.gather(c.Request.Context())
	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, "index.html", page)
}

func (h *IndexHandler) gather(ctx context.Context) IndexPage {
	page := IndexPage{Unit: h.unit}

	var cfg streamconfig.StreamConfig
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if cfg, err = h.store.Load(); err != nil {
			h.log.Warn("stored config unreadable; showing defaults", zap.Error(err))
			page.ConfigError = err.Error()
			cfg = streamconfig.Defaults()
		}
		return nil
	})
	g.Go(func() error {
		page.LANAddress = h.lan.DiscoverLANAddress(gctx)
		return nil
	})
	g.Go(func() error {
		page.Running = h.ctrl.Running(gctx)
		return nil
	})
	g.Go(func() error {
		page.Stats = h.sampler.Sample(gctx)
		return nil
	})
	_ = g.Wait() // all goroutines return nil

	page.Fields = cfg.Values()
	page.RTSPURL = cfg.RTSPURL(page.LANAddress)
	return page
}
