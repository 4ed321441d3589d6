package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/edirooss/picam-panel/internal/config"
	"github.com/edirooss/picam-panel/internal/domain/streamconfig"
	"github.com/edirooss/picam-panel/internal/http/server"
	"github.com/edirooss/picam-panel/internal/repo"
	"github.com/edirooss/picam-panel/internal/service"
	"github.com/edirooss/picam-panel/internal/telemetry"
	"github.com/edirooss/picam-panel/web"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// watchDebounce settles bursts of file events (editor saves, atomic renames).
const watchDebounce = 750 * time.Millisecond

func newServeCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP panel",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	level := cfg.Log.Level
	if cfg.IsDev() {
		level = "debug"
	}
	log := buildLogger(level)
	defer log.Sync()
	log = log.Named("main")

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create Gin router
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = zap.NewStdLog(log.Named("gin")).Writer() // Configure Gin's logger to use Zap

	ctrl, closeCtrl, err := buildController(log, cfg)
	if err != nil {
		return err
	}
	defer closeCtrl()

	store := repo.NewStreamConfigRepository(log, cfg.Stream.ConfigPath)
	if _, err := store.Load(); err != nil {
		// Not fatal: the panel still serves status, controls and telemetry.
		log.Warn("stream config unreadable; saving is refused until fixed", zap.Error(err))
	}

	tmpl, err := web.Templates()
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}

	r := server.NewRouter(log, server.Options{
		Dev:               cfg.IsDev(),
		SessionSecret:     cfg.Session.Secret,
		MaxConcurrentStat: cfg.Telemetry.MaxConcurrent,
		Templates:         tmpl,
	}, server.Deps{
		Store:  store,
		Stream: service.NewStreamService(log, ctrl, cfg.Stream.Unit),
		Sampler: telemetry.NewSampler(log, telemetry.Options{
			Window:      cfg.Telemetry.SampleWindow,
			ThermalPath: cfg.Telemetry.ThermalPath,
		}),
		Rebooter:   service.NewRebootScheduler(log, ctrl, cfg.System.RebootDelay),
		LAN:        service.NewLANAddressDiscoverer(),
		LocalAddrs: service.NewLocalAddrLister(service.LocalAddrListerOptions{}),
		Unit:       cfg.Stream.Unit,
	})

	if cfg.Stream.Watch {
		onChange := changeLogger(log)
		if cfg.Redis.Address != "" {
			rdb := repo.NewRedisClient(cfg.Redis.Address, cfg.Redis.DB, log)
			defer rdb.Close()
			onChange = changePublisher(log, repo.NewStreamConfigEventsRepository(log, rdb, cfg.Redis.Channel))
		}
		go func() {
			if err := store.Watch(ctx, watchDebounce, onChange); err != nil {
				log.Warn("stream config watcher stopped", zap.Error(err))
			}
		}()
	}

	httpsrv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           r,
		ReadHeaderTimeout: 2 * time.Second,  // kills header-drip Slowloris
		ReadTimeout:       10 * time.Second, // full request read (incl. body)
		WriteTimeout:      15 * time.Second, // covers the telemetry sampling window
		IdleTimeout:       60 * time.Second, // keep-alive cap
		MaxHeaderBytes:    1 << 20,          // 1MB cap
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("running HTTP server", zap.String("addr", httpsrv.Addr), zap.String("unit", cfg.Stream.Unit))
		errCh <- httpsrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", zap.Error(err))
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpsrv.Shutdown(sctx); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
	}
	log.Info("server closed")
	return nil
}

func changeLogger(log *zap.Logger) func(context.Context, streamconfig.StreamConfig) {
	return func(_ context.Context, cfg streamconfig.StreamConfig) {
		log.Info("stream config changed on disk", zap.String("rtsp_path", cfg.RTSPPath), zap.Int("framerate", cfg.Framerate))
	}
}

func changePublisher(log *zap.Logger, events *repo.StreamConfigEventsRepository) func(context.Context, streamconfig.StreamConfig) {
	logChange := changeLogger(log)
	return func(ctx context.Context, cfg streamconfig.StreamConfig) {
		logChange(ctx, cfg)
		if err := events.Publish(ctx, cfg); err != nil {
			log.Warn("publishing stream config change failed", zap.Error(err))
		}
	}
}
