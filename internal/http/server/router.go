// Package server assembles the panel's Gin engine: middleware chain and routes.
package server

import (
	"html/template"
	"net/http"
	"time"

	"github.com/edirooss/picam-panel/internal/http/handler"
	mw "github.com/edirooss/picam-panel/internal/http/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// sessionName is the cookie carrying the CSRF session.
const sessionName = "picam_session"

// Options tune the engine.
type Options struct {
	Dev               bool
	SessionSecret     string
	MaxConcurrentStat int // in-flight /api/system/stats requests; <=0 means unlimited
	Templates         *template.Template
}

// Deps are the collaborators behind the routes.
type Deps struct {
	Store      handler.StreamConfigStore
	Stream     handler.StreamController
	Sampler    handler.TelemetrySampler
	Rebooter   handler.Rebooter
	LAN        handler.LANAddressSource
	LocalAddrs handler.LocalAddrSource
	Unit       string
}

// NewRouter returns the fully wired engine.
func NewRouter(log *zap.Logger, opts Options, deps Deps) *gin.Engine {
	r := gin.New()

	// Apply Gin middlewares
	{
		r.Use(gin.Recovery()) // Recovery first (outermost)
		r.Use(mw.RequestID()) // early in the chain so it's available everywhere

		if opts.Dev { // Enable CORS for a local UI dev server
			r.Use(cors.New(cors.Config{
				AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000", "http://127.0.0.1:3000"},
				AllowMethods:     []string{"GET", "POST", "OPTIONS"},
				AllowHeaders:     []string{"X-Request-ID", "Content-Type", "X-CSRF-Token"},
				ExposeHeaders:    []string{"X-Request-ID", "X-Total-Count"},
				AllowCredentials: true, // Allow cookies in dev
				MaxAge:           12 * time.Hour,
			}))
		} else {
			r.Use(secure.New(secure.Config{
				FrameDeny:          true,
				ContentTypeNosniff: true,
				ReferrerPolicy:     "same-origin",
				IsDevelopment:      false,
			}))
		}

		store := cookie.NewStore([]byte(opts.SessionSecret))
		store.Options(sessions.Options{
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
			MaxAge:   int((24 * time.Hour).Seconds()),
		})
		r.Use(sessions.Sessions(sessionName, store))

		r.Use(mw.AccessLog(log.Named("access")))

		r.Use(func(c *gin.Context) {
			// The config body is tiny; cap everything at 1MB.
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 1<<20)
			c.Next()
		})
	}

	if opts.Templates != nil {
		r.SetHTMLTemplate(opts.Templates)
		r.GET("/", handler.NewIndexHandler(log, deps.Store, deps.Stream, deps.Sampler, deps.LAN, deps.Unit).GetIndex)
	}

	// Register route handlers
	api := r.Group("/api", mw.ValidateSessionCSRF)
	{
		api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
		api.GET("/csrf", handler.IssueSessionCSRF)

		{
			confhndlr := handler.NewConfigHandler(log, deps.Store)
			api.GET("/config", confhndlr.GetConfig)
			api.POST("/config", confhndlr.UpdateConfig)
		}

		{
			streamhndlr := handler.NewStreamHandler(log, deps.Stream, deps.Store, deps.LAN)
			api.GET("/stream/status", streamhndlr.GetStatus)
			api.GET("/stream/url", streamhndlr.GetURL)
			api.POST("/stream/start", streamhndlr.Start)
			api.POST("/stream/stop", streamhndlr.Stop)
			api.POST("/stream/restart", streamhndlr.Restart)
		}

		{
			syshndlr := handler.NewSystemHandler(log, deps.Sampler, deps.Rebooter)
			api.POST("/system/reboot", syshndlr.Reboot)
			api.GET("/system/stats", mw.LimitConcurrentRequests(opts.MaxConcurrentStat), syshndlr.GetStats)
			api.GET("/system/info", syshndlr.GetInfo)
			api.GET("/system/net/localaddrs", handler.NewLocalAddrHandler(log, deps.LocalAddrs).GetLocalAddrList)
		}
	}

	return r
}
