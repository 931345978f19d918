package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"lightshow/internal/config"
	"lightshow/internal/show"
	"lightshow/internal/storage"

	"lightshow/internal/api/handlers"
	"lightshow/internal/api/middleware"
)

type Server struct {
	cfg        *config.Config
	controller *show.Controller
	storage    *storage.Client
	history    handlers.HistoryStore
	router     *gin.Engine
	http       *http.Server
}

func New(cfg *config.Config, controller *show.Controller, st *storage.Client, history handlers.HistoryStore) *Server {
	if cfg.Server.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.SilentLogger("/status", "/health"), gin.Recovery())

	s := &Server{
		cfg:        cfg,
		controller: controller,
		storage:    st,
		history:    history,
		router:     router,
	}
	s.http = &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	// The player page may be served from another host than the Pi.
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Filename"}

	s.router.Use(cors.New(corsConfig))
}

func (s *Server) setupRoutes() {
	showHandler := handlers.NewShowHandler(
		s.controller,
		s.storage,
		len(s.cfg.Lights.Pins),
		time.Duration(s.cfg.Server.StartDelayMS)*time.Millisecond,
	)
	libraryHandler := handlers.NewLibraryHandler(s.storage, s.cfg.Server.MaxUploadMB)
	historyHandler := handlers.NewHistoryHandler(s.history)

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "lightshow"})
	})

	// Playback
	s.router.POST("/play", showHandler.PlayRaw)
	s.router.GET("/play/:filename", showHandler.PlayFile)
	s.router.POST("/stop", showHandler.Stop)
	s.router.POST("/test/:pattern", showHandler.PlayPattern)
	s.router.GET("/status", showHandler.Status)
	s.router.GET("/history", historyHandler.GetHistory)

	// Library
	s.router.GET("/list", libraryHandler.List)
	s.router.GET("/audio/:filename", libraryHandler.Audio)

	library := s.router.Group("/")
	if secret := s.cfg.Server.JWTSecret; secret != "" {
		library.Use(middleware.RequireAuth([]byte(secret)), middleware.RequireRole("editor"))
	}
	{
		library.POST("/upload", libraryHandler.Upload)
		library.DELETE("/audio/:filename", libraryHandler.Delete)
	}

	if dir := s.cfg.Server.StaticDir; dir != "" {
		if _, err := os.Stat(dir); err == nil {
			s.router.Static("/ui", dir)
			s.router.GET("/", func(c *gin.Context) {
				c.Redirect(http.StatusFound, "/ui/")
			})
		}
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server on server.port until Shutdown is called.
func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
