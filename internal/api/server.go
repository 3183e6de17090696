package api

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/lagoon-project/lagoon/internal/bancho"
	"github.com/lagoon-project/lagoon/internal/config"
	intnet "github.com/lagoon-project/lagoon/internal/network"
	"github.com/lagoon-project/lagoon/internal/util"
)

// Server is the HTTP server fronting the bancho session layer.
type Server struct {
	cfg    *config.Config
	bancho *bancho.Bancho

	httpServer *http.Server
	router     *gin.Engine
	startedAt  time.Time
}

// NewServer creates a new HTTP server.
func NewServer(cfg *config.Config, b *bancho.Bancho) *Server {
	if cfg.GetApplicationData().Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Server{
		cfg:    cfg,
		bancho: b,
	}
}

// Start initializes and runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.startedAt = time.Now()
	s.router = s.buildRouter()

	addr := fmt.Sprintf(":%d", s.cfg.GetServerData().BanchoPort)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	security := s.cfg.GetApplicationData().Security
	if security.TLSEnabled {
		certFile, keyFile := security.TLSCertFile, security.TLSKeyFile
		if !util.FileExists(certFile) || !util.FileExists(keyFile) {
			if err := util.GenerateSelfSignedCert(certFile, keyFile); err != nil {
				return fmt.Errorf("failed to generate TLS certificate: %w", err)
			}
		}
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return fmt.Errorf("failed to load TLS certificate: %w", err)
		}
		s.httpServer.TLSConfig = &tls.Config{
			MinVersion:   tls.VersionTLS12,
			Certificates: []tls.Certificate{cert},
		}
	}

	// SO_REUSEADDR lets a restarted process rebind immediately.
	lc := intnet.ReuseAddrListenConfig()
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("bancho server error: %w", err)
	}

	log.Info().Str("addr", addr).Bool("tls", security.TLSEnabled).
		Msg("bancho HTTP server starting")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if s.httpServer.TLSConfig != nil {
		err = s.httpServer.Serve(tls.NewListener(ln, s.httpServer.TLSConfig))
	} else {
		err = s.httpServer.Serve(ln)
	}

	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("bancho server error: %w", err)
	}
	return nil
}

// buildRouter creates the Gin router with all routes and middleware.
func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestLogger())
	router.Use(SecurityHeaders())

	allowedOrigins := s.cfg.GetApplicationData().Security.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "osu-token"},
		ExposeHeaders:    []string{"Content-Length", "cho-token"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	rateLimiter := NewRateLimiter(s.cfg.GetApplicationData().Security.RateLimitRPS)
	router.Use(rateLimiter.Middleware())

	// The game client speaks to the root path.
	router.POST("/", s.handleBancho)
	router.GET("/", s.handleIndex)

	// Public web endpoints.
	web := router.Group("/web")
	{
		web.GET("/online", s.handleOnline)
		web.GET("/matches", s.handleMatches)
		web.GET("/status", s.handleStatus)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
	})

	return router
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop() error {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
