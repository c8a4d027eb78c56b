// Package admin serves a small read-only HTTP view of one gateway client:
// liveness, session status, the pending request ledger, the operation
// catalog and Prometheus metrics.
package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/ibctl/internal/auth"
	"github.com/danmuck/ibctl/internal/dispatch"
	"github.com/danmuck/ibctl/internal/observability"
	"github.com/danmuck/ibctl/internal/protocol/schema"
	"github.com/danmuck/ibctl/internal/protocol/session"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const Version = "0.1.0"

// Source is the client view the routes read from.
type Source interface {
	Status() session.Status
	ServerVersion() int
	ConnectionTime() time.Time
	ManagedAccounts() []string
	Ledger() *dispatch.Ledger
	Catalog() *schema.Catalog
}

type Config struct {
	Addr         string
	AllowOrigins []string
	// AccessLog logs every request through zerolog.
	AccessLog bool
	// Token, when set, is required as a bearer token on every route but
	// /health.
	Token string
}

type Server struct {
	cfg      Config
	src      Source
	router   *gin.Engine
	appeared time.Time
	http     *http.Server
}

func New(cfg Config, src Source) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestMetrics())
	if cfg.AccessLog {
		r.Use(observability.RequestLogger(log.Logger))
	}
	if len(cfg.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowOrigins,
			AllowMethods: []string{"GET"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}
	s := &Server{cfg: cfg, src: src, router: r, appeared: time.Now()}
	s.registerRoutes()
	return s
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down with a short grace period.
func (s *Server) Run(ctx context.Context) error {
	s.http = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.cfg.Addr).Msg("admin.Run listening")
		errCh <- s.http.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("admin.Run shutdown")
			return err
		}
		return nil
	}
}

func requireToken(v auth.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.CheckHeader(v, c.GetHeader("Authorization")); err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Next()
	}
}

func (s *Server) uptime() string {
	return time.Since(s.appeared).Round(time.Millisecond).String()
}

