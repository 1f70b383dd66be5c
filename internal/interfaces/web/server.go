// Package web exposes providers, reservation sessions and the manager view
// over HTTP.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/example/rental-broker/internal/application/agency"
	"github.com/example/rental-broker/internal/application/usecases"
	"github.com/example/rental-broker/internal/domain/rental"
	"github.com/example/rental-broker/internal/infrastructure/remote"
	"github.com/example/rental-broker/internal/infrastructure/wire"
)

const (
	ctxProvider = "provider"
	ctxSession  = "session"

	managerHeader  = "X-Manager"
	defaultManager = "default"
)

type Server struct {
	agency   *agency.Agency
	sessions *SessionManager
	remote   usecases.RemoteFactory
	log      *zap.Logger
}

type Option func(*Server)

// WithRemoteFactory sets how providers registered through the manager API
// are reached.
func WithRemoteFactory(f usecases.RemoteFactory) Option {
	return func(s *Server) {
		if f != nil {
			s.remote = f
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

func New(a *agency.Agency, sessions *SessionManager, opts ...Option) *Server {
	s := &Server{
		agency:   a,
		sessions: sessions,
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.remote == nil {
		log := s.log
		s.remote = func(name, baseURL string) rental.Provider {
			return remote.New(name, baseURL, remote.WithLogger(log))
		}
	}
	return s
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLog())

	r.GET("/healthz", s.handleHealth)
	r.GET("/readyz", s.handleReady)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")

	p := v1.Group("/providers/:provider", s.withProvider())
	{
		p.GET("/cartypes", s.handleCarTypes)
		p.GET("/cartypes/:type", s.handleCarType)
		p.GET("/available", s.handleAvailable)
		p.POST("/quotes", s.handleCreateQuote)
		p.POST("/confirm", s.handleConfirmQuote)
		p.POST("/cancel", s.handleCancel)
		p.GET("/reservations", s.handleReservationsByRenter)
		p.GET("/stats", s.handleStats)
	}

	v1.POST("/session", s.handleStartSession)
	sess := v1.Group("/session", s.requireSession())
	{
		sess.DELETE("", s.handleEndSession)
		sess.POST("/quotes", s.handleSessionQuote)
		sess.GET("/quotes", s.handleSessionQuotes)
		sess.POST("/confirm", s.handleSessionConfirm)
		sess.GET("/available", s.handleSessionAvailable)
		sess.GET("/cheapest", s.handleSessionCheapest)
	}

	m := v1.Group("/manager")
	{
		m.GET("/providers", s.handleProviderNames)
		m.POST("/providers", s.handleRegisterProvider)
		m.DELETE("/providers/:provider", s.handleUnregisterProvider)
		m.GET("/providers/:provider/cartypes", s.handleManagerCarTypes)
		m.GET("/providers/:provider/cartypes/:type/reservations", s.handleManagerTypeCount)
		m.GET("/renters/:renter/reservations", s.handleManagerRenterReservations)
		m.GET("/renters/:renter/stats", s.handleManagerRenterCount)
		m.GET("/totals", s.handleTotals)
		m.GET("/popular", s.handlePopular)
	}
	return r
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.agency.ActiveSessions()})
}

func (s *Server) handleReady(c *gin.Context) {
	results := usecases.ProbeProviders{Directory: s.agency.Directory()}.Execute(c.Request.Context())
	status := http.StatusOK
	for _, r := range results {
		if !r.OK {
			status = http.StatusServiceUnavailable
		}
	}
	c.JSON(status, gin.H{"providers": results})
}

func (s *Server) writeError(c *gin.Context, err error) {
	body, status := wire.FromError(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, wire.Error{Code: wire.CodeBadRequest, Message: err.Error()})
}

// Start serves h on addr until ctx is done.
func Start(ctx context.Context, addr string, h http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info("listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
