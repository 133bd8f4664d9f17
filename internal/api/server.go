// Package api exposes the scheduling use cases over HTTP. Authentication
// and authorization are handled upstream and are not part of this
// service.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"example.com/hospital/services/scheduling/internal/scheduling"
)

// Server is the HTTP server for the API.
type Server struct {
	addr       string
	router     *gin.Engine
	httpServer *http.Server

	consultations *scheduling.Service
	users         *scheduling.UserService
}

// NewServer creates the API server and registers routes.
func NewServer(addr string, consultations *scheduling.Service, users *scheduling.UserService) *Server {
	server := &Server{
		addr:          addr,
		router:        gin.New(),
		consultations: consultations,
		users:         users,
	}

	server.router.Use(gin.Recovery())
	server.router.Use(requestLogger())
	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	api := s.router.Group("/api")

	consultations := api.Group("/consultations")
	{
		consultations.POST("", s.createConsultation)
		consultations.GET("", s.listConsultations)
		consultations.GET("/:id", s.getConsultation)
		consultations.PUT("/:id", s.updateConsultation)
		consultations.DELETE("/:id", s.cancelConsultation)
		consultations.GET("/patient/:patientId", s.listConsultationsByPatient)
		consultations.GET("/patient/:patientId/upcoming", s.listUpcomingConsultations)
	}

	users := api.Group("/users")
	{
		users.POST("", s.createUser)
		users.GET("/:id", s.getUser)
		users.GET("", s.listUsers)
	}
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.router,
	}

	log.Info().Msgf("HTTP server starting on %s", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request handled")
	}
}
