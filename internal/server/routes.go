package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Evaluation API (authenticated)
	s.echo.GET("/api/candidates", s.handleListCandidates, s.requireAuth)
	s.echo.PUT("/api/candidates/:id/reaction", s.handleSetReaction, s.requireAuth)
	s.echo.PUT("/api/candidates/:id/star", s.handleSetStar, s.requireAuth)
}
