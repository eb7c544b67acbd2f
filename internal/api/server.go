// Package api exposes the SCC engine over HTTP: deterministic SCC
// requests, marginal damage series, and Monte Carlo batches.
package api

import (
	"fmt"
	"log"

	"socialcost/app"
	"socialcost/internal/config"

	"github.com/gin-gonic/gin"
)

// Server hosts the JSON API over the engine services.
type Server struct {
	router       *gin.Engine
	service      *app.SCCService
	orchestrator *app.MonteCarloOrchestrator
	cfg          *config.Config
}

// NewServer wires routes over the engine.
func NewServer(cfg *config.Config, service *app.SCCService, orchestrator *app.MonteCarloOrchestrator) *Server {
	gin.SetMode(cfg.Server.GinMode)
	s := &Server{
		router:       gin.New(),
		service:      service,
		orchestrator: orchestrator,
		cfg:          cfg,
	}
	s.router.Use(gin.Recovery())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/scc", s.handleSCC)
		v1.POST("/damages", s.handleMarginalDamages)
		v1.POST("/montecarlo", s.handleMonteCarlo)
	}
}

// Run blocks serving HTTP on the configured port.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.cfg.Server.Port)
	log.Printf("[Server] listening on %s", addr)
	return s.router.Run(addr)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine { return s.router }
