package api

import (
	"net/http"

	"socialcost/app"
	"socialcost/domain/core"
	"socialcost/domain/montecarlo"
	"socialcost/domain/scc"
	"socialcost/internal/errors"

	"github.com/gin-gonic/gin"
)

// SCCRequest is one deterministic SCC evaluation.
type SCCRequest struct {
	Scenario string  `json:"scenario" binding:"required"`
	Year     int     `json:"year" binding:"required"`
	Discount string  `json:"discount"` // "flat" (default) or "ramsey"
	Rate     float64 `json:"rate"`
	PRTP     float64 `json:"prtp"`
	Eta      float64 `json:"eta"`
	Domestic bool    `json:"domestic"`
}

// DamagesRequest asks for the undiscounted marginal damage series.
type DamagesRequest struct {
	Scenario string `json:"scenario" binding:"required"`
	Year     int    `json:"year" binding:"required"`
}

// MonteCarloRequest configures one batch.
type MonteCarloRequest struct {
	Scenario            string                        `json:"scenario" binding:"required"`
	Year                int                           `json:"year" binding:"required"`
	Trials              int                           `json:"trials" binding:"required"`
	Distributions       []montecarlo.DistributionSpec `json:"distributions"`
	DiscountRates       []float64                     `json:"discount_rates"`
	Ramsey              []scc.DiscountSpec            `json:"ramsey,omitempty"`
	Domestic            bool                          `json:"domestic"`
	DropDiscontinuities bool                          `json:"drop_discontinuities"`
	Seed                int64                         `json:"seed"`
	Workers             int                           `json:"workers"`
	OutputDir           string                        `json:"output_dir"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleSCC(c *gin.Context) {
	var req SCCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: errors.CodeConfiguration, Message: err.Error()})
		return
	}
	scenario, err := scc.ParseScenario(req.Scenario)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: errors.CodeConfiguration, Message: err.Error()})
		return
	}
	spec := scc.FlatDiscount(req.Rate)
	if req.Discount == string(scc.DiscountRamsey) {
		spec = scc.RamseyDiscount(req.PRTP, req.Eta)
	}

	result, err := s.service.Compute(c.Request.Context(), scenario, req.Year, spec, req.Domestic)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleMarginalDamages(c *gin.Context) {
	var req DamagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: errors.CodeConfiguration, Message: err.Error()})
		return
	}
	scenario, err := scc.ParseScenario(req.Scenario)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: errors.CodeConfiguration, Message: err.Error()})
		return
	}
	series, err := s.service.MarginalDamages(c.Request.Context(), scenario, req.Year)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

func (s *Server) handleMonteCarlo(c *gin.Context) {
	var req MonteCarloRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: errors.CodeConfiguration, Message: err.Error()})
		return
	}
	scenario, err := scc.ParseScenario(req.Scenario)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: errors.CodeConfiguration, Message: err.Error()})
		return
	}
	discounts := make([]scc.DiscountSpec, 0, len(req.DiscountRates)+len(req.Ramsey))
	for _, rate := range req.DiscountRates {
		discounts = append(discounts, scc.FlatDiscount(rate))
	}
	discounts = append(discounts, req.Ramsey...)

	batch, err := s.orchestrator.RunBatch(c.Request.Context(), app.BatchRequest{
		Scenario:            scenario,
		PulseYear:           req.Year,
		Trials:              req.Trials,
		Distributions:       req.Distributions,
		Discounts:           discounts,
		Domestic:            req.Domestic,
		DropDiscontinuities: req.DropDiscontinuities,
		Seed:                req.Seed,
		Workers:             req.Workers,
		OutputDir:           req.OutputDir,
	})
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

// writeEngineError maps configuration problems to 400 and everything
// else to 500.
func writeEngineError(c *gin.Context, err error) {
	if core.IsConfigurationError(err) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: errors.CodeConfiguration, Message: err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Code: errors.CodeEngine, Message: err.Error()})
}
