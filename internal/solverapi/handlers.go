package solverapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/signalsfoundry/colortrace/internal/logging"
	"github.com/signalsfoundry/colortrace/internal/observability"
	"github.com/signalsfoundry/colortrace/internal/solver"
	"github.com/signalsfoundry/colortrace/model"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleSolve(c *gin.Context) {
	ctx := c.Request.Context()
	log := requestLogger(c)
	start := time.Now()

	algorithm, err := model.ParseAlgorithm(c.Param("algorithm"))
	if err != nil {
		s.metrics.ObserveSolve(c.Param("algorithm"), observability.OutcomeBadRequest, time.Since(start), 0)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log = log.With(logging.String("algorithm", string(algorithm)))

	var req model.SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn(ctx, "failed to parse solve request", logging.Err(err))
		s.metrics.ObserveSolve(string(algorithm), observability.OutcomeBadRequest, time.Since(start), 0)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.checkRequest(req); err != nil {
		log.Warn(ctx, "rejected solve request", logging.Err(err))
		s.metrics.ObserveSolve(string(algorithm), observability.OutcomeBadRequest, time.Since(start), 0)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trace, err := solver.Solve(ctx, algorithm, req, solver.WithMaxSteps(s.maxSteps))
	if err != nil {
		status, outcome := http.StatusInternalServerError, observability.OutcomeError
		if errors.Is(err, solver.ErrInvalidProblem) {
			status, outcome = http.StatusBadRequest, observability.OutcomeBadRequest
		}
		log.Error(ctx, "solve failed", logging.Err(err))
		s.metrics.ObserveSolve(string(algorithm), outcome, time.Since(start), 0)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	outcome := observability.SolveOutcome(trace.Success)
	elapsed := time.Since(start)
	s.metrics.ObserveSolve(string(algorithm), outcome, elapsed, trace.TotalSteps)
	log.Info(ctx, "solve finished",
		logging.Bool("success", trace.Success),
		logging.Int("total_steps", trace.TotalSteps),
		logging.Int("backtracks", trace.Backtracks),
		logging.Duration("elapsed", elapsed),
	)
	c.JSON(http.StatusOK, trace)
}

func (s *Server) checkRequest(req model.SolveRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if len(req.Regions) > s.maxRegions {
		return fmt.Errorf("too many regions: %d > %d", len(req.Regions), s.maxRegions)
	}
	return nil
}
