package services

import (
	"github.com/jmcgrail/riskindex-engine/internal/backtest"
	"github.com/jmcgrail/riskindex-engine/internal/errors"
	"github.com/jmcgrail/riskindex-engine/internal/models"
	"github.com/jmcgrail/riskindex-engine/internal/repository"
)

// backtestServiceImpl implements BacktestService
type backtestServiceImpl struct {
	repos  *repository.Repositories
	engine *backtest.Engine
}

// newBacktestService creates a new backtest service implementation
func newBacktestService(repos *repository.Repositories) BacktestService {
	return &backtestServiceImpl{
		repos:  repos,
		engine: backtest.NewEngine(),
	}
}

// Run computes backtest metrics over every deal that has both a scored scan
// and a recorded outcome. The engine itself is pure; this only feeds it.
func (s *backtestServiceImpl) Run() (*models.BacktestMetrics, error) {
	records, err := s.repos.Outcome.GetBacktestRecords()
	if err != nil {
		return nil, errors.DatabaseError("failed to load backtest records", err).WithOperation("Run")
	}

	metrics := s.engine.Run(records)
	return &metrics, nil
}
