package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ProjectionService runs the payoff simulator over a plan's active debts
type ProjectionService struct {
	debts     *DebtService
	maxMonths int
	now       func() time.Time
}

// NewProjectionService creates a new projection service
func NewProjectionService(debts *DebtService, maxMonths int) *ProjectionService {
	if maxMonths <= 0 {
		maxMonths = DefaultProjectionMonths
	}
	return &ProjectionService{debts: debts, maxMonths: maxMonths, now: time.Now}
}

// Project simulates payoff of the plan's active debts under monthlyBudget
func (s *ProjectionService) Project(ctx context.Context, planID string, monthlyBudget decimal.Decimal) (*Projection, error) {
	if monthlyBudget.IsNegative() {
		return nil, invalid("budget", "must not be negative")
	}
	debts, err := s.debts.ActiveDebts(ctx, planID)
	if err != nil {
		return nil, err
	}
	p := ProjectPayoff(debts, monthlyBudget, ProjectionOptions{
		MaxMonths: s.maxMonths,
		Now:       s.now(),
	})
	return &p, nil
}
