package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/debt-ledger/internal/models"
	"github.com/sjperalta/debt-ledger/internal/repository"
	"github.com/sjperalta/debt-ledger/internal/statemachine"
	"github.com/sjperalta/debt-ledger/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// ReasonCardInUse is returned when deleting a card other debts default to
const ReasonCardInUse = "card is the default funding source of another debt"

// summaryConcurrency bounds the per-debt history loads in Summary
const summaryConcurrency = 4

// CreateDebtInput holds the fields accepted when creating a debt
type CreateDebtInput struct {
	Name                     string               `json:"name"`
	Type                     models.DebtType      `json:"type"`
	CreditLimit              decimal.NullDecimal  `json:"credit_limit"`
	InitialBalance           decimal.Decimal      `json:"initial_balance"`
	CurrentBalance           decimal.NullDecimal  `json:"current_balance"`
	MonthlyMinimum           decimal.NullDecimal  `json:"monthly_minimum"`
	InterestRate             decimal.NullDecimal  `json:"interest_rate"`
	InstallmentMonths        *int                 `json:"installment_months"`
	DueDay                   *int                 `json:"due_day"`
	DueDate                  *time.Time           `json:"due_date"`
	DefaultPaymentSource     models.PaymentSource `json:"default_payment_source"`
	DefaultPaymentCardDebtID *string              `json:"default_payment_card_debt_id"`
}

// UpdateDebtInput is a partial update; nil fields are left unchanged.
// Balances only move through payments.
type UpdateDebtInput struct {
	Name                     *string               `json:"name"`
	Type                     *models.DebtType      `json:"type"`
	CreditLimit              *decimal.Decimal      `json:"credit_limit"`
	MonthlyMinimum           *decimal.Decimal      `json:"monthly_minimum"`
	InterestRate             *decimal.Decimal      `json:"interest_rate"`
	InstallmentMonths        *int                  `json:"installment_months"`
	DueDay                   *int                  `json:"due_day"`
	DueDate                  *time.Time            `json:"due_date"`
	DefaultPaymentSource     *models.PaymentSource `json:"default_payment_source"`
	DefaultPaymentCardDebtID *string               `json:"default_payment_card_debt_id"`
}

// DebtDetail is a debt together with what is due on it this period
type DebtDetail struct {
	models.DebtResponse
	Due DueResult `json:"due"`
}

// CardSummary describes a card's usage against its limit
type CardSummary struct {
	DebtID      string              `json:"debt_id"`
	Name        string              `json:"name"`
	Balance     decimal.Decimal     `json:"balance"`
	CreditLimit decimal.NullDecimal `json:"credit_limit"`
	Available   decimal.NullDecimal `json:"available"`
	Utilization decimal.NullDecimal `json:"utilization"`
}

// DebtSummary aggregates a plan's debts for one period
type DebtSummary struct {
	Period         string          `json:"period"`
	ActiveCount    int             `json:"active_count"`
	PaidCount      int             `json:"paid_count"`
	TotalInitial   decimal.Decimal `json:"total_initial"`
	TotalBalance   decimal.Decimal `json:"total_balance"`
	TotalRepaid    decimal.Decimal `json:"total_repaid"`
	PercentPaid    decimal.Decimal `json:"percent_paid"`
	TotalDueNow    decimal.Decimal `json:"total_due_now"`
	PaidThisPeriod decimal.Decimal `json:"paid_this_period"`
	Debts          []DebtDetail    `json:"debts"`
	CreditCards    []CardSummary   `json:"credit_cards"`
}

// DebtService handles debt administration and read models
type DebtService struct {
	repos *repository.Repositories
	now   func() time.Time
}

// NewDebtService creates a new debt service
func NewDebtService(repos *repository.Repositories) *DebtService {
	return &DebtService{repos: repos, now: time.Now}
}

// Create validates and stores a new manual debt
func (s *DebtService) Create(ctx context.Context, planID string, in CreateDebtInput) (*models.Debt, error) {
	if err := validateCreateDebt(in); err != nil {
		return nil, err
	}

	current := in.InitialBalance
	if in.CurrentBalance.Valid {
		current = in.CurrentBalance.Decimal
	}
	source := in.DefaultPaymentSource
	if source == "" {
		source = models.PaymentSourceIncome
	}

	debt := &models.Debt{
		PlanID:                   planID,
		Name:                     strings.TrimSpace(in.Name),
		Type:                     in.Type,
		CreditLimit:              in.CreditLimit,
		InitialBalance:           in.InitialBalance,
		CurrentBalance:           current,
		PaidAmount:               decimal.Max(decimal.Zero, in.InitialBalance.Sub(current)),
		MonthlyMinimum:           in.MonthlyMinimum,
		InterestRate:             in.InterestRate,
		InstallmentMonths:        in.InstallmentMonths,
		DueDay:                   in.DueDay,
		DueDate:                  in.DueDate,
		DefaultPaymentSource:     source,
		DefaultPaymentCardDebtID: in.DefaultPaymentCardDebtID,
	}
	debt.EnsureID()
	debt.RecomputeAmount()

	if err := s.checkDefaultCard(ctx, planID, debt); err != nil {
		return nil, err
	}
	if err := statemachine.SyncPaid(ctx, debt); err != nil {
		return nil, err
	}
	if err := s.repos.Debt.Create(ctx, debt); err != nil {
		return nil, fmt.Errorf("failed to create debt: %w", err)
	}

	logger.Info("Debt created", "plan_id", planID, "debt_id", debt.ID, "type", debt.Type)
	return debt, nil
}

// Update applies a partial update to plan terms and recomputes the periodic amount
func (s *DebtService) Update(ctx context.Context, planID, id string, in UpdateDebtInput) (*models.Debt, error) {
	var updated *models.Debt
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		debt, err := tx.Debt.FindByIDForUpdate(ctx, planID, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFound("debt", id)
			}
			return fmt.Errorf("failed to load debt: %w", err)
		}
		if debt.IsExpenseLinked() && in.touchesPlanTerms() {
			return conflict(ReasonExpenseLinked)
		}

		if err := applyDebtUpdate(debt, in); err != nil {
			return err
		}
		if err := checkDefaultCardIn(ctx, tx.Debt, planID, debt); err != nil {
			return err
		}
		if !debt.IsExpenseLinked() {
			debt.RecomputeAmount()
		}
		if err := tx.Debt.Update(ctx, debt); err != nil {
			return fmt.Errorf("failed to update debt: %w", err)
		}
		updated = debt
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Debt updated", "plan_id", planID, "debt_id", id)
	return updated, nil
}

// Delete removes a debt and its payment history. An expense-linked debt with
// an open balance is owned by the sync and cannot be removed here.
func (s *DebtService) Delete(ctx context.Context, planID, id string) error {
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		debt, err := tx.Debt.FindByIDForUpdate(ctx, planID, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFound("debt", id)
			}
			return fmt.Errorf("failed to load debt: %w", err)
		}
		if debt.IsExpenseLinked() && debt.CurrentBalance.IsPositive() {
			return conflict(ReasonExpenseLinked)
		}

		if debt.IsCard() {
			all, err := tx.Debt.ListByPlan(ctx, planID)
			if err != nil {
				return fmt.Errorf("failed to list debts: %w", err)
			}
			for _, other := range all {
				if other.ID != id && other.DefaultPaymentCardDebtID != nil && *other.DefaultPaymentCardDebtID == id {
					return conflict(ReasonCardInUse)
				}
			}
		}

		if err := tx.Debt.Delete(ctx, planID, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFound("debt", id)
			}
			return fmt.Errorf("failed to delete debt: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Debt deleted", "plan_id", planID, "debt_id", id)
	return nil
}

// Get returns one debt with its due amount for the current period
func (s *DebtService) Get(ctx context.Context, planID, id string) (*DebtDetail, error) {
	debt, err := s.Find(ctx, planID, id)
	if err != nil {
		return nil, err
	}
	due, err := s.dueFor(ctx, debt, models.PeriodOf(s.now()))
	if err != nil {
		return nil, err
	}
	return &DebtDetail{DebtResponse: debt.ToResponse(), Due: due}, nil
}

// List returns every debt in the plan, oldest first
func (s *DebtService) List(ctx context.Context, planID string) ([]models.DebtResponse, error) {
	debts, err := s.repos.Debt.ListByPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	out := make([]models.DebtResponse, 0, len(debts))
	for i := range debts {
		out = append(out, debts[i].ToResponse())
	}
	return out, nil
}

// ActiveDebts returns the plan's debts that still carry a balance
func (s *DebtService) ActiveDebts(ctx context.Context, planID string) ([]models.Debt, error) {
	debts, err := s.repos.Debt.ListByPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	active := debts[:0]
	for _, d := range debts {
		if d.IsActive() {
			active = append(active, d)
		}
	}
	return active, nil
}

// Due runs the due calculator for one debt in period
func (s *DebtService) Due(ctx context.Context, planID, id string, period models.Period) (DueResult, error) {
	debt, err := s.Find(ctx, planID, id)
	if err != nil {
		return DueResult{}, err
	}
	return s.dueFor(ctx, debt, period)
}

// Summary aggregates balances, due amounts and card usage for period
func (s *DebtService) Summary(ctx context.Context, planID string, period models.Period) (*DebtSummary, error) {
	if err := period.Validate(); err != nil {
		return nil, invalid("month", "%s", err.Error())
	}

	var debts []models.Debt
	var periodPayments []models.Payment

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		debts, err = s.repos.Debt.ListByPlan(gctx, planID)
		if err != nil {
			return fmt.Errorf("failed to list debts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		periodPayments, err = s.repos.Payment.ListByPlanPeriod(gctx, planID, period)
		if err != nil {
			return fmt.Errorf("failed to list period payments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	details := make([]DebtDetail, len(debts))
	dg, dctx := errgroup.WithContext(ctx)
	dg.SetLimit(summaryConcurrency)
	for i := range debts {
		dg.Go(func() error {
			due, err := s.dueFor(dctx, &debts[i], period)
			if err != nil {
				return err
			}
			details[i] = DebtDetail{DebtResponse: debts[i].ToResponse(), Due: due}
			return nil
		})
	}
	if err := dg.Wait(); err != nil {
		return nil, err
	}

	summary := &DebtSummary{
		Period:         period.Key(),
		TotalInitial:   decimal.Zero,
		TotalBalance:   decimal.Zero,
		TotalRepaid:    decimal.Zero,
		PercentPaid:    decimal.Zero,
		TotalDueNow:    decimal.Zero,
		PaidThisPeriod: models.SumPayments(periodPayments),
		Debts:          details,
		CreditCards:    []CardSummary{},
	}
	for i, d := range debts {
		if d.Paid {
			summary.PaidCount++
		} else {
			summary.ActiveCount++
		}
		summary.TotalInitial = summary.TotalInitial.Add(d.InitialBalance)
		summary.TotalBalance = summary.TotalBalance.Add(d.CurrentBalance)
		summary.TotalRepaid = summary.TotalRepaid.Add(d.PaidAmount)
		summary.TotalDueNow = summary.TotalDueNow.Add(details[i].Due.DueNow)
		if d.IsCard() {
			summary.CreditCards = append(summary.CreditCards, cardSummary(d))
		}
	}
	if summary.TotalInitial.IsPositive() {
		summary.PercentPaid = summary.TotalInitial.Sub(summary.TotalBalance).
			Div(summary.TotalInitial).
			Mul(hundred).
			Round(2)
	}
	return summary, nil
}

// Find loads one debt of the plan
func (s *DebtService) Find(ctx context.Context, planID, id string) (*models.Debt, error) {
	debt, err := s.repos.Debt.FindByID(ctx, planID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("debt", id)
		}
		return nil, fmt.Errorf("failed to load debt: %w", err)
	}
	return debt, nil
}

func (s *DebtService) dueFor(ctx context.Context, debt *models.Debt, period models.Period) (DueResult, error) {
	payments, err := s.repos.Payment.ListByDebt(ctx, debt.ID)
	if err != nil {
		return DueResult{}, fmt.Errorf("failed to list payments: %w", err)
	}
	return CalculateDue(debt, payments, period)
}

func (s *DebtService) checkDefaultCard(ctx context.Context, planID string, debt *models.Debt) error {
	return checkDefaultCardIn(ctx, s.repos.Debt, planID, debt)
}

func checkDefaultCardIn(ctx context.Context, debts repository.DebtRepository, planID string, debt *models.Debt) error {
	if debt.DefaultPaymentSource != models.PaymentSourceCreditCard {
		debt.DefaultPaymentCardDebtID = nil
		return nil
	}
	if debt.DefaultPaymentCardDebtID == nil || strings.TrimSpace(*debt.DefaultPaymentCardDebtID) == "" {
		return invalid("default_payment_card_debt_id", "is required when default_payment_source is credit_card")
	}
	cardID := *debt.DefaultPaymentCardDebtID
	if cardID == debt.ID {
		return conflict(ReasonSelfFunding)
	}
	card, err := debts.FindByID(ctx, planID, cardID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("debt", cardID)
		}
		return fmt.Errorf("failed to load card debt: %w", err)
	}
	if !card.IsCard() {
		return conflict(ReasonNotCard)
	}
	return nil
}

func cardSummary(d models.Debt) CardSummary {
	cs := CardSummary{
		DebtID:      d.ID,
		Name:        d.Name,
		Balance:     d.CurrentBalance,
		CreditLimit: d.CreditLimit,
	}
	if d.CreditLimit.Valid && d.CreditLimit.Decimal.IsPositive() {
		limit := d.CreditLimit.Decimal
		cs.Available = decimal.NewNullDecimal(decimal.Max(decimal.Zero, limit.Sub(d.CurrentBalance)))
		cs.Utilization = decimal.NewNullDecimal(d.CurrentBalance.Div(limit).Mul(hundred).Round(2))
	}
	return cs
}

func (in UpdateDebtInput) touchesPlanTerms() bool {
	return in.Type != nil || in.MonthlyMinimum != nil || in.InstallmentMonths != nil ||
		in.DueDay != nil || in.DueDate != nil || in.InterestRate != nil || in.CreditLimit != nil
}

func applyDebtUpdate(debt *models.Debt, in UpdateDebtInput) error {
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return invalid("name", "cannot be blank")
		}
		debt.Name = strings.TrimSpace(*in.Name)
	}
	if in.Type != nil {
		if !in.Type.Valid() {
			return invalid("type", "unknown debt type %q", *in.Type)
		}
		debt.Type = *in.Type
	}
	if in.CreditLimit != nil {
		if in.CreditLimit.IsNegative() {
			return invalid("credit_limit", "must not be negative")
		}
		debt.CreditLimit = decimal.NewNullDecimal(*in.CreditLimit)
	}
	if in.MonthlyMinimum != nil {
		if in.MonthlyMinimum.IsNegative() {
			return invalid("monthly_minimum", "must not be negative")
		}
		debt.MonthlyMinimum = decimal.NewNullDecimal(*in.MonthlyMinimum)
	}
	if in.InterestRate != nil {
		if in.InterestRate.IsNegative() {
			return invalid("interest_rate", "must not be negative")
		}
		debt.InterestRate = decimal.NewNullDecimal(*in.InterestRate)
	}
	if in.InstallmentMonths != nil {
		if *in.InstallmentMonths <= 0 {
			return invalid("installment_months", "must be greater than zero")
		}
		debt.InstallmentMonths = in.InstallmentMonths
	}
	if in.DueDay != nil {
		if *in.DueDay < 1 || *in.DueDay > 31 {
			return invalid("due_day", "must be between 1 and 31")
		}
		debt.DueDay = in.DueDay
	}
	if in.DueDate != nil {
		debt.DueDate = in.DueDate
	}
	if in.DefaultPaymentSource != nil {
		if !in.DefaultPaymentSource.Valid() {
			return invalid("default_payment_source", "must be one of income, extra_funds, credit_card")
		}
		debt.DefaultPaymentSource = *in.DefaultPaymentSource
	}
	if in.DefaultPaymentCardDebtID != nil {
		debt.DefaultPaymentCardDebtID = in.DefaultPaymentCardDebtID
	}
	return nil
}

func validateCreateDebt(in CreateDebtInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "is required")
	}
	if !in.Type.Valid() {
		return invalid("type", "unknown debt type %q", in.Type)
	}
	if in.InitialBalance.IsNegative() {
		return invalid("initial_balance", "must not be negative")
	}
	if in.CurrentBalance.Valid && in.CurrentBalance.Decimal.IsNegative() {
		return invalid("current_balance", "must not be negative")
	}
	if in.CurrentBalance.Valid && !in.Type.IsCard() && in.CurrentBalance.Decimal.GreaterThan(in.InitialBalance) {
		return invalid("current_balance", "must not exceed initial_balance")
	}
	if in.CreditLimit.Valid && in.CreditLimit.Decimal.IsNegative() {
		return invalid("credit_limit", "must not be negative")
	}
	if in.MonthlyMinimum.Valid && in.MonthlyMinimum.Decimal.IsNegative() {
		return invalid("monthly_minimum", "must not be negative")
	}
	if in.InterestRate.Valid && in.InterestRate.Decimal.IsNegative() {
		return invalid("interest_rate", "must not be negative")
	}
	if in.InstallmentMonths != nil && *in.InstallmentMonths <= 0 {
		return invalid("installment_months", "must be greater than zero")
	}
	if in.DueDay != nil && (*in.DueDay < 1 || *in.DueDay > 31) {
		return invalid("due_day", "must be between 1 and 31")
	}
	if in.DefaultPaymentSource != "" && !in.DefaultPaymentSource.Valid() {
		return invalid("default_payment_source", "must be one of income, extra_funds, credit_card")
	}
	return nil
}
