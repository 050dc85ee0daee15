package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/debt-ledger/internal/jobs"
	"github.com/sjperalta/debt-ledger/internal/models"
	"github.com/sjperalta/debt-ledger/internal/repository"
	"github.com/sjperalta/debt-ledger/internal/statemachine"
	"github.com/sjperalta/debt-ledger/pkg/logger"
)

// Funding is how a payment is paid for. The set is closed: IncomeFunding,
// ExtraFundsFunding and CardFunding.
type Funding interface {
	Source() models.PaymentSource
	isFunding()
}

// IncomeFunding pays from tracked income
type IncomeFunding struct{}

// ExtraFundsFunding pays from money outside the tracked budget
type ExtraFundsFunding struct{}

// CardFunding pays by charging another debt, which must be a card
type CardFunding struct {
	CardDebtID string
}

func (IncomeFunding) Source() models.PaymentSource     { return models.PaymentSourceIncome }
func (ExtraFundsFunding) Source() models.PaymentSource { return models.PaymentSourceExtraFunds }
func (CardFunding) Source() models.PaymentSource       { return models.PaymentSourceCreditCard }

func (IncomeFunding) isFunding()     {}
func (ExtraFundsFunding) isFunding() {}
func (CardFunding) isFunding()       {}

// ParseFunding builds a Funding from its wire representation
func ParseFunding(source string, cardDebtID string) (Funding, error) {
	switch models.PaymentSource(source) {
	case models.PaymentSourceIncome:
		return IncomeFunding{}, nil
	case models.PaymentSourceExtraFunds:
		return ExtraFundsFunding{}, nil
	case models.PaymentSourceCreditCard:
		if strings.TrimSpace(cardDebtID) == "" {
			return nil, invalid("card_debt_id", "is required when source is credit_card")
		}
		return CardFunding{CardDebtID: strings.TrimSpace(cardDebtID)}, nil
	}
	return nil, invalid("source", "must be one of income, extra_funds, credit_card")
}

// PaymentRequest asks the engine to apply a payment against one debt
type PaymentRequest struct {
	DebtID  string
	Amount  decimal.Decimal
	Period  models.Period
	Funding Funding
	PaidAt  time.Time
	Notes   string
}

// PaymentResult is the outcome of a successfully applied payment
type PaymentResult struct {
	Payment         models.Payment  `json:"payment"`
	Debt            models.Debt     `json:"debt"`
	Card            *models.Debt    `json:"card,omitempty"`
	RequestedAmount decimal.Decimal `json:"requested_amount"`
	AppliedAmount   decimal.Decimal `json:"applied_amount"`
	Clamped         bool            `json:"clamped"`
}

// UndoResult is the outcome of a reversed payment
type UndoResult struct {
	Payment models.Payment `json:"payment"`
	Debt    models.Debt    `json:"debt"`
	Card    *models.Debt   `json:"card,omitempty"`
}

type eventFlusher interface {
	DispatchPending(ctx context.Context) error
}

// PaymentService is the only path that records payments and moves balances
type PaymentService struct {
	repos  *repository.Repositories
	outbox eventFlusher
	worker *jobs.Worker
	now    func() time.Time
}

// NewPaymentService creates a new payment service. outbox and worker may be
// nil, in which case pending events wait for the scheduled dispatch.
func NewPaymentService(repos *repository.Repositories, outbox eventFlusher, worker *jobs.Worker) *PaymentService {
	return &PaymentService{
		repos:  repos,
		outbox: outbox,
		worker: worker,
		now:    time.Now,
	}
}

// ApplyPayment validates and applies a payment in a single transaction.
// Overpayment is clamped to the target's balance. Card-funded payments charge
// the funding card by the same applied amount.
func (s *PaymentService) ApplyPayment(ctx context.Context, planID string, req PaymentRequest) (*PaymentResult, error) {
	card, isCard := req.Funding.(CardFunding)
	if isCard && card.CardDebtID == req.DebtID {
		return nil, conflict(ReasonSelfFunding)
	}
	if err := validatePaymentRequest(req); err != nil {
		return nil, err
	}

	paidAt := req.PaidAt
	if paidAt.IsZero() {
		paidAt = s.now()
	}

	var result *PaymentResult
	wroteEvent := false
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		ids := []string{req.DebtID}
		if isCard {
			ids = append(ids, card.CardDebtID)
		}
		locked, err := lockDebts(ctx, tx, planID, ids)
		if err != nil {
			return err
		}

		target := locked[req.DebtID]
		if !target.CurrentBalance.IsPositive() {
			return conflict(ReasonAlreadyPaid)
		}
		before := snapshotDebt(target)

		var funding *models.Debt
		var fundingBefore models.Debt
		if isCard {
			funding = locked[card.CardDebtID]
			if !funding.IsCard() {
				return conflict(ReasonNotCard)
			}
			fundingBefore = snapshotDebt(funding)
		}

		applied := decimal.Min(req.Amount, target.CurrentBalance)

		target.ApplyRepayment(applied)
		if err := statemachine.SyncPaid(ctx, target); err != nil {
			return err
		}
		if funding != nil {
			funding.ApplyCharge(applied)
			if err := statemachine.SyncPaid(ctx, funding); err != nil {
				return err
			}
		}

		if err := tx.Debt.Update(ctx, target); err != nil {
			return fmt.Errorf("failed to update debt: %w", err)
		}
		if funding != nil {
			if err := tx.Debt.Update(ctx, funding); err != nil {
				return fmt.Errorf("failed to update card debt: %w", err)
			}
		}

		payment := &models.Payment{
			DebtID: target.ID,
			Amount: applied,
			PaidAt: paidAt,
			Year:   req.Period.Year,
			Month:  req.Period.Month,
			Source: req.Funding.Source(),
			Notes:  composeNotes(req.Notes, req.Period),
		}
		if funding != nil {
			payment.CardDebtID = &funding.ID
		}
		payment.EnsureID()
		if err := tx.Payment.Create(ctx, payment); err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}

		if target.IsExpenseLinked() {
			event, err := models.NewExpensePaymentEvent(models.EventExpensePaymentApplied, target, payment, applied)
			if err != nil {
				return fmt.Errorf("failed to encode ledger event: %w", err)
			}
			if err := tx.Outbox.Create(ctx, event); err != nil {
				return fmt.Errorf("failed to write ledger event: %w", err)
			}
			wroteEvent = true
		}

		if err := checkTransfer(&before, target, fundingBefore, funding, applied.Neg()); err != nil {
			return err
		}

		result = &PaymentResult{
			Payment:         *payment,
			Debt:            *target,
			RequestedAmount: req.Amount,
			AppliedAmount:   applied,
			Clamped:         applied.LessThan(req.Amount),
		}
		if funding != nil {
			c := *funding
			result.Card = &c
		}
		return nil
	})
	if err != nil {
		s.report(err)
		return nil, err
	}

	logger.Info("Payment applied",
		"plan_id", planID,
		"debt_id", req.DebtID,
		"payment_id", result.Payment.ID,
		"source", result.Payment.Source,
		"applied", result.AppliedAmount.StringFixed(2),
		"clamped", result.Clamped,
	)

	if wroteEvent {
		s.flushOutbox()
	}
	return result, nil
}

// UndoPayment reverses the most recent payment on a debt. The payment must be
// booked against period and no later payment may exist for the debt. A card
// that funded the payment must still carry at least the payment amount.
func (s *PaymentService) UndoPayment(ctx context.Context, planID, debtID, paymentID string, period models.Period) (*UndoResult, error) {
	if err := period.Validate(); err != nil {
		return nil, invalid("period", "%s", err.Error())
	}

	var result *UndoResult
	wroteEvent := false
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		payment, err := tx.Payment.FindByID(ctx, paymentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFound("payment", paymentID)
			}
			return fmt.Errorf("failed to load payment: %w", err)
		}
		if payment.DebtID != debtID {
			return notFound("payment", paymentID)
		}

		ids := []string{debtID}
		if payment.IsCardFunded() {
			ids = append(ids, *payment.CardDebtID)
		}
		locked, err := lockDebts(ctx, tx, planID, ids)
		if err != nil {
			return err
		}
		if payment.Period() != period {
			return conflict(ReasonPeriodMismatch)
		}

		latest, err := tx.Payment.LatestForDebt(ctx, debtID)
		if err != nil {
			return fmt.Errorf("failed to load latest payment: %w", err)
		}
		if latest.ID != payment.ID {
			return conflict(ReasonNotLatest)
		}

		target := locked[debtID]
		before := snapshotDebt(target)
		var funding *models.Debt
		var fundingBefore models.Debt
		if payment.IsCardFunded() {
			funding = locked[*payment.CardDebtID]
			if funding.CurrentBalance.LessThan(payment.Amount) {
				return conflict(ReasonCardChanged)
			}
			fundingBefore = snapshotDebt(funding)
		}

		target.CurrentBalance = target.CurrentBalance.Add(payment.Amount)
		target.PaidAmount = decimal.Max(decimal.Zero, target.PaidAmount.Sub(payment.Amount))
		if err := statemachine.SyncPaid(ctx, target); err != nil {
			return err
		}
		if funding != nil {
			funding.CurrentBalance = funding.CurrentBalance.Sub(payment.Amount)
			if err := statemachine.SyncPaid(ctx, funding); err != nil {
				return err
			}
		}

		if err := tx.Debt.Update(ctx, target); err != nil {
			return fmt.Errorf("failed to update debt: %w", err)
		}
		if funding != nil {
			if err := tx.Debt.Update(ctx, funding); err != nil {
				return fmt.Errorf("failed to update card debt: %w", err)
			}
		}
		if err := tx.Payment.Delete(ctx, payment.ID); err != nil {
			return fmt.Errorf("failed to delete payment: %w", err)
		}

		if target.IsExpenseLinked() {
			event, err := models.NewExpensePaymentEvent(models.EventExpensePaymentReversed, target, payment, payment.Amount.Neg())
			if err != nil {
				return fmt.Errorf("failed to encode ledger event: %w", err)
			}
			if err := tx.Outbox.Create(ctx, event); err != nil {
				return fmt.Errorf("failed to write ledger event: %w", err)
			}
			wroteEvent = true
		}

		if err := checkTransfer(&before, target, fundingBefore, funding, payment.Amount); err != nil {
			return err
		}

		result = &UndoResult{Payment: *payment, Debt: *target}
		if funding != nil {
			c := *funding
			result.Card = &c
		}
		return nil
	})
	if err != nil {
		s.report(err)
		return nil, err
	}

	logger.Info("Payment undone",
		"plan_id", planID,
		"debt_id", debtID,
		"payment_id", paymentID,
		"amount", result.Payment.Amount.StringFixed(2),
	)

	if wroteEvent {
		s.flushOutbox()
	}
	return result, nil
}

// ListPayments returns a debt's payment history, oldest first
func (s *PaymentService) ListPayments(ctx context.Context, planID, debtID string) ([]models.Payment, error) {
	if _, err := s.repos.Debt.FindByID(ctx, planID, debtID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("debt", debtID)
		}
		return nil, fmt.Errorf("failed to load debt: %w", err)
	}
	payments, err := s.repos.Payment.ListByDebt(ctx, debtID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// ListPaymentsForPeriod returns every payment booked against period in the plan
func (s *PaymentService) ListPaymentsForPeriod(ctx context.Context, planID string, period models.Period) ([]models.Payment, error) {
	if err := period.Validate(); err != nil {
		return nil, invalid("month", "%s", err.Error())
	}
	payments, err := s.repos.Payment.ListByPlanPeriod(ctx, planID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (s *PaymentService) flushOutbox() {
	if s.outbox == nil || s.worker == nil {
		return
	}
	s.worker.EnqueueAsync(s.outbox.DispatchPending)
}

func (s *PaymentService) report(err error) {
	if errors.Is(err, ErrConsistency) {
		logger.Error("Ledger consistency check failed", "error", err)
		sentry.CaptureException(err)
	}
}

func validatePaymentRequest(req PaymentRequest) error {
	if strings.TrimSpace(req.DebtID) == "" {
		return invalid("debt_id", "is required")
	}
	if !req.Amount.IsPositive() {
		return invalid("amount", "must be greater than zero")
	}
	if !req.Amount.Equal(req.Amount.Round(2)) {
		return invalid("amount", "must not have more than two decimal places")
	}
	if err := req.Period.Validate(); err != nil {
		return invalid("period", "%s", err.Error())
	}
	if req.Funding == nil {
		return invalid("source", "is required")
	}
	if card, ok := req.Funding.(CardFunding); ok && strings.TrimSpace(card.CardDebtID) == "" {
		return invalid("card_debt_id", "is required when source is credit_card")
	}
	return nil
}

// lockDebts reads every debt under a row lock in id order, so two
// transactions touching the same pair never wait on each other in a cycle.
func lockDebts(ctx context.Context, tx *repository.Repositories, planID string, ids []string) (map[string]*models.Debt, error) {
	ordered := append([]string(nil), ids...)
	sort.Strings(ordered)

	locked := make(map[string]*models.Debt, len(ordered))
	for _, id := range ordered {
		debt, err := tx.Debt.FindByIDForUpdate(ctx, planID, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, notFound("debt", id)
			}
			return nil, fmt.Errorf("failed to load debt: %w", err)
		}
		locked[id] = debt
	}
	return locked, nil
}

func composeNotes(notes string, period models.Period) string {
	tag := models.PeriodNote(period)
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return tag
	}
	return notes + " " + tag
}

func snapshotDebt(d *models.Debt) models.Debt {
	return *d
}

// checkTransfer verifies the post-conditions of a balance movement. delta is
// the signed change to the target balance; a funding card must move by the
// opposite amount, and only the target's repaid total may change.
func checkTransfer(before *models.Debt, after *models.Debt, cardBefore models.Debt, card *models.Debt, delta decimal.Decimal) error {
	fail := func(format string, args ...any) error {
		return &ConsistencyError{Detail: fmt.Sprintf(format, args...)}
	}

	if after.CurrentBalance.IsNegative() {
		return fail("debt %s balance went negative", after.ID)
	}
	if after.Paid != after.CurrentBalance.IsZero() {
		return fail("debt %s paid flag disagrees with balance", after.ID)
	}
	if !after.CurrentBalance.Sub(before.CurrentBalance).Equal(delta) {
		return fail("debt %s balance moved by %s, expected %s", after.ID, after.CurrentBalance.Sub(before.CurrentBalance), delta)
	}
	if delta.IsNegative() && !after.PaidAmount.Sub(before.PaidAmount).Equal(delta.Neg()) {
		return fail("debt %s repaid total did not match the payment", after.ID)
	}
	if card == nil {
		return nil
	}

	if card.CurrentBalance.IsNegative() {
		return fail("card %s balance went negative", card.ID)
	}
	if card.Paid != card.CurrentBalance.IsZero() {
		return fail("card %s paid flag disagrees with balance", card.ID)
	}
	if !card.CurrentBalance.Sub(cardBefore.CurrentBalance).Equal(delta.Neg()) {
		return fail("card %s balance did not mirror the payment", card.ID)
	}
	if !card.PaidAmount.Equal(cardBefore.PaidAmount) {
		return fail("card %s repaid total changed on a charge", card.ID)
	}
	return nil
}
