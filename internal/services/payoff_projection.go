package services

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/debt-ledger/internal/models"
)

// DefaultProjectionMonths bounds the payoff simulation horizon
const DefaultProjectionMonths = 360

// NoPayoffNote is reported when the horizon is reached before the debts clear
const NoPayoffNote = "no payoff projected"

// ProjectionOptions tunes a payoff simulation
type ProjectionOptions struct {
	MaxMonths int
	Now       time.Time
}

// ProjectionPoint is the aggregate balance after Month simulated months
type ProjectionPoint struct {
	Month   int             `json:"month"`
	Period  string          `json:"period"`
	Balance decimal.Decimal `json:"balance"`
}

// DebtProjection summarizes the simulation for one debt
type DebtProjection struct {
	DebtID         string          `json:"debt_id"`
	Name           string          `json:"name"`
	StartBalance   decimal.Decimal `json:"start_balance"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	MonthlyRate    decimal.Decimal `json:"monthly_rate"`
	MonthsToClear  *int            `json:"months_to_clear"`
	PaidOffBy      *string         `json:"paid_off_by"`
}

// Projection is the result of a payoff simulation
type Projection struct {
	Series         []ProjectionPoint `json:"series"`
	MonthsToClear  *int              `json:"months_to_clear"`
	DebtFreeBy     *string           `json:"debt_free_by"`
	MonthlyPayment decimal.Decimal   `json:"monthly_payment"`
	Debts          []DebtProjection  `json:"debts"`
	Note           string            `json:"note,omitempty"`
}

var (
	hundred      = decimal.NewFromInt(100)
	monthsInYear = decimal.NewFromInt(12)
)

// ProjectPayoff simulates each active debt independently under monthly
// compounding, balance = max(0, balance*(1+apr/1200) - payment), and sums the
// balances per month. A debt with an installment plan or a monthly minimum pays
// the installment raised to the minimum; any other debt pays an even share of
// monthlyBudget.
// Payments freed by a debt clearing are not reallocated to the others.
func ProjectPayoff(debts []models.Debt, monthlyBudget decimal.Decimal, opts ProjectionOptions) Projection {
	maxMonths := opts.MaxMonths
	if maxMonths <= 0 {
		maxMonths = DefaultProjectionMonths
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	origin := models.PeriodOf(now)

	var active []models.Debt
	for _, d := range debts {
		if d.IsActive() {
			active = append(active, d)
		}
	}

	share := decimal.Zero
	if len(active) > 0 && monthlyBudget.IsPositive() {
		share = monthlyBudget.Div(decimal.NewFromInt(int64(len(active)))).Round(2)
	}

	proj := Projection{MonthlyPayment: decimal.Zero, Debts: make([]DebtProjection, 0, len(active))}
	balances := make([]decimal.Decimal, len(active))
	total := decimal.Zero
	for i, d := range active {
		balances[i] = d.CurrentBalance
		total = total.Add(d.CurrentBalance)

		payment := periodicPayment(&d, share)
		proj.MonthlyPayment = proj.MonthlyPayment.Add(payment)
		proj.Debts = append(proj.Debts, DebtProjection{
			DebtID:         d.ID,
			Name:           d.Name,
			StartBalance:   d.CurrentBalance,
			MonthlyPayment: payment,
			MonthlyRate:    monthlyRate(&d),
		})
	}

	proj.Series = append(proj.Series, ProjectionPoint{Month: 0, Period: origin.Key(), Balance: total.Round(2)})
	if !total.IsPositive() {
		zero := 0
		proj.MonthsToClear = &zero
		key := origin.Key()
		proj.DebtFreeBy = &key
		return proj
	}

	for m := 1; m <= maxMonths; m++ {
		total = decimal.Zero
		for i := range balances {
			if balances[i].IsZero() {
				continue
			}
			dp := &proj.Debts[i]
			next := balances[i].Mul(decimal.NewFromInt(1).Add(dp.MonthlyRate)).Sub(dp.MonthlyPayment).Round(2)
			balances[i] = decimal.Max(decimal.Zero, next)
			if balances[i].IsZero() {
				months := m
				key := origin.AddMonths(m).Key()
				dp.MonthsToClear = &months
				dp.PaidOffBy = &key
			}
			total = total.Add(balances[i])
		}

		proj.Series = append(proj.Series, ProjectionPoint{Month: m, Period: origin.AddMonths(m).Key(), Balance: total})
		if total.IsZero() {
			months := m
			key := origin.AddMonths(m).Key()
			proj.MonthsToClear = &months
			proj.DebtFreeBy = &key
			return proj
		}
	}

	proj.Note = NoPayoffNote
	return proj
}

func periodicPayment(d *models.Debt, budgetShare decimal.Decimal) decimal.Decimal {
	payment := decimal.Zero
	if d.InstallmentMonths != nil || d.MonthlyMinimum.Valid {
		payment = d.PlannedPayment()
	}
	if !payment.IsPositive() {
		payment = budgetShare
	}
	return payment.Round(2)
}

func monthlyRate(d *models.Debt) decimal.Decimal {
	if !d.InterestRate.Valid || !d.InterestRate.Decimal.IsPositive() {
		return decimal.Zero
	}
	return d.InterestRate.Decimal.Div(hundred).Div(monthsInYear)
}
