package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/debt-ledger/internal/middleware"
	"github.com/sjperalta/debt-ledger/internal/models"
	"github.com/sjperalta/debt-ledger/internal/services"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
	debtService    *services.DebtService
}

func NewPaymentHandler(paymentService *services.PaymentService, debtService *services.DebtService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, debtService: debtService}
}

// ApplyPaymentRequest is the body of a payment. Source and card default to
// the debt's configured funding; month defaults to the current month.
type ApplyPaymentRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	Month      string          `json:"month"`
	Source     string          `json:"source"`
	CardDebtID string          `json:"card_debt_id"`
	PaidAt     string          `json:"paid_at"`
	Notes      string          `json:"notes"`
}

// UndoPaymentRequest names the ledger month the payment was booked against
type UndoPaymentRequest struct {
	Month string `json:"month"`
}

// @Summary Payment History
// @Description List a debt's payments, oldest first
// @Tags Payments
// @Produce json
// @Param debt_id path string true "Debt ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /debts/{debt_id}/payments [get]
func (h *PaymentHandler) Index(c *gin.Context) {
	payments, err := h.paymentService.ListPayments(c.Request.Context(), middleware.GetPlanID(c), c.Param("debt_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"payments": payments,
		"total":    models.SumPayments(payments),
	})
}

// @Summary Payments for Month
// @Description List every payment of the plan booked against a ledger month
// @Tags Payments
// @Produce json
// @Param month query string false "Ledger month (YYYY-MM), defaults to the current month"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /payments [get]
func (h *PaymentHandler) ForPeriod(c *gin.Context) {
	period, ok := periodParam(c, "month")
	if !ok {
		return
	}
	payments, err := h.paymentService.ListPaymentsForPeriod(c.Request.Context(), middleware.GetPlanID(c), period)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"month":    period.Key(),
		"payments": payments,
		"total":    models.SumPayments(payments),
	})
}

// @Summary Apply Payment
// @Description Apply a payment to a debt. Overpayment is clamped to the balance; card funding moves the amount onto the card.
// @Tags Payments
// @Accept json
// @Produce json
// @Param debt_id path string true "Debt ID"
// @Param request body ApplyPaymentRequest true "Payment"
// @Success 201 {object} services.PaymentResult
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /debts/{debt_id}/payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	var req ApplyPaymentRequest
	if err := BindNestedOrFlat(c, "payment", &req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	planID := middleware.GetPlanID(c)
	debtID := c.Param("debt_id")

	period := models.PeriodOf(time.Now())
	if strings.TrimSpace(req.Month) != "" {
		p, err := models.ParsePeriod(req.Month)
		if err != nil {
			badRequest(c, "month: "+err.Error())
			return
		}
		period = p
	}

	var paidAt time.Time
	if strings.TrimSpace(req.PaidAt) != "" {
		t, err := parseDate(req.PaidAt)
		if err != nil {
			badRequest(c, "paid_at: must be YYYY-MM-DD or RFC 3339")
			return
		}
		paidAt = t
	}

	source, cardID := req.Source, req.CardDebtID
	if strings.TrimSpace(source) == "" {
		debt, err := h.debtService.Find(ctx, planID, debtID)
		if err != nil {
			respondError(c, err)
			return
		}
		source = string(debt.DefaultPaymentSource)
		if debt.DefaultPaymentCardDebtID != nil && cardID == "" {
			cardID = *debt.DefaultPaymentCardDebtID
		}
	}

	funding, err := services.ParseFunding(source, cardID)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.paymentService.ApplyPayment(ctx, planID, services.PaymentRequest{
		DebtID:  debtID,
		Amount:  req.Amount,
		Period:  period,
		Funding: funding,
		PaidAt:  paidAt,
		Notes:   req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// @Summary Undo Payment
// @Description Reverse the most recent payment on a debt. The month must match the payment's ledger month.
// @Tags Payments
// @Accept json
// @Produce json
// @Param debt_id path string true "Debt ID"
// @Param payment_id path string true "Payment ID"
// @Param month query string false "Ledger month (YYYY-MM); may also be sent in the body"
// @Success 200 {object} services.UndoResult
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /debts/{debt_id}/payments/{payment_id}/undo [post]
func (h *PaymentHandler) Undo(c *gin.Context) {
	month := strings.TrimSpace(c.Query("month"))
	if month == "" && c.Request.ContentLength != 0 {
		var req UndoPaymentRequest
		if err := BindNestedOrFlat(c, "payment", &req); err != nil {
			badRequest(c, err.Error())
			return
		}
		month = strings.TrimSpace(req.Month)
	}
	if month == "" {
		badRequest(c, "month is required")
		return
	}
	period, err := models.ParsePeriod(month)
	if err != nil {
		badRequest(c, "month: "+err.Error())
		return
	}

	result, err := h.paymentService.UndoPayment(c.Request.Context(), middleware.GetPlanID(c), c.Param("debt_id"), c.Param("payment_id"), period)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
