package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/debt-ledger/internal/middleware"
	"github.com/sjperalta/debt-ledger/internal/services"
)

type DebtHandler struct {
	debtService *services.DebtService
}

func NewDebtHandler(debtService *services.DebtService) *DebtHandler {
	return &DebtHandler{debtService: debtService}
}

// CreateDebtRequest accepts the due date as YYYY-MM-DD
type CreateDebtRequest struct {
	services.CreateDebtInput
	DueDate *string `json:"due_date"`
}

// UpdateDebtRequest accepts the due date as YYYY-MM-DD
type UpdateDebtRequest struct {
	services.UpdateDebtInput
	DueDate *string `json:"due_date"`
}

// @Summary List Debts
// @Description List every debt of the caller's plan, oldest first
// @Tags Debts
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /debts [get]
func (h *DebtHandler) Index(c *gin.Context) {
	debts, err := h.debtService.List(c.Request.Context(), middleware.GetPlanID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"debts": debts})
}

// @Summary Show Debt
// @Description Get a debt with the amount due in the current period
// @Tags Debts
// @Produce json
// @Param debt_id path string true "Debt ID"
// @Success 200 {object} services.DebtDetail
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /debts/{debt_id} [get]
func (h *DebtHandler) Show(c *gin.Context) {
	detail, err := h.debtService.Get(c.Request.Context(), middleware.GetPlanID(c), c.Param("debt_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// @Summary Create Debt
// @Description Create a manual debt. Accepts {"debt": {...}} or a flat body.
// @Tags Debts
// @Accept json
// @Produce json
// @Param request body CreateDebtRequest true "Debt data"
// @Success 201 {object} models.DebtResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /debts [post]
func (h *DebtHandler) Create(c *gin.Context) {
	var req CreateDebtRequest
	if err := BindNestedOrFlat(c, "debt", &req); err != nil {
		badRequest(c, err.Error())
		return
	}
	in := req.CreateDebtInput
	if req.DueDate != nil && *req.DueDate != "" {
		due, err := parseDate(*req.DueDate)
		if err != nil {
			badRequest(c, "due_date: must be YYYY-MM-DD")
			return
		}
		in.DueDate = &due
	}

	debt, err := h.debtService.Create(c.Request.Context(), middleware.GetPlanID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, debt.ToResponse())
}

// @Summary Update Debt
// @Description Partially update a debt's terms. Balances only change through payments.
// @Tags Debts
// @Accept json
// @Produce json
// @Param debt_id path string true "Debt ID"
// @Param request body UpdateDebtRequest true "Fields to change"
// @Success 200 {object} models.DebtResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /debts/{debt_id} [patch]
func (h *DebtHandler) Update(c *gin.Context) {
	var req UpdateDebtRequest
	if err := BindNestedOrFlat(c, "debt", &req); err != nil {
		badRequest(c, err.Error())
		return
	}
	in := req.UpdateDebtInput
	if req.DueDate != nil && *req.DueDate != "" {
		due, err := parseDate(*req.DueDate)
		if err != nil {
			badRequest(c, "due_date: must be YYYY-MM-DD")
			return
		}
		in.DueDate = &due
	}

	debt, err := h.debtService.Update(c.Request.Context(), middleware.GetPlanID(c), c.Param("debt_id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, debt.ToResponse())
}

// @Summary Delete Debt
// @Description Delete a debt and its payment history
// @Tags Debts
// @Param debt_id path string true "Debt ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /debts/{debt_id} [delete]
func (h *DebtHandler) Delete(c *gin.Context) {
	if err := h.debtService.Delete(c.Request.Context(), middleware.GetPlanID(c), c.Param("debt_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Debt Summary
// @Description Totals, due amounts and card usage for a month
// @Tags Debts
// @Produce json
// @Param month query string false "Ledger month (YYYY-MM), defaults to the current month"
// @Success 200 {object} services.DebtSummary
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /debts/summary [get]
func (h *DebtHandler) Summary(c *gin.Context) {
	period, ok := periodParam(c, "month")
	if !ok {
		return
	}
	summary, err := h.debtService.Summary(c.Request.Context(), middleware.GetPlanID(c), period)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
