package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/debt-ledger/internal/middleware"
	"github.com/sjperalta/debt-ledger/internal/services"
)

type ExpenseDebtHandler struct {
	syncService *services.ExpenseSyncService
}

func NewExpenseDebtHandler(syncService *services.ExpenseSyncService) *ExpenseDebtHandler {
	return &ExpenseDebtHandler{syncService: syncService}
}

// @Summary Sync Expense Debt
// @Description Create, update or resolve the debt mirroring an unpaid expense. Called by the expense application.
// @Tags Expense Debts
// @Accept json
// @Produce json
// @Param request body services.ExpenseDebtInput true "Expense state"
// @Success 200 {object} services.ExpenseSyncResult
// @Success 201 {object} services.ExpenseSyncResult
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /expense-debts [post]
func (h *ExpenseDebtHandler) Upsert(c *gin.Context) {
	var in services.ExpenseDebtInput
	if err := BindNestedOrFlat(c, "expense_debt", &in); err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.syncService.UpsertExpenseDebt(c.Request.Context(), middleware.GetPlanID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if result.Action == services.SyncCreated {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}
