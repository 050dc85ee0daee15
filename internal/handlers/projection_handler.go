package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/debt-ledger/internal/middleware"
	"github.com/sjperalta/debt-ledger/internal/services"
)

type ProjectionHandler struct {
	projectionService *services.ProjectionService
}

func NewProjectionHandler(projectionService *services.ProjectionService) *ProjectionHandler {
	return &ProjectionHandler{projectionService: projectionService}
}

// @Summary Payoff Projection
// @Description Simulate month-by-month payoff of the plan's active debts
// @Tags Projection
// @Produce json
// @Param budget query number false "Monthly debt budget shared by debts without a payment plan"
// @Success 200 {object} services.Projection
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /projection [get]
func (h *ProjectionHandler) Show(c *gin.Context) {
	budget, ok := decimalParam(c, "budget")
	if !ok {
		return
	}
	projection, err := h.projectionService.Project(c.Request.Context(), middleware.GetPlanID(c), budget)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projection)
}
