package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/debt-ledger/internal/middleware"
	"github.com/sjperalta/debt-ledger/internal/services"
)

type ExportHandler struct {
	exportService *services.ExportService
}

func NewExportHandler(exportService *services.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

var exportContentTypes = map[string]string{
	services.FormatCSV:  "text/csv",
	services.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	services.FormatPDF:  "application/pdf",
}

// @Summary Export Ledger
// @Description Download debts, payment history and payoff projection
// @Tags Exports
// @Produce octet-stream
// @Param format query string false "csv, xlsx or pdf" default(csv)
// @Param budget query number false "Monthly debt budget for the projection"
// @Success 200 {file} file
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /exports/ledger [get]
func (h *ExportHandler) Ledger(c *gin.Context) {
	budget, ok := decimalParam(c, "budget")
	if !ok {
		return
	}
	format := c.DefaultQuery("format", services.FormatCSV)

	data, filename, err := h.exportService.ExportLedger(c.Request.Context(), middleware.GetPlanID(c), format, budget)
	if err != nil {
		respondError(c, err)
		return
	}

	contentType, ok := exportContentTypes[format]
	if !ok {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, contentType, data)
}
