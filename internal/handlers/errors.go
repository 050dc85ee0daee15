package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/debt-ledger/internal/models"
	"github.com/sjperalta/debt-ledger/internal/services"
)

// respondError maps service errors onto HTTP statuses. The message is
// returned as-is so clients see the exact conflict reason.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	default:
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// periodParam reads a YYYY-MM query parameter, defaulting to the current month
func periodParam(c *gin.Context, name string) (models.Period, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return models.PeriodOf(time.Now()), true
	}
	p, err := models.ParsePeriod(raw)
	if err != nil {
		badRequest(c, name+": "+err.Error())
		return models.Period{}, false
	}
	return p, true
}

// decimalParam reads an optional decimal query parameter, defaulting to zero
func decimalParam(c *gin.Context, name string) (decimal.Decimal, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		badRequest(c, name+": must be a number")
		return decimal.Zero, false
	}
	return d, true
}

// parseDate accepts YYYY-MM-DD or RFC 3339
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
