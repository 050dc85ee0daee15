package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		ping   Pinger
		status int
	}{
		{"No database", nil, http.StatusOK},
		{"Database up", func(context.Context) error { return nil }, http.StatusOK},
		{"Database down", func(context.Context) error { return errors.New("connection refused") }, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", NewHealthHandler(tt.ping).Index)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "ok", decodeBody(t, w)["status"])
			}
		})
	}
}

func TestProjectionHandler(t *testing.T) {
	s := newTestServer(t)
	s.createDebt(t, loanBody)

	w := s.do(http.MethodGet, "/projection", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody(t, w)
	assert.EqualValues(t, 12, resp["months_to_clear"])
	assert.Len(t, resp["series"], 13)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/projection?budget=lots", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/projection?budget=-5", "").Code)
}

func TestExportHandler(t *testing.T) {
	s := newTestServer(t)
	id := s.createDebt(t, loanBody)
	applyPayment(t, s, id, `{"amount": "100", "month": "2024-03"}`)

	w := s.do(http.MethodGet, "/exports/ledger", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=debt_ledger_")
	assert.Contains(t, w.Body.String(), "Car loan")

	w = s.do(http.MethodGet, "/exports/ledger?format=pdf&budget=200", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = s.do(http.MethodGet, "/exports/ledger?format=xlsx", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasSuffix(w.Header().Get("Content-Disposition"), ".xlsx"))

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/exports/ledger?format=docx", "").Code)
}

func TestExpenseDebtHandler_Upsert(t *testing.T) {
	s := newTestServer(t)
	body := func(remaining string) string {
		return `{"expense_debt": {"expense_id": "exp-1", "period_key": "2024-02", "category_name": "Housing", "expense_name": "Rent", "remaining_amount": "` + remaining + `"}}`
	}

	w := s.do(http.MethodPost, "/expense-debts", body("800"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decodeBody(t, w)
	assert.Equal(t, "created", resp["action"])
	debtID := resp["debt"].(map[string]interface{})["id"].(string)

	w = s.do(http.MethodPost, "/expense-debts", body("300"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "updated", decodeBody(t, w)["action"])

	w = s.do(http.MethodPatch, "/debts/"+debtID, `{"installment_months": 3}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/expense-debts", body("0"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "resolved", decodeBody(t, w)["action"])

	w = s.do(http.MethodPost, "/expense-debts", `{"period_key": "2024-02", "remaining_amount": "10"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJobHandler_Status(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/jobs/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.Contains(t, resp, "active_jobs")
	assert.Contains(t, resp, "scheduled")
}
