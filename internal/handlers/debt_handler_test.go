package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loanBody = `{"debt": {"name": "Car loan", "type": "loan", "initial_balance": "1200", "installment_months": 12, "due_day": 10}}`

func TestDebtHandler_CreateAndShow(t *testing.T) {
	s := newTestServer(t)
	id := s.createDebt(t, loanBody)

	w := s.do(http.MethodGet, "/debts/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w)
	assert.Equal(t, "Car loan", resp["name"])
	assert.Equal(t, "100", resp["amount"])
	assert.Equal(t, "active", resp["status"])
	due, ok := resp["due"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, due, "due_now")
}

func TestDebtHandler_CreateFlatBody(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodPost, "/debts", `{"name": "Visa", "type": "credit_card", "initial_balance": "400", "credit_limit": "2000", "due_date": "2024-04-05"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decodeBody(t, w)
	assert.Equal(t, "credit_card", resp["type"])
	assert.Equal(t, "income", resp["default_payment_source"])
}

func TestDebtHandler_CreateValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"Malformed JSON", `{"debt": `},
		{"Missing name", `{"type": "loan", "initial_balance": "100"}`},
		{"Bad due date", `{"name": "Loan", "type": "loan", "initial_balance": "100", "due_date": "05/04/2024"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/debts", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeBody(t, w), "error")
		})
	}
}

func TestDebtHandler_NotFound(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/debts/missing", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/debts/missing", "").Code)
}

func TestDebtHandler_PlanScoping(t *testing.T) {
	s := newTestServer(t)
	id := s.createDebt(t, loanBody)

	req := s.do(http.MethodGet, "/debts/"+id, "")
	require.Equal(t, http.StatusOK, req.Code)

	w := s.doAsPlan("plan-2", http.MethodGet, "/debts/"+id)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDebtHandler_Update(t *testing.T) {
	s := newTestServer(t)
	id := s.createDebt(t, loanBody)

	w := s.do(http.MethodPatch, "/debts/"+id, `{"debt": {"installment_months": 24}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "50", decodeBody(t, w)["amount"])
}

func TestDebtHandler_CardInUseConflict(t *testing.T) {
	s := newTestServer(t)
	cardID := s.createDebt(t, `{"name": "Visa", "type": "credit_card", "initial_balance": "0", "credit_limit": "2000"}`)
	s.createDebt(t, `{"name": "Gym", "type": "other", "initial_balance": "300", "installment_months": 3, "default_payment_source": "credit_card", "default_payment_card_debt_id": "`+cardID+`"}`)

	w := s.do(http.MethodDelete, "/debts/"+cardID, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDebtHandler_Delete(t *testing.T) {
	s := newTestServer(t)
	id := s.createDebt(t, loanBody)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/debts/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/debts/"+id, "").Code)
}

func TestDebtHandler_IndexAndSummary(t *testing.T) {
	s := newTestServer(t)
	s.createDebt(t, loanBody)
	s.createDebt(t, `{"name": "Visa", "type": "credit_card", "initial_balance": "500", "credit_limit": "2000"}`)

	w := s.do(http.MethodGet, "/debts", "")
	require.Equal(t, http.StatusOK, w.Code)
	debts, ok := decodeBody(t, w)["debts"].([]interface{})
	require.True(t, ok)
	assert.Len(t, debts, 2)

	w = s.do(http.MethodGet, "/debts/summary?month=2024-03", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	summary := decodeBody(t, w)
	assert.Equal(t, "2024-03", summary["period"])
	assert.EqualValues(t, 2, summary["active_count"])
	assert.Equal(t, "1700", summary["total_balance"])

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/debts/summary?month=March", "").Code)
}
