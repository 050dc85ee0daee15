package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applyPayment(t *testing.T, s *testServer, debtID, body string) map[string]interface{} {
	t.Helper()
	w := s.do(http.MethodPost, "/debts/"+debtID+"/payments", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody(t, w)
}

func paymentID(t *testing.T, result map[string]interface{}) string {
	t.Helper()
	payment, ok := result["payment"].(map[string]interface{})
	require.True(t, ok)
	id, _ := payment["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestPaymentHandler_Create(t *testing.T) {
	s := newTestServer(t)
	id := s.createDebt(t, loanBody)

	result := applyPayment(t, s, id, `{"payment": {"amount": "100", "month": "2024-03", "paid_at": "2024-03-10", "notes": "March"}}`)
	assert.Equal(t, "100", result["applied_amount"])
	assert.Equal(t, false, result["clamped"])
	debt := result["debt"].(map[string]interface{})
	assert.Equal(t, "1100", debt["current_balance"])
	assert.Equal(t, "100", debt["paid_amount"])
}

func TestPaymentHandler_CreateClampsOverpayment(t *testing.T) {
	s := newTestServer(t)
	id := s.createDebt(t, loanBody)

	result := applyPayment(t, s, id, `{"amount": "5000", "month": "2024-03"}`)
	assert.Equal(t, "5000", result["requested_amount"])
	assert.Equal(t, "1200", result["applied_amount"])
	assert.Equal(t, true, result["clamped"])
	assert.Equal(t, true, result["debt"].(map[string]interface{})["paid"])

	w := s.do(http.MethodPost, "/debts/"+id+"/payments", `{"amount": "10", "month": "2024-04"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPaymentHandler_CreateValidation(t *testing.T) {
	s := newTestServer(t)
	id := s.createDebt(t, loanBody)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"Zero amount", "/debts/" + id + "/payments", `{"amount": "0", "month": "2024-03"}`, http.StatusBadRequest},
		{"Bad month", "/debts/" + id + "/payments", `{"amount": "10", "month": "03-2024"}`, http.StatusBadRequest},
		{"Bad paid_at", "/debts/" + id + "/payments", `{"amount": "10", "paid_at": "yesterday"}`, http.StatusBadRequest},
		{"Unknown source", "/debts/" + id + "/payments", `{"amount": "10", "source": "lottery"}`, http.StatusBadRequest},
		{"Card source without card", "/debts/" + id + "/payments", `{"amount": "10", "source": "credit_card"}`, http.StatusBadRequest},
		{"Unknown debt", "/debts/missing/payments", `{"amount": "10"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestPaymentHandler_CardFundingUsesDebtDefault(t *testing.T) {
	s := newTestServer(t)
	cardID := s.createDebt(t, `{"name": "Visa", "type": "credit_card", "initial_balance": "200", "credit_limit": "2000"}`)
	gymID := s.createDebt(t, `{"name": "Gym", "type": "other", "initial_balance": "300", "installment_months": 3, "default_payment_source": "credit_card", "default_payment_card_debt_id": "`+cardID+`"}`)

	result := applyPayment(t, s, gymID, `{"amount": "100", "month": "2024-03"}`)
	payment := result["payment"].(map[string]interface{})
	assert.Equal(t, "credit_card", payment["source"])
	assert.Equal(t, cardID, payment["card_debt_id"])

	card, ok := result["card"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "300", card["current_balance"])
}

func TestPaymentHandler_IndexAndForPeriod(t *testing.T) {
	s := newTestServer(t)
	id := s.createDebt(t, loanBody)
	applyPayment(t, s, id, `{"amount": "100", "month": "2024-03"}`)
	applyPayment(t, s, id, `{"amount": "50", "month": "2024-04"}`)

	w := s.do(http.MethodGet, "/debts/"+id+"/payments", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.Len(t, resp["payments"], 2)
	assert.Equal(t, "150", resp["total"])

	w = s.do(http.MethodGet, "/payments?month=2024-04", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeBody(t, w)
	assert.Equal(t, "2024-04", resp["month"])
	assert.Len(t, resp["payments"], 1)
	assert.Equal(t, "50", resp["total"])
}

func TestPaymentHandler_Undo(t *testing.T) {
	s := newTestServer(t)
	id := s.createDebt(t, loanBody)
	first := paymentID(t, applyPayment(t, s, id, `{"amount": "100", "month": "2024-03"}`))
	second := paymentID(t, applyPayment(t, s, id, `{"amount": "100", "month": "2024-04"}`))
	undo := "/debts/" + id + "/payments/"

	w := s.do(http.MethodPost, undo+second+"/undo", "")
	assert.Equal(t, http.StatusBadRequest, w.Code, "month is required")

	w = s.do(http.MethodPost, undo+first+"/undo?month=2024-03", "")
	assert.Equal(t, http.StatusConflict, w.Code, "only the latest payment can be undone")

	w = s.do(http.MethodPost, undo+second+"/undo?month=2024-03", "")
	assert.Equal(t, http.StatusConflict, w.Code, "period must match")

	w = s.do(http.MethodPost, undo+second+"/undo", `{"payment": {"month": "2024-04"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "1100", decodeBody(t, w)["debt"].(map[string]interface{})["current_balance"])

	w = s.do(http.MethodPost, undo+first+"/undo?month=2024-03", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "1200", decodeBody(t, w)["debt"].(map[string]interface{})["current_balance"])

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, undo+"missing/undo?month=2024-03", "").Code)
}
