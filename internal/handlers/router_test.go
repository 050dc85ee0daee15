package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/debt-ledger/internal/config"
	"github.com/sjperalta/debt-ledger/internal/jobs"
	"github.com/sjperalta/debt-ledger/internal/repository/memory"
	"github.com/sjperalta/debt-ledger/internal/services"
	"github.com/stretchr/testify/require"
)

const testPlanID = "plan-1"

type testServer struct {
	router *gin.Engine
	store  *memory.Store
	svcs   *services.Services
}

// newTestServer wires the real handlers over an in-memory store. The plan
// is injected directly so tests do not need signed tokens.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	worker := jobs.NewWorker(1)
	t.Cleanup(worker.Shutdown)

	cfg := &config.Config{OutboxBatchSize: 50, ProjectionMaxMonths: 120, AccrualGrace: 5}
	svcs := services.NewServices(store.Repositories(), worker, nil, cfg)
	h := NewHandlers(svcs, nil)

	r := gin.New()
	r.GET("/health", h.Health.Index)

	api := r.Group("/")
	api.Use(func(c *gin.Context) {
		if plan := c.GetHeader("X-Test-Plan"); plan != "" {
			c.Set("planID", plan)
		} else {
			c.Set("planID", testPlanID)
		}
		c.Next()
	})
	debts := api.Group("/debts")
	{
		debts.GET("", h.Debt.Index)
		debts.POST("", h.Debt.Create)
		debts.GET("/summary", h.Debt.Summary)
		debts.GET("/:debt_id", h.Debt.Show)
		debts.PATCH("/:debt_id", h.Debt.Update)
		debts.DELETE("/:debt_id", h.Debt.Delete)
		debts.GET("/:debt_id/payments", h.Payment.Index)
		debts.POST("/:debt_id/payments", h.Payment.Create)
		debts.POST("/:debt_id/payments/:payment_id/undo", h.Payment.Undo)
	}
	api.GET("/payments", h.Payment.ForPeriod)
	api.GET("/projection", h.Projection.Show)
	api.GET("/exports/ledger", h.Export.Ledger)
	api.POST("/expense-debts", h.ExpenseDebt.Upsert)
	api.GET("/jobs/status", h.Job.Status)

	return &testServer{router: r, store: store, svcs: svcs}
}

func (s *testServer) doAsPlan(planID, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("X-Test-Plan", planID)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// createDebt posts body and returns the new debt's id
func (s *testServer) createDebt(t *testing.T, body string) string {
	t.Helper()
	w := s.do(http.MethodPost, "/debts", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decodeBody(t, w)
	id, _ := resp["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
