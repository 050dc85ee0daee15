package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newExportFixture(t *testing.T) (*ledgerFixture, *ExportService) {
	t.Helper()
	f := newLedgerFixture(t)
	loan := f.loan(t, "Car loan", 1000)
	f.pay(t, loan.ID, 250, IncomeFunding{})

	svc := NewExportService(f.debts, f.payments, NewProjectionService(f.debts, 24))
	svc.now = func() time.Time { return time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC) }
	return f, svc
}

func TestExportLedger_CSV(t *testing.T) {
	_, svc := newExportFixture(t)

	data, filename, err := svc.ExportLedger(context.Background(), testPlan, "", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, "debt_ledger_2024-03-15.csv", filename)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)

	var sawDebt, sawPayment bool
	for _, row := range rows {
		if len(row) == len(debtHeader) && row[1] == "Car loan" {
			sawDebt = true
			assert.Equal(t, "750.00", row[4])
			assert.Equal(t, "active", row[8])
		}
		if len(row) == len(paymentHeader) && row[1] == "Car loan" {
			sawPayment = true
			assert.Equal(t, "2024-03", row[2])
			assert.Equal(t, "250.00", row[6])
		}
	}
	assert.True(t, sawDebt)
	assert.True(t, sawPayment)
	assert.Contains(t, string(data), "Projection")
}

func TestExportLedger_XLSX(t *testing.T) {
	_, svc := newExportFixture(t)

	data, filename, err := svc.ExportLedger(context.Background(), testPlan, "XLSX", decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, "debt_ledger_2024-03-15.xlsx", filename)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	assert.Equal(t, []string{"Debts", "Payments", "Projection"}, book.GetSheetList())
	name, err := book.GetCellValue("Debts", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Car loan", name)
	header, err := book.GetCellValue("Payments", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Payment ID", header)
}

func TestExportLedger_PDF(t *testing.T) {
	_, svc := newExportFixture(t)

	data, filename, err := svc.ExportLedger(context.Background(), testPlan, "pdf", decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, "debt_ledger_2024-03-15.pdf", filename)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestExportLedger_UnknownFormat(t *testing.T) {
	_, svc := newExportFixture(t)

	_, _, err := svc.ExportLedger(context.Background(), testPlan, "docx", decimal.Zero)
	assert.ErrorIs(t, err, ErrValidation)
}
