package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/debt-ledger/internal/models"
	"github.com/xuri/excelize/v2"
)

// Export formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

// LedgerReport is everything a ledger export contains
type LedgerReport struct {
	GeneratedAt time.Time
	Debts       []models.Debt
	Payments    []LedgerRow
	Projection  *Projection
}

// LedgerRow is one payment joined with its debt's name
type LedgerRow struct {
	DebtName string
	Payment  models.Payment
}

// ExportService renders ledger reports
type ExportService struct {
	debts      *DebtService
	payments   *PaymentService
	projection *ProjectionService
	now        func() time.Time
}

// NewExportService creates a new export service
func NewExportService(debts *DebtService, payments *PaymentService, projection *ProjectionService) *ExportService {
	return &ExportService{
		debts:      debts,
		payments:   payments,
		projection: projection,
		now:        time.Now,
	}
}

// ExportLedger builds the plan's ledger report and renders it in format
func (s *ExportService) ExportLedger(ctx context.Context, planID, format string, budget decimal.Decimal) ([]byte, string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatXLSX && format != FormatPDF {
		return nil, "", invalid("format", "must be one of csv, xlsx, pdf")
	}

	report, err := s.BuildReport(ctx, planID, budget)
	if err != nil {
		return nil, "", err
	}

	switch format {
	case FormatXLSX:
		return s.ExportXLSX(report)
	case FormatPDF:
		return s.ExportPDF(report)
	default:
		return s.ExportCSV(report)
	}
}

// BuildReport gathers debts, payment history and the payoff projection
func (s *ExportService) BuildReport(ctx context.Context, planID string, budget decimal.Decimal) (*LedgerReport, error) {
	responses, err := s.debts.List(ctx, planID)
	if err != nil {
		return nil, err
	}

	report := &LedgerReport{GeneratedAt: s.now()}
	for _, r := range responses {
		report.Debts = append(report.Debts, r.Debt)
		payments, err := s.payments.ListPayments(ctx, planID, r.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range payments {
			report.Payments = append(report.Payments, LedgerRow{DebtName: r.Name, Payment: p})
		}
	}

	report.Projection, err = s.projection.Project(ctx, planID, budget)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *ExportService) ExportCSV(report *LedgerReport) ([]byte, string, error) {
	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"Debt Ledger", report.GeneratedAt.Format("2006-01-02 15:04")})
	_ = writer.Write([]string{""})

	_ = writer.Write([]string{"Debts"})
	_ = writer.Write(debtHeader)
	for _, d := range report.Debts {
		_ = writer.Write(debtRow(d))
	}
	_ = writer.Write([]string{""})

	_ = writer.Write([]string{"Payments"})
	_ = writer.Write(paymentHeader)
	for _, row := range report.Payments {
		_ = writer.Write(paymentRow(row))
	}
	_ = writer.Write([]string{""})

	_ = writer.Write([]string{"Projection"})
	_ = writer.Write([]string{"Month", "Period", "Balance"})
	for _, pt := range report.Projection.Series {
		_ = writer.Write([]string{fmt.Sprintf("%d", pt.Month), pt.Period, pt.Balance.StringFixed(2)})
	}
	if report.Projection.Note != "" {
		_ = writer.Write([]string{report.Projection.Note})
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), exportFilename(report, FormatCSV), nil
}

func (s *ExportService) ExportXLSX(report *LedgerReport) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	sheets := []struct {
		name   string
		header []string
		rows   [][]any
	}{
		{name: "Debts", header: debtHeader, rows: debtCells(report.Debts)},
		{name: "Payments", header: paymentHeader, rows: paymentCells(report.Payments)},
		{name: "Projection", header: []string{"Month", "Period", "Balance"}, rows: projectionCells(report.Projection)},
	}

	for i, sh := range sheets {
		if i == 0 {
			_ = f.SetSheetName("Sheet1", sh.name)
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return nil, "", err
		}
		for col, title := range sh.header {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			_ = f.SetCellValue(sh.name, cell, title)
		}
		last, _ := excelize.CoordinatesToCellName(len(sh.header), 1)
		_ = f.SetCellStyle(sh.name, "A1", last, headerStyle)

		for r, row := range sh.rows {
			for col, v := range row {
				cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
				_ = f.SetCellValue(sh.name, cell, v)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}
	return buf.Bytes(), exportFilename(report, FormatXLSX), nil
}

func (s *ExportService) ExportPDF(report *LedgerReport) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Debt Ledger")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(40, 6, "Generated "+report.GeneratedAt.Format("2006-01-02 15:04"))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, "Debts")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
	for _, d := range report.Debts {
		pdf.Cell(70, 6, d.Name)
		pdf.Cell(30, 6, string(d.Type))
		pdf.Cell(30, 6, d.CurrentBalance.StringFixed(2))
		pdf.Cell(30, 6, d.Amount.StringFixed(2))
		pdf.Cell(20, 6, d.Status())
		pdf.Ln(6)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, "Payments")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
	for _, row := range report.Payments {
		p := row.Payment
		pdf.Cell(25, 6, p.PaidAt.Format("2006-01-02"))
		pdf.Cell(20, 6, p.Period().Key())
		pdf.Cell(70, 6, row.DebtName)
		pdf.Cell(30, 6, string(p.Source))
		pdf.Cell(30, 6, p.Amount.StringFixed(2))
		pdf.Ln(6)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, "Payoff Projection")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
	proj := report.Projection
	if proj.MonthsToClear != nil && proj.DebtFreeBy != nil {
		pdf.Cell(60, 6, fmt.Sprintf("Debt free in %d months (%s)", *proj.MonthsToClear, *proj.DebtFreeBy))
	} else {
		pdf.Cell(60, 6, proj.Note)
	}
	pdf.Ln(6)
	for _, pt := range proj.Series {
		// yearly rows keep long horizons to a few pages
		if pt.Month%12 != 0 && pt.Month != proj.Series[len(proj.Series)-1].Month {
			continue
		}
		pdf.Cell(20, 6, fmt.Sprintf("%d", pt.Month))
		pdf.Cell(25, 6, pt.Period)
		pdf.Cell(30, 6, pt.Balance.StringFixed(2))
		pdf.Ln(6)
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), exportFilename(report, FormatPDF), nil
}

var (
	debtHeader    = []string{"ID", "Name", "Type", "Initial Balance", "Current Balance", "Amount", "Paid Amount", "Percent Paid", "Status"}
	paymentHeader = []string{"Payment ID", "Debt", "Period", "Paid At", "Source", "Card Debt ID", "Amount", "Notes"}
)

func debtRow(d models.Debt) []string {
	return []string{
		d.ID,
		d.Name,
		string(d.Type),
		d.InitialBalance.StringFixed(2),
		d.CurrentBalance.StringFixed(2),
		d.Amount.StringFixed(2),
		d.PaidAmount.StringFixed(2),
		d.PercentPaid().StringFixed(2),
		d.Status(),
	}
}

func paymentRow(row LedgerRow) []string {
	p := row.Payment
	card := ""
	if p.CardDebtID != nil {
		card = *p.CardDebtID
	}
	return []string{
		p.ID,
		row.DebtName,
		p.Period().Key(),
		p.PaidAt.Format(time.RFC3339),
		string(p.Source),
		card,
		p.Amount.StringFixed(2),
		p.Notes,
	}
}

func debtCells(debts []models.Debt) [][]any {
	rows := make([][]any, 0, len(debts))
	for _, d := range debts {
		rows = append(rows, []any{
			d.ID,
			d.Name,
			string(d.Type),
			d.InitialBalance.InexactFloat64(),
			d.CurrentBalance.InexactFloat64(),
			d.Amount.InexactFloat64(),
			d.PaidAmount.InexactFloat64(),
			d.PercentPaid().InexactFloat64(),
			d.Status(),
		})
	}
	return rows
}

func paymentCells(payments []LedgerRow) [][]any {
	rows := make([][]any, 0, len(payments))
	for _, row := range payments {
		cells := paymentRow(row)
		out := make([]any, len(cells))
		for i, c := range cells {
			out[i] = c
		}
		out[6] = row.Payment.Amount.InexactFloat64()
		rows = append(rows, out)
	}
	return rows
}

func projectionCells(p *Projection) [][]any {
	rows := make([][]any, 0, len(p.Series))
	for _, pt := range p.Series {
		rows = append(rows, []any{pt.Month, pt.Period, pt.Balance.InexactFloat64()})
	}
	return rows
}

func exportFilename(report *LedgerReport, format string) string {
	return fmt.Sprintf("debt_ledger_%s.%s", report.GeneratedAt.Format("2006-01-02"), format)
}
