package receipt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Input is everything printed on a payment receipt.
type Input struct {
	LoanID         uuid.UUID
	Index          int
	ShopName       string
	CustomerName   string
	AmountPaid     decimal.Decimal
	PaidAt         time.Time
	Remaining      decimal.Decimal
	Notes          string
	CurrencySymbol string
}

// Renderer produces a receipt file and returns its path.
type Renderer interface {
	Render(ctx context.Context, in Input) (string, error)
}

// PDFRenderer writes receipts as PDF files under Dir.
type PDFRenderer struct {
	Dir string
	now func() time.Time
}

func NewPDFRenderer(dir string) *PDFRenderer {
	return &PDFRenderer{Dir: dir, now: time.Now}
}

func (r *PDFRenderer) Render(ctx context.Context, in Input) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create receipt dir: %w", err)
	}

	name := fmt.Sprintf("receipt_%s_%d_%d.pdf", in.LoanID, in.Index, r.now().UnixNano())
	path := filepath.Join(r.Dir, name)

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Payment Receipt", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 25)
	pdf.CellFormat(0, 14, "Payment Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 15)
	line := func(label, value string) {
		pdf.CellFormat(0, 9, tr(label+": "+value), "", 1, "L", false, 0, "")
	}
	line("Shop", in.ShopName)
	line("Customer", in.CustomerName)
	line("Amount Paid", money(in.CurrencySymbol, in.AmountPaid))
	line("Date", in.PaidAt.Format("02 Jan 2006"))
	line("Remaining Balance", money(in.CurrencySymbol, in.Remaining))

	if in.Notes != "" {
		pdf.Ln(6)
		pdf.MultiCell(0, 9, tr("Notes: "+in.Notes), "", "L", false)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write receipt: %w", err)
	}
	return path, nil
}

func money(symbol string, d decimal.Decimal) string {
	if symbol == "" {
		return d.StringFixed(2)
	}
	return symbol + " " + d.StringFixed(2)
}
