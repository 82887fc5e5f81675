// Package report renders the payment report PDF: a summary of the configured
// debt against the amount already paid, followed by the dated payment history.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/camu740/PayTrack/models"
)

const (
	pageBreakY   = 270 // start a new page once a row would land past this
	conceptWidth = 40  // concept column, in runes
)

var hundred = decimal.NewFromInt(100)

// Filename returns the export name for a report generated at t, with the
// timestamp embedded to the second.
func Filename(t time.Time) string {
	return "informe-pagos-" + t.Format("2006-01-02-15-04-05") + ".pdf"
}

// Generate produces the PDF bytes for the given configuration and ledger.
// totalPaid is passed in rather than recomputed so the report always matches
// the totals the caller just rendered.
func Generate(cfg models.DebtConfig, payments []models.Payment, totalPaid decimal.Decimal) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(150, 150, 150)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("Página %d de {nb}", pdf.PageNo())), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})
	pdf.AddPage()

	// Title and generation timestamp, centered.
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(10, 14)
	pdf.CellFormat(0, 10, tr("Informe de Pagos"), "", 0, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(10, 24)
	pdf.CellFormat(0, 6, tr("Generado: "+time.Now().Format("02/01/2006 15:04")), "", 0, "C", false, 0, "")

	pdf.SetDrawColor(99, 102, 241)
	pdf.SetLineWidth(0.5)
	pdf.Line(20, 32, 190, 32)

	// Summary block.
	totalDebt := cfg.TotalAmount
	percentage := decimal.Zero
	if totalDebt.Sign() > 0 {
		percentage = totalPaid.Div(totalDebt).Mul(hundred).Round(2)
	}
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(20, 42, tr("Resumen"))
	pdf.SetFont("Helvetica", "", 11)
	pdf.Text(20, 52, tr(fmt.Sprintf("Total a pagar: €%s", totalDebt.StringFixed(2))))
	pdf.Text(20, 60, tr(fmt.Sprintf("Total pagado: €%s", totalPaid.StringFixed(2))))
	pdf.Text(20, 68, tr(fmt.Sprintf("Porcentaje pagado: %s%%", percentage.StringFixed(2))))
	pdf.Text(20, 76, tr(fmt.Sprintf("Pendiente: €%s", totalDebt.Sub(totalPaid).StringFixed(2))))

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(20, 90, tr("Historial de Transferencias"))

	if len(payments) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.Text(20, 100, tr("No hay transferencias registradas"))
	} else {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.Text(20, 100, tr("Fecha"))
		pdf.Text(90, 100, tr("Importe"))
		pdf.Text(130, 100, tr("Concepto"))
		pdf.SetDrawColor(200, 200, 200)
		pdf.SetLineWidth(0.3)
		pdf.Line(20, 102, 190, 102)

		pdf.SetFont("Helvetica", "", 10)
		y := 110.0
		for _, p := range payments {
			if y > pageBreakY {
				pdf.AddPage()
				y = 20
			}
			concept := p.Concept
			if concept == "" {
				concept = "-"
			}
			pdf.Text(20, y, p.CreatedAt.Format("02/01/2006"))
			pdf.Text(90, y, tr(fmt.Sprintf("€%s", p.Amount.StringFixed(2))))
			pdf.Text(130, y, tr(truncate(concept, conceptWidth)))
			y += 8
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report output: %w", err)
	}
	return buf.Bytes(), nil
}

// truncate cuts s to at most n runes so long concepts stay inside the column.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
