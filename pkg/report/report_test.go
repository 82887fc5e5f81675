package report

import (
	"bytes"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/camu740/PayTrack/models"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestFilenameEmbedsTimestampToTheSecond(t *testing.T) {
	ts := time.Date(2025, 3, 9, 14, 5, 7, 0, time.UTC)
	got := Filename(ts)
	want := "informe-pagos-2025-03-09-14-05-07.pdf"
	if got != want {
		t.Fatalf("expected %q got %q", want, got)
	}
	if ok, _ := regexp.MatchString(`^informe-pagos-\d{4}-\d{2}-\d{2}-\d{2}-\d{2}-\d{2}\.pdf$`, got); !ok {
		t.Fatalf("filename %q does not match expected pattern", got)
	}
}

func TestGenerateProducesPDF(t *testing.T) {
	cfg := models.DebtConfig{TotalAmount: d("1000"), DefaultQuota: d("100")}
	payments := []models.Payment{
		{Amount: d("200"), Concept: "marzo", CreatedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Amount: d("50.50"), Concept: "", CreatedAt: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
	}
	b, err := Generate(cfg, payments, d("250.50"))
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatalf("output is not a PDF (got prefix %q)", b[:min(8, len(b))])
	}
}

func TestGenerateEmptyLedger(t *testing.T) {
	cfg := models.DebtConfig{TotalAmount: d("500"), DefaultQuota: d("50")}
	b, err := Generate(cfg, nil, decimal.Zero)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(b) == 0 {
		t.Fatalf("empty output for empty ledger")
	}
}

func TestGenerateManyPaymentsPaginates(t *testing.T) {
	cfg := models.DebtConfig{TotalAmount: d("10000"), DefaultQuota: d("100")}
	var payments []models.Payment
	for i := 0; i < 80; i++ {
		payments = append(payments, models.Payment{
			Amount:    d("100"),
			Concept:   "cuota mensual",
			CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
		})
	}
	small, err := Generate(cfg, payments[:2], d("200"))
	if err != nil {
		t.Fatalf("generate small failed: %v", err)
	}
	big, err := Generate(cfg, payments, d("8000"))
	if err != nil {
		t.Fatalf("generate big failed: %v", err)
	}
	// 80 rows cannot fit on one A4 page at 8mm per row.
	if len(big) <= len(small) {
		t.Fatalf("expected multi-page report to be larger: %d <= %d", len(big), len(small))
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("corto", 40); got != "corto" {
		t.Fatalf("short concept must pass through, got %q", got)
	}
	long := "un concepto larguísimo que no cabe en la columna del informe de pagos"
	got := truncate(long, 40)
	if len([]rune(got)) != 40 {
		t.Fatalf("expected 40 runes got %d", len([]rune(got)))
	}
}
