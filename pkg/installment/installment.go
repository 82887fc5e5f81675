// Package installment derives the state of a debt from three scalars: the
// configured total, the cumulative amount already paid, and the user's
// preferred recurring quota. All arithmetic is exact decimal; rounding to
// two places is a display concern and never happens here.
package installment

import (
	"github.com/shopspring/decimal"

	"github.com/camu740/PayTrack/models"
)

// Status is the derived view of a debt. It is recomputed on every read and
// never persisted.
type Status struct {
	RemainingAmount   decimal.Decimal `json:"remaining_amount"`
	RemainingPayments int64           `json:"remaining_payments"`
	AdjustedQuota     decimal.Decimal `json:"adjusted_quota"`
}

// ComputeStatus returns the remaining balance, the quota to use for the next
// installment, and how many installments at that quota are still needed.
//
// When the remainder drops below the habitual quota, the quota shrinks to
// exactly the remainder so the final installment never exceeds what is owed.
// A paid-off (or overpaid) debt yields all zeros; the surplus of an
// overpayment is not surfaced.
//
// Precondition: defaultQuota > 0 whenever the debt is not yet settled.
// Callers validate the quota before invoking; ComputeStatus does not guard
// against dividing by a non-positive one.
func ComputeStatus(totalDebt, totalPaid, defaultQuota decimal.Decimal) Status {
	remaining := totalDebt.Sub(totalPaid)

	if remaining.Sign() <= 0 {
		return Status{RemainingAmount: decimal.Zero, RemainingPayments: 0, AdjustedQuota: decimal.Zero}
	}

	adjustedQuota := defaultQuota
	if remaining.LessThan(defaultQuota) {
		adjustedQuota = remaining
	}

	// Ceiling division via exact quotient and remainder: a partial final
	// installment still counts as one full remaining payment.
	quo, rem := remaining.QuoRem(adjustedQuota, 0)
	n := quo.IntPart()
	if rem.Sign() != 0 {
		n++
	}

	return Status{
		RemainingAmount:   remaining,
		RemainingPayments: n,
		AdjustedQuota:     adjustedQuota,
	}
}

// SumPayments returns the exact sum of the payment amounts, zero for an
// empty slice. Order-independent; callers ensure the slice holds no
// duplicate records.
func SumPayments(payments []models.Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}
