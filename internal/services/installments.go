package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"installment_app_echo/internal/models"
)

// ErrInvalidInstallmentCount is returned when an order asks for fewer than one installment.
var ErrInvalidInstallmentCount = errors.New("installment count must be at least 1")

// BuildInstallments splits total into n monthly installments starting at start.
//
// Every installment is total/n truncated to cents; the last one absorbs the
// remainder so the amounts always add up to total exactly. Installment i is
// due i-1 months after start.
func BuildInstallments(total decimal.Decimal, n int, start time.Time) ([]models.PaymentPlan, error) {
	if n <= 0 {
		return nil, ErrInvalidInstallmentCount
	}

	share := total.Div(decimal.NewFromInt(int64(n))).Truncate(2)
	plans := make([]models.PaymentPlan, n)
	allocated := decimal.Zero

	for i := 0; i < n; i++ {
		amount := share
		if i == n-1 {
			amount = total.Sub(allocated)
		}
		allocated = allocated.Add(amount)

		plans[i] = models.PaymentPlan{
			InstallmentNumber: i + 1,
			Amount:            amount,
			IsPaid:            false,
			DueDate:           start.AddDate(0, i, 0),
		}
	}
	return plans, nil
}
