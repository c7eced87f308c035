package services_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"installment_app_echo/internal/services"
)

func TestBuildInstallments(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		total string
		n     int
		want  []string
	}{
		{"even split", "300", 3, []string{"100", "100", "100"}},
		{"single installment", "99.99", 1, []string{"99.99"}},
		{"remainder on last", "100", 3, []string{"33.33", "33.33", "33.34"}},
		{"cents remainder", "200.05", 4, []string{"50.01", "50.01", "50.01", "50.02"}},
		{"more installments than cents", "0.05", 7, []string{"0", "0", "0", "0", "0", "0", "0.05"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := decimal.RequireFromString(tt.total)
			plans, err := services.BuildInstallments(total, tt.n, start)
			require.NoError(t, err)
			require.Len(t, plans, tt.n)

			sum := decimal.Zero
			for i, p := range plans {
				assert.Equal(t, i+1, p.InstallmentNumber)
				assert.False(t, p.IsPaid)
				assert.True(t, decimal.RequireFromString(tt.want[i]).Equal(p.Amount), "installment %d: got %s want %s", i+1, p.Amount, tt.want[i])
				assert.True(t, start.AddDate(0, i, 0).Equal(p.DueDate))
				sum = sum.Add(p.Amount)
			}
			assert.True(t, total.Equal(sum), "sum %s != total %s", sum, total)
		})
	}
}

func TestBuildInstallmentsRejectsNonPositiveCount(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := services.BuildInstallments(decimal.NewFromInt(100), n, time.Now())
		assert.ErrorIs(t, err, services.ErrInvalidInstallmentCount)
	}
}
