package services_test

import (
	"context"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"installment_app_echo/internal/models"
	"installment_app_echo/internal/services"
	"installment_app_echo/internal/testutil"
)

func TestPlanSummary(t *testing.T) {
	db := testutil.NewTestDB(t)
	user := testutil.CreateUser(t, db, "alice")
	order, _ := testutil.CreateOrderWithPlans(t, db, user.ID, models.OrderStatusPending, "40", "30", "30")

	pays := services.NewPaymentService(db, approving("tx"), nil, nil)
	_, err := pays.Pay(context.Background(), pay(order.ID, "40", 1))
	require.NoError(t, err)

	svc := services.NewPaymentPlanService(db, nil)
	summary, err := svc.Summary(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, "alice", summary.Customer)
	assert.Equal(t, order.ID, summary.Order)
	assert.Equal(t, 3, summary.TotalInstallments)
	require.Len(t, summary.Installments, 2)
	assert.Equal(t, 2, summary.Installments[0].Installment)
	assert.Equal(t, "30.00", summary.Installments[0].Amount)
	assert.False(t, summary.Installments[0].IsPaid)
}

func TestPlanSummaryNothingUnpaid(t *testing.T) {
	db := testutil.NewTestDB(t)
	user := testutil.CreateUser(t, db, "bob")
	order, _ := testutil.CreateOrderWithPlans(t, db, user.ID, models.OrderStatusPending, "10")

	pays := services.NewPaymentService(db, approving("tx"), nil, nil)
	_, err := pays.Pay(context.Background(), pay(order.ID, "10", 1))
	require.NoError(t, err)

	svc := services.NewPaymentPlanService(db, nil)

	summary, err := svc.Summary(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Nil(t, summary)

	summary, err = svc.Summary(context.Background(), order.ID+1000)
	require.NoError(t, err)
	assert.Nil(t, summary)
}

func TestPlanSummaryServedFromCache(t *testing.T) {
	db := testutil.NewTestDB(t)
	client, mock := redismock.NewClientMock()

	mock.ExpectGet(services.PlanSummaryCacheKey(7)).SetVal(
		`{"customer":"cached","order":7,"total_installments":2,"installments":[{"installment":2,"amount":"5.00","due_date":"2026-02-01T00:00:00Z","is_paid":false}]}`)

	svc := services.NewPaymentPlanService(db, services.NewRedisCacheFromClient(client))
	summary, err := svc.Summary(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, "cached", summary.Customer)
	require.Len(t, summary.Installments, 1)
	assert.Equal(t, "5.00", summary.Installments[0].Amount)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
