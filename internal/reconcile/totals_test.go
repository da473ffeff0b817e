package reconcile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servicedesk/backend/internal/domain"
	"servicedesk/backend/internal/reconcile"
	"servicedesk/backend/internal/reconcile/mocks"
)

func amount(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, amount(want).Equal(got), "%s: want %s, got %s", field, want, got.String())
}

type feedMocks struct {
	payments *mocks.MockPaymentFeed
	refunds  *mocks.MockRefundFeed
	expenses *mocks.MockExpenseFeed
	openings *mocks.MockOpeningBalanceProvider
	methods  *mocks.MockPaymentMethodDirectory
}

func newFeedMocks(ctrl *gomock.Controller) feedMocks {
	return feedMocks{
		payments: mocks.NewMockPaymentFeed(ctrl),
		refunds:  mocks.NewMockRefundFeed(ctrl),
		expenses: mocks.NewMockExpenseFeed(ctrl),
		openings: mocks.NewMockOpeningBalanceProvider(ctrl),
		methods:  mocks.NewMockPaymentMethodDirectory(ctrl),
	}
}

func (f feedMocks) sources() reconcile.Sources {
	return reconcile.Sources{
		Payments: f.payments,
		Refunds:  f.refunds,
		Expenses: f.expenses,
		Openings: f.openings,
		Methods:  f.methods,
	}
}

func TestDayBounds(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	at := time.Date(2026, 3, 14, 21, 10, 0, 0, time.UTC) // 02:40 on the 15th in IST

	start, end := reconcile.DayBounds(at, loc)

	assert.True(t, time.Date(2026, 3, 15, 0, 0, 0, 0, loc).Equal(start), "start %s", start)
	assert.True(t, time.Date(2026, 3, 15, 23, 59, 59, int(999*time.Millisecond), loc).Equal(end), "end %s", end)
	assert.Equal(t, loc, start.Location())
}

func TestCalculateEndToEndScenario(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	loc := time.UTC
	day := time.Date(2026, 5, 2, 15, 30, 0, 0, loc)
	start, end := reconcile.DayBounds(day, loc)
	f := newFeedMocks(ctrl)

	f.methods.EXPECT().ActivePaymentMethods(gomock.Any(), "co-1").Return([]domain.PaymentMethod{
		{ID: "cash", Name: "Cash", IsCash: true, Active: true},
		{ID: "card", Name: "Card", Active: true},
	}, nil)
	f.openings.EXPECT().OpeningBalances(gomock.Any(), "co-1", "br-1", start).Return([]domain.OpeningBalance{
		{PaymentMethodID: "cash", OpeningAmount: amount("20")},
	}, nil)
	f.payments.EXPECT().CollectedPayments(gomock.Any(), "co-1", "br-1", start, end).Return([]domain.PaymentRecord{
		{PaymentMethodID: "cash", Amount: amount("100")},
		{PaymentMethodID: "cash", Amount: amount("50")},
	}, nil)
	f.refunds.EXPECT().IssuedRefunds(gomock.Any(), "co-1", "br-1", start, end).Return(nil, nil)
	f.expenses.EXPECT().PaidExpenses(gomock.Any(), "co-1", "br-1", start, end).Return([]domain.ExpenseRecord{
		{PaymentMethodID: "cash", Amount: amount("30")},
	}, nil)

	totals, err := reconcile.NewCalculator(f.sources(), loc).Calculate(context.Background(), "co-1", "br-1", day)
	require.NoError(t, err)
	require.Len(t, totals.MethodTotals, 2)

	cash := totals.MethodTotals[0]
	assert.Equal(t, "cash", cash.PaymentMethodID)
	assertAmount(t, "20", cash.OpeningBalance, "opening")
	assertAmount(t, "150", cash.CollectedAmount, "collected")
	assertAmount(t, "0", cash.RefundedAmount, "refunded")
	assertAmount(t, "30", cash.ExpenseAmount, "expense")
	assertAmount(t, "140", cash.ClosingBalance, "closing")
	assert.Equal(t, 2, cash.TransactionCount)

	card := totals.MethodTotals[1]
	assert.Equal(t, "card", card.PaymentMethodID)
	assertAmount(t, "0", card.ClosingBalance, "card closing")

	assertAmount(t, "150", totals.TotalCollected, "total collected")
	assertAmount(t, "0", totals.TotalRefunds, "total refunds")
	assertAmount(t, "30", totals.TotalExpenses, "total expenses")
	assertAmount(t, "120", totals.NetAmount(), "net")
	assertAmount(t, "120", totals.CashNetAmount(), "cash net")
}

func TestCalculateFailsWholeComputationOnSourceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFeedMocks(ctrl)
	boom := errors.New("connection reset")

	f.methods.EXPECT().ActivePaymentMethods(gomock.Any(), gomock.Any()).Return([]domain.PaymentMethod{{ID: "cash"}}, nil).AnyTimes()
	f.openings.EXPECT().OpeningBalances(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	f.payments.EXPECT().CollectedPayments(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	f.refunds.EXPECT().IssuedRefunds(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, boom)
	f.expenses.EXPECT().PaidExpenses(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	totals, err := reconcile.NewCalculator(f.sources(), time.UTC).Calculate(context.Background(), "co-1", "br-1", time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, reconcile.ErrFetch)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, totals.MethodTotals)
}

func TestAggregate(t *testing.T) {
	methods := []domain.PaymentMethod{
		{ID: "cash", Name: "Cash", IsCash: true},
		{ID: "upi", Name: "UPI"},
	}

	tests := []struct {
		name      string
		openings  []domain.OpeningBalance
		payments  []domain.PaymentRecord
		refunds   []domain.RefundRecord
		expenses  []domain.ExpenseRecord
		wantRows  map[string][5]string
		wantTotal [3]string
		wantUnatt [3]string
		wantCount int
	}{
		{
			name:      "no activity still emits zero rows",
			wantRows:  map[string][5]string{"cash": {"0", "0", "0", "0", "0"}, "upi": {"0", "0", "0", "0", "0"}},
			wantTotal: [3]string{"0", "0", "0"},
			wantUnatt: [3]string{"0", "0", "0"},
		},
		{
			name:     "refund without method goes to unattributed",
			payments: []domain.PaymentRecord{{PaymentMethodID: "upi", Amount: amount("400.50")}},
			refunds: []domain.RefundRecord{
				{RefundPaymentMethodID: "upi", RefundAmount: amount("100.25")},
				{RefundAmount: amount("75")},
			},
			wantRows:  map[string][5]string{"cash": {"0", "0", "0", "0", "0"}, "upi": {"0", "400.50", "100.25", "0", "300.25"}},
			wantTotal: [3]string{"400.50", "100.25", "0"},
			wantUnatt: [3]string{"0", "75", "0"},
			wantCount: 1,
		},
		{
			name:     "deactivated method keeps its amounts out of the rows",
			openings: []domain.OpeningBalance{{PaymentMethodID: "cash", OpeningAmount: amount("500")}, {PaymentMethodID: "cheque", OpeningAmount: amount("90")}},
			payments: []domain.PaymentRecord{
				{PaymentMethodID: "cheque", Amount: amount("999")},
				{PaymentMethodID: "cash", Amount: amount("10")},
			},
			expenses: []domain.ExpenseRecord{
				{PaymentMethodID: "cash", Amount: amount("5")},
				{PaymentMethodID: "cheque", Amount: amount("1")},
			},
			wantRows:  map[string][5]string{"cash": {"500", "10", "0", "5", "505"}, "upi": {"0", "0", "0", "0", "0"}},
			wantTotal: [3]string{"10", "0", "5"},
			wantUnatt: [3]string{"999", "0", "1"},
			wantCount: 2,
		},
		{
			name:      "fractional amounts do not drift",
			payments:  []domain.PaymentRecord{{PaymentMethodID: "cash", Amount: amount("0.10")}, {PaymentMethodID: "cash", Amount: amount("0.20")}},
			expenses:  []domain.ExpenseRecord{{PaymentMethodID: "cash", Amount: amount("0.30")}},
			wantRows:  map[string][5]string{"cash": {"0", "0.30", "0", "0.30", "0"}, "upi": {"0", "0", "0", "0", "0"}},
			wantTotal: [3]string{"0.30", "0", "0.30"},
			wantUnatt: [3]string{"0", "0", "0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals := reconcile.Aggregate(methods, tt.openings, tt.payments, tt.refunds, tt.expenses)
			require.Len(t, totals.MethodTotals, len(methods))

			collected, refunded, expense := decimal.Zero, decimal.Zero, decimal.Zero
			for _, row := range totals.MethodTotals {
				want := tt.wantRows[row.PaymentMethodID]
				assertAmount(t, want[0], row.OpeningBalance, row.PaymentMethodID+" opening")
				assertAmount(t, want[1], row.CollectedAmount, row.PaymentMethodID+" collected")
				assertAmount(t, want[2], row.RefundedAmount, row.PaymentMethodID+" refunded")
				assertAmount(t, want[3], row.ExpenseAmount, row.PaymentMethodID+" expense")
				assertAmount(t, want[4], row.ClosingBalance, row.PaymentMethodID+" closing")

				identity := row.OpeningBalance.Add(row.CollectedAmount).Sub(row.RefundedAmount).Sub(row.ExpenseAmount)
				assert.True(t, identity.Equal(row.ClosingBalance), "closing identity broken for %s", row.PaymentMethodID)

				collected = collected.Add(row.CollectedAmount)
				refunded = refunded.Add(row.RefundedAmount)
				expense = expense.Add(row.ExpenseAmount)
			}

			assert.True(t, collected.Equal(totals.TotalCollected))
			assert.True(t, refunded.Equal(totals.TotalRefunds))
			assert.True(t, expense.Equal(totals.TotalExpenses))

			assertAmount(t, tt.wantTotal[0], totals.TotalCollected, "total collected")
			assertAmount(t, tt.wantTotal[1], totals.TotalRefunds, "total refunds")
			assertAmount(t, tt.wantTotal[2], totals.TotalExpenses, "total expenses")
			assertAmount(t, tt.wantUnatt[0], totals.Unattributed.Collected, "unattributed collected")
			assertAmount(t, tt.wantUnatt[1], totals.Unattributed.Refunded, "unattributed refunded")
			assertAmount(t, tt.wantUnatt[2], totals.Unattributed.Expense, "unattributed expense")
			assert.Equal(t, tt.wantCount, totals.Unattributed.TransactionCount)
		})
	}
}

func TestAggregateIsDeterministic(t *testing.T) {
	methods := []domain.PaymentMethod{{ID: "cash", IsCash: true}, {ID: "card"}}
	payments := []domain.PaymentRecord{{PaymentMethodID: "card", Amount: amount("12.5")}, {PaymentMethodID: "cash", Amount: amount("3")}}

	first := reconcile.Aggregate(methods, nil, payments, nil, nil)
	second := reconcile.Aggregate(methods, nil, payments, nil, nil)

	require.Len(t, second.MethodTotals, len(first.MethodTotals))
	for i := range first.MethodTotals {
		assert.Equal(t, first.MethodTotals[i].PaymentMethodID, second.MethodTotals[i].PaymentMethodID)
		assert.True(t, first.MethodTotals[i].ClosingBalance.Equal(second.MethodTotals[i].ClosingBalance))
	}
	assertAmount(t, "3", first.CashNetAmount(), "cash net")
	assertAmount(t, "15.5", first.NetAmount(), "net")
}
