package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servicedesk/backend/internal/domain"
	"servicedesk/backend/internal/store"
)

var testDay = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

func newSettlement(branchID string, day time.Time) domain.Settlement {
	return domain.Settlement{
		CompanyID:      "co-1",
		BranchID:       branchID,
		SettlementDate: day,
		Status:         domain.SettlementStatusPending,
		NetCashAmount:  decimal.NewFromInt(100),
		CashDifference: decimal.NewFromInt(-100),
		Breakdown: []domain.MethodBreakdown{
			{PaymentMethodID: "cash", CollectedAmount: decimal.NewFromInt(100), ClosingBalance: decimal.NewFromInt(100)},
		},
	}
}

func TestCreateSettlementRejectsSecondForSameBranchDay(t *testing.T) {
	s := New()
	ctx := context.Background()

	first, err := s.CreateSettlement(ctx, newSettlement("br-1", testDay))
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	require.Len(t, first.Breakdown, 1)
	assert.Equal(t, first.ID, first.Breakdown[0].SettlementID)
	assert.NotEmpty(t, first.Breakdown[0].ID)

	_, err = s.CreateSettlement(ctx, newSettlement("br-1", testDay))
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = s.CreateSettlement(ctx, newSettlement("br-2", testDay))
	assert.NoError(t, err)
}

func TestGetSettlementIsCompanyScoped(t *testing.T) {
	s := New()
	ctx := context.Background()
	created, err := s.CreateSettlement(ctx, newSettlement("br-1", testDay))
	require.NoError(t, err)

	_, err = s.GetSettlement(ctx, "co-other", created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetSettlementByBranchDate(ctx, "co-other", "br-1", testDay)
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.GetSettlementByBranchDate(ctx, "co-1", "br-1", testDay)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestRecomputeKeepsPhysicalCount(t *testing.T) {
	s := New()
	ctx := context.Background()
	created, err := s.CreateSettlement(ctx, newSettlement("br-1", testDay))
	require.NoError(t, err)

	_, err = s.SaveDenominations(ctx, "co-1", created.ID, domain.DenominationCount{TotalAmount: decimal.NewFromInt(90)})
	require.NoError(t, err)

	totals := domain.SettlementTotals{
		MethodTotals:   []domain.MethodBreakdown{{PaymentMethodID: "cash", IsCash: true, CollectedAmount: decimal.NewFromInt(130), ClosingBalance: decimal.NewFromInt(130)}},
		TotalCollected: decimal.NewFromInt(130),
		TotalRefunds:   decimal.Zero,
		TotalExpenses:  decimal.Zero,
	}
	updated, err := s.RecomputeSettlement(ctx, "co-1", created.ID, totals, time.Now())
	require.NoError(t, err)

	assert.True(t, updated.PhysicalCashCount.Equal(decimal.NewFromInt(90)))
	assert.True(t, updated.NetCashAmount.Equal(decimal.NewFromInt(130)))
	assert.True(t, updated.CashDifference.Equal(decimal.NewFromInt(-40)))
	assert.True(t, updated.CashNetAmount.Equal(decimal.NewFromInt(130)))
	require.Len(t, updated.Breakdown, 1)
	assert.NotEqual(t, created.Breakdown[0].ID, updated.Breakdown[0].ID)
	require.NotNil(t, updated.Denominations)
}

func TestConditionalWritesRespectStatus(t *testing.T) {
	s := New()
	ctx := context.Background()
	created, err := s.CreateSettlement(ctx, newSettlement("br-1", testDay))
	require.NoError(t, err)

	submitted, err := s.TransitionSettlement(ctx, "co-1", created.ID, domain.StatusTransition{
		From:    domain.EditableStatuses,
		To:      domain.SettlementStatusSubmitted,
		ActorID: "usr-1",
		At:      time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SettlementStatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SettledAt)

	_, err = s.UpdateSettlementNotes(ctx, "co-1", created.ID, "late", time.Now())
	assert.ErrorIs(t, err, store.ErrStatusChanged)

	_, err = s.SaveDenominations(ctx, "co-1", created.ID, domain.DenominationCount{TotalAmount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, store.ErrStatusChanged)

	_, err = s.RecomputeSettlement(ctx, "co-1", created.ID, domain.SettlementTotals{}, time.Now())
	assert.ErrorIs(t, err, store.ErrStatusChanged)

	_, err = s.TransitionSettlement(ctx, "co-1", created.ID, domain.StatusTransition{
		From: domain.EditableStatuses,
		To:   domain.SettlementStatusSubmitted,
		At:   time.Now(),
	})
	assert.ErrorIs(t, err, store.ErrStatusChanged)

	_, err = s.TransitionSettlement(ctx, "co-1", "missing", domain.StatusTransition{From: domain.EditableStatuses, To: domain.SettlementStatusSubmitted})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFeedsScopeByBranchAndWindow(t *testing.T) {
	s := New()
	ctx := context.Background()
	from := testDay
	to := testDay.Add(24*time.Hour - time.Millisecond)
	refund := decimal.NewFromInt(25)
	refundedAt := testDay.Add(9 * time.Hour)
	lateRefund := decimal.NewFromInt(99)
	lateAt := testDay.Add(24 * time.Hour)

	s.AddTicket(domain.ServiceTicket{ID: "t1", CompanyID: "co-1", BranchID: "br-1", RefundAmount: &refund, RefundedAt: &refundedAt})
	s.AddTicket(domain.ServiceTicket{ID: "t2", CompanyID: "co-1", BranchID: "br-2"})
	s.AddTicket(domain.ServiceTicket{ID: "t3", CompanyID: "co-1", BranchID: "br-1", RefundAmount: &lateRefund, RefundedAt: &lateAt})
	s.AddPayment(domain.TicketPayment{TicketID: "t1", PaymentMethodID: "cash", Amount: decimal.NewFromInt(10), PaidAt: testDay.Add(time.Hour)})
	s.AddPayment(domain.TicketPayment{TicketID: "t2", PaymentMethodID: "cash", Amount: decimal.NewFromInt(20), PaidAt: testDay.Add(time.Hour)})
	s.AddPayment(domain.TicketPayment{TicketID: "t1", PaymentMethodID: "cash", Amount: decimal.NewFromInt(30), PaidAt: testDay.Add(-time.Second)})
	s.AddExpense(domain.Expense{
		CompanyID: "co-1", BranchID: "br-1", ExpenseDate: to,
		Payments: []domain.ExpensePayment{
			{PaymentMethodID: "cash", Amount: decimal.NewFromInt(4)},
			{PaymentMethodID: "card", Amount: decimal.NewFromInt(6)},
		},
	})

	payments, err := s.CollectedPayments(ctx, "co-1", "br-1", from, to)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.True(t, payments[0].Amount.Equal(decimal.NewFromInt(10)))

	refunds, err := s.IssuedRefunds(ctx, "co-1", "br-1", from, to)
	require.NoError(t, err)
	require.Len(t, refunds, 1)
	assert.Equal(t, "", refunds[0].RefundPaymentMethodID)

	expenses, err := s.PaidExpenses(ctx, "co-1", "br-1", from, to)
	require.NoError(t, err)
	assert.Len(t, expenses, 2)
}

func TestListSettlementsFiltersAndPages(t *testing.T) {
	s := New()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.CreateSettlement(ctx, newSettlement("br-1", testDay.AddDate(0, 0, i)))
		require.NoError(t, err)
	}
	_, err := s.CreateSettlement(ctx, newSettlement("br-2", testDay))
	require.NoError(t, err)

	page, err := s.ListSettlements(ctx, "co-1", domain.SettlementFilter{BranchID: "br-1", Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	require.Len(t, page.Items, 2)
	assert.True(t, page.Items[0].SettlementDate.Equal(testDay.AddDate(0, 0, 4)))

	from := testDay.AddDate(0, 0, 1)
	to := testDay.AddDate(0, 0, 2)
	ranged, err := s.ListSettlements(ctx, "co-1", domain.SettlementFilter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, 2, ranged.Total)

	beyond, err := s.ListSettlements(ctx, "co-1", domain.SettlementFilter{Page: 10})
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
	assert.Equal(t, 6, beyond.Total)
}

func TestOpeningBalancesUpsert(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.UpsertOpeningBalances(ctx, "co-1", "br-1", testDay, []domain.OpeningBalance{
		{PaymentMethodID: "cash", OpeningAmount: decimal.NewFromInt(10)},
	}))
	require.NoError(t, s.UpsertOpeningBalances(ctx, "co-1", "br-1", testDay, []domain.OpeningBalance{
		{PaymentMethodID: "cash", OpeningAmount: decimal.NewFromInt(15)},
		{PaymentMethodID: "card", OpeningAmount: decimal.NewFromInt(3)},
	}))

	balances, err := s.OpeningBalances(ctx, "co-1", "br-1", testDay)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, "card", balances[0].PaymentMethodID)
	assert.True(t, balances[1].OpeningAmount.Equal(decimal.NewFromInt(15)))
}

func TestSeededStoreHasDemoData(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	methods, err := s.ActivePaymentMethods(ctx, DemoCompanyID)
	require.NoError(t, err)
	assert.Len(t, methods, 3)

	branch, err := s.GetBranch(ctx, DemoCompanyID, DemoBranchID)
	require.NoError(t, err)
	assert.Equal(t, "MAIN", branch.Code)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)
}
