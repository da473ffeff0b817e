package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"servicedesk/backend/internal/domain"
)

// ErrFetch wraps any failure of a settlement source. No partial totals are returned with it.
var ErrFetch = errors.New("settlement source fetch failed")

type Calculator struct {
	src Sources
	loc *time.Location
}

func NewCalculator(src Sources, loc *time.Location) *Calculator {
	if loc == nil {
		loc = time.Local
	}
	return &Calculator{src: src, loc: loc}
}

func (c *Calculator) Location() *time.Location {
	return c.loc
}

// DayBounds returns local midnight and 23:59:59.999 of the calendar day containing t.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end
}

// Calculate reads every source for the branch/day and aggregates them. The five
// reads run concurrently; the first failure cancels the rest.
func (c *Calculator) Calculate(ctx context.Context, companyID string, branchID string, date time.Time) (domain.SettlementTotals, error) {
	start, end := DayBounds(date, c.loc)

	var (
		methods  []domain.PaymentMethod
		openings []domain.OpeningBalance
		payments []domain.PaymentRecord
		refunds  []domain.RefundRecord
		expenses []domain.ExpenseRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		methods, err = c.src.Methods.ActivePaymentMethods(gctx, companyID)
		return fetchError("payment methods", err)
	})
	g.Go(func() error {
		var err error
		openings, err = c.src.Openings.OpeningBalances(gctx, companyID, branchID, start)
		return fetchError("opening balances", err)
	})
	g.Go(func() error {
		var err error
		payments, err = c.src.Payments.CollectedPayments(gctx, companyID, branchID, start, end)
		return fetchError("payments", err)
	})
	g.Go(func() error {
		var err error
		refunds, err = c.src.Refunds.IssuedRefunds(gctx, companyID, branchID, start, end)
		return fetchError("refunds", err)
	})
	g.Go(func() error {
		var err error
		expenses, err = c.src.Expenses.PaidExpenses(gctx, companyID, branchID, start, end)
		return fetchError("expenses", err)
	})
	if err := g.Wait(); err != nil {
		return domain.SettlementTotals{}, err
	}

	return Aggregate(methods, openings, payments, refunds, expenses), nil
}

type methodAccumulator struct {
	method    domain.PaymentMethod
	opening   decimal.Decimal
	collected decimal.Decimal
	refunded  decimal.Decimal
	expense   decimal.Decimal
	count     int
}

// Aggregate builds one breakdown row per active method, in the order given,
// even when every component is zero. Amounts booked against a method that is
// not in the list, and refunds with no method, land in Unattributed and are
// kept out of the scalar totals.
func Aggregate(
	methods []domain.PaymentMethod,
	openings []domain.OpeningBalance,
	payments []domain.PaymentRecord,
	refunds []domain.RefundRecord,
	expenses []domain.ExpenseRecord,
) domain.SettlementTotals {
	order := make([]*methodAccumulator, 0, len(methods))
	byID := make(map[string]*methodAccumulator, len(methods))
	for _, method := range methods {
		if _, dup := byID[method.ID]; dup {
			continue
		}
		acc := &methodAccumulator{method: method}
		byID[method.ID] = acc
		order = append(order, acc)
	}

	totals := domain.SettlementTotals{
		TotalCollected: decimal.Zero,
		TotalRefunds:   decimal.Zero,
		TotalExpenses:  decimal.Zero,
		Unattributed: domain.UnattributedAmounts{
			Collected: decimal.Zero,
			Refunded:  decimal.Zero,
			Expense:   decimal.Zero,
		},
	}

	for _, ob := range openings {
		if acc, ok := byID[ob.PaymentMethodID]; ok {
			acc.opening = acc.opening.Add(ob.OpeningAmount)
		}
	}

	for _, p := range payments {
		acc, ok := byID[p.PaymentMethodID]
		if !ok {
			totals.Unattributed.Collected = totals.Unattributed.Collected.Add(p.Amount)
			totals.Unattributed.TransactionCount++
			continue
		}
		acc.collected = acc.collected.Add(p.Amount)
		acc.count++
	}

	for _, r := range refunds {
		acc, ok := byID[r.RefundPaymentMethodID]
		if r.RefundPaymentMethodID == "" || !ok {
			totals.Unattributed.Refunded = totals.Unattributed.Refunded.Add(r.RefundAmount)
			totals.Unattributed.TransactionCount++
			continue
		}
		acc.refunded = acc.refunded.Add(r.RefundAmount)
	}

	for _, e := range expenses {
		acc, ok := byID[e.PaymentMethodID]
		if !ok {
			totals.Unattributed.Expense = totals.Unattributed.Expense.Add(e.Amount)
			totals.Unattributed.TransactionCount++
			continue
		}
		acc.expense = acc.expense.Add(e.Amount)
	}

	totals.MethodTotals = make([]domain.MethodBreakdown, 0, len(order))
	for _, acc := range order {
		closing := acc.opening.Add(acc.collected).Sub(acc.refunded).Sub(acc.expense)
		totals.MethodTotals = append(totals.MethodTotals, domain.MethodBreakdown{
			PaymentMethodID:   acc.method.ID,
			PaymentMethodName: acc.method.Name,
			IsCash:            acc.method.IsCash,
			OpeningBalance:    acc.opening,
			CollectedAmount:   acc.collected,
			RefundedAmount:    acc.refunded,
			ExpenseAmount:     acc.expense,
			ClosingBalance:    closing,
			TransactionCount:  acc.count,
		})
		totals.TotalCollected = totals.TotalCollected.Add(acc.collected)
		totals.TotalRefunds = totals.TotalRefunds.Add(acc.refunded)
		totals.TotalExpenses = totals.TotalExpenses.Add(acc.expense)
	}

	return totals
}

func fetchError(source string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrFetch, source, err)
}
