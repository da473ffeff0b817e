package reconcile

import (
	"context"
	"time"

	"servicedesk/backend/internal/domain"
)

// PaymentFeed returns payments collected in [from, to] for tickets owned by the branch.
//
//go:generate mockgen -destination=mocks/mock_sources.go -package=mocks -source=sources.go
type PaymentFeed interface {
	CollectedPayments(ctx context.Context, companyID string, branchID string, from time.Time, to time.Time) ([]domain.PaymentRecord, error)
}

// RefundFeed returns refunds issued in [from, to] with a non-null refund amount.
type RefundFeed interface {
	IssuedRefunds(ctx context.Context, companyID string, branchID string, from time.Time, to time.Time) ([]domain.RefundRecord, error)
}

// ExpenseFeed returns one record per expense payment entry dated in [from, to].
type ExpenseFeed interface {
	PaidExpenses(ctx context.Context, companyID string, branchID string, from time.Time, to time.Time) ([]domain.ExpenseRecord, error)
}

type OpeningBalanceProvider interface {
	OpeningBalances(ctx context.Context, companyID string, branchID string, day time.Time) ([]domain.OpeningBalance, error)
}

type PaymentMethodDirectory interface {
	ActivePaymentMethods(ctx context.Context, companyID string) ([]domain.PaymentMethod, error)
}

// Sources bundles every feed the calculator reads.
type Sources struct {
	Payments PaymentFeed
	Refunds  RefundFeed
	Expenses ExpenseFeed
	Openings OpeningBalanceProvider
	Methods  PaymentMethodDirectory
}
