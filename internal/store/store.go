package store

import (
	"context"
	"errors"
	"time"

	"servicedesk/backend/internal/domain"
	"servicedesk/backend/internal/reconcile"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a uniqueness violation, e.g. a second settlement for the same branch/day.
	ErrConflict = errors.New("conflict")
	// ErrStatusChanged reports that a conditional write matched no row because
	// the settlement is no longer in one of the expected statuses.
	ErrStatusChanged = errors.New("settlement status changed")
)

type Repository interface {
	reconcile.PaymentFeed
	reconcile.RefundFeed
	reconcile.ExpenseFeed
	reconcile.OpeningBalanceProvider
	reconcile.PaymentMethodDirectory

	GetBranch(ctx context.Context, companyID string, branchID string) (*domain.Branch, error)

	GetSettlement(ctx context.Context, companyID string, id string) (*domain.Settlement, error)
	GetSettlementByBranchDate(ctx context.Context, companyID string, branchID string, day time.Time) (*domain.Settlement, error)
	ListSettlements(ctx context.Context, companyID string, filter domain.SettlementFilter) (domain.SettlementPage, error)
	// CreateSettlement writes the settlement and its breakdown rows atomically.
	CreateSettlement(ctx context.Context, settlement domain.Settlement) (*domain.Settlement, error)
	// RecomputeSettlement replaces totals and breakdown rows while the settlement is editable.
	// The physical cash count is kept and the cash difference is derived from it.
	RecomputeSettlement(ctx context.Context, companyID string, id string, totals domain.SettlementTotals, at time.Time) (*domain.Settlement, error)
	// SaveDenominations upserts the denomination row and sets physical cash count and
	// cash difference in the same write, while the settlement is editable.
	SaveDenominations(ctx context.Context, companyID string, id string, count domain.DenominationCount) (*domain.Settlement, error)
	UpdateSettlementNotes(ctx context.Context, companyID string, id string, notes string, at time.Time) (*domain.Settlement, error)
	TransitionSettlement(ctx context.Context, companyID string, id string, transition domain.StatusTransition) (*domain.Settlement, error)
	UpsertOpeningBalances(ctx context.Context, companyID string, branchID string, day time.Time, balances []domain.OpeningBalance) error

	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
}

// Paginate clamps page/pageSize to sane values.
func Paginate(filter domain.SettlementFilter) (page int, pageSize int) {
	page, pageSize = filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
