package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"servicedesk/backend/internal/cache"
	"servicedesk/backend/internal/domain"
	"servicedesk/backend/internal/reconcile"
	"servicedesk/backend/internal/store"
)

const maxCreateAttempts = 3

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Options struct {
	// Location decides where a settlement day starts and ends. Defaults to time.Local.
	Location *time.Location
	// Currency selects the denomination set. Defaults to reconcile.DefaultCurrency.
	Currency string
	Cache    cache.SnapshotCache
	CacheTTL time.Duration
	Logger   logrus.FieldLogger
	Clock    func() time.Time
}

type Service struct {
	repo          store.Repository
	calc          *reconcile.Calculator
	numberer      *Numberer
	currency      string
	denominations []domain.Denomination
	cache         cache.SnapshotCache
	cacheTTL      time.Duration
	log           logrus.FieldLogger
	now           func() time.Time
}

func New(repo store.Repository, opts Options) (*Service, error) {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Currency == "" {
		opts.Currency = reconcile.DefaultCurrency
	}
	set, ok := reconcile.Denominations(opts.Currency)
	if !ok {
		return nil, fmt.Errorf("unsupported currency %q (supported: %s)", opts.Currency, strings.Join(reconcile.SupportedCurrencies(), ", "))
	}
	if opts.Cache == nil {
		opts.Cache = cache.NoopSnapshotCache{}
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	calc := reconcile.NewCalculator(reconcile.Sources{
		Payments: repo,
		Refunds:  repo,
		Expenses: repo,
		Openings: repo,
		Methods:  repo,
	}, opts.Location)

	return &Service{
		repo:          repo,
		calc:          calc,
		numberer:      NewNumberer(repo, opts.Logger),
		currency:      strings.ToUpper(opts.Currency),
		denominations: set,
		cache:         opts.Cache,
		cacheTTL:      opts.CacheTTL,
		log:           opts.Logger,
		now:           opts.Clock,
	}, nil
}

// Location is the zone settlement days are cut in.
func (s *Service) Location() *time.Location {
	return s.calc.Location()
}

func (s *Service) Currency() string {
	return s.currency
}

func (s *Service) Denominations() []domain.Denomination {
	out := make([]domain.Denomination, len(s.denominations))
	copy(out, s.denominations)
	return out
}

// GenerateSettlementNumber exposes the numbering rule used on creation.
func (s *Service) GenerateSettlementNumber(ctx context.Context, companyID string, branchID string, date time.Time) string {
	day, _ := reconcile.DayBounds(date, s.calc.Location())
	return s.numberer.Generate(ctx, companyID, branchID, day)
}

// CreateOrGet returns the settlement for the branch and calendar day of date.
// Editable settlements are recomputed from the source feeds; submitted and
// verified ones are returned as stored.
func (s *Service) CreateOrGet(ctx context.Context, companyID string, branchID string, date time.Time, userID string) (*domain.Settlement, error) {
	branchID = strings.TrimSpace(branchID)
	if branchID == "" {
		return nil, validationError("branch_id", "is required")
	}
	day, _ := reconcile.DayBounds(date, s.calc.Location())

	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		existing, err := s.repo.GetSettlementByBranchDate(ctx, companyID, branchID, day)
		if err == nil {
			return s.refresh(ctx, existing)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}

		created, err := s.create(ctx, companyID, branchID, day, userID)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return nil, err
		}
		s.log.WithFields(logrus.Fields{
			"branch_id": branchID,
			"date":      day.Format(time.DateOnly),
			"attempt":   attempt,
		}).Warn("settlement creation lost a race, re-fetching")
	}
	return nil, ErrConflict
}

func (s *Service) create(ctx context.Context, companyID string, branchID string, day time.Time, userID string) (*domain.Settlement, error) {
	branch, lookupErr := s.repo.GetBranch(ctx, companyID, branchID)
	if errors.Is(lookupErr, store.ErrNotFound) {
		return nil, notFound("branch", branchID)
	}

	totals, err := s.calc.Calculate(ctx, companyID, branchID, day)
	if err != nil {
		return nil, err
	}

	net := totals.NetAmount()
	settlement := domain.Settlement{
		SettlementNumber:  s.numberer.number(branchID, branch, lookupErr, day),
		CompanyID:         companyID,
		BranchID:          branchID,
		SettlementDate:    day,
		Status:            domain.SettlementStatusPending,
		TotalCollected:    totals.TotalCollected,
		TotalRefunds:      totals.TotalRefunds,
		TotalExpenses:     totals.TotalExpenses,
		NetCashAmount:     net,
		CashNetAmount:     totals.CashNetAmount(),
		PhysicalCashCount: decimal.Zero,
		CashDifference:    net.Neg(),
		Unattributed:      totals.Unattributed,
		SettledByID:       userID,
		Breakdown:         totals.MethodTotals,
	}

	created, err := s.repo.CreateSettlement(ctx, settlement)
	if err != nil {
		return nil, err
	}
	s.logEvent(created, "settlement created")
	return created, nil
}

// refresh recomputes an editable settlement in place. A status change between
// the read and the conditional write leaves the stored snapshot untouched.
func (s *Service) refresh(ctx context.Context, existing *domain.Settlement) (*domain.Settlement, error) {
	if !existing.Status.Editable() {
		return existing, nil
	}

	totals, err := s.calc.Calculate(ctx, existing.CompanyID, existing.BranchID, existing.SettlementDate)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.RecomputeSettlement(ctx, existing.CompanyID, existing.ID, totals, s.now().UTC())
	if errors.Is(err, store.ErrStatusChanged) {
		return s.repo.GetSettlement(ctx, existing.CompanyID, existing.ID)
	}
	if err != nil {
		return nil, err
	}
	s.logEvent(updated, "settlement recomputed")
	return updated, nil
}

// UpdateDenominations values the physical count and stores it with the derived cash difference.
func (s *Service) UpdateDenominations(ctx context.Context, companyID string, id string, counts map[string]int64) (*domain.Settlement, error) {
	known := make(map[string]struct{}, len(s.denominations))
	for _, d := range s.denominations {
		known[d.Key] = struct{}{}
	}
	for key, count := range counts {
		if _, ok := known[key]; !ok {
			return nil, validationError("counts", "unknown %s denomination %q", s.currency, key)
		}
		if count < 0 {
			return nil, validationError("counts", "count for %s must not be negative", key)
		}
	}

	if _, err := s.loadEditable(ctx, companyID, id, "edited"); err != nil {
		return nil, err
	}

	count := domain.DenominationCount{
		SettlementID: id,
		Lines:        reconcile.Lines(s.denominations, counts),
		TotalAmount:  reconcile.Value(s.denominations, counts),
		UpdatedAt:    s.now().UTC(),
	}
	updated, err := s.repo.SaveDenominations(ctx, companyID, id, count)
	if err != nil {
		return nil, s.writeError(ctx, companyID, id, "edited", err)
	}
	s.log.WithFields(logrus.Fields{
		"settlement_id":   updated.ID,
		"physical_count":  updated.PhysicalCashCount.String(),
		"cash_difference": updated.CashDifference.String(),
	}).Info("settlement denominations updated")
	return updated, nil
}

func (s *Service) UpdateNotes(ctx context.Context, companyID string, id string, notes string) (*domain.Settlement, error) {
	if _, err := s.loadEditable(ctx, companyID, id, "edited"); err != nil {
		return nil, err
	}
	updated, err := s.repo.UpdateSettlementNotes(ctx, companyID, id, strings.TrimSpace(notes), s.now().UTC())
	if err != nil {
		return nil, s.writeError(ctx, companyID, id, "edited", err)
	}
	return updated, nil
}

// SubmitSettlement freezes the last computed totals. Nothing is recomputed here.
func (s *Service) SubmitSettlement(ctx context.Context, companyID string, id string, userID string) (*domain.Settlement, error) {
	return s.transition(ctx, companyID, id, "submitted", domain.StatusTransition{
		From:    domain.EditableStatuses,
		To:      domain.SettlementStatusSubmitted,
		ActorID: userID,
	})
}

// VerifySettlement trusts verifierID; role checks belong to the caller.
func (s *Service) VerifySettlement(ctx context.Context, companyID string, id string, verifierID string, notes string) (*domain.Settlement, error) {
	verified, err := s.transition(ctx, companyID, id, "verified", domain.StatusTransition{
		From:    []domain.SettlementStatus{domain.SettlementStatusSubmitted},
		To:      domain.SettlementStatusVerified,
		ActorID: verifierID,
		Text:    strings.TrimSpace(notes),
	})
	if err != nil {
		return nil, err
	}

	s.carryForward(ctx, verified)
	s.remember(ctx, verified)
	return verified, nil
}

func (s *Service) RejectSettlement(ctx context.Context, companyID string, id string, rejectorID string, reason string) (*domain.Settlement, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationError("reason", "is required")
	}
	return s.transition(ctx, companyID, id, "rejected", domain.StatusTransition{
		From:    []domain.SettlementStatus{domain.SettlementStatusSubmitted},
		To:      domain.SettlementStatusRejected,
		ActorID: rejectorID,
		Text:    reason,
	})
}

func (s *Service) GetByID(ctx context.Context, companyID string, id string) (*domain.Settlement, error) {
	key := cache.SettlementKey(companyID, id)
	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.WithError(err).WithField("settlement_id", id).Warn("snapshot cache read failed")
	} else if ok {
		return cached, nil
	}

	settlement, err := s.repo.GetSettlement(ctx, companyID, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("settlement", id)
	}
	if err != nil {
		return nil, err
	}
	s.remember(ctx, settlement)
	return settlement, nil
}

func (s *Service) List(ctx context.Context, companyID string, filter domain.SettlementFilter) (domain.SettlementPage, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return domain.SettlementPage{}, validationError("status", "unknown status %q", filter.Status)
	}
	if filter.From != nil {
		from, _ := reconcile.DayBounds(*filter.From, s.calc.Location())
		filter.From = &from
	}
	if filter.To != nil {
		to, _ := reconcile.DayBounds(*filter.To, s.calc.Location())
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return domain.SettlementPage{}, validationError("from", "must not be after to")
	}
	return s.repo.ListSettlements(ctx, companyID, filter)
}

func (s *Service) transition(ctx context.Context, companyID string, id string, operation string, t domain.StatusTransition) (*domain.Settlement, error) {
	current, err := s.repo.GetSettlement(ctx, companyID, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("settlement", id)
	}
	if err != nil {
		return nil, err
	}
	if !slices.Contains(t.From, current.Status) {
		return nil, &InvalidStateTransitionError{SettlementID: id, Operation: operation, Current: current.Status}
	}

	t.At = s.now().UTC()
	updated, err := s.repo.TransitionSettlement(ctx, companyID, id, t)
	if err != nil {
		return nil, s.writeError(ctx, companyID, id, operation, err)
	}
	s.logEvent(updated, "settlement "+operation)
	return updated, nil
}

func (s *Service) loadEditable(ctx context.Context, companyID string, id string, operation string) (*domain.Settlement, error) {
	current, err := s.repo.GetSettlement(ctx, companyID, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("settlement", id)
	}
	if err != nil {
		return nil, err
	}
	if !current.Status.Editable() {
		return nil, &InvalidStateTransitionError{SettlementID: id, Operation: operation, Current: current.Status}
	}
	return current, nil
}

// writeError turns a failed conditional write into the caller-facing error.
func (s *Service) writeError(ctx context.Context, companyID string, id string, operation string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return notFound("settlement", id)
	case errors.Is(err, store.ErrStatusChanged):
		current, getErr := s.repo.GetSettlement(ctx, companyID, id)
		if getErr != nil {
			return err
		}
		return &InvalidStateTransitionError{SettlementID: id, Operation: operation, Current: current.Status}
	}
	return err
}

// carryForward writes each closing balance as the next day's opening balance.
func (s *Service) carryForward(ctx context.Context, settlement *domain.Settlement) {
	if len(settlement.Breakdown) == 0 {
		return
	}
	balances := make([]domain.OpeningBalance, 0, len(settlement.Breakdown))
	for _, row := range settlement.Breakdown {
		balances = append(balances, domain.OpeningBalance{
			PaymentMethodID: row.PaymentMethodID,
			OpeningAmount:   row.ClosingBalance,
		})
	}
	next := settlement.SettlementDate.AddDate(0, 0, 1)
	if err := s.repo.UpsertOpeningBalances(ctx, settlement.CompanyID, settlement.BranchID, next, balances); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"settlement_id": settlement.ID,
			"branch_id":     settlement.BranchID,
		}).Warn("opening balance carry-forward failed")
	}
}

func (s *Service) remember(ctx context.Context, settlement *domain.Settlement) {
	if settlement.Status != domain.SettlementStatusVerified {
		return
	}
	if err := s.cache.Set(ctx, cache.SettlementKey(settlement.CompanyID, settlement.ID), settlement, s.cacheTTL); err != nil {
		s.log.WithError(err).WithField("settlement_id", settlement.ID).Warn("snapshot cache write failed")
	}
}

func (s *Service) logEvent(settlement *domain.Settlement, msg string) {
	s.log.WithFields(logrus.Fields{
		"settlement_id": settlement.ID,
		"branch_id":     settlement.BranchID,
		"status":        settlement.Status,
	}).Info(msg)
}
