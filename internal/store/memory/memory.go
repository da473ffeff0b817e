package memory

import (
	"context"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"servicedesk/backend/internal/domain"
	"servicedesk/backend/internal/store"
	"servicedesk/backend/internal/xid"
)

type Store struct {
	mu              sync.RWMutex
	branches        map[string]domain.Branch
	methodsByCo     map[string][]domain.PaymentMethod
	tickets         map[string]domain.ServiceTicket
	payments        []domain.TicketPayment
	expenses        []domain.Expense
	openings        map[string][]domain.OpeningBalance
	settlementsByID map[string]domain.Settlement
	settlementByDay map[string]string
	usersByUsername map[string]domain.UserAccount
}

// New returns an empty store.
func New() *Store {
	return &Store{
		branches:        make(map[string]domain.Branch),
		methodsByCo:     make(map[string][]domain.PaymentMethod),
		tickets:         make(map[string]domain.ServiceTicket),
		payments:        make([]domain.TicketPayment, 0, 64),
		expenses:        make([]domain.Expense, 0, 16),
		openings:        make(map[string][]domain.OpeningBalance),
		settlementsByID: make(map[string]domain.Settlement),
		settlementByDay: make(map[string]string),
		usersByUsername: make(map[string]domain.UserAccount),
	}
}

const (
	DemoCompanyID = "demo-co"
	DemoBranchID  = "br-main"
)

// NewSeeded returns a store with one demo company, two branches, three payment
// methods, login accounts and a handful of today's transactions.
func NewSeeded() *Store {
	s := New()
	loc := time.Local
	now := time.Now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	s.AddBranch(domain.Branch{ID: DemoBranchID, CompanyID: DemoCompanyID, Code: "MAIN", Name: "Main Street"})
	s.AddBranch(domain.Branch{ID: "br-north", CompanyID: DemoCompanyID, Code: "NRT", Name: "North Market"})
	s.AddPaymentMethod(domain.PaymentMethod{ID: "pm-cash", CompanyID: DemoCompanyID, Name: "Cash", IsCash: true, Active: true})
	s.AddPaymentMethod(domain.PaymentMethod{ID: "pm-card", CompanyID: DemoCompanyID, Name: "Card", Active: true})
	s.AddPaymentMethod(domain.PaymentMethod{ID: "pm-upi", CompanyID: DemoCompanyID, Name: "UPI", Active: true})

	refund := decimal.NewFromInt(350)
	refundedAt := today.Add(15 * time.Hour)
	s.AddTicket(domain.ServiceTicket{ID: "tk-1001", CompanyID: DemoCompanyID, BranchID: DemoBranchID})
	s.AddTicket(domain.ServiceTicket{ID: "tk-1002", CompanyID: DemoCompanyID, BranchID: DemoBranchID})
	s.AddTicket(domain.ServiceTicket{
		ID: "tk-1003", CompanyID: DemoCompanyID, BranchID: DemoBranchID,
		RefundAmount: &refund, RefundedAt: &refundedAt, RefundPaymentMethodID: "pm-cash",
	})
	s.AddPayment(domain.TicketPayment{TicketID: "tk-1001", PaymentMethodID: "pm-cash", Amount: decimal.NewFromInt(1200), PaidAt: today.Add(10 * time.Hour)})
	s.AddPayment(domain.TicketPayment{TicketID: "tk-1002", PaymentMethodID: "pm-card", Amount: decimal.NewFromInt(2499), PaidAt: today.Add(11 * time.Hour)})
	s.AddPayment(domain.TicketPayment{TicketID: "tk-1003", PaymentMethodID: "pm-upi", Amount: decimal.NewFromInt(800), PaidAt: today.Add(12 * time.Hour)})
	s.AddExpense(domain.Expense{
		CompanyID: DemoCompanyID, BranchID: DemoBranchID, ExpenseDate: today.Add(13 * time.Hour),
		Description: "courier",
		Payments:    []domain.ExpensePayment{{PaymentMethodID: "pm-cash", Amount: decimal.NewFromInt(150)}},
	})
	_ = s.UpsertOpeningBalances(context.Background(), DemoCompanyID, DemoBranchID, today, []domain.OpeningBalance{
		{PaymentMethodID: "pm-cash", OpeningAmount: decimal.NewFromInt(500)},
	})

	for _, user := range seedUsers() {
		s.AddUser(user)
	}
	return s
}

// seedUsers builds the demo login accounts. Passwords come from SEED_ADMIN_PASSWORD,
// SEED_MANAGER_PASSWORD and SEED_CASHIER_PASSWORD; dev defaults are used when unset.
func seedUsers() []domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	managerPwd := envOr("SEED_MANAGER_PASSWORD", "manager123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_MANAGER_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		logrus.Warn("memory store: using default dev credentials, set SEED_*_PASSWORD to override")
	}

	now := time.Now().UTC()
	users := make([]domain.UserAccount, 0, 3)
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, domain.RoleAdmin},
		{"manager", managerPwd, domain.RoleManager},
		{"cashier", cashierPwd, domain.RoleCashier},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			logrus.WithError(err).Fatalf("memory store: hash seed password for %s", u.username)
		}
		users = append(users, domain.UserAccount{
			ID:        "usr-" + u.username,
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			CompanyID: DemoCompanyID,
			Active:    true,
			CreatedAt: now,
		})
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (s *Store) AddBranch(branch domain.Branch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branches[branch.ID] = branch
}

func (s *Store) AddPaymentMethod(method domain.PaymentMethod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	methods := s.methodsByCo[method.CompanyID]
	for i := range methods {
		if methods[i].ID == method.ID {
			methods[i] = method
			return
		}
	}
	s.methodsByCo[method.CompanyID] = append(methods, method)
}

func (s *Store) AddTicket(ticket domain.ServiceTicket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket.ID == "" {
		ticket.ID = xid.New("tk")
	}
	s.tickets[ticket.ID] = ticket
}

func (s *Store) AddPayment(payment domain.TicketPayment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if payment.ID == "" {
		payment.ID = xid.New("pay")
	}
	s.payments = append(s.payments, payment)
}

func (s *Store) AddExpense(expense domain.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if expense.ID == "" {
		expense.ID = xid.New("exp")
	}
	expense.Payments = slices.Clone(expense.Payments)
	s.expenses = append(s.expenses, expense)
}

func (s *Store) AddUser(user domain.UserAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usersByUsername[strings.ToLower(user.Username)] = user
}

func (s *Store) CollectedPayments(_ context.Context, companyID string, branchID string, from time.Time, to time.Time) ([]domain.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.PaymentRecord, 0, len(s.payments))
	for _, p := range s.payments {
		ticket, ok := s.tickets[p.TicketID]
		if !ok || ticket.CompanyID != companyID || ticket.BranchID != branchID {
			continue
		}
		if !within(p.PaidAt, from, to) {
			continue
		}
		records = append(records, domain.PaymentRecord{PaymentMethodID: p.PaymentMethodID, Amount: p.Amount})
	}
	return records, nil
}

func (s *Store) IssuedRefunds(_ context.Context, companyID string, branchID string, from time.Time, to time.Time) ([]domain.RefundRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.tickets))
	for id := range s.tickets {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	records := make([]domain.RefundRecord, 0)
	for _, id := range ids {
		ticket := s.tickets[id]
		if ticket.CompanyID != companyID || ticket.BranchID != branchID {
			continue
		}
		if ticket.RefundAmount == nil || ticket.RefundedAt == nil || !within(*ticket.RefundedAt, from, to) {
			continue
		}
		records = append(records, domain.RefundRecord{
			RefundPaymentMethodID: ticket.RefundPaymentMethodID,
			RefundAmount:          *ticket.RefundAmount,
		})
	}
	return records, nil
}

func (s *Store) PaidExpenses(_ context.Context, companyID string, branchID string, from time.Time, to time.Time) ([]domain.ExpenseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.ExpenseRecord, 0)
	for _, e := range s.expenses {
		if e.CompanyID != companyID || e.BranchID != branchID || !within(e.ExpenseDate, from, to) {
			continue
		}
		for _, p := range e.Payments {
			records = append(records, domain.ExpenseRecord{PaymentMethodID: p.PaymentMethodID, Amount: p.Amount})
		}
	}
	return records, nil
}

func (s *Store) OpeningBalances(_ context.Context, companyID string, branchID string, day time.Time) ([]domain.OpeningBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.openings[openingKey(companyID, branchID, day)]), nil
}

func (s *Store) UpsertOpeningBalances(_ context.Context, companyID string, branchID string, day time.Time, balances []domain.OpeningBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := openingKey(companyID, branchID, day)
	merged := slices.Clone(s.openings[key])
	for _, b := range balances {
		idx := slices.IndexFunc(merged, func(existing domain.OpeningBalance) bool {
			return existing.PaymentMethodID == b.PaymentMethodID
		})
		if idx >= 0 {
			merged[idx] = b
			continue
		}
		merged = append(merged, b)
	}
	slices.SortFunc(merged, func(a, b domain.OpeningBalance) int {
		return strings.Compare(a.PaymentMethodID, b.PaymentMethodID)
	})
	s.openings[key] = merged
	return nil
}

func (s *Store) ActivePaymentMethods(_ context.Context, companyID string) ([]domain.PaymentMethod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	methods := make([]domain.PaymentMethod, 0, len(s.methodsByCo[companyID]))
	for _, m := range s.methodsByCo[companyID] {
		if m.Active {
			methods = append(methods, m)
		}
	}
	return methods, nil
}

func (s *Store) GetBranch(_ context.Context, companyID string, branchID string) (*domain.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	branch, ok := s.branches[branchID]
	if !ok || branch.CompanyID != companyID {
		return nil, store.ErrNotFound
	}
	return &branch, nil
}

func (s *Store) GetSettlement(_ context.Context, companyID string, id string) (*domain.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settlement, ok := s.settlementsByID[id]
	if !ok || settlement.CompanyID != companyID {
		return nil, store.ErrNotFound
	}
	out := cloneSettlement(settlement)
	return &out, nil
}

func (s *Store) GetSettlementByBranchDate(_ context.Context, companyID string, branchID string, day time.Time) (*domain.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.settlementByDay[dayKey(branchID, day)]
	if !ok {
		return nil, store.ErrNotFound
	}
	settlement := s.settlementsByID[id]
	if settlement.CompanyID != companyID {
		return nil, store.ErrNotFound
	}
	out := cloneSettlement(settlement)
	return &out, nil
}

func (s *Store) ListSettlements(_ context.Context, companyID string, filter domain.SettlementFilter) (domain.SettlementPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page, pageSize := store.Paginate(filter)
	matched := make([]domain.Settlement, 0)
	for _, settlement := range s.settlementsByID {
		if settlement.CompanyID != companyID {
			continue
		}
		if filter.BranchID != "" && settlement.BranchID != filter.BranchID {
			continue
		}
		if filter.Status != "" && settlement.Status != filter.Status {
			continue
		}
		if filter.From != nil && settlement.SettlementDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && settlement.SettlementDate.After(*filter.To) {
			continue
		}
		matched = append(matched, settlement)
	}

	slices.SortFunc(matched, func(a, b domain.Settlement) int {
		if c := b.SettlementDate.Compare(a.SettlementDate); c != 0 {
			return c
		}
		return strings.Compare(a.BranchID, b.BranchID)
	})

	result := domain.SettlementPage{Items: []domain.Settlement{}, Total: len(matched), Page: page, PageSize: pageSize}
	offset := (page - 1) * pageSize
	if offset >= len(matched) {
		return result, nil
	}
	end := min(offset+pageSize, len(matched))
	for _, settlement := range matched[offset:end] {
		result.Items = append(result.Items, cloneSettlement(settlement))
	}
	return result, nil
}

func (s *Store) CreateSettlement(_ context.Context, settlement domain.Settlement) (*domain.Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := dayKey(settlement.BranchID, settlement.SettlementDate)
	if _, exists := s.settlementByDay[key]; exists {
		return nil, store.ErrConflict
	}
	if settlement.ID == "" {
		settlement.ID = xid.New("set")
	}
	if _, exists := s.settlementsByID[settlement.ID]; exists {
		return nil, store.ErrConflict
	}
	now := time.Now().UTC()
	if settlement.CreatedAt.IsZero() {
		settlement.CreatedAt = now
	}
	settlement.UpdatedAt = settlement.CreatedAt
	settlement.Breakdown = assignBreakdownIDs(settlement.ID, settlement.Breakdown)

	s.settlementsByID[settlement.ID] = cloneSettlement(settlement)
	s.settlementByDay[key] = settlement.ID
	out := cloneSettlement(settlement)
	return &out, nil
}

func (s *Store) RecomputeSettlement(_ context.Context, companyID string, id string, totals domain.SettlementTotals, at time.Time) (*domain.Settlement, error) {
	return s.mutateEditable(companyID, id, func(settlement *domain.Settlement) {
		net := totals.NetAmount()
		settlement.TotalCollected = totals.TotalCollected
		settlement.TotalRefunds = totals.TotalRefunds
		settlement.TotalExpenses = totals.TotalExpenses
		settlement.NetCashAmount = net
		settlement.CashNetAmount = totals.CashNetAmount()
		settlement.Unattributed = totals.Unattributed
		settlement.CashDifference = settlement.PhysicalCashCount.Sub(net)
		settlement.Breakdown = assignBreakdownIDs(settlement.ID, totals.MethodTotals)
		settlement.UpdatedAt = at
	})
}

func (s *Store) SaveDenominations(_ context.Context, companyID string, id string, count domain.DenominationCount) (*domain.Settlement, error) {
	return s.mutateEditable(companyID, id, func(settlement *domain.Settlement) {
		if settlement.Denominations != nil {
			count.ID = settlement.Denominations.ID
		}
		if count.ID == "" {
			count.ID = xid.New("den")
		}
		count.SettlementID = settlement.ID
		count.Lines = slices.Clone(count.Lines)
		settlement.Denominations = &count
		settlement.PhysicalCashCount = count.TotalAmount
		settlement.CashDifference = count.TotalAmount.Sub(settlement.NetCashAmount)
		settlement.UpdatedAt = count.UpdatedAt
	})
}

func (s *Store) UpdateSettlementNotes(_ context.Context, companyID string, id string, notes string, at time.Time) (*domain.Settlement, error) {
	return s.mutateEditable(companyID, id, func(settlement *domain.Settlement) {
		settlement.Notes = notes
		settlement.UpdatedAt = at
	})
}

func (s *Store) TransitionSettlement(_ context.Context, companyID string, id string, transition domain.StatusTransition) (*domain.Settlement, error) {
	return s.mutate(companyID, id, transition.From, func(settlement *domain.Settlement) {
		at := transition.At
		settlement.Status = transition.To
		settlement.UpdatedAt = at
		switch transition.To {
		case domain.SettlementStatusSubmitted:
			settlement.SettledByID = transition.ActorID
			settlement.SettledAt = &at
		case domain.SettlementStatusVerified:
			settlement.VerifiedByID = transition.ActorID
			settlement.VerifiedAt = &at
			settlement.VerificationNotes = transition.Text
		case domain.SettlementStatusRejected:
			settlement.RejectedByID = transition.ActorID
			settlement.RejectedAt = &at
			settlement.RejectionReason = transition.Text
		}
	})
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, u := range s.usersByUsername {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) mutateEditable(companyID string, id string, apply func(*domain.Settlement)) (*domain.Settlement, error) {
	return s.mutate(companyID, id, domain.EditableStatuses, apply)
}

// mutate applies apply under the write lock only when the stored status is one of from.
func (s *Store) mutate(companyID string, id string, from []domain.SettlementStatus, apply func(*domain.Settlement)) (*domain.Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settlement, ok := s.settlementsByID[id]
	if !ok || settlement.CompanyID != companyID {
		return nil, store.ErrNotFound
	}
	if !slices.Contains(from, settlement.Status) {
		return nil, store.ErrStatusChanged
	}
	settlement = cloneSettlement(settlement)
	apply(&settlement)
	s.settlementsByID[id] = settlement
	out := cloneSettlement(settlement)
	return &out, nil
}

func assignBreakdownIDs(settlementID string, rows []domain.MethodBreakdown) []domain.MethodBreakdown {
	out := make([]domain.MethodBreakdown, len(rows))
	for i, row := range rows {
		row.ID = xid.New("mb")
		row.SettlementID = settlementID
		out[i] = row
	}
	return out
}

func cloneSettlement(src domain.Settlement) domain.Settlement {
	dst := src
	dst.Breakdown = slices.Clone(src.Breakdown)
	if src.Denominations != nil {
		count := *src.Denominations
		count.Lines = slices.Clone(src.Denominations.Lines)
		dst.Denominations = &count
	}
	dst.SettledAt = cloneTime(src.SettledAt)
	dst.VerifiedAt = cloneTime(src.VerifiedAt)
	dst.RejectedAt = cloneTime(src.RejectedAt)
	return dst
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func within(t time.Time, from time.Time, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

func dayKey(branchID string, day time.Time) string {
	return branchID + "|" + day.Format(time.DateOnly)
}

func openingKey(companyID string, branchID string, day time.Time) string {
	return companyID + "|" + dayKey(branchID, day)
}
