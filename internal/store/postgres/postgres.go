package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"servicedesk/backend/internal/domain"
	"servicedesk/backend/internal/store"
	"servicedesk/backend/internal/xid"
)

type Store struct {
	db  *sql.DB
	loc *time.Location
}

// New opens a pool and pings it. loc anchors DATE columns to local midnight.
func New(ctx context.Context, databaseURL string, loc *time.Location) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if loc == nil {
		loc = time.Local
	}
	return &Store{db: db, loc: loc}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CollectedPayments(ctx context.Context, companyID string, branchID string, from time.Time, to time.Time) ([]domain.PaymentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tp.payment_method_id, tp.amount
		FROM ticket_payments tp
		JOIN service_tickets st ON st.id = tp.ticket_id
		WHERE st.company_id = $1 AND st.branch_id = $2
			AND tp.paid_at BETWEEN $3 AND $4
		ORDER BY tp.paid_at, tp.id
	`, companyID, branchID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.PaymentRecord, 0, 64)
	for rows.Next() {
		var r domain.PaymentRecord
		if err := rows.Scan(&r.PaymentMethodID, &r.Amount); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) IssuedRefunds(ctx context.Context, companyID string, branchID string, from time.Time, to time.Time) ([]domain.RefundRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(refund_payment_method_id, ''), refund_amount
		FROM service_tickets
		WHERE company_id = $1 AND branch_id = $2
			AND refund_amount IS NOT NULL
			AND refunded_at BETWEEN $3 AND $4
		ORDER BY refunded_at, id
	`, companyID, branchID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.RefundRecord, 0, 8)
	for rows.Next() {
		var r domain.RefundRecord
		if err := rows.Scan(&r.RefundPaymentMethodID, &r.RefundAmount); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) PaidExpenses(ctx context.Context, companyID string, branchID string, from time.Time, to time.Time) ([]domain.ExpenseRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ep.payment_method_id, ep.amount
		FROM expenses e
		JOIN expense_payments ep ON ep.expense_id = e.id
		WHERE e.company_id = $1 AND e.branch_id = $2
			AND e.expense_date BETWEEN $3 AND $4
		ORDER BY e.expense_date, ep.id
	`, companyID, branchID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.ExpenseRecord, 0, 16)
	for rows.Next() {
		var r domain.ExpenseRecord
		if err := rows.Scan(&r.PaymentMethodID, &r.Amount); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) OpeningBalances(ctx context.Context, companyID string, branchID string, day time.Time) ([]domain.OpeningBalance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payment_method_id, opening_amount
		FROM settlement_opening_balances
		WHERE company_id = $1 AND branch_id = $2 AND balance_date = $3::date
		ORDER BY payment_method_id
	`, companyID, branchID, dateParam(day))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	balances := make([]domain.OpeningBalance, 0, 4)
	for rows.Next() {
		var b domain.OpeningBalance
		if err := rows.Scan(&b.PaymentMethodID, &b.OpeningAmount); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

func (s *Store) UpsertOpeningBalances(ctx context.Context, companyID string, branchID string, day time.Time, balances []domain.OpeningBalance) error {
	if len(balances) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, b := range balances {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO settlement_opening_balances (company_id, branch_id, balance_date, payment_method_id, opening_amount, updated_at)
			VALUES ($1,$2,$3::date,$4,$5,now())
			ON CONFLICT (branch_id, balance_date, payment_method_id)
			DO UPDATE SET opening_amount = EXCLUDED.opening_amount, updated_at = now()
		`, companyID, branchID, dateParam(day), b.PaymentMethodID, b.OpeningAmount)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ActivePaymentMethods(ctx context.Context, companyID string) ([]domain.PaymentMethod, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, name, is_cash, active
		FROM payment_methods
		WHERE company_id = $1 AND active = true
		ORDER BY name, id
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	methods := make([]domain.PaymentMethod, 0, 8)
	for rows.Next() {
		var m domain.PaymentMethod
		if err := rows.Scan(&m.ID, &m.CompanyID, &m.Name, &m.IsCash, &m.Active); err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

func (s *Store) GetBranch(ctx context.Context, companyID string, branchID string) (*domain.Branch, error) {
	var branch domain.Branch
	err := s.db.QueryRowContext(ctx, `
		SELECT id, company_id, code, name
		FROM branches
		WHERE id = $1 AND company_id = $2
	`, branchID, companyID).Scan(&branch.ID, &branch.CompanyID, &branch.Code, &branch.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &branch, nil
}

const settlementColumns = `
	id, settlement_number, company_id, branch_id, settlement_date, status,
	total_collected, total_refunds, total_expenses, net_cash_amount, cash_net_amount,
	physical_cash_count, cash_difference,
	unattributed_collected, unattributed_refunds, unattributed_expenses, unattributed_count,
	settled_by_id, settled_at, verified_by_id, verified_at, verification_notes,
	rejected_by_id, rejected_at, rejection_reason, notes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanSettlement(row rowScanner) (*domain.Settlement, error) {
	var (
		st                                domain.Settlement
		status                            string
		settledAt, verifiedAt, rejectedAt sql.NullTime
		settlementDate                    time.Time
	)
	err := row.Scan(
		&st.ID, &st.SettlementNumber, &st.CompanyID, &st.BranchID, &settlementDate, &status,
		&st.TotalCollected, &st.TotalRefunds, &st.TotalExpenses, &st.NetCashAmount, &st.CashNetAmount,
		&st.PhysicalCashCount, &st.CashDifference,
		&st.Unattributed.Collected, &st.Unattributed.Refunded, &st.Unattributed.Expense, &st.Unattributed.TransactionCount,
		&st.SettledByID, &settledAt, &st.VerifiedByID, &verifiedAt, &st.VerificationNotes,
		&st.RejectedByID, &rejectedAt, &st.RejectionReason, &st.Notes, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	st.Status = domain.SettlementStatus(status)
	st.SettlementDate = time.Date(settlementDate.Year(), settlementDate.Month(), settlementDate.Day(), 0, 0, 0, 0, s.loc)
	st.SettledAt = nullTimePtr(settledAt)
	st.VerifiedAt = nullTimePtr(verifiedAt)
	st.RejectedAt = nullTimePtr(rejectedAt)
	st.CreatedAt = st.CreatedAt.UTC()
	st.UpdatedAt = st.UpdatedAt.UTC()
	return &st, nil
}

func (s *Store) GetSettlement(ctx context.Context, companyID string, id string) (*domain.Settlement, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+settlementColumns+`
		FROM settlements
		WHERE id = $1 AND company_id = $2
	`, id, companyID)
	return s.loadSettlement(ctx, row)
}

func (s *Store) GetSettlementByBranchDate(ctx context.Context, companyID string, branchID string, day time.Time) (*domain.Settlement, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+settlementColumns+`
		FROM settlements
		WHERE company_id = $1 AND branch_id = $2 AND settlement_date = $3::date
	`, companyID, branchID, dateParam(day))
	return s.loadSettlement(ctx, row)
}

func (s *Store) loadSettlement(ctx context.Context, row *sql.Row) (*domain.Settlement, error) {
	settlement, err := s.scanSettlement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	items := []domain.Settlement{*settlement}
	if err := s.attachChildren(ctx, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// attachChildren loads breakdown and denomination rows for every settlement in one query each.
func (s *Store) attachChildren(ctx context.Context, settlements []domain.Settlement) error {
	if len(settlements) == 0 {
		return nil
	}
	ids := make([]string, len(settlements))
	index := make(map[string]int, len(settlements))
	for i, st := range settlements {
		ids[i] = st.ID
		index[st.ID] = i
		settlements[i].Breakdown = make([]domain.MethodBreakdown, 0, 4)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, settlement_id, payment_method_id, payment_method_name, is_cash,
			opening_balance, collected_amount, refunded_amount, expense_amount,
			closing_balance, transaction_count
		FROM settlement_method_breakdowns
		WHERE settlement_id = ANY($1)
		ORDER BY settlement_id, position
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var b domain.MethodBreakdown
		if err := rows.Scan(&b.ID, &b.SettlementID, &b.PaymentMethodID, &b.PaymentMethodName, &b.IsCash,
			&b.OpeningBalance, &b.CollectedAmount, &b.RefundedAmount, &b.ExpenseAmount,
			&b.ClosingBalance, &b.TransactionCount); err != nil {
			return err
		}
		i := index[b.SettlementID]
		settlements[i].Breakdown = append(settlements[i].Breakdown, b)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	denRows, err := s.db.QueryContext(ctx, `
		SELECT id, settlement_id, lines, total_amount, updated_at
		FROM settlement_denominations
		WHERE settlement_id = ANY($1)
	`, ids)
	if err != nil {
		return err
	}
	defer denRows.Close()
	for denRows.Next() {
		var (
			count domain.DenominationCount
			raw   []byte
		)
		if err := denRows.Scan(&count.ID, &count.SettlementID, &raw, &count.TotalAmount, &count.UpdatedAt); err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &count.Lines); err != nil {
			return fmt.Errorf("decode denomination lines for %s: %w", count.SettlementID, err)
		}
		count.UpdatedAt = count.UpdatedAt.UTC()
		settlements[index[count.SettlementID]].Denominations = &count
	}
	return denRows.Err()
}

func (s *Store) ListSettlements(ctx context.Context, companyID string, filter domain.SettlementFilter) (domain.SettlementPage, error) {
	page, pageSize := store.Paginate(filter)

	where := []string{"company_id = $1"}
	args := []any{companyID}
	if filter.BranchID != "" {
		args = append(args, filter.BranchID)
		where = append(where, fmt.Sprintf("branch_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, dateParam(*filter.From))
		where = append(where, fmt.Sprintf("settlement_date >= $%d::date", len(args)))
	}
	if filter.To != nil {
		args = append(args, dateParam(*filter.To))
		where = append(where, fmt.Sprintf("settlement_date <= $%d::date", len(args)))
	}
	clause := strings.Join(where, " AND ")

	result := domain.SettlementPage{Items: []domain.Settlement{}, Page: page, PageSize: pageSize}
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM settlements WHERE `+clause, args...).Scan(&result.Total); err != nil {
		return domain.SettlementPage{}, err
	}

	args = append(args, pageSize, (page-1)*pageSize)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s
		FROM settlements
		WHERE %s
		ORDER BY settlement_date DESC, branch_id
		LIMIT $%d OFFSET $%d
	`, settlementColumns, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return domain.SettlementPage{}, err
	}
	defer rows.Close()
	for rows.Next() {
		st, err := s.scanSettlement(rows)
		if err != nil {
			return domain.SettlementPage{}, err
		}
		result.Items = append(result.Items, *st)
	}
	if err := rows.Err(); err != nil {
		return domain.SettlementPage{}, err
	}

	if err := s.attachChildren(ctx, result.Items); err != nil {
		return domain.SettlementPage{}, err
	}
	return result, nil
}

func (s *Store) CreateSettlement(ctx context.Context, settlement domain.Settlement) (*domain.Settlement, error) {
	if settlement.ID == "" {
		settlement.ID = xid.New("set")
	}
	if settlement.Status == "" {
		settlement.Status = domain.SettlementStatusPending
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO settlements (
			id, settlement_number, company_id, branch_id, settlement_date, status,
			total_collected, total_refunds, total_expenses, net_cash_amount, cash_net_amount,
			physical_cash_count, cash_difference,
			unattributed_collected, unattributed_refunds, unattributed_expenses, unattributed_count,
			settled_by_id, notes, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5::date,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,now(),now())
	`, settlement.ID, settlement.SettlementNumber, settlement.CompanyID, settlement.BranchID,
		dateParam(settlement.SettlementDate), string(settlement.Status),
		settlement.TotalCollected, settlement.TotalRefunds, settlement.TotalExpenses,
		settlement.NetCashAmount, settlement.CashNetAmount,
		settlement.PhysicalCashCount, settlement.CashDifference,
		settlement.Unattributed.Collected, settlement.Unattributed.Refunded,
		settlement.Unattributed.Expense, settlement.Unattributed.TransactionCount,
		settlement.SettledByID, settlement.Notes)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	if err := insertBreakdown(ctx, tx, settlement.ID, settlement.Breakdown); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return s.GetSettlement(ctx, settlement.CompanyID, settlement.ID)
}

func (s *Store) RecomputeSettlement(ctx context.Context, companyID string, id string, totals domain.SettlementTotals, at time.Time) (*domain.Settlement, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	net := totals.NetAmount()
	var updatedID string
	err = tx.QueryRowContext(ctx, `
		UPDATE settlements
		SET total_collected = $3, total_refunds = $4, total_expenses = $5,
			net_cash_amount = $6, cash_net_amount = $7,
			cash_difference = physical_cash_count - $6,
			unattributed_collected = $8, unattributed_refunds = $9,
			unattributed_expenses = $10, unattributed_count = $11,
			updated_at = $12
		WHERE id = $1 AND company_id = $2 AND status = ANY($13)
		RETURNING id
	`, id, companyID, totals.TotalCollected, totals.TotalRefunds, totals.TotalExpenses,
		net, totals.CashNetAmount(),
		totals.Unattributed.Collected, totals.Unattributed.Refunded,
		totals.Unattributed.Expense, totals.Unattributed.TransactionCount,
		at, statusArgs(domain.EditableStatuses)).Scan(&updatedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.missingOrStale(ctx, companyID, id)
		}
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM settlement_method_breakdowns WHERE settlement_id = $1`, id); err != nil {
		return nil, err
	}
	if err := insertBreakdown(ctx, tx, id, totals.MethodTotals); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetSettlement(ctx, companyID, id)
}

func (s *Store) SaveDenominations(ctx context.Context, companyID string, id string, count domain.DenominationCount) (*domain.Settlement, error) {
	lines, err := json.Marshal(count.Lines)
	if err != nil {
		return nil, err
	}
	if count.ID == "" {
		count.ID = xid.New("den")
	}
	if count.UpdatedAt.IsZero() {
		count.UpdatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var updatedID string
	err = tx.QueryRowContext(ctx, `
		UPDATE settlements
		SET physical_cash_count = $3,
			cash_difference = $3 - net_cash_amount,
			updated_at = $4
		WHERE id = $1 AND company_id = $2 AND status = ANY($5)
		RETURNING id
	`, id, companyID, count.TotalAmount, count.UpdatedAt, statusArgs(domain.EditableStatuses)).Scan(&updatedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.missingOrStale(ctx, companyID, id)
		}
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO settlement_denominations (id, settlement_id, lines, total_amount, updated_at)
		VALUES ($1,$2,$3::jsonb,$4,$5)
		ON CONFLICT (settlement_id)
		DO UPDATE SET lines = EXCLUDED.lines, total_amount = EXCLUDED.total_amount, updated_at = EXCLUDED.updated_at
	`, count.ID, id, string(lines), count.TotalAmount, count.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetSettlement(ctx, companyID, id)
}

func (s *Store) UpdateSettlementNotes(ctx context.Context, companyID string, id string, notes string, at time.Time) (*domain.Settlement, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE settlements
		SET notes = $3, updated_at = $4
		WHERE id = $1 AND company_id = $2 AND status = ANY($5)
	`, id, companyID, notes, at, statusArgs(domain.EditableStatuses))
	if err != nil {
		return nil, err
	}
	if affected, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if affected == 0 {
		return nil, s.missingOrStale(ctx, companyID, id)
	}
	return s.GetSettlement(ctx, companyID, id)
}

func (s *Store) TransitionSettlement(ctx context.Context, companyID string, id string, transition domain.StatusTransition) (*domain.Settlement, error) {
	if transition.At.IsZero() {
		transition.At = time.Now().UTC()
	}
	args := []any{id, companyID, string(transition.To), statusArgs(transition.From), transition.ActorID, transition.At}

	var set string
	switch transition.To {
	case domain.SettlementStatusSubmitted:
		set = "settled_by_id = $5, settled_at = $6"
	case domain.SettlementStatusVerified:
		set = "verified_by_id = $5, verified_at = $6, verification_notes = $7"
		args = append(args, transition.Text)
	case domain.SettlementStatusRejected:
		set = "rejected_by_id = $5, rejected_at = $6, rejection_reason = $7"
		args = append(args, transition.Text)
	default:
		return nil, fmt.Errorf("unsupported target status %q", transition.To)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE settlements
		SET status = $3, `+set+`, updated_at = $6
		WHERE id = $1 AND company_id = $2 AND status = ANY($4)
	`, args...)
	if err != nil {
		return nil, err
	}
	if affected, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if affected == 0 {
		return nil, s.missingOrStale(ctx, companyID, id)
	}
	return s.GetSettlement(ctx, companyID, id)
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, password, role, company_id, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var u domain.UserAccount
		if err := rows.Scan(&u.ID, &u.Username, &u.Password, &u.Role, &u.CompanyID, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.CreatedAt = u.CreatedAt.UTC()
		users = append(users, u)
	}
	return users, rows.Err()
}

// missingOrStale tells a conditional write that matched nothing apart: either
// the settlement is not visible to the company or its status moved on.
func (s *Store) missingOrStale(ctx context.Context, companyID string, id string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM settlements WHERE id = $1 AND company_id = $2`, id, companyID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}
	return store.ErrStatusChanged
}

func insertBreakdown(ctx context.Context, tx *sql.Tx, settlementID string, rows []domain.MethodBreakdown) error {
	for i, row := range rows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO settlement_method_breakdowns (
				id, settlement_id, payment_method_id, payment_method_name, is_cash, position,
				opening_balance, collected_amount, refunded_amount, expense_amount,
				closing_balance, transaction_count
			)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		`, xid.New("mb"), settlementID, row.PaymentMethodID, row.PaymentMethodName, row.IsCash, i,
			row.OpeningBalance, row.CollectedAmount, row.RefundedAmount,
			row.ExpenseAmount, row.ClosingBalance, row.TransactionCount)
		if err != nil {
			return err
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func statusArgs(statuses []domain.SettlementStatus) []string {
	out := make([]string, len(statuses))
	for i, st := range statuses {
		out[i] = string(st)
	}
	return out
}

func dateParam(t time.Time) string {
	return t.Format(time.DateOnly)
}

func nullTimePtr(val sql.NullTime) *time.Time {
	if !val.Valid {
		return nil
	}
	t := val.Time.UTC()
	return &t
}
