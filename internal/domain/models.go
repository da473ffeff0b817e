package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SettlementStatus string

const (
	SettlementStatusPending   SettlementStatus = "PENDING"
	SettlementStatusSubmitted SettlementStatus = "SUBMITTED"
	SettlementStatusVerified  SettlementStatus = "VERIFIED"
	SettlementStatusRejected  SettlementStatus = "REJECTED"
)

// EditableStatuses are the statuses in which totals, denominations and notes may change.
var EditableStatuses = []SettlementStatus{SettlementStatusPending, SettlementStatusRejected}

func (s SettlementStatus) Editable() bool {
	return s == SettlementStatusPending || s == SettlementStatusRejected
}

func (s SettlementStatus) Valid() bool {
	switch s {
	case SettlementStatusPending, SettlementStatusSubmitted, SettlementStatusVerified, SettlementStatusRejected:
		return true
	}
	return false
}

const (
	RoleCashier = "cashier"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

type Settlement struct {
	ID               string           `json:"id"`
	SettlementNumber string           `json:"settlement_number"`
	CompanyID        string           `json:"company_id"`
	BranchID         string           `json:"branch_id"`
	SettlementDate   time.Time        `json:"settlement_date"`
	Status           SettlementStatus `json:"status"`

	TotalCollected    decimal.Decimal `json:"total_collected"`
	TotalRefunds      decimal.Decimal `json:"total_refunds"`
	TotalExpenses     decimal.Decimal `json:"total_expenses"`
	NetCashAmount     decimal.Decimal `json:"net_cash_amount"`
	CashNetAmount     decimal.Decimal `json:"cash_net_amount"`
	PhysicalCashCount decimal.Decimal `json:"physical_cash_count"`
	CashDifference    decimal.Decimal `json:"cash_difference"`

	Unattributed UnattributedAmounts `json:"unattributed"`

	SettledByID       string     `json:"settled_by_id"`
	SettledAt         *time.Time `json:"settled_at,omitempty"`
	VerifiedByID      string     `json:"verified_by_id,omitempty"`
	VerifiedAt        *time.Time `json:"verified_at,omitempty"`
	VerificationNotes string     `json:"verification_notes,omitempty"`
	RejectedByID      string     `json:"rejected_by_id,omitempty"`
	RejectedAt        *time.Time `json:"rejected_at,omitempty"`
	RejectionReason   string     `json:"rejection_reason,omitempty"`
	Notes             string     `json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Breakdown     []MethodBreakdown  `json:"breakdown"`
	Denominations *DenominationCount `json:"denominations,omitempty"`
}

type MethodBreakdown struct {
	ID                string          `json:"id,omitempty"`
	SettlementID      string          `json:"settlement_id,omitempty"`
	PaymentMethodID   string          `json:"payment_method_id"`
	PaymentMethodName string          `json:"payment_method_name"`
	IsCash            bool            `json:"is_cash"`
	OpeningBalance    decimal.Decimal `json:"opening_balance"`
	CollectedAmount   decimal.Decimal `json:"collected_amount"`
	RefundedAmount    decimal.Decimal `json:"refunded_amount"`
	ExpenseAmount     decimal.Decimal `json:"expense_amount"`
	ClosingBalance    decimal.Decimal `json:"closing_balance"`
	TransactionCount  int             `json:"transaction_count"`
}

// UnattributedAmounts holds feed amounts that could not be placed on an active
// payment method row: refunds without a refund method and entries booked
// against deactivated methods.
type UnattributedAmounts struct {
	Collected        decimal.Decimal `json:"collected"`
	Refunded         decimal.Decimal `json:"refunded"`
	Expense          decimal.Decimal `json:"expense"`
	TransactionCount int             `json:"transaction_count"`
}

type Denomination struct {
	Key       string          `json:"key"`
	Kind      string          `json:"kind"`
	FaceValue decimal.Decimal `json:"face_value"`
}

type DenominationLine struct {
	Key       string          `json:"key"`
	FaceValue decimal.Decimal `json:"face_value"`
	Count     int64           `json:"count"`
}

type DenominationCount struct {
	ID           string             `json:"id"`
	SettlementID string             `json:"settlement_id"`
	Lines        []DenominationLine `json:"lines"`
	TotalAmount  decimal.Decimal    `json:"total_amount"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// SettlementTotals is the output of a totals calculation for one branch/day.
type SettlementTotals struct {
	MethodTotals   []MethodBreakdown   `json:"method_totals"`
	TotalCollected decimal.Decimal     `json:"total_collected"`
	TotalRefunds   decimal.Decimal     `json:"total_refunds"`
	TotalExpenses  decimal.Decimal     `json:"total_expenses"`
	Unattributed   UnattributedAmounts `json:"unattributed"`
}

// NetAmount is collected minus refunds minus expenses across every payment method.
func (t SettlementTotals) NetAmount() decimal.Decimal {
	return t.TotalCollected.Sub(t.TotalRefunds).Sub(t.TotalExpenses)
}

// CashNetAmount restricts NetAmount to cash-type payment methods.
func (t SettlementTotals) CashNetAmount() decimal.Decimal {
	net := decimal.Zero
	for _, row := range t.MethodTotals {
		if !row.IsCash {
			continue
		}
		net = net.Add(row.CollectedAmount).Sub(row.RefundedAmount).Sub(row.ExpenseAmount)
	}
	return net
}

// StatusTransition describes a conditional status change. It applies only when
// the stored status is one of From.
type StatusTransition struct {
	From    []SettlementStatus
	To      SettlementStatus
	ActorID string
	At      time.Time
	Text    string
}

type SettlementFilter struct {
	BranchID string           `json:"branch_id,omitempty"`
	Status   SettlementStatus `json:"status,omitempty"`
	From     *time.Time       `json:"from,omitempty"`
	To       *time.Time       `json:"to,omitempty"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

type SettlementPage struct {
	Items    []Settlement `json:"items"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

type Branch struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
}

type PaymentMethod struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	IsCash    bool   `json:"is_cash"`
	Active    bool   `json:"active"`
}

// Feed records, already scoped to a company, branch and day by the feed.

type PaymentRecord struct {
	PaymentMethodID string
	Amount          decimal.Decimal
}

// RefundRecord has an empty RefundPaymentMethodID when the refund method was not recorded.
type RefundRecord struct {
	RefundPaymentMethodID string
	RefundAmount          decimal.Decimal
}

type ExpenseRecord struct {
	PaymentMethodID string
	Amount          decimal.Decimal
}

type OpeningBalance struct {
	PaymentMethodID string          `json:"payment_method_id"`
	OpeningAmount   decimal.Decimal `json:"opening_amount"`
}

// Collaborator-owned records. The settlement core only reads them.

type ServiceTicket struct {
	ID                    string           `json:"id"`
	CompanyID             string           `json:"company_id"`
	BranchID              string           `json:"branch_id"`
	RefundAmount          *decimal.Decimal `json:"refund_amount,omitempty"`
	RefundedAt            *time.Time       `json:"refunded_at,omitempty"`
	RefundPaymentMethodID string           `json:"refund_payment_method_id,omitempty"`
}

type TicketPayment struct {
	ID              string          `json:"id"`
	TicketID        string          `json:"ticket_id"`
	PaymentMethodID string          `json:"payment_method_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaidAt          time.Time       `json:"paid_at"`
}

type Expense struct {
	ID          string           `json:"id"`
	CompanyID   string           `json:"company_id"`
	BranchID    string           `json:"branch_id"`
	ExpenseDate time.Time        `json:"expense_date"`
	Description string           `json:"description"`
	Payments    []ExpensePayment `json:"payments"`
}

type ExpensePayment struct {
	PaymentMethodID string          `json:"payment_method_id"`
	Amount          decimal.Decimal `json:"amount"`
}

type Actor struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CompanyID string `json:"company_id"`
}

type UserAccount struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	CompanyID string    `json:"company_id"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type SettlementOpenRequest struct {
	BranchID string `json:"branch_id" validate:"required"`
	Date     string `json:"date"`
}

type DenominationUpdateRequest struct {
	Counts map[string]int64 `json:"counts" validate:"required"`
}

type NotesUpdateRequest struct {
	Notes string `json:"notes"`
}

type VerifyRequest struct {
	Notes string `json:"notes"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}
