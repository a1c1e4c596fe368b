package domain

import "time"

// ExpensePriority classifies how essential an expense is.
type ExpensePriority string

const (
	PriorityEssential ExpensePriority = "ESSENTIAL"
	PriorityImportant ExpensePriority = "IMPORTANT"
	PriorityOptional  ExpensePriority = "OPTIONAL"
)

// InstallmentStatus tracks the payment lifecycle of one installment.
// Allowed transitions: PENDING -> SCHEDULED or PAID, SCHEDULED -> PAID.
// PAID is terminal.
type InstallmentStatus string

const (
	InstallmentPending   InstallmentStatus = "PENDING"
	InstallmentScheduled InstallmentStatus = "SCHEDULED"
	InstallmentPaid      InstallmentStatus = "PAID"
)

// CanTransitionTo reports whether the status machine allows moving to next.
func (s InstallmentStatus) CanTransitionTo(next InstallmentStatus) bool {
	switch s {
	case InstallmentPending:
		return next == InstallmentScheduled || next == InstallmentPaid
	case InstallmentScheduled:
		return next == InstallmentPaid
	}
	return false
}

// Wallet groups funds owned by a user; names are unique per user.
type Wallet struct {
	ID          string
	UserID      string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ExpenseGroup categorizes expenses. A group without a creator is a shared
// default visible to every user.
type ExpenseGroup struct {
	ID        string
	Name      string
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PaymentMethod is a user-owned card or account used to pay installments.
type PaymentMethod struct {
	ID                  string
	UserID              string
	Name                string
	Issuer              string
	StatementClosingDay int
	DueDay              int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Expense is a purchase split into one or more installments.
type Expense struct {
	ID           string
	GroupID      string
	Group        *ExpenseGroup
	UserID       string
	Date         time.Time
	Priority     ExpensePriority
	Description  string
	Beneficiary  string
	Installments []Installment
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Installment is one monthly charge of an expense.
type Installment struct {
	ID              string
	ExpenseID       string
	Expense         *Expense
	UserID          string
	Status          InstallmentStatus
	Value           float64
	BillingMonth    time.Time
	PaymentMethodID string
	PaymentMethod   *PaymentMethod
	PaidAt          *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
