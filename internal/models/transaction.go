package models

import "time"

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
	// TransactionTypeTransfer is only accepted as an operation input. A stored
	// transfer is a credit leg and a debit leg linked by SiblingID.
	TransactionTypeTransfer TransactionType = "transfer"
)

// TransactionStatus is the reconciliation status of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusCleared TransactionStatus = "cleared"
)

// Valid reports whether t may be stored on a transaction row.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeCredit || t == TransactionTypeDebit
}

// Valid reports whether s is a known status.
func (s TransactionStatus) Valid() bool {
	return s == TransactionStatusPending || s == TransactionStatusCleared
}

// Transaction represents a financial transaction in the ledger
type Transaction struct {
	Base
	Type       TransactionType   `gorm:"not null" json:"type"`
	Amount     int64             `gorm:"type:bigint;not null" json:"amount"`
	AccountID  string            `gorm:"type:uuid;not null;index" json:"account_id"`
	Date       time.Time         `gorm:"not null;index" json:"date"`
	PayeeID    *string           `gorm:"type:uuid" json:"payee_id,omitempty"`
	CategoryID *string           `gorm:"type:uuid" json:"category_id,omitempty"`
	Status     TransactionStatus `gorm:"not null" json:"status"`
	IsDone     bool              `gorm:"not null;default:false" json:"is_done"`
	Note       string            `json:"note"`

	// For transfers
	FromAccountID *string `gorm:"type:uuid" json:"from_account_id,omitempty"`
	ToAccountID   *string `gorm:"type:uuid" json:"to_account_id,omitempty"`
	SiblingID     *string `gorm:"type:uuid" json:"sibling_id,omitempty"`

	// Relationships, populated only when a query asks for them.
	Account     *Account     `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Payee       *Payee       `gorm:"foreignKey:PayeeID" json:"payee,omitempty"`
	Category    *Category    `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	FromAccount *Account     `gorm:"foreignKey:FromAccountID" json:"from_account,omitempty"`
	ToAccount   *Account     `gorm:"foreignKey:ToAccountID" json:"to_account,omitempty"`
	Sibling     *Transaction `gorm:"foreignKey:SiblingID" json:"sibling,omitempty"`
}

// IsTransferLeg reports whether the row is one half of a transfer pair.
func (t *Transaction) IsTransferLeg() bool {
	return t.SiblingID != nil && *t.SiblingID != ""
}

// StripRelations clears relation pointers so the row can be written without
// touching associated records.
func (t *Transaction) StripRelations() {
	t.Account = nil
	t.Payee = nil
	t.Category = nil
	t.FromAccount = nil
	t.ToAccount = nil
	t.Sibling = nil
}
