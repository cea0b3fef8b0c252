package models

// Account represents a financial account in the ledger.
type Account struct {
	Base
	Name     string `gorm:"not null;uniqueIndex" json:"name"`
	Currency string `gorm:"not null;default:'USD'" json:"currency"`
	// Balance is the starting balance in minor units. Running balances are
	// derived from transactions and never written back here.
	Balance int64 `gorm:"type:bigint;not null;default:0" json:"balance"`
	// IsCredit flips the sign convention: credit rows raise the balance of a
	// credit account (e.g. a card) and lower it everywhere else.
	IsCredit bool `gorm:"not null;default:false" json:"is_credit"`
}
