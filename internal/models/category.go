package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Category represents a transaction category
type Category struct {
	Base
	Name string       `gorm:"not null;uniqueIndex" json:"name"`
	Type CategoryType `gorm:"not null" json:"type"`
}
