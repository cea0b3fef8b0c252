package models

// IDSet is an insertion-ordered set of record ids.
type IDSet []string

// Contains reports whether id is in the set.
func (s IDSet) Contains(id string) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Add returns the set with id appended unless it is already present.
func (s IDSet) Add(id string) IDSet {
	if id == "" || s.Contains(id) {
		return s
	}
	return append(s, id)
}

// Payee is a counterparty. Its id sets remember which categories and accounts
// were used with it, as hints for new transactions; they only ever grow.
type Payee struct {
	Base
	Name        string `gorm:"not null;uniqueIndex" json:"name"`
	CategoryIDs IDSet  `gorm:"serializer:json" json:"category_ids"`
	AccountIDs  IDSet  `gorm:"serializer:json" json:"account_ids"`
}
