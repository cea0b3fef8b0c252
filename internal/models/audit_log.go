package models

// AuditLog records ledger mutations for later inspection.
type AuditLog struct {
	Base
	Action       string `gorm:"not null" json:"action"`
	ResourceType string `gorm:"not null" json:"resource_type"`
	ResourceID   string `gorm:"index" json:"resource_id"`
	IPAddress    string `json:"ip_address"`
	Changes      string `json:"changes,omitempty"`
}

// All lists every model the ledger schema is made of, in dependency order.
func All() []interface{} {
	return []interface{}{
		&Account{},
		&Category{},
		&Payee{},
		&Transaction{},
		&AuditLog{},
	}
}
