package domain

// ScopeAll is the scope of a rate that applies to every provider.
const ScopeAll = "ALL"

// Rate is a price per kilogram in agorot for a product under a scope.
type Rate struct {
	ProductID string `gorm:"primaryKey;type:varchar(64)" json:"product_id"`
	Scope     string `gorm:"primaryKey;type:varchar(64)" json:"scope"`
	Rate      int64  `gorm:"not null;default:0" json:"rate"`
}

func (Rate) TableName() string { return "rates" }
