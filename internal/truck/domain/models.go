package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Truck is identified by its license plate.
type Truck struct {
	ID         string       `gorm:"primaryKey;type:varchar(32)" json:"id"`
	ProviderID snowflake.ID `gorm:"index;not null" json:"provider_id"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

func (Truck) TableName() string { return "trucks" }
