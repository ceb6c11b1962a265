package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Provider struct {
	ID        snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name      string       `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Provider) TableName() string { return "providers" }
