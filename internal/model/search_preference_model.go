package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SearchPreference stores the sources a user last selected for Smart Search.
type SearchPreference struct {
	UserId    uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	Sources   datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`
	CreatedAt time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt time.Time                   `gorm:"autoUpdateTime"`
}

func (SearchPreference) TableName() string {
	return "smart_search_preferences"
}
