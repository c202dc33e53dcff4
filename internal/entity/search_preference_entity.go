package entity

import (
	"time"

	"github.com/google/uuid"
)

type SearchPreference struct {
	UserId    uuid.UUID
	Sources   []string
	CreatedAt time.Time
	UpdatedAt *time.Time
}
