package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SmartSearchRun indexes a user's remote sessions so they can be listed and resumed.
type SmartSearchRun struct {
	Id         uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId     uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_smart_search_runs_user_session,priority:1"`
	SessionId  string                      `gorm:"type:varchar(255);not null;uniqueIndex:idx_smart_search_runs_user_session,priority:2"`
	WorkflowId *uuid.UUID                  `gorm:"type:uuid"`
	Question   string                      `gorm:"type:text"`
	LastStage  string                      `gorm:"type:varchar(50);not null"`
	Sources    datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	CreatedAt  time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt  time.Time                   `gorm:"autoUpdateTime;index"`
}

func (SmartSearchRun) TableName() string {
	return "smart_search_runs"
}
