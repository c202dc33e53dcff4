package entity

import (
	"time"

	"github.com/google/uuid"
)

type SmartSearchRun struct {
	Id         uuid.UUID
	UserId     uuid.UUID
	SessionId  string
	WorkflowId *uuid.UUID
	Question   string
	LastStage  string // local stage name
	Sources    []string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}
