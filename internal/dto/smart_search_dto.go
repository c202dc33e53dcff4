package dto

import (
	"time"

	"literature-search-be/pkg/smartsearch"

	"github.com/google/uuid"
)

type ResumeWorkflowRequest struct {
	SessionId string `json:"session_id" validate:"required"`
}

type SubmitQuestionRequest struct {
	Question string `json:"question" validate:"required"`
}

type GenerateKeywordsRequest struct {
	Sources []string `json:"sources" validate:"omitempty,dive,oneof=pubmed google_scholar"`
}

type CountRequest struct {
	Query string `json:"query"`
}

// RecordCountRequest with an empty query records the submitted keywords.
type RecordCountRequest struct {
	Query string `json:"query"`
}

type SearchRequest struct {
	Offset   int `json:"offset" validate:"min=0"`
	PageSize int `json:"page_size" validate:"omitempty,min=1,max=100"`
}

type ScoreOptionsRequest struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

type AddFeatureRequest struct {
	Name        string               `json:"name" validate:"required"`
	Description string               `json:"description" validate:"required"`
	Type        string               `json:"type" validate:"required,oneof=text boolean score"`
	Options     *ScoreOptionsRequest `json:"options"`
}

// UpdateArtifactsRequest edits the submitted artifacts; absent fields are left alone.
type UpdateArtifactsRequest struct {
	EvidenceSpec  *string `json:"evidence_spec"`
	Keywords      *string `json:"keywords"`
	Discriminator *string `json:"discriminator"`
	Strictness    *string `json:"strictness" validate:"omitempty,oneof=low medium high"`
}

type SourcesRequest struct {
	Sources []string `json:"sources" validate:"required,min=1,dive,oneof=pubmed google_scholar"`
}

type StepBackRequest struct {
	Stage string `json:"stage" validate:"required"`
}

type WorkflowResponse struct {
	WorkflowId uuid.UUID         `json:"workflow_id"`
	State      smartsearch.State `json:"state"`
	Result     interface{}       `json:"result,omitempty"`
}

// ListRunsRequest pages through the run index. Limit 0 means the default page.
type ListRunsRequest struct {
	Limit  int `query:"limit" validate:"min=0,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

type RunResponse struct {
	Id         uuid.UUID  `json:"id"`
	SessionId  string     `json:"session_id"`
	WorkflowId *uuid.UUID `json:"workflow_id"`
	Question   string     `json:"question"`
	LastStage  string     `json:"last_stage"`
	Sources    []string   `json:"sources"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

type SourcesResponse struct {
	Sources []string `json:"sources"`
}

// ProgressMessage is the payload of a workflow event on the in-process bus.
// Type is one of the event types in pkg/events.
type ProgressMessage struct {
	Type       string    `json:"type"`
	UserId     uuid.UUID `json:"user_id"`
	WorkflowId uuid.UUID `json:"workflow_id"`
	SessionId  string    `json:"session_id"`
	Action     string    `json:"action"`
	Stage      string    `json:"stage"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
