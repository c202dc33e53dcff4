package mapper

import (
	"time"

	"literature-search-be/internal/entity"
	"literature-search-be/internal/model"
)

type SmartSearchRunMapper struct{}

func NewSmartSearchRunMapper() *SmartSearchRunMapper {
	return &SmartSearchRunMapper{}
}

func (m *SmartSearchRunMapper) ToEntity(r *model.SmartSearchRun) *entity.SmartSearchRun {
	if r == nil {
		return nil
	}

	var updatedAt *time.Time
	if !r.UpdatedAt.IsZero() {
		t := r.UpdatedAt
		updatedAt = &t
	}

	return &entity.SmartSearchRun{
		Id:         r.Id,
		UserId:     r.UserId,
		SessionId:  r.SessionId,
		WorkflowId: r.WorkflowId,
		Question:   r.Question,
		LastStage:  r.LastStage,
		Sources:    append([]string(nil), r.Sources...),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

func (m *SmartSearchRunMapper) ToModel(r *entity.SmartSearchRun) *model.SmartSearchRun {
	if r == nil {
		return nil
	}

	var updatedAt time.Time
	if r.UpdatedAt != nil {
		updatedAt = *r.UpdatedAt
	}

	return &model.SmartSearchRun{
		Id:         r.Id,
		UserId:     r.UserId,
		SessionId:  r.SessionId,
		WorkflowId: r.WorkflowId,
		Question:   r.Question,
		LastStage:  r.LastStage,
		Sources:    append([]string(nil), r.Sources...),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

func (m *SmartSearchRunMapper) ToEntities(runs []*model.SmartSearchRun) []*entity.SmartSearchRun {
	entities := make([]*entity.SmartSearchRun, len(runs))
	for i, r := range runs {
		entities[i] = m.ToEntity(r)
	}
	return entities
}
