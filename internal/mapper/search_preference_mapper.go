package mapper

import (
	"time"

	"literature-search-be/internal/entity"
	"literature-search-be/internal/model"
)

type SearchPreferenceMapper struct{}

func NewSearchPreferenceMapper() *SearchPreferenceMapper {
	return &SearchPreferenceMapper{}
}

func (m *SearchPreferenceMapper) ToEntity(p *model.SearchPreference) *entity.SearchPreference {
	if p == nil {
		return nil
	}

	var updatedAt *time.Time
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		updatedAt = &t
	}

	return &entity.SearchPreference{
		UserId:    p.UserId,
		Sources:   append([]string(nil), p.Sources...),
		CreatedAt: p.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *SearchPreferenceMapper) ToModel(p *entity.SearchPreference) *model.SearchPreference {
	if p == nil {
		return nil
	}

	var updatedAt time.Time
	if p.UpdatedAt != nil {
		updatedAt = *p.UpdatedAt
	}

	return &model.SearchPreference{
		UserId:    p.UserId,
		Sources:   append([]string(nil), p.Sources...),
		CreatedAt: p.CreatedAt,
		UpdatedAt: updatedAt,
	}
}
