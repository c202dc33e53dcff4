package implementation

import (
	"context"
	"errors"

	"literature-search-be/internal/entity"
	"literature-search-be/internal/mapper"
	"literature-search-be/internal/model"
	"literature-search-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SearchPreferenceRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SearchPreferenceMapper
}

func NewSearchPreferenceRepository(db *gorm.DB) contract.SearchPreferenceRepository {
	return &SearchPreferenceRepositoryImpl{
		db:     db,
		mapper: mapper.NewSearchPreferenceMapper(),
	}
}

func (r *SearchPreferenceRepositoryImpl) FindByUserId(ctx context.Context, userId uuid.UUID) (*entity.SearchPreference, error) {
	var m model.SearchPreference
	if err := r.db.WithContext(ctx).Where("user_id = ?", userId).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SearchPreferenceRepositoryImpl) Upsert(ctx context.Context, pref *entity.SearchPreference) error {
	m := r.mapper.ToModel(pref)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"sources", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	*pref = *r.mapper.ToEntity(m)
	return nil
}
