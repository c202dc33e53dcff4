package service

import (
	"context"

	"literature-search-be/internal/entity"
	"literature-search-be/internal/repository/unitofwork"
	"literature-search-be/pkg/smartsearch"

	"github.com/google/uuid"
)

// preferenceSourceStore keeps one user's selected sources in the preferences table.
type preferenceSourceStore struct {
	uowFactory unitofwork.RepositoryFactory
	userId     uuid.UUID
	defaults   []string
}

var _ smartsearch.SourceStore = (*preferenceSourceStore)(nil)

func newPreferenceSourceStore(uowFactory unitofwork.RepositoryFactory, userId uuid.UUID, defaults []string) *preferenceSourceStore {
	return &preferenceSourceStore{uowFactory: uowFactory, userId: userId, defaults: defaults}
}

func (s *preferenceSourceStore) LoadSources(ctx context.Context) ([]string, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	pref, err := uow.SearchPreferenceRepository().FindByUserId(ctx, s.userId)
	if err != nil {
		return nil, err
	}
	if pref == nil || len(pref.Sources) == 0 {
		return append([]string(nil), s.defaults...), nil
	}
	return pref.Sources, nil
}

func (s *preferenceSourceStore) SaveSources(ctx context.Context, sources []string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.SearchPreferenceRepository().Upsert(ctx, &entity.SearchPreference{
		UserId:  s.userId,
		Sources: append([]string(nil), sources...),
	})
}
