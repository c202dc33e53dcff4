package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"literature-search-be/internal/entity"
	"literature-search-be/internal/model"
	"literature-search-be/internal/repository/specification"
	"literature-search-be/internal/repository/unitofwork"
	"literature-search-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormRepositories(t *testing.T) {
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn, database.Options{})
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(&model.SearchPreference{}, &model.SmartSearchRun{}))

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(gormDB).NewUnitOfWork(ctx)
	userId := uuid.New()

	t.Cleanup(func() {
		gormDB.Where("user_id = ?", userId).Delete(&model.SmartSearchRun{})
		gormDB.Where("user_id = ?", userId).Delete(&model.SearchPreference{})
	})

	t.Run("Preference upsert", func(t *testing.T) {
		repo := uow.SearchPreferenceRepository()

		pref, err := repo.FindByUserId(ctx, userId)
		require.NoError(t, err)
		assert.Nil(t, pref)

		require.NoError(t, repo.Upsert(ctx, &entity.SearchPreference{UserId: userId, Sources: []string{"pubmed"}}))
		require.NoError(t, repo.Upsert(ctx, &entity.SearchPreference{UserId: userId, Sources: []string{"google_scholar"}}))

		pref, err = repo.FindByUserId(ctx, userId)
		require.NoError(t, err)
		assert.Equal(t, []string{"google_scholar"}, pref.Sources)
	})

	t.Run("Run index upsert by session", func(t *testing.T) {
		repo := uow.SmartSearchRunRepository()
		sessionId := "it-" + uuid.NewString()

		require.NoError(t, repo.Upsert(ctx, &entity.SmartSearchRun{UserId: userId, SessionId: sessionId, Question: "q", LastStage: "refinement"}))
		require.NoError(t, repo.Upsert(ctx, &entity.SmartSearchRun{UserId: userId, SessionId: sessionId, Question: "q", LastStage: "results"}))

		count, err := repo.Count(ctx, specification.UserOwnedBy{UserID: userId})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		run, err := repo.FindOne(ctx, specification.UserOwnedBy{UserID: userId}, specification.BySessionID{SessionID: sessionId})
		require.NoError(t, err)
		require.NotNil(t, run)
		assert.Equal(t, "results", run.LastStage)

		runs, err := repo.FindAll(ctx, specification.UserOwnedBy{UserID: userId}, specification.RecentFirst{}, specification.Pagination{Limit: 10})
		require.NoError(t, err)
		assert.Len(t, runs, 1)
	})

	t.Run("Transaction rollback", func(t *testing.T) {
		tx := unitofwork.NewRepositoryFactory(gormDB).NewUnitOfWork(ctx)
		require.NoError(t, tx.Begin(ctx))
		require.NoError(t, tx.SmartSearchRunRepository().Upsert(ctx, &entity.SmartSearchRun{UserId: userId, SessionId: "rolled-back", LastStage: "query"}))
		require.NoError(t, tx.Rollback())

		run, err := uow.SmartSearchRunRepository().FindOne(ctx, specification.BySessionID{SessionID: "rolled-back"}, specification.UserOwnedBy{UserID: userId})
		require.NoError(t, err)
		assert.Nil(t, run)
	})
}
