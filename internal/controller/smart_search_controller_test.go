package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"literature-search-be/internal/dto"
	"literature-search-be/internal/pkg/serverutils"
	"literature-search-be/internal/service"
	"literature-search-be/pkg/smartsearch"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "controller-test-secret"

// stubService implements only what the tests call; the embedded nil
// interface panics on anything else.
type stubService struct {
	service.ISmartSearchService
	lastUser   uuid.UUID
	lastSearch *dto.SearchRequest
	lastRecord *dto.RecordCountRequest
	searchErr  error
}

func (s *stubService) RecordCount(ctx context.Context, userId, id uuid.UUID, req *dto.RecordCountRequest) (*dto.WorkflowResponse, error) {
	s.lastRecord = req
	return &dto.WorkflowResponse{WorkflowId: id}, nil
}

func (s *stubService) Start(ctx context.Context, userId uuid.UUID) (*dto.WorkflowResponse, error) {
	s.lastUser = userId
	return &dto.WorkflowResponse{WorkflowId: uuid.New(), State: smartsearch.State{Stage: smartsearch.StageQuery}}, nil
}

func (s *stubService) Show(ctx context.Context, userId, id uuid.UUID) (*dto.WorkflowResponse, error) {
	return nil, service.ErrWorkflowNotFound
}

func (s *stubService) Search(ctx context.Context, userId, id uuid.UUID, req *dto.SearchRequest) (*dto.WorkflowResponse, error) {
	s.lastSearch = req
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return &dto.WorkflowResponse{WorkflowId: id, State: smartsearch.State{Stage: smartsearch.StageSearchResults}}, nil
}

func (s *stubService) RemovePendingFeature(ctx context.Context, userId, id uuid.UUID, featureId string) (*dto.WorkflowResponse, error) {
	return nil, service.ErrFeatureNotFound
}

func newTestApp(t *testing.T, svc service.ISmartSearchService) *fiber.App {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	NewSmartSearchController(svc).RegisterRoutes(app.Group("/api"))
	return app
}

func bearer(t *testing.T, userId uuid.UUID) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": userId.String()}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func do(t *testing.T, app *fiber.App, method, path, body, auth string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestRoutesRequireToken(t *testing.T) {
	app := newTestApp(t, &stubService{})
	status, body := do(t, app, "POST", "/api/smart-search/v1/workflows", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, false, body["success"])
}

func TestStartReturnsCreated(t *testing.T) {
	svc := &stubService{}
	app := newTestApp(t, svc)
	user := uuid.New()

	status, body := do(t, app, "POST", "/api/smart-search/v1/workflows", "", bearer(t, user))
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, user, svc.lastUser)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "query", data["state"].(map[string]interface{})["stage"])
}

func TestUnknownWorkflowIs404(t *testing.T) {
	app := newTestApp(t, &stubService{})
	auth := bearer(t, uuid.New())

	status, _ := do(t, app, "GET", "/api/smart-search/v1/workflows/"+uuid.NewString(), "", auth)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = do(t, app, "GET", "/api/smart-search/v1/workflows/not-a-uuid", "", auth)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = do(t, app, "DELETE", "/api/smart-search/v1/workflows/"+uuid.NewString()+"/features/pending/f1", "", auth)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestSearchValidatesAndMapsErrors(t *testing.T) {
	svc := &stubService{}
	app := newTestApp(t, svc)
	auth := bearer(t, uuid.New())
	path := "/api/smart-search/v1/workflows/" + uuid.NewString() + "/search"

	status, body := do(t, app, "POST", path, `{"offset":-1}`, auth)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.NotEmpty(t, body["errors"])
	assert.Nil(t, svc.lastSearch)

	status, _ = do(t, app, "POST", path, `{"offset":50,"page_size":20}`, auth)
	assert.Equal(t, fiber.StatusOK, status)
	require.NotNil(t, svc.lastSearch)
	assert.Equal(t, 50, svc.lastSearch.Offset)
	assert.Equal(t, 20, svc.lastSearch.PageSize)

	status, _ = do(t, app, "POST", path, "", auth)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 0, svc.lastSearch.Offset)

	svc.searchErr = &smartsearch.GatewayError{Op: "search", Err: assert.AnError}
	status, body = do(t, app, "POST", path, `{}`, auth)
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Equal(t, assert.AnError.Error(), body["message"])
}

func TestRecordCountAcceptsEmptyQuery(t *testing.T) {
	svc := &stubService{}
	app := newTestApp(t, svc)
	path := "/api/smart-search/v1/workflows/" + uuid.NewString() + "/count/record"

	status, _ := do(t, app, "POST", path, "", bearer(t, uuid.New()))
	assert.Equal(t, fiber.StatusOK, status)
	require.NotNil(t, svc.lastRecord)
	assert.Empty(t, svc.lastRecord.Query, "an empty query falls through to the submitted keywords")

	status, _ = do(t, app, "POST", path, `{"query":"a AND b"}`, bearer(t, uuid.New()))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "a AND b", svc.lastRecord.Query)
}
