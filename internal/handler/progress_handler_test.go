package handler

import (
	"net/http/httptest"
	"testing"

	"literature-search-be/internal/pkg/logger"
	internalWS "literature-search-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProgressApp() *fiber.App {
	app := fiber.New()
	h := NewProgressHandler(internalWS.NewHub(nil, logger.NewNopLogger()), logger.NewNopLogger())
	h.RegisterRoutes(app.Group("/api"))
	return app
}

func TestServeWsRejectsMissingAndBadTokens(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	app := newProgressApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/api/smart-search/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/smart-search/ws?token=garbage", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestServeWsRequiresUpgrade(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	app := newProgressApp()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": uuid.NewString(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/smart-search/ws?token="+token, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
