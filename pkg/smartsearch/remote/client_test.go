package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"literature-search-be/pkg/smartsearch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientPostsJSONWithToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/smart-search/test-keywords", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req smartsearch.CountRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "metformin AND heart", req.Keywords)
		assert.Equal(t, []string{"pubmed"}, req.Sources)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"total_count":      1450,
			"sources_searched": []string{"pubmed"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "secret", time.Second)
	resp, err := c.TestKeywordCount(context.Background(), smartsearch.CountRequest{
		Keywords:  "metformin AND heart",
		SessionID: "S1",
		Sources:   []string{"pubmed"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1450, resp.TotalCount)
}

func TestClientSurfacesServiceMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"detail string", `{"detail":"Session not found"}`, "Session not found"},
		{"message field", `{"message":"quota exceeded"}`, "quota exceeded"},
		{"plain text", `upstream exploded`, "upstream exploded"},
		{"empty body", ``, http.StatusText(http.StatusBadGateway)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "", time.Second)
			_, err := c.GetSession(context.Background(), "S1")
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
		})
	}
}

func TestClientSessionEndpoints(t *testing.T) {
	var historyBody map[string][]smartsearch.PersistedHistoryItem
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/smart-search/sessions/S1/reset-to-step":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "generate_keywords", body["step"])
			_, _ = w.Write([]byte(`{"id":"S1","last_completed_step":"generate_keywords"}`))
		case "/api/smart-search/sessions/S1/keyword-history":
			assert.Equal(t, http.MethodPut, r.Method)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&historyBody))
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	rec, err := c.ResetSession(context.Background(), "S1", smartsearch.PersistedKeywords)
	require.NoError(t, err)
	assert.Equal(t, "generate_keywords", rec.LastCompletedStep)

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	err = c.UpdateKeywordHistory(context.Background(), "S1", []smartsearch.HistoryItem{
		{Query: "k", Count: 3, Provenance: smartsearch.ProvenanceUserEdited, Timestamp: ts},
	})
	require.NoError(t, err)
	require.Len(t, historyBody["keyword_history"], 1)
	assert.Equal(t, "user_edited", historyBody["keyword_history"][0].ChangeType)
	assert.Equal(t, "2024-03-01T12:00:00Z", historyBody["keyword_history"][0].Timestamp)
}
