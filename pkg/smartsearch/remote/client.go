package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"literature-search-be/pkg/smartsearch"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const basePath = "/api/smart-search"

// Client talks to the remote Smart Search service over JSON/HTTP.
type Client struct {
	BaseURL string
	Token   string
	Client  *http.Client
	tracer  trace.Tracer
}

// Ensure Client implements Gateway
var _ smartsearch.Gateway = &Client{}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client: &http.Client{
			Timeout: timeout,
		},
		tracer: otel.Tracer("literature-search-be/smartsearch/remote"),
	}
}

// APIError is a non-2xx answer. Error returns the service's message verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func parseError(status int, body []byte) error {
	var eb errorBody
	msg := ""
	if err := json.Unmarshal(body, &eb); err == nil {
		switch {
		case len(eb.Detail) > 0:
			var s string
			if json.Unmarshal(eb.Detail, &s) == nil {
				msg = s
			} else {
				msg = string(eb.Detail)
			}
		case eb.Message != "":
			msg = eb.Message
		case eb.Error != "":
			msg = eb.Error
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: msg}
}

// do sends payload (if any) as JSON and decodes a 2xx body into out (if any).
func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) (err error) {
	ctx, span := c.tracer.Start(ctx, "smartsearch.remote "+method+" "+path, trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var body io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payloadBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+basePath+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("smart search request failed: %w", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseError(resp.StatusCode, bodyBytes)
	}
	if out == nil || len(bytes.TrimSpace(bodyBytes)) == 0 {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func (c *Client) CreateEvidenceSpec(ctx context.Context, req smartsearch.EvidenceSpecRequest) (*smartsearch.EvidenceSpecResponse, error) {
	var out smartsearch.EvidenceSpecResponse
	if err := c.do(ctx, http.MethodPost, "/evidence-spec", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GenerateKeywords(ctx context.Context, req smartsearch.KeywordsRequest) (*smartsearch.KeywordsResponse, error) {
	var out smartsearch.KeywordsResponse
	if err := c.do(ctx, http.MethodPost, "/generate-keywords", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TestKeywordCount(ctx context.Context, req smartsearch.CountRequest) (*smartsearch.CountResponse, error) {
	var out smartsearch.CountResponse
	if err := c.do(ctx, http.MethodPost, "/test-keywords", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) OptimizeKeywords(ctx context.Context, req smartsearch.OptimizeRequest) (*smartsearch.OptimizeResponse, error) {
	var out smartsearch.OptimizeResponse
	if err := c.do(ctx, http.MethodPost, "/optimize-keywords", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ExecuteSearch(ctx context.Context, req smartsearch.SearchRequest) (*smartsearch.SearchResponse, error) {
	var out smartsearch.SearchResponse
	if err := c.do(ctx, http.MethodPost, "/search", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GenerateDiscriminator(ctx context.Context, req smartsearch.DiscriminatorRequest) (*smartsearch.DiscriminatorResponse, error) {
	var out smartsearch.DiscriminatorResponse
	if err := c.do(ctx, http.MethodPost, "/generate-discriminator", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FilterArticles(ctx context.Context, req smartsearch.FilterRequest) (*smartsearch.FilterResponse, error) {
	var out smartsearch.FilterResponse
	if err := c.do(ctx, http.MethodPost, "/filter-articles", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ExtractFeatures(ctx context.Context, req smartsearch.ExtractRequest) (*smartsearch.ExtractResponse, error) {
	var out smartsearch.ExtractResponse
	if err := c.do(ctx, http.MethodPost, "/extract-features", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetSession(ctx context.Context, sessionID string) (*smartsearch.PersistedSession, error) {
	var out smartsearch.PersistedSession
	if err := c.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(sessionID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type resetRequest struct {
	Step string `json:"step"`
}

func (c *Client) ResetSession(ctx context.Context, sessionID string, target smartsearch.PersistedStage) (*smartsearch.PersistedSession, error) {
	var out smartsearch.PersistedSession
	path := "/sessions/" + url.PathEscape(sessionID) + "/reset-to-step"
	if err := c.do(ctx, http.MethodPost, path, resetRequest{Step: string(target)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type historyRequest struct {
	KeywordHistory []smartsearch.PersistedHistoryItem `json:"keyword_history"`
}

func (c *Client) UpdateKeywordHistory(ctx context.Context, sessionID string, items []smartsearch.HistoryItem) error {
	path := "/sessions/" + url.PathEscape(sessionID) + "/keyword-history"
	return c.do(ctx, http.MethodPut, path, historyRequest{KeywordHistory: smartsearch.PersistHistory(items)}, nil)
}
