package perplexity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{"id":"cmpl-1","choices":[{"index":0,"message":{"role":"assistant","content":"ok"}},{"index":1,"message":{"role":"assistant","content":"alt"}}],"usage":{"prompt_tokens":10,"completion_tokens":5}}`

// captureServer records every decoded request body and replies with the
// given status sequence, repeating the last entry once exhausted.
type captureServer struct {
	srv      *httptest.Server
	requests []ChatCompletionRequest
	attempts atomic.Int32
	statuses []int
	body     string
}

func newCaptureServer(t *testing.T, body string, statuses ...int) *captureServer {
	t.Helper()
	if len(statuses) == 0 {
		statuses = []int{http.StatusOK}
	}
	cs := &captureServer{statuses: statuses, body: body}
	cs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			cs.requests = append(cs.requests, req)
		}

		n := int(cs.attempts.Add(1))
		status := cs.statuses[min(n-1, len(cs.statuses)-1)]
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			w.Write([]byte(cs.body)) //nolint:errcheck
			return
		}
		w.Write([]byte(`{"error":"upstream says no"}`)) //nolint:errcheck
	}))
	t.Cleanup(cs.srv.Close)
	return cs
}

func (cs *captureServer) client(opts ...Option) Client {
	return NewClient("test-key", append([]Option{WithBaseURL(cs.srv.URL)}, opts...)...)
}

func ask(t *testing.T, c Client, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	t.Helper()
	if req.Messages == nil {
		req.Messages = []Message{{Role: "user", Content: "size the market"}}
	}
	return c.ChatCompletion(context.Background(), req)
}

func TestChatCompletion_ParsesResponse(t *testing.T) {
	cs := newCaptureServer(t, okBody)

	resp, err := ask(t, cs.client(), ChatCompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "cmpl-1", resp.ID)
	require.Len(t, resp.Choices, 2)
	assert.Equal(t, "ok", resp.Choices[0].Message.Content)
	assert.Equal(t, 10, resp.Usage.PromptTokens)
	assert.Equal(t, 5, resp.Usage.CompletionTokens)
}

func TestChatCompletion_MalformedResponse(t *testing.T) {
	cs := newCaptureServer(t, `{truncated`)

	_, err := ask(t, cs.client(), ChatCompletionRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal response")
}

func TestChatCompletion_ModelSelection(t *testing.T) {
	tests := []struct {
		name      string
		opts      []Option
		reqModel  string
		wantModel string
	}{
		{"default model", nil, "", "sonar-pro"},
		{"client option", []Option{WithModel("sonar")}, "", "sonar"},
		{"request wins over option", []Option{WithModel("sonar")}, "sonar-reasoning", "sonar-reasoning"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := newCaptureServer(t, okBody)
			_, err := ask(t, cs.client(tt.opts...), ChatCompletionRequest{Model: tt.reqModel})
			require.NoError(t, err)
			require.Len(t, cs.requests, 1)
			assert.Equal(t, tt.wantModel, cs.requests[0].Model)
		})
	}
}

func TestChatCompletion_RequestShaping(t *testing.T) {
	cs := newCaptureServer(t, okBody)
	temp := 0.2
	maxTokens := 500

	_, err := ask(t, cs.client(), ChatCompletionRequest{
		Temperature:         &temp,
		MaxTokens:           &maxTokens,
		SearchRecencyFilter: "year",
	})
	require.NoError(t, err)

	require.Len(t, cs.requests, 1)
	sent := cs.requests[0]
	require.NotNil(t, sent.Temperature)
	assert.InDelta(t, 0.2, *sent.Temperature, 0.001)
	require.NotNil(t, sent.MaxTokens)
	assert.Equal(t, 500, *sent.MaxTokens)
	assert.Equal(t, "year", sent.SearchRecencyFilter)
}

func TestChatCompletion_OptionalFieldsOmitted(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(okBody)) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := ask(t, c, ChatCompletionRequest{})
	require.NoError(t, err)

	assert.NotContains(t, raw, "temperature")
	assert.NotContains(t, raw, "max_tokens")
	assert.NotContains(t, raw, "search_recency_filter")
}

func TestChatCompletion_Citations(t *testing.T) {
	body := `{"id":"cited","choices":[{"index":0,"message":{"role":"assistant","content":"The market is $12B."}}],"citations":["https://example.com/report"],"usage":{}}`
	cs := newCaptureServer(t, body)

	resp, err := ask(t, cs.client(), ChatCompletionRequest{SearchRecencyFilter: "year"})
	require.NoError(t, err)
	require.Len(t, resp.Citations, 1)
	assert.Equal(t, "https://example.com/report", resp.Citations[0])
}

func TestChatCompletion_RetryBehavior(t *testing.T) {
	tests := []struct {
		name         string
		statuses     []int
		wantErr      string
		wantAttempts int32
	}{
		{"recovers from 5xx", []int{500, 500, 200}, "", 3},
		{"recovers from 429", []int{429, 200}, "", 2},
		{"4xx fails immediately", []int{400}, "unexpected status 400", 1},
		{"exhausts retries", []int{500}, "unexpected status 500", maxRetryAttempts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := newCaptureServer(t, okBody, tt.statuses...)
			resp, err := ask(t, cs.client(), ChatCompletionRequest{})

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "cmpl-1", resp.ID)
			}
			assert.Equal(t, tt.wantAttempts, cs.attempts.Load())
		})
	}
}

func TestChatCompletion_ErrorIncludesServerBody(t *testing.T) {
	cs := newCaptureServer(t, okBody, http.StatusForbidden)

	_, err := ask(t, cs.client(), ChatCompletionRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "upstream says no")
}

func TestChatCompletion_CancelDuringBackoff(t *testing.T) {
	cs := newCaptureServer(t, okBody, http.StatusInternalServerError)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := cs.client().ChatCompletion(ctx, ChatCompletionRequest{
		Messages: []Message{{Role: "user", Content: "size the market"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, cs.attempts.Load(), int32(maxRetryAttempts))
}

func TestChatCompletion_CancelledBeforeSend(t *testing.T) {
	cs := newCaptureServer(t, okBody)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cs.client().ChatCompletion(ctx, ChatCompletionRequest{
		Messages: []Message{{Role: "user", Content: "size the market"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send request")
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	hc := NewClient("my-key").(*httpClient)
	assert.Equal(t, "my-key", hc.apiKey)
	assert.Equal(t, defaultBaseURL, hc.baseURL)
	assert.Equal(t, defaultModel, hc.model)
	require.NotNil(t, hc.http)
	assert.NotNil(t, hc.http.Transport)

	custom := &http.Client{}
	withHTTP := NewClient("my-key", WithHTTPClient(custom)).(*httpClient)
	assert.Same(t, custom, withHTTP.http)
}
