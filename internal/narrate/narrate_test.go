package narrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ascentvc/diligence-cli/internal/benchmark"
	"github.com/ascentvc/diligence-cli/internal/config"
	"github.com/ascentvc/diligence-cli/pkg/anthropic"
)

type fakeClient struct {
	resp *anthropic.MessageResponse
	err  error
	last anthropic.MessageRequest
}

func (f *fakeClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func TestNew_DisabledReturnsNil(t *testing.T) {
	assert.Nil(t, New(config.AnthropicConfig{Disabled: true, Key: "k"}))
	assert.Nil(t, New(config.AnthropicConfig{Key: ""}))
	assert.NotNil(t, New(config.AnthropicConfig{Key: "k", SonnetModel: "m", MaxTokens: 1024}))
}

func TestThesis(t *testing.T) {
	fc := &fakeClient{resp: &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{
			{Type: "text", Text: "```json\n{\"thesis\": \"Acme shows efficient growth at series A.\"}\n```"},
		},
	}}
	n := NewWithClient(fc, "test-model", 512)

	thesis, err := n.Thesis(context.Background(), &benchmark.Report{Company: "Acme", Overall: 7.5})
	require.NoError(t, err)
	assert.Equal(t, "Acme shows efficient growth at series A.", thesis)
	assert.Equal(t, "test-model", fc.last.Model)
	require.Len(t, fc.last.System, 1)
	assert.NotNil(t, fc.last.System[0].CacheControl)
}

func TestThesis_ClientError(t *testing.T) {
	fc := &fakeClient{err: assert.AnError}
	n := NewWithClient(fc, "m", 512)

	_, err := n.Thesis(context.Background(), &benchmark.Report{Company: "Acme"})
	require.Error(t, err)
}

func TestThesis_NoJSONObject(t *testing.T) {
	fc := &fakeClient{resp: &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: "I cannot produce a thesis."}},
	}}
	n := NewWithClient(fc, "m", 512)

	_, err := n.Thesis(context.Background(), &benchmark.Report{Company: "Acme"})
	require.Error(t, err)
}

func TestThesis_EmptyThesisRejected(t *testing.T) {
	fc := &fakeClient{resp: &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: `{"thesis": ""}`}},
	}}
	n := NewWithClient(fc, "m", 512)

	_, err := n.Thesis(context.Background(), &benchmark.Report{Company: "Acme"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty thesis")
}
