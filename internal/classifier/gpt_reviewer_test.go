package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func fakeOpenAI(t *testing.T, content string, got *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if got != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		resp := openai.ChatCompletionResponse{
			ID:     "chatcmpl-test",
			Object: "chat.completion",
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
				FinishReason: openai.FinishReasonStop,
			}},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv
}

var reviewLabels = []string{"Defective", "Size Issue", "Wrong Item"}

func TestGPTReviewer_Review(t *testing.T) {
	var req openai.ChatCompletionRequest
	srv := fakeOpenAI(t, `{"category": "size issue", "summary": "Customer says it runs small."}`, &req)

	r := NewGPTReviewer("test-key", srv.URL+"/v1", "gpt-4o-mini", 150, 0.2, zaptest.NewLogger(t))
	review, err := r.Review(context.Background(), "runs two sizes small", reviewLabels)
	require.NoError(t, err)
	assert.Equal(t, "Size Issue", review.Label)
	assert.Equal(t, "Customer says it runs small.", review.Summary)

	assert.Equal(t, "gpt-4o-mini", req.Model)
	assert.Equal(t, 150, req.MaxTokens)
	require.Len(t, req.Messages, 1)
	assert.Contains(t, req.Messages[0].Content, "runs two sizes small")
	for _, label := range reviewLabels {
		assert.Contains(t, req.Messages[0].Content, "- "+label)
	}
}

func TestGPTReviewer_CodeFence(t *testing.T) {
	content := "```json\n{\"category\": \"Wrong Item\", \"summary\": \"Different model.\"}\n```"
	srv := fakeOpenAI(t, content, nil)

	r := NewGPTReviewer("test-key", srv.URL+"/v1", "gpt-4o-mini", 150, 0.2, zaptest.NewLogger(t))
	review, err := r.Review(context.Background(), "got a different model", reviewLabels)
	require.NoError(t, err)
	assert.Equal(t, "Wrong Item", review.Label)
}

func TestGPTReviewer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "I think it is defective."},
		{"unknown category", `{"category": "Other", "summary": "?"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := fakeOpenAI(t, tt.content, nil)
			r := NewGPTReviewer("test-key", srv.URL+"/v1", "gpt-4o-mini", 150, 0.2, zaptest.NewLogger(t))
			_, err := r.Review(context.Background(), "broken", reviewLabels)
			assert.Error(t, err)
		})
	}
}

func TestGPTReviewer_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error": {"message": "boom", "type": "server_error"}}`)
	}))
	defer srv.Close()

	r := NewGPTReviewer("test-key", srv.URL+"/v1", "gpt-4o-mini", 150, 0.2, zaptest.NewLogger(t))
	_, err := r.Review(context.Background(), "broken", reviewLabels)
	assert.Error(t, err)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("  {\"a\":1} "))
}
