package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/xaenox/return-analyzer/internal/models"
	"go.uber.org/zap"
)

// Reviewer gives a second opinion on low-confidence predictions
type Reviewer interface {
	Review(ctx context.Context, reason string, labels []string) (*models.Review, error)
}

type GPTResponse struct {
	Category string `json:"category"`
	Summary  string `json:"summary"`
}

type GPTReviewer struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

func NewGPTReviewer(apiKey, baseURL, model string, maxTokens int, temperature float64, logger *zap.Logger) *GPTReviewer {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &GPTReviewer{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
}

func buildReviewPrompt(reason string, labels []string) string {
	return fmt.Sprintf(`A customer is returning a product and wrote the reason below.
Pick the single best matching return category from this list:
%s

Return the response as a JSON object with this structure:
{
    "category": "one of the categories above",
    "summary": "one sentence explaining the choice"
}

Return reason: %s`, "- "+strings.Join(labels, "\n- "), reason)
}

func (r *GPTReviewer) Review(ctx context.Context, reason string, labels []string) (*models.Review, error) {
	resp, err := r.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: r.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: buildReviewPrompt(reason, labels),
				},
			},
			MaxTokens:   r.maxTokens,
			Temperature: float32(r.temperature),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get GPT response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("GPT response has no choices")
	}

	content := stripCodeFence(resp.Choices[0].Message.Content)
	var gptResponse GPTResponse
	if err := json.Unmarshal([]byte(content), &gptResponse); err != nil {
		r.logger.Debug("Unparseable GPT response", zap.String("response", content))
		return nil, fmt.Errorf("failed to parse GPT response: %w", err)
	}

	for _, label := range labels {
		if strings.EqualFold(label, strings.TrimSpace(gptResponse.Category)) {
			return &models.Review{Label: label, Summary: gptResponse.Summary}, nil
		}
	}
	return nil, fmt.Errorf("GPT picked unknown category %q", gptResponse.Category)
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
