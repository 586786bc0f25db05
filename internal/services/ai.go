package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// chatCompleter is the part of the OpenAI client the AI service uses
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type AIService struct {
	client chatCompleter
}

// SuggestedField is one field proposed by the model. Type is free text and
// is checked by the caller.
type SuggestedField struct {
	Label string `json:"label"`
	Type  string `json:"type"`
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
	}
}

// SuggestFields proposes report template fields for a description using OpenAI GPT
func (s *AIService) SuggestFields(ctx context.Context, description string) ([]SuggestedField, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	prompt := fmt.Sprintf(`You design report templates that subsidiaries fill in as spreadsheets.
Propose the columns for the report described below.

Description:
%s

Return a JSON array in exactly this form:
[
  {
    "label": "column header as shown to the user",
    "type": "text | number | date"
  }
]

Rules:
- Use "number" for amounts, quantities and percentages
- Use "date" only for calendar dates
- Keep labels short and unique
- Return an empty array [] if the description does not describe a report
- Return only JSON, without any explanation`, description)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := stripCodeFence(resp.Choices[0].Message.Content)

	var fields []SuggestedField
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return fields, nil
}

// stripCodeFence removes a markdown code fence around a model response
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimPrefix(content, "json")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
