// Package agents holds what the SQL and answer agents share: a single-shot
// text completion over an adk model.LLM.
package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// ErrEmptyReply is returned when the model produced no text.
var ErrEmptyReply = errors.New("model returned an empty reply")

// Prompt is one system instruction plus one user message.
type Prompt struct {
	System      string
	User        string
	Temperature float32
}

// Complete sends p to llm and concatenates the text parts of every response.
func Complete(ctx context.Context, llm model.LLM, p Prompt) (string, error) {
	temperature := p.Temperature
	req := &model.LLMRequest{
		Model:    llm.Name(),
		Contents: []*genai.Content{genai.NewContentFromText(p.User, genai.RoleUser)},
		Config: &genai.GenerateContentConfig{
			Temperature: &temperature,
		},
	}
	if p.System != "" {
		req.Config.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}

	var reply strings.Builder
	for resp, err := range llm.GenerateContent(ctx, req, false) {
		if err != nil {
			return "", fmt.Errorf("failed to generate content: %w", err)
		}
		if resp == nil || resp.Content == nil {
			continue
		}
		for _, part := range resp.Content.Parts {
			if part != nil {
				reply.WriteString(part.Text)
			}
		}
	}

	text := strings.TrimSpace(reply.String())
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}
