// Package answer turns query results into a short business answer.
package answer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/adk/model"

	"github.com/anuvratrastogi/vizchat/internal/agents"
	"github.com/anuvratrastogi/vizchat/internal/viz"
)

// PreviewRows is how many rows the model sees.
const PreviewRows = 5

const noDataAnswer = "No data was found for this question."

const instruction = `You are a business analytics assistant.

Rules:
- Do not explain SQL
- Do not mention tables, joins, or calculations
- Answer only what the user asked
- Be concise and clear
- If the result is empty, say so politely

Return only the answer text.`

// Writer produces natural language answers.
type Writer struct {
	llm model.LLM
}

// New creates a Writer.
func New(llm model.LLM) (*Writer, error) {
	if llm == nil {
		return nil, errors.New("failed to create answer writer: model is required")
	}
	return &Writer{llm: llm}, nil
}

// Answer summarizes rows for question. An empty result is answered without
// calling the model.
func (w *Writer) Answer(ctx context.Context, question, sql string, rows []viz.Row) (string, error) {
	if len(rows) == 0 {
		return noDataAnswer, nil
	}

	preview, err := json.MarshalIndent(rows[:min(len(rows), PreviewRows)], "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode preview: %w", err)
	}

	text, err := agents.Complete(ctx, w.llm, agents.Prompt{
		System:      instruction,
		User:        fmt.Sprintf("User question:\n%s\n\nQuery result (%d rows, first %d shown):\n%s", question, len(rows), min(len(rows), PreviewRows), preview),
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("failed to write answer: %w", err)
	}
	return text, nil
}
