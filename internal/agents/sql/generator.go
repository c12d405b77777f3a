package sql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/adk/model"

	"github.com/anuvratrastogi/vizchat/internal/agents"
)

// ErrUnsupported is returned when the model answers UNSUPPORTED.
var ErrUnsupported = errors.New("question cannot be answered from the available data")

const unsupportedReply = "UNSUPPORTED"

const instruction = `You are a strict SQL compiler for a read-only PostgreSQL analytics system.
You translate user questions into SQL using only the schema and semantic layer below.

Rules:
1. Generate only a single valid PostgreSQL SELECT query.
2. Use only tables, columns, join conditions and metric expressions listed below.
3. Never invent columns, tables or joins. Metrics are expressions, never tables.
4. Never generate INSERT, UPDATE, DELETE, DROP, ALTER or TRUNCATE.
5. Every query has a FROM clause. Non-aggregated selected columns appear in GROUP BY.
6. When grouping by an id that has a readable name column, select the name as well.
7. Use ORDER BY and LIMIT only when ranking or top/bottom is implied.
8. If the question cannot be answered, or its time period is ambiguous, output exactly: UNSUPPORTED

Output only the SQL. No markdown, no explanation, no comments.`

// GeneratorConfig holds configuration for the SQL generator.
type GeneratorConfig struct {
	Model model.LLM
	// DatabaseSchema is the DescribeDatabase output (optional)
	DatabaseSchema string
	// SemanticContext is the rendered semantic layer (optional)
	SemanticContext string
}

// Generator turns questions into SQL.
type Generator struct {
	llm    model.LLM
	system string
}

// NewGenerator creates a Generator.
func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	if cfg.Model == nil {
		return nil, errors.New("failed to create SQL generator: model is required")
	}

	system := instruction
	if cfg.DatabaseSchema != "" {
		system += "\n\n## Database Schema\n" + cfg.DatabaseSchema
	}
	if cfg.SemanticContext != "" {
		system += "\n\n## Semantic Layer\n" + cfg.SemanticContext
	}

	return &Generator{llm: cfg.Model, system: system}, nil
}

// Generate returns cleaned SQL for question, or ErrUnsupported.
func (g *Generator) Generate(ctx context.Context, question string) (string, error) {
	reply, err := agents.Complete(ctx, g.llm, agents.Prompt{
		System: g.system,
		User:   question,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate SQL: %w", err)
	}

	query := CleanSQL(reply)
	if strings.EqualFold(query, unsupportedReply) {
		return "", ErrUnsupported
	}
	return query, nil
}
