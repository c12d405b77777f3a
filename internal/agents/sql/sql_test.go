package sql

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/anuvratrastogi/vizchat/internal/agents/agentstest"
)

func TestWithLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"SELECT * FROM sales", 100, "SELECT * FROM sales LIMIT 100"},
		{"select * from sales;", 50, "select * from sales LIMIT 50"},
		{"SELECT * FROM sales LIMIT 5", 100, "SELECT * FROM sales LIMIT 5"},
		{"WITH t AS (SELECT 1) SELECT * FROM t", 10, "WITH t AS (SELECT 1) SELECT * FROM t LIMIT 10"},
		{"SELECT 1", 0, "SELECT 1"},
		{"EXPLAIN SELECT 1", 10, "EXPLAIN SELECT 1"},
		{"SELECT name, credit_limit FROM customers", 20, "SELECT name, credit_limit FROM customers LIMIT 20"},
		{"select * from sales limit 3", 20, "select * from sales limit 3"},
	}

	for _, tt := range tests {
		if got := WithLimit(tt.in, tt.limit); got != tt.want {
			t.Errorf("WithLimit(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	tests := []struct {
		name   string
		in     any
		dbType string
		want   any
	}{
		{"nil", nil, "TEXT", nil},
		{"text bytes", []byte("North"), "TEXT", "North"},
		{"numeric bytes", []byte("1234.50"), "NUMERIC", 1234.5},
		{"bad numeric stays text", []byte("NaN?"), "NUMERIC", "NaN?"},
		{"int8 text", "42", "INT8", int64(42)},
		{"int32", int32(7), "INT4", int64(7)},
		{"float32", float32(1.5), "FLOAT4", 1.5},
		{"date", ts, "DATE", "2024-03-05"},
		{"timestamp", ts, "TIMESTAMPTZ", "2024-03-05T14:30:00Z"},
		{"bool", true, "BOOL", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.in, tt.dbType); got != tt.want {
				t.Errorf("Normalize(%v, %s) = %#v, want %#v", tt.in, tt.dbType, got, tt.want)
			}
		})
	}
}

func TestCleanSQL(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{"SELECT 1", "SELECT 1"},
		{"  SELECT 1 \n", "SELECT 1"},
		{"```sql\nSELECT 1\n```", "SELECT 1"},
		{"```SQL\nSELECT *\nFROM sales\n```", "SELECT *\nFROM sales"},
		{"```\nSELECT 2\n```", "SELECT 2"},
	}
	for _, tt := range tests {
		if got := CleanSQL(tt.in); got != tt.want {
			t.Errorf("CleanSQL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsReadOnly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query string
		want  bool
	}{
		{"SELECT * FROM sales", true},
		{"select created_at, updated_by from sales;", true},
		{"WITH m AS (SELECT 1) SELECT * FROM m", true},
		{"DELETE FROM sales", false},
		{"SELECT 1; DROP TABLE sales", false},
		{"WITH d AS (DELETE FROM sales RETURNING *) SELECT * FROM d", false},
		{"UPDATE sales SET total_amount = 0", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsReadOnly(tt.query); got != tt.want {
			t.Errorf("IsReadOnly(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
	if err := Guard("DROP TABLE x"); !errors.Is(err, ErrNotReadOnly) {
		t.Errorf("Guard() = %v, want ErrNotReadOnly", err)
	}
}

func TestGenerator(t *testing.T) {
	t.Parallel()

	llm := &agentstest.LLM{Replies: []string{"```sql\nSELECT SUM(amount) FROM sales_items\n```"}}
	gen, err := NewGenerator(GeneratorConfig{
		Model:           llm,
		DatabaseSchema:  `[{"table":"sales_items"}]`,
		SemanticContext: "metric revenue = SUM(amount)",
	})
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	got, err := gen.Generate(context.Background(), "total revenue?")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "SELECT SUM(amount) FROM sales_items" {
		t.Errorf("Generate() = %q", got)
	}

	system, user := agentstest.Text(llm.Requests()[0])
	for _, want := range []string{"## Database Schema", "sales_items", "## Semantic Layer", "SUM(amount)"} {
		if !strings.Contains(system, want) {
			t.Errorf("system instruction missing %q", want)
		}
	}
	if user != "total revenue?" {
		t.Errorf("user message = %q", user)
	}
}

func TestGenerator_Unsupported(t *testing.T) {
	t.Parallel()

	gen, err := NewGenerator(GeneratorConfig{Model: &agentstest.LLM{Replies: []string{" unsupported "}}})
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	if _, err := gen.Generate(context.Background(), "profit margin?"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Generate() error = %v, want ErrUnsupported", err)
	}
}

func TestNewGenerator_RequiresModel(t *testing.T) {
	t.Parallel()

	if _, err := NewGenerator(GeneratorConfig{}); err == nil {
		t.Error("NewGenerator() without a model should fail")
	}
}
