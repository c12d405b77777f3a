package sql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"

	"github.com/anuvratrastogi/vizchat/internal/viz"
)

// Database is what the pipeline and the MCP server need from PostgreSQL.
type Database interface {
	Query(ctx context.Context, query string, limit int) ([]viz.Row, error)
	GetSchema(ctx context.Context, tableName string) (string, error)
	ListTables(ctx context.Context) (string, error)
	DescribeDatabase(ctx context.Context) (string, error)
}

// Client is a PostgreSQL client returning normalized rows.
type Client struct {
	db *sql.DB
}

var _ Database = (*Client)(nil)

// NewClient connects to databaseURL and pings it.
func NewClient(ctx context.Context, databaseURL string) (*Client, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{db: db}, nil
}

// Query executes a SQL query and returns rows in column order.
func (c *Client) Query(ctx context.Context, query string, limit int) ([]viz.Row, error) {
	rows, err := c.db.QueryContext(ctx, WithLimit(query, limit))
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}
	dbTypes := make([]string, len(types))
	for i, ct := range types {
		dbTypes[i] = ct.DatabaseTypeName()
	}

	results := []viz.Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}

		var row viz.Row
		for i, col := range columns {
			row.Set(col, Normalize(values[i], dbTypes[i]))
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return results, nil
}

var limitClause = regexp.MustCompile(`(?i)\bLIMIT\b`)

// WithLimit appends LIMIT to a SELECT or WITH query that has none and strips a
// trailing semicolon.
func WithLimit(query string, limit int) string {
	query = strings.TrimSuffix(strings.TrimSpace(query), ";")
	if limit <= 0 {
		return query
	}
	queryUpper := strings.ToUpper(query)
	if (strings.HasPrefix(queryUpper, "SELECT") || strings.HasPrefix(queryUpper, "WITH")) &&
		!limitClause.MatchString(query) {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}
	return query
}

// GetSchema returns the schema of a table as JSON.
func (c *Client) GetSchema(ctx context.Context, tableName string) (string, error) {
	query := `
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_name = $1
		ORDER BY ordinal_position
	`

	rows, err := c.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return "", fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	type column struct {
		Name     string `json:"column_name"`
		DataType string `json:"data_type"`
		Nullable bool   `json:"nullable"`
		Default  string `json:"default,omitempty"`
	}

	schema := []column{}
	for rows.Next() {
		var columnName, dataType, isNullable string
		var columnDefault sql.NullString

		if err := rows.Scan(&columnName, &dataType, &isNullable, &columnDefault); err != nil {
			return "", fmt.Errorf("scan error: %w", err)
		}
		schema = append(schema, column{
			Name:     columnName,
			DataType: dataType,
			Nullable: isNullable == "YES",
			Default:  columnDefault.String,
		})
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("row iteration error: %w", err)
	}

	return marshal(schema)
}

// ListTables returns the public tables as a JSON array.
func (c *Client) ListTables(ctx context.Context) (string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return "", fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return "", fmt.Errorf("scan error: %w", err)
		}
		tables = append(tables, tableName)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("row iteration error: %w", err)
	}

	return marshal(tables)
}

// TableDescription is one entry of DescribeDatabase.
type TableDescription struct {
	Table   string   `json:"table"`
	Columns []string `json:"columns"`
}

// DescribeDatabase returns every public table with its "name type" columns as JSON.
func (c *Client) DescribeDatabase(ctx context.Context) (string, error) {
	query := `
		SELECT
			t.table_name,
			array_agg(c.column_name || ' ' || c.data_type ORDER BY c.ordinal_position) AS columns
		FROM information_schema.tables t
		JOIN information_schema.columns c ON t.table_name = c.table_name AND t.table_schema = c.table_schema
		WHERE t.table_schema = 'public'
		GROUP BY t.table_name
		ORDER BY t.table_name
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return "", fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	tables := []TableDescription{}
	for rows.Next() {
		var td TableDescription
		if err := rows.Scan(&td.Table, pq.Array(&td.Columns)); err != nil {
			return "", fmt.Errorf("scan error: %w", err)
		}
		tables = append(tables, td)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("row iteration error: %w", err)
	}

	return marshal(tables)
}

// Close closes the database connection.
func (c *Client) Close() error {
	return c.db.Close()
}

func marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("json error: %w", err)
	}
	return string(b), nil
}
