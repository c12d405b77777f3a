// Package mcp exposes the database tools, the question pipeline and the
// renderers as an MCP server.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	sqlagent "github.com/anuvratrastogi/vizchat/internal/agents/sql"
	"github.com/anuvratrastogi/vizchat/internal/logging"
	"github.com/anuvratrastogi/vizchat/internal/render"
	"github.com/anuvratrastogi/vizchat/internal/render/echarts"
	"github.com/anuvratrastogi/vizchat/internal/render/mermaid"
	"github.com/anuvratrastogi/vizchat/internal/viz"
)

const (
	serverName   = "vizchat"
	defaultLimit = 100
)

// Asker answers a natural language question.
type Asker interface {
	HandleQuery(ctx context.Context, question string) (*viz.Response, error)
}

// Config holds the server collaborators.
type Config struct {
	Database sqlagent.Database
	// Asker is optional; without it ask_question is not registered
	Asker   Asker
	Version string
	// BinCount is the histogram bucket count for render_visualization
	BinCount int
}

// Server wraps the MCP server.
type Server struct {
	server   *server.MCPServer
	db       sqlagent.Database
	asker    Asker
	markdown *render.Registry
	html     *render.Registry
}

// NewServer creates the MCP server and registers its tools.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Database == nil {
		return nil, errors.New("failed to create MCP server: database is required")
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		server:   server.NewMCPServer(serverName, version),
		db:       cfg.Database,
		asker:    cfg.Asker,
		markdown: mermaid.New(mermaid.Options{BinCount: cfg.BinCount}),
		html:     echarts.New(echarts.Options{BinCount: cfg.BinCount}),
	}
	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	queryTool := mcp.NewTool("query_database",
		mcp.WithDescription("Execute a read-only SQL query and return results as JSON"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The SELECT query to execute"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of rows to return (default: 100)"),
		),
	)
	s.server.AddTool(queryTool, s.handleQuery)

	schemaTool := mcp.NewTool("get_schema",
		mcp.WithDescription("Get the schema of a specific table"),
		mcp.WithString("table_name",
			mcp.Required(),
			mcp.Description("The name of the table to get schema for"),
		),
	)
	s.server.AddTool(schemaTool, s.handleGetSchema)

	listTablesTool := mcp.NewTool("list_tables",
		mcp.WithDescription("List all tables in the database"),
	)
	s.server.AddTool(listTablesTool, s.handleListTables)

	describeTool := mcp.NewTool("describe_database",
		mcp.WithDescription("Get an overview of the database structure including all tables and their columns"),
	)
	s.server.AddTool(describeTool, s.handleDescribeDatabase)

	renderTool := mcp.NewTool("render_visualization",
		mcp.WithDescription("Render a visualization spec over rows as Markdown (Mermaid) or HTML (ECharts)"),
		mcp.WithString("visualization",
			mcp.Required(),
			mcp.Description(`Visualization spec as JSON, e.g. {"type":"bar","x":"month","y":"sales"}`),
		),
		mcp.WithString("data",
			mcp.Required(),
			mcp.Description("Rows as a JSON array of objects"),
		),
		mcp.WithString("format",
			mcp.Description("markdown (default) or html"),
			mcp.Enum("markdown", "html"),
		),
	)
	s.server.AddTool(renderTool, s.handleRender)

	if s.asker != nil {
		askTool := mcp.NewTool("ask_question",
			mcp.WithDescription("Answer a business question: generates SQL, runs it, picks a chart and explains the result"),
			mcp.WithString("question",
				mcp.Required(),
				mcp.Description("The question in natural language"),
			),
		)
		s.server.AddTool(askTool, s.handleAsk)
	}
}

func (s *Server) handleQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}
	if !sqlagent.IsReadOnly(query) {
		return mcp.NewToolResultError(sqlagent.ErrNotReadOnly.Error()), nil
	}

	limit := defaultLimit
	if l, ok := args["limit"].(float64); ok && l >= 1 {
		limit = int(l)
	}

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query error: %v", err)), nil
	}
	return jsonResult(rows)
}

func (s *Server) handleGetSchema(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tableName, ok := request.GetArguments()["table_name"].(string)
	if !ok || tableName == "" {
		return mcp.NewToolResultError("table_name parameter is required"), nil
	}

	schema, err := s.db.GetSchema(ctx, tableName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(schema), nil
}

func (s *Server) handleListTables(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tables, err := s.db.ListTables(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(tables), nil
}

func (s *Server) handleDescribeDatabase(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	desc, err := s.db.DescribeDatabase(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(desc), nil
}

func (s *Server) handleRender(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	specJSON, _ := args["visualization"].(string)
	dataJSON, _ := args["data"].(string)
	format, _ := args["format"].(string)

	var spec *viz.Spec
	if err := json.Unmarshal([]byte(specJSON), &spec); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid visualization: %v", err)), nil
	}
	var rows []viz.Row
	if err := json.Unmarshal([]byte(dataJSON), &rows); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid data: %v", err)), nil
	}

	reg := s.markdown
	if format == "html" {
		reg = s.html
	}

	var buf bytes.Buffer
	if err := reg.Draw(&buf, spec, rows); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, ok := request.GetArguments()["question"].(string)
	if !ok || question == "" {
		return mcp.NewToolResultError("question parameter is required"), nil
	}

	resp, err := s.asker.HandleQuery(ctx, question)
	if err != nil {
		logging.Error().
			Add(logging.Component("mcp")).
			Add(logging.ErrorField(err)).
			Msg("ask_question failed")
		return mcp.NewToolResultError(err.Error()), nil
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("json error: %v", err)), nil
	}
	result := &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(payload))},
	}

	var chart bytes.Buffer
	err = s.markdown.Draw(&chart, resp.Visualization, resp.Data)
	switch {
	case err == nil:
		result.Content = append(result.Content, mcp.NewTextContent(chart.String()))
	case !errors.Is(err, render.ErrNothingToRender):
		logging.Warn().
			Add(logging.Component("mcp")).
			Add(logging.RequestID(resp.ID)).
			Add(logging.ErrorField(err)).
			Msg("chart rendering failed")
	}
	return result, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("json error: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// ServeSSE starts the server using the SSE transport on addr.
func (s *Server) ServeSSE(addr string) error {
	return server.NewSSEServer(s.server).Start(addr)
}

// ServeStdio starts the server using stdio transport.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.server)
}
