package cli

import (
	"github.com/spf13/cobra"

	"github.com/anuvratrastogi/vizchat/internal/logging"
	"github.com/anuvratrastogi/vizchat/internal/mcp"
)

func (a *App) newMCPCmd() *cobra.Command {
	var sse bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the database, question and render tools over MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			srv, err := mcp.NewServer(mcp.Config{
				Database: svc.db,
				Asker:    svc.pipeline,
				Version:  Version,
				BinCount: svc.cfg.HistogramBins,
			})
			if err != nil {
				return err
			}

			if sse {
				logging.Info().
					Add(logging.Component("mcp")).
					Add(logging.Str("addr", svc.cfg.MCPServerAddr)).
					Msg("serving MCP over SSE")
				return srv.ServeSSE(svc.cfg.MCPServerAddr)
			}
			logging.Info().Add(logging.Component("mcp")).Msg("serving MCP over stdio")
			return srv.ServeStdio()
		},
	}

	cmd.Flags().BoolVar(&sse, "sse", false, "serve over SSE on MCP_SERVER_ADDR instead of stdio")
	return cmd
}
