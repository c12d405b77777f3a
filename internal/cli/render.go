package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/anuvratrastogi/vizchat/config"
	"github.com/anuvratrastogi/vizchat/internal/render"
	"github.com/anuvratrastogi/vizchat/internal/render/echarts"
	"github.com/anuvratrastogi/vizchat/internal/render/mermaid"
	"github.com/anuvratrastogi/vizchat/internal/viz"
)

func (a *App) newRenderCmd() *cobra.Command {
	var (
		format  string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "render <response.json>",
		Short: "Render a saved response without touching the database",
		Long: `Render reads a response ({"answer", "visualization", "data"}) from a file,
or from stdin when the path is "-", and draws its visualization. A spec that
does not fit its data renders nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.New()
			a.initLogging(cfg)

			resp, err := a.readResponse(args[0])
			if err != nil {
				return err
			}

			var reg *render.Registry
			switch format {
			case "markdown", "md":
				reg = mermaid.New(mermaid.Options{BinCount: cfg.HistogramBins})
			case "html":
				reg = echarts.New(echarts.Options{Title: resp.Answer, BinCount: cfg.HistogramBins})
			default:
				return fmt.Errorf("unknown format %q (want markdown or html)", format)
			}

			var buf bytes.Buffer
			err = reg.Draw(&buf, resp.Visualization, resp.Data)
			if errors.Is(err, render.ErrNothingToRender) {
				fmt.Fprintln(a.stderr, "No visualization to render.")
				return nil
			}
			if err != nil {
				return err
			}

			if outPath == "" {
				_, err = buf.WriteTo(a.stdout)
				return err
			}
			if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outPath, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "output format: markdown or html")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to this file instead of stdout")
	return cmd
}

func (a *App) readResponse(path string) (*viz.Response, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(a.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp viz.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &resp, nil
}
