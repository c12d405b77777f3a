package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (a *App) newAskCmd() *cobra.Command {
	var (
		htmlPath string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.bootstrap(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			resp, err := svc.pipeline.HandleQuery(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(resp); err != nil {
					return err
				}
			} else if err := printResponse(a.stdout, resp, svc.cfg.HistogramBins); err != nil {
				return err
			}

			if htmlPath != "" {
				written, err := writeHTML(htmlPath, resp, svc.cfg.HistogramBins)
				if err != nil {
					return err
				}
				if written {
					fmt.Fprintf(a.stderr, "Chart written to %s\n", htmlPath)
				} else {
					fmt.Fprintln(a.stderr, "No visualization to render.")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&htmlPath, "html", "", "also write the chart as an HTML page to this file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full response as JSON")
	return cmd
}
