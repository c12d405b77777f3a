package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (a *App) newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Ask questions interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.bootstrap(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			fmt.Fprintln(a.stdout, "vizchat")
			fmt.Fprintln(a.stdout, "=======")
			fmt.Fprintln(a.stdout, "Type your questions below. Type 'quit' or 'exit' to stop.")
			fmt.Fprintln(a.stdout, "Examples:")
			fmt.Fprintln(a.stdout, "  - What is the total revenue?")
			fmt.Fprintln(a.stdout, "  - Show monthly sales over time")
			fmt.Fprintln(a.stdout, "  - Compare sales per customer")
			fmt.Fprintln(a.stdout)

			scanner := bufio.NewScanner(a.stdin)
			for {
				fmt.Fprint(a.stdout, "You: ")
				if !scanner.Scan() {
					break
				}

				input := strings.TrimSpace(scanner.Text())
				if input == "" {
					continue
				}
				if input == "quit" || input == "exit" {
					fmt.Fprintln(a.stdout, "Goodbye!")
					break
				}

				resp, err := svc.pipeline.HandleQuery(ctx, input)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					fmt.Fprintf(a.stdout, "Error: %v\n\n", err)
					continue
				}
				if err := printResponse(a.stdout, resp, svc.cfg.HistogramBins); err != nil {
					fmt.Fprintf(a.stdout, "Could not draw chart: %v\n", err)
				}
				fmt.Fprintln(a.stdout)
			}
			return scanner.Err()
		},
	}
}
