package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/anuvratrastogi/vizchat/internal/render"
	"github.com/anuvratrastogi/vizchat/internal/render/echarts"
	"github.com/anuvratrastogi/vizchat/internal/render/mermaid"
	"github.com/anuvratrastogi/vizchat/internal/viz"
)

// printResponse writes the answer, the Markdown chart and the SQL.
func printResponse(w io.Writer, resp *viz.Response, bins int) error {
	fmt.Fprintf(w, "\n%s\n", resp.Answer)
	if resp.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", resp.Error)
	}

	fmt.Fprintln(w)
	err := mermaid.New(mermaid.Options{BinCount: bins}).Draw(w, resp.Visualization, resp.Data)
	if err != nil && !errors.Is(err, render.ErrNothingToRender) {
		return err
	}

	if resp.SQL != "" {
		fmt.Fprintf(w, "\nSQL: %s\n", resp.SQL)
	}
	fmt.Fprintf(w, "Confidence: %.2f\n", resp.Confidence)
	return nil
}

// writeHTML renders resp as a standalone ECharts page at path. It reports
// false without touching path when there is nothing to render.
func writeHTML(path string, resp *viz.Response, bins int) (bool, error) {
	var buf bytes.Buffer
	err := echarts.New(echarts.Options{Title: resp.Answer, BinCount: bins}).Draw(&buf, resp.Visualization, resp.Data)
	if errors.Is(err, render.ErrNothingToRender) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}
