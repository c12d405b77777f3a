// Package mermaid renders visualizations as Markdown: Mermaid xychart blocks
// for charts, a bold line for KPIs and a pipe table for tables.
package mermaid

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/anuvratrastogi/vizchat/internal/render"
	"github.com/anuvratrastogi/vizchat/internal/viz"
)

// Options configures the Markdown leaves.
type Options struct {
	// BinCount is the number of histogram buckets; zero means viz.DefaultBinCount.
	BinCount int
}

// New returns a registry with a Markdown leaf for every renderer kind.
func New(opts Options) *render.Registry {
	return render.NewRegistry("markdown").
		Register(viz.RendererBar, render.RendererFunc(barChart)).
		Register(viz.RendererLine, render.RendererFunc(lineChart)).
		Register(viz.RendererArea, render.RendererFunc(lineChart)).
		Register(viz.RendererHistogram, histogram{bins: opts.BinCount}).
		Register(viz.RendererGroupedBar, render.RendererFunc(groupedBarChart)).
		Register(viz.RendererKPI, render.RendererFunc(kpi)).
		Register(viz.RendererTable, render.RendererFunc(table))
}

type plot struct {
	kind   string // bar or line
	values []float64
}

func barChart(w io.Writer, req *viz.RenderRequest) error {
	labels, values, err := render.XY(req)
	if err != nil {
		return err
	}
	return writeXYChart(w, title(req.Fields.Y, req.Fields.X), labels, req.Fields.Y, plot{"bar", values})
}

func lineChart(w io.Writer, req *viz.RenderRequest) error {
	labels, values, err := render.XY(req)
	if err != nil {
		return err
	}
	return writeXYChart(w, title(req.Fields.Y, req.Fields.X), labels, req.Fields.Y, plot{"line", values})
}

type histogram struct {
	bins int
}

func (h histogram) Render(w io.Writer, req *viz.RenderRequest) error {
	hist, err := render.BinHistogram(req, h.bins)
	if err != nil {
		return err
	}
	if err := writeXYChart(w, "Distribution of "+req.Fields.Value, hist.Labels(), "Count", plot{"bar", hist.Counts()}); err != nil {
		return err
	}
	if hist.Missing > 0 {
		_, err = fmt.Fprintf(w, "\n_%d rows without %s_\n", hist.Missing, req.Fields.Value)
	}
	return err
}

// groupedBarChart draws one bar line per group. xychart has no legend or
// stacking, so series names are listed underneath.
func groupedBarChart(w io.Writer, req *viz.RenderRequest) error {
	categories, series, err := render.GroupedSeries(req)
	if err != nil {
		return err
	}
	plots := make([]plot, len(series))
	names := make([]string, len(series))
	for i, s := range series {
		plots[i] = plot{"bar", s.Values}
		names[i] = s.Name
	}
	if err := writeXYChart(w, title(req.Fields.Y, req.Fields.X)+" per "+req.Fields.Group, categories, req.Fields.Y, plots...); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "\nSeries: %s\n", strings.Join(names, ", "))
	return err
}

func kpi(w io.Writer, req *viz.RenderRequest) error {
	label, value := render.KPI(req)
	_, err := fmt.Fprintf(w, "**%s:** %s\n", label, viz.FormatValue(value))
	return err
}

func table(w io.Writer, req *viz.RenderRequest) error {
	columns := render.TableColumns(req)
	var b strings.Builder
	b.WriteString("| " + strings.Join(escapeCells(columns), " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(columns)) + "\n")
	for _, line := range render.TableCells(req, columns) {
		b.WriteString("| " + strings.Join(escapeCells(line), " | ") + " |\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeXYChart(w io.Writer, chartTitle string, labels []string, yAxisLabel string, plots ...plot) error {
	lo, hi := 0.0, 0.0
	for _, p := range plots {
		for _, v := range p.values {
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	hi = roundUpNice(hi)
	if lo < 0 {
		lo = -roundUpNice(-lo)
	}

	var b strings.Builder
	b.WriteString("```mermaid\nxychart-beta\n")
	fmt.Fprintf(&b, "    title %q\n", chartTitle)
	fmt.Fprintf(&b, "    x-axis [%s]\n", strings.Join(quoteLabels(labels), ", "))
	fmt.Fprintf(&b, "    y-axis %q %s --> %s\n", yAxisLabel, formatNumber(lo), formatNumber(hi))
	for _, p := range plots {
		fmt.Fprintf(&b, "    %s [%s]\n", p.kind, joinFloats(p.values))
	}
	b.WriteString("```\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func title(y, x string) string {
	return fmt.Sprintf("%s by %s", y, x)
}

func quoteLabels(labels []string) []string {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = strconv.Quote(l)
	}
	return quoted
}

func joinFloats(data []float64) string {
	strs := make([]string, len(data))
	for i, v := range data {
		strs[i] = formatNumber(v)
	}
	return strings.Join(strs, ", ")
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func escapeCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	return out
}

// roundUpNice picks an axis maximum at or above val.
func roundUpNice(val float64) float64 {
	switch {
	case val <= 10:
		return 10
	case val <= 50:
		return 50
	case val <= 100:
		return 100
	case val <= 500:
		return 500
	case val <= 1000:
		return 1000
	}
	return float64(int(val/1000)+1) * 1000
}
