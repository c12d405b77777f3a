// Package echarts renders visualizations as standalone HTML pages. Charts are
// drawn with go-echarts; KPI cards and tables use html/template.
package echarts

import (
	"html/template"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/anuvratrastogi/vizchat/internal/render"
	"github.com/anuvratrastogi/vizchat/internal/viz"
)

const (
	chartColor  = "#4f46e5"
	chartWidth  = "100%"
	chartHeight = "350px"
)

// Options configures the HTML leaves.
type Options struct {
	// Title is shown above every chart.
	Title string
	// BinCount is the number of histogram buckets; zero means viz.DefaultBinCount.
	BinCount int
}

// New returns a registry with an HTML leaf for every renderer kind.
func New(o Options) *render.Registry {
	return render.NewRegistry("html").
		Register(viz.RendererBar, barRenderer{o}).
		Register(viz.RendererLine, lineRenderer{o, false}).
		Register(viz.RendererArea, lineRenderer{o, true}).
		Register(viz.RendererHistogram, histogramRenderer{o}).
		Register(viz.RendererGroupedBar, groupedBarRenderer{o}).
		Register(viz.RendererKPI, kpiRenderer{o}).
		Register(viz.RendererTable, tableRenderer{o})
}

func globalOpts(title, xName, yName string, legend bool) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(legend),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: xName,
			Type: "category",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: yName,
			Type: "value",
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Width:  chartWidth,
			Height: chartHeight,
		}),
	}
}

type barRenderer struct{ Options }

func (r barRenderer) Render(w io.Writer, req *viz.RenderRequest) error {
	labels, values, err := render.XY(req)
	if err != nil {
		return err
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOpts(r.Title, req.Fields.X, req.Fields.Y, false)...)
	bar.SetXAxis(labels).AddSeries(req.Fields.Y, barData(values),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: chartColor}),
	)
	return bar.Render(w)
}

type lineRenderer struct {
	Options
	area bool
}

func (r lineRenderer) Render(w io.Writer, req *viz.RenderRequest) error {
	labels, values, err := render.XY(req)
	if err != nil {
		return err
	}
	data := make([]opts.LineData, len(values))
	for i, v := range values {
		data[i] = opts.LineData{Value: v}
	}

	series := []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{
			Smooth:     opts.Bool(r.area),
			ShowSymbol: opts.Bool(true),
		}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: chartColor}),
	}
	if r.area {
		series = append(series, charts.WithAreaStyleOpts(opts.AreaStyle{
			Opacity: 0.4,
		}))
	}

	line := charts.NewLine()
	line.SetGlobalOptions(globalOpts(r.Title, req.Fields.X, req.Fields.Y, false)...)
	line.SetXAxis(labels).AddSeries(req.Fields.Y, data, series...)
	return line.Render(w)
}

type histogramRenderer struct{ Options }

func (r histogramRenderer) Render(w io.Writer, req *viz.RenderRequest) error {
	hist, err := render.BinHistogram(req, r.BinCount)
	if err != nil {
		return err
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOpts(r.Title, req.Fields.Value, "count", false)...)
	bar.SetXAxis(hist.Labels()).AddSeries("count", barData(hist.Counts()),
		charts.WithBarChartOpts(opts.BarChart{BarGap: "10%"}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: chartColor}),
	)
	return bar.Render(w)
}

type groupedBarRenderer struct{ Options }

func (r groupedBarRenderer) Render(w io.Writer, req *viz.RenderRequest) error {
	categories, series, err := render.GroupedSeries(req)
	if err != nil {
		return err
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOpts(r.Title, req.Fields.X, req.Fields.Y, true)...)
	bar.SetXAxis(categories)

	stack := ""
	if req.Stacked {
		stack = "stack"
	}
	for _, s := range series {
		bar.AddSeries(s.Name, barData(s.Values),
			charts.WithBarChartOpts(opts.BarChart{Stack: stack}),
		)
	}
	return bar.Render(w)
}

func barData(values []float64) []opts.BarData {
	data := make([]opts.BarData, len(values))
	for i, v := range values {
		data[i] = opts.BarData{Value: v}
	}
	return data
}

var kpiTemplate = template.Must(template.New("kpi").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<div class="kpi-card">
  <h3>{{.Label}}</h3>
  <h1>{{.Value}}</h1>
</div>
</body></html>
`))

var tableTemplate = template.Must(template.New("table").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<table style="margin-top: 20px; width: 100%; border-collapse: collapse">
  <thead><tr>{{range .Columns}}<th style="border-bottom: 1px solid #ccc; text-align: left">{{.}}</th>{{end}}</tr></thead>
  <tbody>
{{- range .Rows}}
    <tr>{{range .}}<td style="padding: 6px 0">{{.}}</td>{{end}}</tr>
{{- end}}
  </tbody>
</table>
</body></html>
`))

type kpiRenderer struct{ Options }

func (r kpiRenderer) Render(w io.Writer, req *viz.RenderRequest) error {
	label, value := render.KPI(req)
	return kpiTemplate.Execute(w, map[string]any{
		"Title": r.Title,
		"Label": label,
		"Value": viz.FormatValue(value),
	})
}

type tableRenderer struct{ Options }

func (r tableRenderer) Render(w io.Writer, req *viz.RenderRequest) error {
	columns := render.TableColumns(req)
	return tableTemplate.Execute(w, map[string]any{
		"Title":   r.Title,
		"Columns": columns,
		"Rows":    render.TableCells(req, columns),
	})
}
