package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/anuvratrastogi/vizchat/internal/viz"
)

// HistogramError is returned when a histogram leaf cannot bin its values.
type HistogramError struct {
	Err error
}

func (e *HistogramError) Error() string {
	return "cannot render histogram: " + e.Err.Error()
}

func (e *HistogramError) Unwrap() error { return e.Err }

// ValueError reports a y value that is not a number.
type ValueError struct {
	Row   int
	Key   string
	Value any
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("row %d: %s = %v is not a number", e.Row, e.Key, e.Value)
}

// Histogram is the binned dataset drawn by histogram leaves.
type Histogram struct {
	Bins    []viz.Bin
	Missing int
}

// BinHistogram bins req.Rows under the value field.
func BinHistogram(req *viz.RenderRequest, binCount int) (*Histogram, error) {
	if binCount < 1 {
		binCount = viz.DefaultBinCount
	}
	bins, err := viz.ComputeBins(req.Rows, req.Fields.Value, binCount)
	if err != nil {
		return nil, &HistogramError{Err: err}
	}
	return &Histogram{
		Bins:    bins,
		Missing: viz.CountMissing(req.Rows, req.Fields.Value),
	}, nil
}

// Labels returns the bin ranges.
func (h *Histogram) Labels() []string {
	out := make([]string, len(h.Bins))
	for i, b := range h.Bins {
		out[i] = b.Range
	}
	return out
}

// Counts returns the bin counts as floats.
func (h *Histogram) Counts() []float64 {
	out := make([]float64, len(h.Bins))
	for i, b := range h.Bins {
		out[i] = float64(b.Count)
	}
	return out
}

// XY extracts x labels and numeric y values in row order.
func XY(req *viz.RenderRequest) ([]string, []float64, error) {
	labels := make([]string, len(req.Rows))
	values := make([]float64, len(req.Rows))
	for i, row := range req.Rows {
		x, _ := row.Get(req.Fields.X)
		labels[i] = viz.FormatValue(x)

		y, _ := row.Get(req.Fields.Y)
		f, ok := Number(y)
		if !ok {
			return nil, nil, &ValueError{Row: i, Key: req.Fields.Y, Value: y}
		}
		values[i] = f
	}
	return labels, values, nil
}

// Series is one named group of a grouped bar chart.
type Series struct {
	Name   string
	Values []float64
}

// GroupedSeries pivots rows into one series per distinct group value. Both
// categories and series keep first-seen order; a missing (x, group) pair is 0
// and repeated pairs are summed.
func GroupedSeries(req *viz.RenderRequest) ([]string, []Series, error) {
	for i, row := range req.Rows {
		y, _ := row.Get(req.Fields.Y)
		if _, ok := Number(y); !ok {
			return nil, nil, &ValueError{Row: i, Key: req.Fields.Y, Value: y}
		}
	}

	categories := viz.Distinct(req.Rows, req.Fields.X)
	catIndex := make(map[string]int, len(categories))
	for i, c := range categories {
		catIndex[c] = i
	}

	groups := viz.GroupBy(req.Rows, req.Fields.Group)
	series := make([]Series, len(groups))
	for gi, g := range groups {
		s := Series{Name: g.Label, Values: make([]float64, len(categories))}
		for _, row := range g.Rows {
			x, _ := row.Get(req.Fields.X)
			y, _ := row.Get(req.Fields.Y)
			f, _ := Number(y)
			s.Values[catIndex[viz.FormatValue(x)]] += f
		}
		series[gi] = s
	}
	return categories, series, nil
}

// KPI returns the caption and value for a single-value card. The value column
// is Fields.Value when the first row has it, otherwise the second column of
// the first row, or the only column.
func KPI(req *viz.RenderRequest) (string, any) {
	first := req.Rows[0]
	label := "Value"
	if req.Fields.Label != "" {
		if v, ok := first.Get(req.Fields.Label); ok && v != nil {
			label = viz.FormatValue(v)
		}
	}

	if req.Fields.Value != "" {
		if v, ok := first.Get(req.Fields.Value); ok {
			return label, v
		}
	}
	switch first.Len() {
	case 0:
		return label, nil
	case 1:
		_, v := first.At(0)
		return label, v
	default:
		_, v := first.At(1)
		return label, v
	}
}

// TableColumns returns the header for a table request.
func TableColumns(req *viz.RenderRequest) []string {
	if len(req.Columns) > 0 {
		return req.Columns
	}
	return req.Rows[0].Keys()
}

// TableCells formats every row under columns.
func TableCells(req *viz.RenderRequest, columns []string) [][]string {
	cells := make([][]string, len(req.Rows))
	for i, row := range req.Rows {
		line := make([]string, len(columns))
		for j, col := range columns {
			v, _ := row.Get(col)
			line[j] = viz.FormatValue(v)
		}
		cells[i] = line
	}
	return cells
}

// Number converts a scalar to float64, also accepting numeric strings as
// returned for NUMERIC columns by some drivers.
func Number(v any) (float64, bool) {
	if f, ok := viz.ToFloat(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return 0, false
}
