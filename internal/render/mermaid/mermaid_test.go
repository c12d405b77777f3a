package mermaid

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/anuvratrastogi/vizchat/internal/render"
	"github.com/anuvratrastogi/vizchat/internal/viz"
)

func rows(t *testing.T, objs ...map[string]any) []viz.Row {
	t.Helper()
	out := make([]viz.Row, len(objs))
	for i, o := range objs {
		out[i] = viz.NewRow(o, "month", "region", "label", "sales")
	}
	return out
}

func TestDraw(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		spec     *viz.Spec
		rows     []map[string]any
		contains []string
	}{
		{
			name: "bar",
			spec: &viz.Spec{Type: viz.ChartBar, X: "month", Y: "sales"},
			rows: []map[string]any{{"month": "Jan", "sales": 120.0}, {"month": "Feb", "sales": 80.5}},
			contains: []string{
				"xychart-beta",
				`x-axis ["Jan", "Feb"]`,
				`y-axis "sales" 0 --> 500`,
				"bar [120, 80.5]",
			},
		},
		{
			name:     "area draws a line",
			spec:     &viz.Spec{Type: viz.ChartArea, X: "month", Y: "sales"},
			rows:     []map[string]any{{"month": "Jan", "sales": 100.0}},
			contains: []string{"line [100]"},
		},
		{
			name: "histogram",
			spec: &viz.Spec{Type: viz.ChartHistogram, Value: "sales"},
			rows: []map[string]any{{"sales": 0.0}, {"sales": 10.0}, {"sales": 20.0}, {"sales": nil}},
			contains: []string{
				`x-axis ["0 - 2", "2 - 4"`,
				"_1 rows without sales_",
			},
		},
		{
			name: "grouped bar",
			spec: &viz.Spec{Type: viz.ChartGroupedBar, X: "month", Y: "sales", Group: "region"},
			rows: []map[string]any{
				{"month": "Jan", "region": "North", "sales": 1.0},
				{"month": "Jan", "region": "South", "sales": 2.0},
				{"month": "Feb", "region": "North", "sales": 3.0},
			},
			contains: []string{
				`x-axis ["Jan", "Feb"]`,
				"bar [1, 3]",
				"bar [2, 0]",
				"Series: North, South",
			},
		},
		{
			name:     "kpi uses explicit value",
			spec:     &viz.Spec{Type: viz.ChartKPI, Value: "sales", Label: "label"},
			rows:     []map[string]any{{"label": "Revenue", "sales": 1500.0}},
			contains: []string{"**Revenue:** 1500"},
		},
		{
			name:     "kpi falls back to second column",
			spec:     &viz.Spec{Type: viz.ChartKPI},
			rows:     []map[string]any{{"label": "Revenue", "sales": 99.0}},
			contains: []string{"**Value:** 99"},
		},
		{
			name: "table",
			spec: &viz.Spec{Type: viz.ChartTable},
			rows: []map[string]any{{"month": "Jan", "sales": 1.0}, {"month": "a|b", "sales": nil}},
			contains: []string{
				"| month | sales |",
				"| --- | --- |",
				"| Jan | 1 |",
				`| a\|b |  |`,
			},
		},
	}

	reg := New(Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			if err := reg.Draw(&buf, tt.spec, rows(t, tt.rows...)); err != nil {
				t.Fatalf("Draw() error = %v", err)
			}
			out := buf.String()
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestDraw_NothingToRender(t *testing.T) {
	t.Parallel()

	reg := New(Options{})
	var buf bytes.Buffer
	err := reg.Draw(&buf, &viz.Spec{Type: viz.ChartBar, X: "month", Y: "sales"},
		rows(t, map[string]any{"month": "Jan", "sales": nil}))
	if !errors.Is(err, render.ErrNothingToRender) {
		t.Fatalf("Draw() error = %v, want ErrNothingToRender", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Draw() wrote %q for a rejected spec", buf.String())
	}
}

func TestDraw_HistogramNonNumeric(t *testing.T) {
	t.Parallel()

	reg := New(Options{BinCount: 3})
	err := reg.Draw(&bytes.Buffer{}, &viz.Spec{Type: viz.ChartHistogram, Value: "sales"},
		rows(t, map[string]any{"sales": 1.0}, map[string]any{"sales": "lots"}))

	var herr *render.HistogramError
	if !errors.As(err, &herr) {
		t.Fatalf("Draw() error = %v, want *HistogramError", err)
	}
	if !errors.Is(err, viz.ErrNonNumericValue) {
		t.Errorf("error %v does not wrap ErrNonNumericValue", err)
	}
}

func TestRoundUpNice(t *testing.T) {
	t.Parallel()

	tests := map[float64]float64{
		0:    10,
		10:   10,
		11:   50,
		99:   100,
		450:  500,
		1000: 1000,
		1001: 2000,
		4500: 5000,
	}
	for in, want := range tests {
		if got := roundUpNice(in); got != want {
			t.Errorf("roundUpNice(%v) = %v, want %v", in, got, want)
		}
	}
}
