package viz

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
)

func row(kv ...any) Row {
	var r Row
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i].(string), kv[i+1])
	}
	return r
}

func TestIsRenderable(t *testing.T) {
	t.Parallel()

	complete := []Row{row("a", 1.0, "b", 2.0)}
	withNull := []Row{row("a", 1.0, "b", nil)}
	missing := []Row{row("a", 1.0)}

	tests := []struct {
		name string
		spec *Spec
		rows []Row
		want bool
	}{
		{"nil spec", nil, complete, false},
		{"missing type", &Spec{X: "a", Y: "b"}, complete, false},
		{"nil rows", &Spec{Type: ChartTable}, nil, false},
		{"empty rows", &Spec{Type: ChartKPI}, []Row{}, false},
		{"kpi", &Spec{Type: ChartKPI}, []Row{row("a", 1.0)}, true},
		{"table", &Spec{Type: ChartTable}, missing, true},
		{"bar complete", &Spec{Type: ChartBar, X: "a", Y: "b"}, complete, true},
		{"bar null y", &Spec{Type: ChartBar, X: "a", Y: "b"}, withNull, false},
		{"line missing y", &Spec{Type: ChartLine, X: "a", Y: "b"}, missing, false},
		{"area without x", &Spec{Type: ChartArea, Y: "b"}, complete, false},
		{"area complete", &Spec{Type: ChartArea, X: "a", Y: "b"}, complete, true},
		{"histogram without value", &Spec{Type: ChartHistogram}, complete, false},
		{"histogram tolerates nulls", &Spec{Type: ChartHistogram, Value: "b"}, withNull, true},
		{"grouped bar complete", &Spec{Type: ChartGroupedBar, X: "a", Y: "b", Group: "g"}, []Row{row("a", "x", "b", 1.0, "g", "p")}, true},
		{"grouped bar without group", &Spec{Type: ChartGroupedBar, X: "a", Y: "b"}, complete, false},
		{"grouped bar null group", &Spec{Type: ChartGroupedBar, X: "a", Y: "b", Group: "g"}, []Row{row("a", "x", "b", 1.0, "g", nil)}, false},
		{"empty", &Spec{Type: ChartEmpty}, complete, false},
		{"unknown", &Spec{Type: "foo", X: "a", Y: "b"}, complete, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsRenderable(tt.spec, tt.rows); got != tt.want {
				t.Errorf("IsRenderable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRenderable_RejectsEmptyRowsForEveryType(t *testing.T) {
	t.Parallel()

	for _, ct := range []ChartType{ChartBar, ChartLine, ChartArea, ChartHistogram, ChartKPI, ChartTable, ChartGroupedBar, ChartEmpty} {
		spec := &Spec{Type: ct, X: "a", Y: "b", Value: "a", Group: "g"}
		if IsRenderable(spec, nil) {
			t.Errorf("IsRenderable(%s, nil) = true", ct)
		}
		if IsRenderable(spec, []Row{}) {
			t.Errorf("IsRenderable(%s, []) = true", ct)
		}
	}
}

func TestSelectRenderer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		chart ChartType
		want  RendererKind
		ok    bool
	}{
		{ChartBar, RendererBar, true},
		{ChartLine, RendererLine, true},
		{ChartArea, RendererArea, true},
		{ChartHistogram, RendererHistogram, true},
		{ChartKPI, RendererKPI, true},
		{ChartTable, RendererTable, true},
		{ChartGroupedBar, RendererGroupedBar, true},
		{ChartEmpty, "", false},
		{"pie", "", false},
	}

	for _, tt := range tests {
		got, ok := SelectRenderer(&Spec{Type: tt.chart})
		if got != tt.want || ok != tt.ok {
			t.Errorf("SelectRenderer(%s) = (%q, %v), want (%q, %v)", tt.chart, got, ok, tt.want, tt.ok)
		}
	}

	if _, ok := SelectRenderer(nil); ok {
		t.Error("SelectRenderer(nil) should select nothing")
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	t.Run("area passes the row through", func(t *testing.T) {
		t.Parallel()
		rows := []Row{row("month", "Jan", "sales", 100.0)}
		req, ok := Render(&Spec{Type: ChartArea, X: "month", Y: "sales"}, rows)
		if !ok {
			t.Fatal("Render() rejected a valid area spec")
		}
		if req.Renderer != RendererArea {
			t.Errorf("Renderer = %s, want area", req.Renderer)
		}
		if len(req.Rows) != 1 || !reflect.DeepEqual(req.Rows[0], rows[0]) {
			t.Errorf("Rows = %v, want the input row unchanged", req.Rows)
		}
		if req.Fields.X != "month" || req.Fields.Y != "sales" {
			t.Errorf("Fields = %+v", req.Fields)
		}
	})

	t.Run("unknown type renders nothing", func(t *testing.T) {
		t.Parallel()
		req, ok := Render(&Spec{Type: "foo"}, []Row{row("a", 1.0)})
		if ok || req != nil {
			t.Errorf("Render(foo) = (%v, %v), want (nil, false)", req, ok)
		}
	})

	t.Run("grouped bar keeps stacking", func(t *testing.T) {
		t.Parallel()
		rows := []Row{row("m", "Jan", "v", 1.0, "r", "North")}
		req, ok := Render(&Spec{Type: ChartGroupedBar, X: "m", Y: "v", Group: "r", Stacked: true}, rows)
		if !ok {
			t.Fatal("Render() rejected a valid grouped bar spec")
		}
		if !req.Stacked || req.Fields.Group != "r" {
			t.Errorf("request = %+v", req)
		}
	})
}

func TestComputeBins(t *testing.T) {
	t.Parallel()

	rows := []Row{row("v", 0.0), row("v", 10.0), row("v", 20.0)}
	bins, err := ComputeBins(rows, "v", 2)
	if err != nil {
		t.Fatalf("ComputeBins() error = %v", err)
	}
	want := []Bin{{Range: "0 - 10", Count: 1}, {Range: "10 - 20", Count: 2}}
	if !reflect.DeepEqual(bins, want) {
		t.Errorf("ComputeBins() = %v, want %v", bins, want)
	}
}

func TestComputeBins_TotalsMatchRows(t *testing.T) {
	t.Parallel()

	var rows []Row
	for i := 0; i < 57; i++ {
		rows = append(rows, row("v", float64(i*i%31)-7.5))
	}

	for _, k := range []int{1, 3, 10, 64} {
		bins, err := ComputeBins(rows, "v", k)
		if err != nil {
			t.Fatalf("ComputeBins(k=%d) error = %v", k, err)
		}
		if len(bins) != k {
			t.Errorf("len(bins) = %d, want %d", len(bins), k)
		}
		total := 0
		for _, b := range bins {
			total += b.Count
		}
		if total != len(rows) {
			t.Errorf("k=%d: total = %d, want %d", k, total, len(rows))
		}
	}
}

func TestComputeBins_Deterministic(t *testing.T) {
	t.Parallel()

	rows := []Row{row("v", 3.2), row("v", 1.0), row("v", 8.75), row("v", 4.0)}
	a, errA := ComputeBins(rows, "v", 4)
	b, errB := ComputeBins(rows, "v", 4)
	if errA != nil || errB != nil {
		t.Fatalf("errors: %v, %v", errA, errB)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("ComputeBins() not deterministic: %v vs %v", a, b)
	}
}

func TestComputeBins_EqualValues(t *testing.T) {
	t.Parallel()

	bins, err := ComputeBins([]Row{row("v", 5.0), row("v", 5.0)}, "v", 4)
	if err != nil {
		t.Fatalf("ComputeBins() error = %v", err)
	}
	if bins[0].Count != 2 {
		t.Errorf("bin 0 count = %d, want 2", bins[0].Count)
	}
	for i, b := range bins {
		if b.Range != "5 - 5" {
			t.Errorf("bin %d range = %q, want \"5 - 5\"", i, b.Range)
		}
		if i > 0 && b.Count != 0 {
			t.Errorf("bin %d count = %d, want 0", i, b.Count)
		}
	}
}

func TestComputeBins_ExtremeRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		lo, hi float64
		k      int
	}{
		{"near max float", -1.7e308, 1.7e308, 2},
		{"full float range", -math.MaxFloat64, math.MaxFloat64, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			bins, err := ComputeBins([]Row{row("v", tt.lo), row("v", tt.hi)}, "v", tt.k)
			if err != nil {
				t.Fatalf("ComputeBins() error = %v", err)
			}
			if bins[0].Count != 1 || bins[tt.k-1].Count != 1 {
				t.Errorf("extremes not in the outer bins: %v", bins)
			}
			for _, b := range bins {
				if strings.Contains(b.Range, "NaN") || strings.Contains(b.Range, "Inf") {
					t.Errorf("non-finite bound in %q", b.Range)
				}
			}
		})
	}
}

func TestComputeBins_Errors(t *testing.T) {
	t.Parallel()

	t.Run("non-numeric", func(t *testing.T) {
		t.Parallel()
		_, err := ComputeBins([]Row{row("v", 1.0), row("v", "abc")}, "v", 2)
		if !errors.Is(err, ErrNonNumericValue) {
			t.Fatalf("error = %v, want ErrNonNumericValue", err)
		}
		var nerr *NonNumericValueError
		if !errors.As(err, &nerr) || nerr.Row != 1 || nerr.Key != "v" {
			t.Errorf("error detail = %+v", nerr)
		}
	})

	t.Run("invalid bin count", func(t *testing.T) {
		t.Parallel()
		if _, err := ComputeBins([]Row{row("v", 1.0)}, "v", 0); !errors.Is(err, ErrInvalidBinCount) {
			t.Errorf("error = %v, want ErrInvalidBinCount", err)
		}
	})

	t.Run("only missing values", func(t *testing.T) {
		t.Parallel()
		if _, err := ComputeBins([]Row{row("v", nil), row("w", 1.0)}, "v", 3); !errors.Is(err, ErrNoValues) {
			t.Errorf("error = %v, want ErrNoValues", err)
		}
	})
}

func TestComputeBins_SkipsMissing(t *testing.T) {
	t.Parallel()

	rows := []Row{row("v", 1.0), row("v", nil), row("w", 3.0), row("v", 2.0)}
	bins, err := ComputeBins(rows, "v", 2)
	if err != nil {
		t.Fatalf("ComputeBins() error = %v", err)
	}
	if bins[0].Count+bins[1].Count != 2 {
		t.Errorf("binned %v, want 2 values", bins)
	}
	if got := CountMissing(rows, "v"); got != 2 {
		t.Errorf("CountMissing() = %d, want 2", got)
	}
}

func TestFormatBound(t *testing.T) {
	t.Parallel()

	tests := map[float64]string{
		0:     "0",
		2.5:   "3",
		-2.5:  "-2",
		-0.2:  "0",
		12.49: "12",
	}
	for in, want := range tests {
		if got := formatBound(in); got != want {
			t.Errorf("formatBound(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestGroupBy(t *testing.T) {
	t.Parallel()

	rows := []Row{
		row("region", "North", "v", 1.0),
		row("region", "South", "v", 2.0),
		row("region", "North", "v", 3.0),
	}
	groups := GroupBy(rows, "region")
	if len(groups) != 2 {
		t.Fatalf("len(groups) = %d, want 2", len(groups))
	}
	if groups[0].Label != "North" || len(groups[0].Rows) != 2 {
		t.Errorf("groups[0] = %+v", groups[0])
	}
	if groups[1].Label != "South" || len(groups[1].Rows) != 1 {
		t.Errorf("groups[1] = %+v", groups[1])
	}
	if got := Distinct(rows, "region"); !reflect.DeepEqual(got, []string{"North", "South"}) {
		t.Errorf("Distinct() = %v", got)
	}
}

func TestRowJSONKeepsOrder(t *testing.T) {
	t.Parallel()

	var r Row
	if err := json.Unmarshal([]byte(`{"zeta":"a","alpha":2,"mid":null}`), &r); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got := r.Keys(); !reflect.DeepEqual(got, []string{"zeta", "alpha", "mid"}) {
		t.Errorf("Keys() = %v", got)
	}
	if v, ok := r.Get("mid"); !ok || v != nil {
		t.Errorf("Get(mid) = (%v, %v), want (nil, true)", v, ok)
	}
	if r.Has("mid") {
		t.Error("Has(mid) = true for a null value")
	}

	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != `{"zeta":"a","alpha":2,"mid":null}` {
		t.Errorf("Marshal() = %s", out)
	}
}

func TestNewRowOrder(t *testing.T) {
	t.Parallel()

	r := NewRow(map[string]any{"b": 1, "a": 2, "c": 3}, "c")
	if got := r.Keys(); !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Errorf("Keys() = %v", got)
	}
}

func TestResponseUnmarshalIsLenient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		payload    string
		wantSpec   bool
		wantRows   int
		renderable bool
	}{
		{
			name:       "well formed",
			payload:    `{"answer":"ok","visualization":{"type":"bar","x":"m","y":"v"},"data":[{"m":"Jan","v":1}]}`,
			wantSpec:   true,
			wantRows:   1,
			renderable: true,
		},
		{
			name:    "null members",
			payload: `{"answer":"ok","visualization":null,"data":null}`,
		},
		{
			name:     "data is not a sequence",
			payload:  `{"answer":"ok","visualization":{"type":"table"},"data":{"m":"Jan"}}`,
			wantSpec: true,
		},
		{
			name:     "visualization is a string",
			payload:  `{"answer":"ok","visualization":"bar","data":[{"m":"Jan"}]}`,
			wantRows: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var resp Response
			if err := json.Unmarshal([]byte(tt.payload), &resp); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if (resp.Visualization != nil) != tt.wantSpec {
				t.Errorf("Visualization = %v, want present=%v", resp.Visualization, tt.wantSpec)
			}
			if len(resp.Data) != tt.wantRows {
				t.Errorf("len(Data) = %d, want %d", len(resp.Data), tt.wantRows)
			}
			if got := IsRenderable(resp.Visualization, resp.Data); got != tt.renderable {
				t.Errorf("IsRenderable() = %v, want %v", got, tt.renderable)
			}
		})
	}
}
