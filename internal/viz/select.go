package viz

// Row-count thresholds used by Select.
const (
	areaMinRows      = 10
	barMaxRows       = 20
	histogramMinRows = 20
)

var defaultDateColumns = []string{"date", "voucher_date", "movement_date", "created_at"}

// SelectOption configures Select.
type SelectOption func(*selectConfig)

type selectConfig struct {
	dateColumns map[string]bool
	hint        ChartType
}

// WithDateColumns replaces the column names treated as time axes.
func WithDateColumns(cols ...string) SelectOption {
	return func(c *selectConfig) {
		c.dateColumns = make(map[string]bool, len(cols))
		for _, col := range cols {
			c.dateColumns[col] = true
		}
	}
}

// WithHint prefers the hinted chart type when the selected spec is an x/y
// chart and the hint is one too.
func WithHint(hint ChartType) SelectOption {
	return func(c *selectConfig) {
		c.hint = hint
	}
}

// Select picks a visualization for a result set from its shape alone.
// Column kinds are sampled from the first row.
func Select(rows []Row, opts ...SelectOption) Spec {
	cfg := &selectConfig{}
	WithDateColumns(defaultDateColumns...)(cfg)
	for _, opt := range opts {
		opt(cfg)
	}

	spec := selectByShape(rows, cfg)
	if isXY(spec.Type) && isXY(cfg.hint) {
		spec.Type = cfg.hint
	}
	return spec
}

func selectByShape(rows []Row, cfg *selectConfig) Spec {
	if len(rows) == 0 {
		return Spec{Type: ChartEmpty, Reason: "No data returned"}
	}

	first := rows[0]
	columns := first.Keys()
	var numeric, categorical []string
	dateCol := ""
	for i := 0; i < first.Len(); i++ {
		k, v := first.At(i)
		if _, ok := ToFloat(v); ok {
			numeric = append(numeric, k)
		} else {
			categorical = append(categorical, k)
		}
		if dateCol == "" && cfg.dateColumns[k] {
			dateCol = k
		}
	}
	n := len(rows)

	switch {
	case n == 1 && len(numeric) == 1:
		spec := Spec{Type: ChartKPI, Value: numeric[0]}
		if len(categorical) > 0 {
			spec.Label = categorical[0]
		}
		return spec

	case dateCol != "" && len(numeric) == 1:
		t := ChartLine
		if n > areaMinRows {
			t = ChartArea
		}
		return Spec{Type: t, X: dateCol, Y: numeric[0]}

	case len(columns) == 2 && len(numeric) == 1 && n <= barMaxRows:
		return Spec{Type: ChartBar, X: categorical[0], Y: numeric[0]}

	case len(columns) == 3 && len(numeric) == 1:
		return Spec{Type: ChartGroupedBar, X: categorical[0], Group: categorical[1], Y: numeric[0]}

	case len(columns) == 1 && len(numeric) == 1 && n > histogramMinRows:
		return Spec{Type: ChartHistogram, Value: numeric[0]}
	}

	return Spec{Type: ChartTable, Columns: columns}
}

func isXY(t ChartType) bool {
	return t == ChartBar || t == ChartLine || t == ChartArea
}
