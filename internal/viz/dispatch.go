package viz

// RendererKind identifies one rendering strategy.
type RendererKind string

const (
	RendererBar        RendererKind = "bar"
	RendererLine       RendererKind = "line"
	RendererArea       RendererKind = "area"
	RendererHistogram  RendererKind = "histogram"
	RendererKPI        RendererKind = "kpi"
	RendererTable      RendererKind = "table"
	RendererGroupedBar RendererKind = "grouped_bar"
)

// Fields holds the field keys a renderer reads from each row.
type Fields struct {
	X     string `json:"x,omitempty"`
	Y     string `json:"y,omitempty"`
	Value string `json:"value,omitempty"`
	Group string `json:"group,omitempty"`
	Label string `json:"label,omitempty"`
}

// RenderRequest is a validated instruction for exactly one renderer.
// Rows are passed through untouched.
type RenderRequest struct {
	Renderer RendererKind `json:"renderer"`
	Rows     []Row        `json:"rows"`
	Fields   Fields       `json:"fields"`
	Stacked  bool         `json:"stacked,omitempty"`
	Columns  []string     `json:"columns,omitempty"`
}

var renderers = map[ChartType]RendererKind{
	ChartBar:        RendererBar,
	ChartLine:       RendererLine,
	ChartArea:       RendererArea,
	ChartHistogram:  RendererHistogram,
	ChartKPI:        RendererKPI,
	ChartTable:      RendererTable,
	ChartGroupedBar: RendererGroupedBar,
}

// SelectRenderer maps a spec to its renderer. Call it only after
// IsRenderable has accepted the spec.
func SelectRenderer(spec *Spec) (RendererKind, bool) {
	if spec == nil {
		return "", false
	}
	kind, ok := renderers[spec.Type]
	return kind, ok
}

// Render validates spec against rows and builds the request for the selected
// renderer. It returns false when nothing should be drawn.
func Render(spec *Spec, rows []Row) (*RenderRequest, bool) {
	if !IsRenderable(spec, rows) {
		return nil, false
	}
	kind, ok := SelectRenderer(spec)
	if !ok {
		return nil, false
	}

	req := &RenderRequest{
		Renderer: kind,
		Rows:     rows,
		Fields: Fields{
			X:     spec.X,
			Y:     spec.Y,
			Value: spec.Value,
			Group: spec.Group,
			Label: spec.Label,
		},
		Stacked: spec.Stacked,
	}
	if len(spec.Columns) > 0 {
		req.Columns = append([]string(nil), spec.Columns...)
	}
	return req, true
}
