package viz

// IsRenderable reports whether rows can be drawn as spec without any renderer
// reading a missing field. It never panics: specs come from an unreliable
// upstream and a malformed one means "render nothing".
//
// Whole datasets are rejected on a single incomplete row; a partial chart is
// considered misleading.
func IsRenderable(spec *Spec, rows []Row) bool {
	if spec == nil || spec.Type == "" {
		return false
	}
	if len(rows) == 0 {
		return false
	}

	switch spec.Type {
	case ChartKPI, ChartTable:
		return true

	case ChartBar, ChartLine, ChartArea:
		if spec.X == "" || spec.Y == "" {
			return false
		}
		return allPresent(rows, spec.X, spec.Y)

	case ChartHistogram:
		// Missing values are counted apart by the binning step.
		return spec.Value != ""

	case ChartGroupedBar:
		if spec.X == "" || spec.Y == "" || spec.Group == "" {
			return false
		}
		return allPresent(rows, spec.X, spec.Y, spec.Group)

	default:
		return false
	}
}

func allPresent(rows []Row, keys ...string) bool {
	for _, row := range rows {
		for _, k := range keys {
			if !row.Has(k) {
				return false
			}
		}
	}
	return true
}
