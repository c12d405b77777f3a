package viz

import (
	"fmt"
	"strconv"
)

// Group is the subsequence of rows sharing one value of a grouping key.
type Group struct {
	Label string
	Rows  []Row
}

// GroupBy partitions rows by the text form of key, keeping groups in the order
// their value was first seen and rows in input order within each group.
func GroupBy(rows []Row, key string) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, row := range rows {
		v, _ := row.Get(key)
		label := FormatValue(v)
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, Group{Label: label})
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}
	return groups
}

// Distinct returns the distinct text values of key in first-seen order.
func Distinct(rows []Row, key string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, row := range rows {
		v, _ := row.Get(key)
		s := FormatValue(v)
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// FormatValue renders a scalar for labels and table cells. Whole floats print
// without a fractional part.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
