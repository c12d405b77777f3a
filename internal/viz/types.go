// Package viz decides whether a visualization spec and its result rows can be
// rendered, and which rendering strategy applies.
//
// Everything in this package is a pure function over immutable input: a spec
// and rows arrive together with one answer, are validated, dispatched to a
// renderer kind and discarded with the next question.
package viz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// ChartType names the presentation requested by the backend.
type ChartType string

const (
	ChartBar        ChartType = "bar"
	ChartLine       ChartType = "line"
	ChartArea       ChartType = "area"
	ChartHistogram  ChartType = "histogram"
	ChartKPI        ChartType = "kpi"
	ChartTable      ChartType = "table"
	ChartEmpty      ChartType = "empty"
	ChartGroupedBar ChartType = "grouped_bar"
)

// Spec is the visualization specification returned with an answer.
// Which field keys are required depends on Type.
type Spec struct {
	Type  ChartType `json:"type"`
	X     string    `json:"x,omitempty"`
	Y     string    `json:"y,omitempty"`
	Value string    `json:"value,omitempty"`
	// Group partitions rows into series for grouped_bar.
	Group   string `json:"group,omitempty"`
	Label   string `json:"label,omitempty"`
	Stacked bool   `json:"stacked,omitempty"`
	// Columns lists the table columns in display order.
	Columns []string `json:"columns,omitempty"`
	// Reason explains an empty spec.
	Reason string `json:"reason,omitempty"`
}

// Row is one record of a result set. It keeps the column order of its source
// so positional conventions (the KPI fallback, table headers) stay stable.
type Row struct {
	keys   []string
	values map[string]any
}

// NewRow builds a row from values, ordering keys as listed in order first and
// then any remaining keys alphabetically.
func NewRow(values map[string]any, order ...string) Row {
	r := Row{values: make(map[string]any, len(values))}
	seen := make(map[string]bool, len(values))
	for _, k := range order {
		v, ok := values[k]
		if !ok || seen[k] {
			continue
		}
		seen[k] = true
		r.keys = append(r.keys, k)
		r.values[k] = v
	}
	var rest []string
	for k := range values {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		r.keys = append(r.keys, k)
		r.values[k] = values[k]
	}
	return r
}

// Set appends key or overwrites its value in place.
func (r *Row) Set(key string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value stored under key and whether the key is present.
// A present key may still hold nil.
func (r Row) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key is present with a non-nil value.
func (r Row) Has(key string) bool {
	v, ok := r.values[key]
	return ok && v != nil
}

// Keys returns the column names in source order.
func (r Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of columns.
func (r Row) Len() int { return len(r.keys) }

// At returns the key and value of the i-th column.
func (r Row) At(i int) (string, any) {
	k := r.keys[i]
	return k, r.values[k]
}

// MarshalJSON writes the row as an object in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, fmt.Errorf("failed to encode column %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping key order. Nested arrays and
// objects are kept as decoded by encoding/json.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("row must be a JSON object")
	}
	*r = Row{values: make(map[string]any)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected row key %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("failed to decode column %q: %w", key, err)
		}
		r.Set(key, v)
	}
	_, err = dec.Token()
	return err
}

// Bin is one histogram bucket.
type Bin struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

// Response is the payload produced for one question.
type Response struct {
	ID            string  `json:"id,omitempty"`
	Answer        string  `json:"answer"`
	Visualization *Spec   `json:"visualization"`
	Data          []Row   `json:"data"`
	SQL           string  `json:"sql,omitempty"`
	Confidence    float64 `json:"confidence,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// UnmarshalJSON decodes a response leniently: a visualization or data member
// of the wrong shape is dropped to nil so the validator rejects it instead of
// the caller failing on it.
func (resp *Response) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID            string          `json:"id"`
		Answer        string          `json:"answer"`
		Visualization json.RawMessage `json:"visualization"`
		Data          json.RawMessage `json:"data"`
		SQL           string          `json:"sql"`
		Confidence    float64         `json:"confidence"`
		Error         string          `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*resp = Response{
		ID:         raw.ID,
		Answer:     raw.Answer,
		SQL:        raw.SQL,
		Confidence: raw.Confidence,
		Error:      raw.Error,
	}

	if len(raw.Visualization) > 0 {
		var spec Spec
		if err := json.Unmarshal(raw.Visualization, &spec); err == nil && !bytes.Equal(bytes.TrimSpace(raw.Visualization), []byte("null")) {
			resp.Visualization = &spec
		}
	}
	if len(raw.Data) > 0 {
		var rows []Row
		if err := json.Unmarshal(raw.Data, &rows); err == nil {
			resp.Data = rows
		}
	}
	return nil
}
