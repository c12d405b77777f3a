// Package semantic loads the semantic layer that constrains SQL generation:
// the tables and columns that exist, the approved join conditions and the
// metric expressions.
package semantic

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoModels is returned for a layer without any model.
var ErrNoModels = errors.New("semantic layer defines no models")

// Layer is a parsed semantic layer.
type Layer struct {
	Models        []Model        `yaml:"models" json:"models"`
	Relationships []Relationship `yaml:"relationships" json:"relationships"`
	Metrics       []Metric       `yaml:"metrics" json:"metrics"`
	// Forbidden lists business concepts the data cannot answer.
	Forbidden []string `yaml:"forbidden" json:"forbidden"`
}

// Model is a physical table.
type Model struct {
	Name    string   `yaml:"name" json:"name"`
	Columns []Column `yaml:"columns" json:"columns"`
}

// Column is a table column.
type Column struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type,omitempty" json:"type,omitempty"`
}

// Relationship is an approved join between two models.
type Relationship struct {
	Name      string `yaml:"name,omitempty" json:"name,omitempty"`
	From      string `yaml:"from,omitempty" json:"from,omitempty"`
	To        string `yaml:"to,omitempty" json:"to,omitempty"`
	Condition string `yaml:"condition" json:"condition"`
}

// Metric is a named SQL expression over a base model.
type Metric struct {
	Name       string  `yaml:"name" json:"name"`
	BaseObject string  `yaml:"baseObject" json:"baseObject"`
	Measure    Measure `yaml:"measure" json:"measure"`
}

// Measure holds a metric's SQL expression.
type Measure struct {
	Expression string `yaml:"expression" json:"expression"`
}

var defaultForbidden = []string{"profit", "margin", "tax", "GST", "discount", "cost price"}

// Load reads a layer from a .json, .yaml or .yml file.
func Load(path string) (*Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read semantic layer: %w", err)
	}

	var layer *Layer
	if strings.EqualFold(filepath.Ext(path), ".json") {
		layer, err = ParseJSON(data)
	} else {
		layer, err = Parse(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return layer, nil
}

// Parse decodes a YAML layer and validates it.
func Parse(data []byte) (*Layer, error) {
	var layer Layer
	if err := yaml.Unmarshal(data, &layer); err != nil {
		return nil, fmt.Errorf("failed to parse semantic layer: %w", err)
	}
	return &layer, layer.Validate()
}

// ParseJSON decodes a JSON layer and validates it.
func ParseJSON(data []byte) (*Layer, error) {
	var layer Layer
	if err := json.Unmarshal(data, &layer); err != nil {
		return nil, fmt.Errorf("failed to parse semantic layer: %w", err)
	}
	return &layer, layer.Validate()
}

// Validate checks that the layer has models and that relationships and
// metrics only reference known models.
func (l *Layer) Validate() error {
	if len(l.Models) == 0 {
		return ErrNoModels
	}
	for _, r := range l.Relationships {
		for _, m := range []string{r.From, r.To} {
			if m != "" && l.Model(m) == nil {
				return fmt.Errorf("relationship %q references unknown model %q", r.Condition, m)
			}
		}
	}
	for _, m := range l.Metrics {
		if m.BaseObject != "" && l.Model(m.BaseObject) == nil {
			return fmt.Errorf("metric %q references unknown model %q", m.Name, m.BaseObject)
		}
	}
	return nil
}

// Model returns the model called name, or nil.
func (l *Layer) Model(name string) *Model {
	for i := range l.Models {
		if l.Models[i].Name == name {
			return &l.Models[i]
		}
	}
	return nil
}

// Metric returns the metric called name, or nil.
func (l *Layer) Metric(name string) *Metric {
	for i := range l.Metrics {
		if strings.EqualFold(l.Metrics[i].Name, name) {
			return &l.Metrics[i]
		}
	}
	return nil
}

// Relationship returns the approved join between two models in either
// direction, or nil.
func (l *Layer) Relationship(from, to string) *Relationship {
	for i, r := range l.Relationships {
		if (r.From == from && r.To == to) || (r.From == to && r.To == from) {
			return &l.Relationships[i]
		}
	}
	return nil
}

// Prompt renders the layer as guardrail text for the SQL generator.
func (l *Layer) Prompt() string {
	var b strings.Builder

	b.WriteString("Allowed tables:\n")
	for _, m := range l.Models {
		names := make([]string, len(m.Columns))
		for i, c := range m.Columns {
			names[i] = c.Name
		}
		fmt.Fprintf(&b, "- %s (%s)\n", m.Name, strings.Join(names, ", "))
	}

	if len(l.Relationships) > 0 {
		b.WriteString("\nAllowed joins:\n")
		for _, r := range l.Relationships {
			fmt.Fprintf(&b, "- %s\n", r.Condition)
		}
	}

	if len(l.Metrics) > 0 {
		b.WriteString("\nMetrics (expressions, never tables):\n")
		for _, m := range l.Metrics {
			fmt.Fprintf(&b, "- %s = %s FROM %s\n", m.Name, m.Measure.Expression, m.BaseObject)
		}
	}

	forbidden := l.Forbidden
	if len(forbidden) == 0 {
		forbidden = defaultForbidden
	}
	fmt.Fprintf(&b, "\nNot available unless explicitly defined: %s.\n", strings.Join(forbidden, ", "))

	return b.String()
}
