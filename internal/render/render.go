// Package render draws validated render requests.
//
// Each leaf renderer handles one viz.RendererKind and knows nothing of the
// others. A Registry collects leaves for one output format; the echarts
// package provides HTML leaves and the mermaid package Markdown leaves.
package render

import (
	"errors"
	"fmt"
	"io"

	"github.com/anuvratrastogi/vizchat/internal/logging"
	"github.com/anuvratrastogi/vizchat/internal/viz"
)

// ErrNothingToRender means the spec and rows should produce no output.
var ErrNothingToRender = errors.New("nothing to render")

// Renderer draws one kind of render request.
type Renderer interface {
	Render(w io.Writer, req *viz.RenderRequest) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(w io.Writer, req *viz.RenderRequest) error

// Render implements Renderer.
func (f RendererFunc) Render(w io.Writer, req *viz.RenderRequest) error {
	return f(w, req)
}

// Registry maps renderer kinds to leaves.
type Registry struct {
	name      string
	renderers map[viz.RendererKind]Renderer
}

// NewRegistry creates an empty registry. The name shows up in logs.
func NewRegistry(name string) *Registry {
	return &Registry{
		name:      name,
		renderers: make(map[viz.RendererKind]Renderer),
	}
}

// Register installs r for kind, replacing any previous leaf.
func (r *Registry) Register(kind viz.RendererKind, leaf Renderer) *Registry {
	r.renderers[kind] = leaf
	return r
}

// Has reports whether a leaf is registered for kind.
func (r *Registry) Has(kind viz.RendererKind) bool {
	_, ok := r.renderers[kind]
	return ok
}

// Render draws req with its registered leaf.
func (r *Registry) Render(w io.Writer, req *viz.RenderRequest) error {
	if req == nil {
		return ErrNothingToRender
	}
	leaf, ok := r.renderers[req.Renderer]
	if !ok {
		return fmt.Errorf("no %s renderer for %q: %w", r.name, req.Renderer, ErrNothingToRender)
	}
	return leaf.Render(w, req)
}

// Draw validates spec and rows, dispatches and renders. A rejected pair
// returns ErrNothingToRender and writes nothing.
func (r *Registry) Draw(w io.Writer, spec *viz.Spec, rows []viz.Row) error {
	req, ok := viz.Render(spec, rows)
	if !ok {
		chart := ""
		if spec != nil {
			chart = string(spec.Type)
		}
		logging.Debug().
			Add(logging.Component("render")).
			Add(logging.Chart(chart)).
			Add(logging.Rows(len(rows))).
			Msg("visualization not renderable")
		return ErrNothingToRender
	}

	err := r.Render(w, req)
	logging.Debug().
		Add(logging.Component("render")).
		Add(logging.Str("format", r.name)).
		Add(logging.Renderer(string(req.Renderer))).
		Add(logging.Rows(len(rows))).
		Add(logging.ErrorField(err)).
		Msg("rendered visualization")
	return err
}
