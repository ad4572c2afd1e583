// Package render turns named templates and a model into HTML. Templates are
// pongo2 (Django syntax) with autoescaping on, so task titles are always
// escaped on output.
package render

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

// Renderer is what handlers need from a template engine.
type Renderer interface {
	Render(name string, model map[string]any) (string, error)
}

// Option adjusts how New builds an Engine.
type Option func(*Engine)

// WithBaseDir loads templates from a directory on disk. Files found there
// take precedence over the ones supplied through WithFS.
func WithBaseDir(dir string) Option {
	return func(e *Engine) { e.dir = strings.TrimSpace(dir) }
}

func WithFS(files fs.FS) Option {
	return func(e *Engine) { e.files = files }
}

// WithGlobalData exposes values to every template.
func WithGlobalData(data map[string]any) Option {
	return func(e *Engine) {
		for k, v := range data {
			e.globals[strings.TrimSpace(k)] = v
		}
	}
}

// WithCache controls whether compiled templates are kept between renders.
// Disable it while editing templates on disk.
func WithCache(enabled bool) Option {
	return func(e *Engine) { e.cache = enabled }
}

// Engine renders the task templates. Every name resolves to "<name>.html".
type Engine struct {
	dir     string
	files   fs.FS
	globals pongo2.Context
	cache   bool

	set *pongo2.TemplateSet

	mu       sync.Mutex
	compiled map[string]*pongo2.Template
}

var _ Renderer = (*Engine)(nil)

func New(options ...Option) (*Engine, error) {
	e := &Engine{
		globals:  pongo2.Context{},
		cache:    true,
		compiled: map[string]*pongo2.Template{},
	}
	for _, apply := range options {
		if apply != nil {
			apply(e)
		}
	}

	loaders, err := e.loaders()
	if err != nil {
		return nil, err
	}

	registerFilters()
	e.set = pongo2.NewSet("task_web", loaders...)
	e.set.Globals = e.globals
	return e, nil
}

// loaders lists the template sources in lookup order, disk before embedded.
func (e *Engine) loaders() ([]pongo2.TemplateLoader, error) {
	var out []pongo2.TemplateLoader
	if e.dir != "" {
		disk, err := pongo2.NewLocalFileSystemLoader(e.dir)
		if err != nil {
			return nil, fmt.Errorf("render: template dir %s: %w", e.dir, err)
		}
		out = append(out, disk)
	}
	if e.files != nil {
		out = append(out, pongo2.NewFSLoader(e.files))
	}
	if len(out) == 0 {
		return nil, errors.New("render: no template source configured")
	}
	return out, nil
}

func (e *Engine) Render(name string, model map[string]any) (string, error) {
	file := strings.TrimSuffix(name, templateExt) + templateExt

	tmpl, err := e.lookup(file)
	if err != nil {
		return "", fmt.Errorf("render: load %q: %w", file, err)
	}

	out, err := tmpl.Execute(pongo2.Context(model))
	if err != nil {
		return "", fmt.Errorf("render: execute %q: %w", file, err)
	}
	return out, nil
}

func (e *Engine) lookup(file string) (*pongo2.Template, error) {
	if !e.cache {
		return e.set.FromFile(file)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.compiled[file]; ok {
		return tmpl, nil
	}
	tmpl, err := e.set.FromFile(file)
	if err != nil {
		return nil, err
	}
	e.compiled[file] = tmpl
	return tmpl, nil
}
