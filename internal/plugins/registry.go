// Package plugins resolves plugin names from docsmith.yaml into pipeline
// steps and provides the built-in plugins.
package plugins

import (
	"bytes"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docsmith/internal/config"
	dberrors "git.home.luguber.info/inful/docsmith/internal/foundation/errors"
	"git.home.luguber.info/inful/docsmith/internal/pipeline"
)

// Factory builds a configured plugin from its options. opts may be nil.
type Factory func(opts map[string]any) (pipeline.Plugin, error)

// Registry maps plugin names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Default returns a registry holding the built-in plugins.
func Default() *Registry {
	r := NewRegistry()
	for name, f := range map[string]Factory{
		MarkdownName:    NewMarkdown,
		FingerprintName: NewFingerprint,
		UIDName:         NewUID,
		DraftsName:      NewDrafts,
	} {
		if err := r.Register(name, f); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a factory. Names must be unique.
func (r *Registry) Register(name string, f Factory) error {
	if name == "" {
		return fmt.Errorf("cannot register plugin without a name")
	}
	if f == nil {
		return fmt.Errorf("cannot register nil factory for plugin %q", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("plugin %q already registered", name)
	}
	r.factories[name] = f
	return nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve builds the plugin registered as name.
func (r *Registry) Resolve(name string, opts map[string]any) (pipeline.Plugin, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return pipeline.Plugin{}, dberrors.ConfigError(fmt.Sprintf("failed to resolve plugin %q", name)).
			WithContext("plugin", name).
			Build()
	}
	p, err := f(opts)
	if err != nil {
		return pipeline.Plugin{}, dberrors.WrapError(err, dberrors.CategoryConfig, fmt.Sprintf("invalid options for plugin %q", name)).
			Fatal().
			UserAction().
			WithContext("plugin", name).
			Build()
	}
	return p, nil
}

// ResolveAll resolves specs in order.
func (r *Registry) ResolveAll(specs []config.PluginSpec) ([]pipeline.Plugin, error) {
	out := make([]pipeline.Plugin, 0, len(specs))
	for _, spec := range specs {
		p, err := r.Resolve(spec.Name, spec.Options)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// decodeOptions converts a loosely typed option map into target, rejecting
// unknown keys.
func decodeOptions(opts map[string]any, target any) error {
	if len(opts) == 0 {
		return nil
	}
	data, err := yaml.Marshal(opts)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(target)
}
