// Package pipeline runs an ordered list of plugins over the file model.
//
// A plugin is either synchronous (it returns when its work is done) or
// asynchronous (it signals completion through a Completion handle). Steps
// never overlap: step i+1 starts only after step i has completed without
// error.
package pipeline

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/docsmith/internal/files"
	dberrors "git.home.luguber.info/inful/docsmith/internal/foundation/errors"
)

// Kind distinguishes the two completion styles.
type Kind int

const (
	KindSync Kind = iota
	KindAsync
)

func (k Kind) String() string {
	if k == KindAsync {
		return "async"
	}
	return "sync"
}

// SyncFunc mutates docs in place and reports failure by returning an error.
type SyncFunc func(ctx context.Context, docs files.Files, rc *RunContext) error

// AsyncFunc mutates docs in place and must eventually resolve done exactly once.
// It may return before resolving.
type AsyncFunc func(ctx context.Context, docs files.Files, rc *RunContext, done *Completion)

// Plugin is one pipeline step. The zero value is invalid.
type Plugin struct {
	name  string
	kind  Kind
	sync  SyncFunc
	async AsyncFunc
}

// Sync wraps fn as a synchronous plugin.
func Sync(name string, fn SyncFunc) Plugin {
	return Plugin{name: name, kind: KindSync, sync: fn}
}

// Async wraps fn as an asynchronous plugin.
func Async(name string, fn AsyncFunc) Plugin {
	return Plugin{name: name, kind: KindAsync, async: fn}
}

// From builds a Plugin from any supported function shape. Besides SyncFunc
// and AsyncFunc it accepts the shorter forms
//
//	func(files.Files) error
//	func(context.Context, files.Files) error
//	func(files.Files, *RunContext) error
//
// and an existing Plugin, which is renamed when name is non-empty.
func From(name string, v any) (Plugin, error) {
	switch fn := v.(type) {
	case Plugin:
		if !fn.Valid() {
			break
		}
		if name != "" {
			fn.name = name
		}
		return fn, nil
	case SyncFunc:
		if fn != nil {
			return Sync(name, fn), nil
		}
	case func(context.Context, files.Files, *RunContext) error:
		if fn != nil {
			return Sync(name, fn), nil
		}
	case AsyncFunc:
		if fn != nil {
			return Async(name, fn), nil
		}
	case func(context.Context, files.Files, *RunContext, *Completion):
		if fn != nil {
			return Async(name, fn), nil
		}
	case func(files.Files) error:
		if fn != nil {
			return Sync(name, func(_ context.Context, docs files.Files, _ *RunContext) error { return fn(docs) }), nil
		}
	case func(context.Context, files.Files) error:
		if fn != nil {
			return Sync(name, func(ctx context.Context, docs files.Files, _ *RunContext) error { return fn(ctx, docs) }), nil
		}
	case func(files.Files, *RunContext) error:
		if fn != nil {
			return Sync(name, func(_ context.Context, docs files.Files, rc *RunContext) error { return fn(docs, rc) }), nil
		}
	}
	return Plugin{}, dberrors.ConfigError(fmt.Sprintf("unsupported plugin type %T", v)).
		WithContext("plugin", name).
		Build()
}

// Name returns the plugin's display name.
func (p Plugin) Name() string { return p.name }

// Kind reports whether the plugin is sync or async.
func (p Plugin) Kind() Kind { return p.kind }

// Valid reports whether p has a function to run.
func (p Plugin) Valid() bool {
	return (p.kind == KindSync && p.sync != nil) || (p.kind == KindAsync && p.async != nil)
}

func (p Plugin) label(step int) string {
	if p.name != "" {
		return p.name
	}
	return fmt.Sprintf("#%d", step)
}
