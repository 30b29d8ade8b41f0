package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsmith/internal/files"
)

func TestFrom_SupportedShapes(t *testing.T) {
	tests := []struct {
		name string
		fn   any
		kind Kind
	}{
		{"files only", func(files.Files) error { return nil }, KindSync},
		{"ctx and files", func(context.Context, files.Files) error { return nil }, KindSync},
		{"files and run context", func(files.Files, *RunContext) error { return nil }, KindSync},
		{"sync func", SyncFunc(func(context.Context, files.Files, *RunContext) error { return nil }), KindSync},
		{"sync literal", func(context.Context, files.Files, *RunContext) error { return nil }, KindSync},
		{"async func", AsyncFunc(func(_ context.Context, _ files.Files, _ *RunContext, d *Completion) { d.Done() }), KindAsync},
		{"async literal", func(_ context.Context, _ files.Files, _ *RunContext, d *Completion) { d.Done() }, KindAsync},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := From(tt.name, tt.fn)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, p.Kind())
			assert.Equal(t, tt.name, p.Name())
			assert.True(t, p.Valid())

			_, err = NewRunner().Run(t.Context(), files.New(), []Plugin{p}, newRunContext(t))
			require.NoError(t, err)
		})
	}
}

func TestFrom_ShortFormsPassErrorsThrough(t *testing.T) {
	boom := errors.New("boom")
	p, err := From("short", func(files.Files) error { return boom })
	require.NoError(t, err)

	_, err = NewRunner().Run(t.Context(), files.New(), []Plugin{p}, newRunContext(t))
	require.ErrorIs(t, err, boom)
}

func TestFrom_PluginIsRenamed(t *testing.T) {
	base := Sync("old", func(context.Context, files.Files, *RunContext) error { return nil })
	p, err := From("new", base)
	require.NoError(t, err)
	assert.Equal(t, "new", p.Name())

	p, err = From("", base)
	require.NoError(t, err)
	assert.Equal(t, "old", p.Name())
}

func TestFrom_Unsupported(t *testing.T) {
	for _, v := range []any{nil, "not a function", 42, func() {}, Plugin{}, SyncFunc(nil)} {
		_, err := From("bad", v)
		assert.Error(t, err, "%T", v)
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "sync", KindSync.String())
	assert.Equal(t, "async", KindAsync.String())
}

func TestCompletion_FirstResolutionWins(t *testing.T) {
	c := newCompletion("x", nil)
	assert.NoError(t, c.Err())

	boom := errors.New("boom")
	c.Fail(boom)
	c.Done()

	select {
	case <-c.Wait():
	default:
		t.Fatal("completion should be resolved")
	}
	assert.ErrorIs(t, c.Err(), boom)
}
