package commands

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/docsmith/internal/logfields"
	"git.home.luguber.info/inful/docsmith/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Debounce time.Duration `help:"Quiet period before rebuilding" default:"300ms"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	p, err := root.loadProject()
	if err != nil {
		return err
	}
	sess, err := root.openSession(g)
	if err != nil {
		return err
	}
	defer sess.close()

	b := sess.builder(p)
	rebuild := func(ctx context.Context) error {
		defer sess.flush()
		if _, err := b.Build(ctx); err != nil {
			return describe(err)
		}
		_, _ = fmt.Fprintf(g.Stdout, "successfully built to %s\n", p.settings.Destination())
		return nil
	}

	// A failing first build is reported like any later one.
	if err := rebuild(g.Context); err != nil {
		g.Logger.Error("Initial build failed", logfields.Error(err))
	}

	watcher, err := watch.New(p.settings.Source(), rebuild,
		watch.WithDebounce(w.Debounce),
		watch.WithExclude(p.settings.Destination()),
		watch.WithLogger(g.Logger),
	)
	if err != nil {
		return err
	}
	return watcher.Run(g.Context)
}
