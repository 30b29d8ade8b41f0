package commands

import (
	"fmt"

	"git.home.luguber.info/inful/docsmith/internal/config"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Destination string `short:"o" help:"Override the configured destination directory"`
	NoClean     bool   `name:"no-clean" help:"Keep existing files in the destination"`
}

func (b *BuildCmd) options() []config.Option {
	var opts []config.Option
	if b.Destination != "" {
		opts = append(opts, config.WithDestination(b.Destination))
	}
	if b.NoClean {
		opts = append(opts, config.WithClean(false))
	}
	return opts
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	p, err := root.loadProject(b.options()...)
	if err != nil {
		return err
	}
	sess, err := root.openSession(g)
	if err != nil {
		return err
	}
	defer sess.close()

	if _, err := sess.builder(p).Build(g.Context); err != nil {
		return describe(err)
	}
	_, _ = fmt.Fprintf(g.Stdout, "successfully built to %s\n", p.settings.Destination())
	return nil
}
