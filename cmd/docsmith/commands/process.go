package commands

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ProcessCmd implements the 'process' command.
type ProcessCmd struct {
	Metadata bool `short:"m" help:"Print each file's metadata keys"`
}

func (c *ProcessCmd) Run(g *Global, root *CLI) error {
	p, err := root.loadProject()
	if err != nil {
		return err
	}
	sess, err := root.openSession(g)
	if err != nil {
		return err
	}
	defer sess.close()

	docs, err := sess.builder(p).Process(g.Context)
	if err != nil {
		return describe(err)
	}
	for _, path := range docs.Paths() {
		f := docs[path]
		if !c.Metadata || len(f.Metadata) == 0 {
			_, _ = fmt.Fprintln(g.Stdout, path)
			continue
		}
		keys := slices.Sorted(maps.Keys(f.Metadata))
		_, _ = fmt.Fprintf(g.Stdout, "%s\t%s\n", path, strings.Join(keys, ","))
	}
	return nil
}
