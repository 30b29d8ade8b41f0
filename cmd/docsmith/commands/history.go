package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/docsmith/internal/eventstore"
	dberrors "git.home.luguber.info/inful/docsmith/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int           `short:"n" help:"Maximum number of builds to list (0 for all)" default:"20"`
	Since time.Duration `help:"Only list builds started within this duration"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	if root.HistoryDB == "" {
		return dberrors.ValidationError("history requires --history-db").Build()
	}
	store, err := eventstore.NewSQLiteStore(root.HistoryDB)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var since time.Time
	if h.Since > 0 {
		since = time.Now().Add(-h.Since)
	}
	builds, err := eventstore.History(g.Context, store, since, h.Limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(g.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD\tMODE\tSTATUS\tSTARTED\tDURATION\tFILES\tERROR")
	for _, b := range builds {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			b.BuildID, b.Mode, b.Status,
			b.StartedAt.Format(time.RFC3339),
			b.Duration.Round(time.Millisecond),
			b.FileCount, b.ErrorMessage)
	}
	return tw.Flush()
}
