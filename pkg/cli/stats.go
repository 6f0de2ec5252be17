package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"sigdb/pkg/config"
	"sigdb/pkg/query"
	"sigdb/pkg/relation"
)

// StatsCommand prints a relation's layout and counters.
type StatsCommand struct {
	Name string

	cfg    *config.Config
	stdout io.Writer
}

func newStatsCommand(cfg *config.Config, stdout io.Writer) *cobra.Command {
	cmd := &StatsCommand{cfg: cfg, stdout: stdout}
	return &cobra.Command{
		Use:   "stats NAME",
		Short: "Show a relation's layout and counters",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cmd.Name = args[0]
			return cmd.Run()
		},
	}
}

// Run prints the relation's statistics.
func (cmd *StatsCommand) Run() error {
	r, err := relation.Open(cmd.cfg.Relation(cmd.Name))
	if err != nil {
		return err
	}
	writeRelationStats(cmd.stdout, r.Stats())
	return r.Close()
}

func writeRelationStats(w io.Writer, s relation.Stats) {
	p, c := s.Params, s.Counters

	heading(w, "Relation %s", s.Name)
	note(w, "id %s", p.ID)

	global := newTable(w, "Property", "Value")
	global.AppendRow([]any{"attributes", p.Attributes})
	global.AppendRow([]any{"scheme", p.Scheme})
	if p.BitsPerAttr > 0 {
		global.AppendRow([]any{"bits per attribute", p.BitsPerAttr})
	}
	global.AppendRow([]any{"false-match target", p.FalsePositive})
	global.AppendRow([]any{"tuple size", fmt.Sprintf("%d bytes", p.TupleSize)})
	global.AppendRow([]any{"tuples", c.Tuples})
	global.AppendRow([]any{"fill factor", fmt.Sprintf("%.2f", s.FillFactor)})
	global.AppendRow([]any{"page capacity", s.PageCapacity})
	global.Render()

	files := newTable(w, "File", "Bits", "Bytes", "Per page", "Items", "Pages")
	files.AppendRow([]any{"data", "", p.TupleSize, p.TuplesPerPage, c.Tuples, c.Pages})
	files.AppendRow([]any{"tsig", p.TupleSig.Bits, p.TupleSig.Bytes, p.TupleSig.PerPage, c.TupleSigs, c.TupleSigPages})
	files.AppendRow([]any{"psig", p.PageSig.Bits, p.PageSig.Bytes, p.PageSig.PerPage, c.PageSigs, c.PageSigPages})
	files.AppendRow([]any{"bsig", p.BitSlice.Bits, p.BitSlice.Bytes, p.BitSlice.PerPage, c.BitSlices, c.BitSlicePages})
	files.Render()
}

func writeQueryStats(w io.Writer, q *query.Query) {
	s := q.Stats()

	heading(w, "Query %q (%s)", q.String(), q.Tier())
	t := newTable(w, "Measure", "Count")
	t.AppendRow([]any{"candidate pages", s.Candidates})
	t.AppendRow([]any{"signature pages read", s.SigPages})
	t.AppendRow([]any{"signatures examined", s.Signatures})
	t.AppendRow([]any{"data pages read", s.DataPages})
	t.AppendRow([]any{"tuples examined", s.Tuples})
	t.AppendRow([]any{"false-match pages", s.FalsePages})
	t.AppendRow([]any{"matches", s.Matches})
	t.Render()
}
