package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"sigdb/pkg/config"
	"sigdb/pkg/query"
	"sigdb/pkg/relation"
	"sigdb/pkg/tuple"
)

// SelectCommand runs a partial-match query.
type SelectCommand struct {
	Name  string
	Query string
	Tier  string
	Stats bool

	cfg    *config.Config
	stdout io.Writer
}

func newSelectCommand(cfg *config.Config, stdout io.Writer) *cobra.Command {
	cmd := &SelectCommand{cfg: cfg, stdout: stdout}
	ccmd := &cobra.Command{
		Use:   "select NAME QUERY",
		Short: "Print the tuples matching a query",
		Long: `Select prints every tuple matching QUERY, a comma-separated value per
attribute where "?" matches anything, then the query statistics.

The --tier flag picks the filter that selects candidate pages:
  x  none, scan every page
  t  tuple signatures
  p  page signatures
  b  bit-sliced page signatures`,
		Example: `  sigdb select people 'alice,?' --tier p`,
		Args:    cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			cmd.Name, cmd.Query = args[0], args[1]
			return cmd.Run()
		},
	}

	flags := ccmd.Flags()
	flags.StringVarP(&cmd.Tier, "tier", "t", "b", "Filter tier: x, t, p or b.")
	flags.BoolVar(&cmd.Stats, "stats", true, "Print query statistics after the matches.")
	return ccmd
}

// Run executes the query and prints its matches.
func (cmd *SelectCommand) Run() (err error) {
	tier, err := query.ParseTier(cmd.Tier)
	if err != nil {
		return err
	}

	r, err := relation.Open(cmd.cfg.Relation(cmd.Name))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, r.Close())
	}()

	q, err := query.Start(r, cmd.Query, tier)
	if err != nil {
		return err
	}
	err = q.Scan(func(t tuple.Tuple) error {
		_, err := fmt.Fprintln(cmd.stdout, t)
		return err
	})
	if err != nil {
		return err
	}

	if cmd.Stats {
		fmt.Fprintln(cmd.stdout)
		writeQueryStats(cmd.stdout, q)
	}
	return nil
}
