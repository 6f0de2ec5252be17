package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"sigdb/pkg/config"
	"sigdb/pkg/logging"
	"sigdb/pkg/relation"
	"sigdb/pkg/tuple"
)

// InsertCommand loads tuples, one comma-separated line each, into a relation.
type InsertCommand struct {
	Name string

	cfg    *config.Config
	stdin  io.Reader
	stdout io.Writer
}

func newInsertCommand(cfg *config.Config, stdin io.Reader, stdout io.Writer) *cobra.Command {
	cmd := &InsertCommand{cfg: cfg, stdin: stdin, stdout: stdout}
	return &cobra.Command{
		Use:   "insert NAME",
		Short: "Insert tuples read from stdin",
		Long: `Insert reads one tuple per line from stdin, values separated by commas,
and appends each to the relation. Blank lines are skipped. The first bad
line stops the load; tuples before it stay inserted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cmd.Name = args[0]
			return cmd.Run()
		},
	}
}

// Run inserts every tuple from stdin and prints how many were stored.
func (cmd *InsertCommand) Run() (err error) {
	r, err := relation.Open(cmd.cfg.Relation(cmd.Name))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, r.Close())
	}()

	n, err := load(r, cmd.stdin)
	fmt.Fprintf(cmd.stdout, "inserted %d tuples\n", n)
	return err
}

func load(r *relation.Relation, in io.Reader) (int, error) {
	log := logging.WithRelation(r.Name().Base())
	nattrs := r.Params().Attributes

	scanner := bufio.NewScanner(in)
	n, line := 0, 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		t, err := tuple.Parse(text, nattrs)
		if err != nil {
			return n, errors.Wrapf(err, "line %d", line)
		}
		if _, err := r.Insert(t); err != nil {
			return n, errors.Wrapf(err, "line %d", line)
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, errors.Wrap(err, "reading tuples")
	}

	log.Info().Int("tuples", n).Msg("load complete")
	return n, nil
}
