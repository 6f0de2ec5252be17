package cli

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// GenCommand writes deterministic pseudo-random tuples for loading tests.
type GenCommand struct {
	Attributes int
	Tuples     int
	Seed       uint64

	stdout io.Writer
}

func newGenCommand(stdout io.Writer) *cobra.Command {
	cmd := &GenCommand{stdout: stdout}
	ccmd := &cobra.Command{
		Use:   "gen NATTRS NTUPLES",
		Short: "Generate test tuples",
		Long: `Gen prints NTUPLES tuples of NATTRS attributes, one per line, ready for
"sigdb insert". The first attribute is a unique sequence number; the
others draw from value sets of increasing size, so queries on later
attributes are more selective. The same seed always yields the same
tuples.`,
		Example: `  sigdb gen 3 5000 | sigdb insert people`,
		Args:    cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			var err error
			if cmd.Attributes, err = strconv.Atoi(args[0]); err != nil {
				return errors.Wrap(err, "NATTRS")
			}
			if cmd.Tuples, err = strconv.Atoi(args[1]); err != nil {
				return errors.Wrap(err, "NTUPLES")
			}
			return cmd.Run()
		},
	}
	ccmd.Flags().Uint64Var(&cmd.Seed, "seed", 1, "Random seed.")
	return ccmd
}

// Run writes the tuples.
func (cmd *GenCommand) Run() error {
	if cmd.Attributes < 1 || cmd.Tuples < 0 {
		return errors.Errorf("need at least one attribute and a non-negative tuple count, got %d and %d", cmd.Attributes, cmd.Tuples)
	}

	rng := rand.New(rand.NewPCG(cmd.Seed, cmd.Seed))
	w := bufio.NewWriter(cmd.stdout)
	values := make([]string, cmd.Attributes)
	for i := 0; i < cmd.Tuples; i++ {
		values[0] = fmt.Sprintf("%07d", i+1)
		for a := 1; a < cmd.Attributes; a++ {
			values[a] = fmt.Sprintf("%c%d", 'a'+rune(a%26), rng.IntN(domain(a)))
		}
		if _, err := fmt.Fprintln(w, strings.Join(values, ",")); err != nil {
			return err
		}
	}
	return w.Flush()
}

// domain is the number of distinct values attribute a takes. Values stay
// within five characters so generated tuples fit any relation's tuple size.
func domain(a int) int {
	return 4 << min(a, 10)
}
