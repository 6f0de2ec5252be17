// Package cli implements the sigdb command line.
package cli

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sigdb/pkg/config"
	"sigdb/pkg/logging"
)

// NewRootCommand builds the sigdb command tree. Commands read from stdin and
// print to stdout; logs and usage go to stderr.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cfg := config.Default()

	rc := &cobra.Command{
		Use:   "sigdb",
		Short: "sigdb stores relations indexed by superimposed-coding signatures.",
		Long: `sigdb stores relations of fixed-width tuples and answers partial-match
queries through one of three signature indexes: tuple signatures, page
signatures or bit-sliced page signatures.

Every flag can also be set through the environment (SIGDB_<FLAG>, dashes
as underscores) or a config file named by --config.
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Apply(viper.New(), cmd.Flags()); err != nil {
				return err
			}
			if err := logging.Close(); err != nil {
				return err
			}
			lc := cfg.Logging()
			lc.Writer = stderr
			return logging.Init(lc)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Close()
		},
	}
	cfg.RegisterFlags(rc.PersistentFlags())

	rc.AddCommand(newCreateCommand(cfg, stdout))
	rc.AddCommand(newInsertCommand(cfg, stdin, stdout))
	rc.AddCommand(newSelectCommand(cfg, stdout))
	rc.AddCommand(newStatsCommand(cfg, stdout))
	rc.AddCommand(newDumpCommand(cfg, stdout))
	rc.AddCommand(newGenCommand(stdout))

	rc.SetIn(stdin)
	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}
