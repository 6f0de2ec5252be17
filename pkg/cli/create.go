package cli

import (
	"io"

	"github.com/spf13/cobra"

	"sigdb/pkg/config"
	"sigdb/pkg/relation"
	"sigdb/pkg/signature"
	"sigdb/pkg/storage/page"
	"sigdb/pkg/tuple"
)

// CreateCommand creates a relation. Widths left at zero are derived from the
// false-match target and the expected tuple count.
type CreateCommand struct {
	Name           string
	Attributes     int
	FalsePositive  float64
	Scheme         string
	BitsPerAttr    uint
	TupleBits      uint
	PageBits       uint
	SliceBits      uint
	ExpectedTuples uint

	cfg    *config.Config
	stdout io.Writer
}

func newCreateCommand(cfg *config.Config, stdout io.Writer) *cobra.Command {
	cmd := &CreateCommand{cfg: cfg, stdout: stdout}
	ccmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create an empty relation",
		Long: `Create lays out a new relation: metadata, data and the three signature
files. Signature widths not given are sized for --false-positive and
--expected-tuples.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cmd.Name = args[0]
			return cmd.Run()
		},
	}

	flags := ccmd.Flags()
	flags.IntVarP(&cmd.Attributes, "attributes", "n", 2, "Number of attributes per tuple.")
	flags.Float64VarP(&cmd.FalsePositive, "false-positive", "f", 0.01, "Target false-match probability.")
	flags.StringVarP(&cmd.Scheme, "scheme", "s", "catc", "Signature coding: simc (overlapping) or catc (disjoint segments).")
	flags.UintVarP(&cmd.BitsPerAttr, "bits-per-attr", "k", 0, "Bits set per attribute codeword under simc.")
	flags.UintVar(&cmd.TupleBits, "tuple-bits", 0, "Tuple signature width in bits.")
	flags.UintVar(&cmd.PageBits, "page-bits", 0, "Page signature width in bits.")
	flags.UintVar(&cmd.SliceBits, "slice-bits", 0, "Bit-slice width in bits, the number of data pages the relation can hold.")
	flags.UintVar(&cmd.ExpectedTuples, "expected-tuples", 10000, "Tuples the relation is sized for.")
	return ccmd
}

// Options resolves the command's flags into relation options.
func (cmd *CreateCommand) Options() (relation.Options, error) {
	scheme, err := signature.ParseScheme(cmd.Scheme)
	if err != nil {
		return relation.Options{}, err
	}

	opts := relation.Options{
		Attributes:    cmd.Attributes,
		FalsePositive: cmd.FalsePositive,
		Scheme:        scheme,
		BitsPerAttr:   cmd.BitsPerAttr,
		TupleBits:     cmd.TupleBits,
		PageBits:      cmd.PageBits,
		SliceBits:     cmd.SliceBits,
	}

	// sizing needs a valid page layout; relation.Create reports the error otherwise
	size := tuple.Size(cmd.Attributes)
	if cmd.Attributes < 1 || size > page.Available {
		return opts, nil
	}
	w := signature.Size(cmd.Attributes, cmd.FalsePositive, page.ItemsPerPage(size), cmd.ExpectedTuples)
	if opts.BitsPerAttr == 0 {
		opts.BitsPerAttr = w.BitsPerAttr
	}
	if opts.TupleBits == 0 {
		opts.TupleBits = w.TupleBits
	}
	if opts.PageBits == 0 {
		opts.PageBits = w.PageBits
	}
	if opts.SliceBits == 0 {
		opts.SliceBits = w.SliceBits
	}
	return opts, nil
}

// Run creates the relation and prints its statistics.
func (cmd *CreateCommand) Run() error {
	opts, err := cmd.Options()
	if err != nil {
		return err
	}
	name := cmd.cfg.Relation(cmd.Name)
	if err := name.MkdirAll(0o755); err != nil {
		return err
	}
	if _, err := relation.Create(name, opts); err != nil {
		return err
	}

	r, err := relation.Open(name)
	if err != nil {
		return err
	}
	writeRelationStats(cmd.stdout, r.Stats())
	return r.Close()
}
