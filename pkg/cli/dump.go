package cli

import (
	"encoding/hex"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"sigdb/pkg/bits"
	"sigdb/pkg/config"
	"sigdb/pkg/primitives"
	"sigdb/pkg/relation"
	"sigdb/pkg/storage/page"
	"sigdb/pkg/tuple"
)

// DumpCommand prints the items of one page of a relation file.
type DumpCommand struct {
	Name string
	File string
	Page primitives.PageNumber

	cfg    *config.Config
	stdout io.Writer
}

func newDumpCommand(cfg *config.Config, stdout io.Writer) *cobra.Command {
	cmd := &DumpCommand{cfg: cfg, stdout: stdout}
	return &cobra.Command{
		Use:   "dump NAME data|tsig|psig|bsig [PAGE]",
		Short: "Print one page of a relation file",
		Long: `Dump prints the items stored on a page: decoded tuples for the data
file, and the weight and hex bytes of each signature or bit-slice row for
the signature files. PAGE defaults to 0.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(c *cobra.Command, args []string) error {
			cmd.Name, cmd.File = args[0], args[1]
			cmd.Page = 0
			if len(args) == 3 {
				n, err := strconv.ParseUint(args[2], 10, 32)
				if err != nil {
					return errors.Wrap(err, "PAGE")
				}
				cmd.Page = primitives.PageNumber(n)
			}
			return cmd.Run()
		},
	}
}

// Run prints the page.
func (cmd *DumpCommand) Run() (err error) {
	r, err := relation.Open(cmd.cfg.Relation(cmd.Name))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, r.Close())
	}()

	p, c := r.Params(), r.Counters()
	var (
		pages primitives.Count
		width uint
		read  func(primitives.PageNumber) (*page.Page, error)
	)
	switch cmd.File {
	case relation.SuffixData:
		pages, read = c.Pages, r.ReadDataPage
	case relation.SuffixTsig:
		pages, width, read = c.TupleSigPages, p.TupleSig.Bits, r.ReadTupleSigPage
	case relation.SuffixPsig:
		pages, width, read = c.PageSigPages, p.PageSig.Bits, r.ReadPageSigPage
	case relation.SuffixBsig:
		pages, width, read = c.BitSlicePages, p.BitSlice.Bits, r.ReadBitSlicePage
	default:
		return errors.Errorf("unknown file %q, want data, tsig, psig or bsig", cmd.File)
	}
	if primitives.Count(cmd.Page) >= pages {
		return errors.Errorf("%s has %d pages, no page %d", cmd.File, pages, cmd.Page)
	}

	pg, err := read(cmd.Page)
	if err != nil {
		return err
	}

	heading(cmd.stdout, "%s.%s page %d", cmd.Name, cmd.File, cmd.Page)
	note(cmd.stdout, "%d of %d slots used, %d-byte items", pg.NumItems(), pg.Capacity(), pg.ItemSize())

	if width == 0 {
		tw := newTable(cmd.stdout, "Slot", "Tuple")
		for slot := primitives.SlotID(0); primitives.Count(slot) < pg.NumItems(); slot++ {
			tw.AppendRow([]any{slot, tuple.Decode(pg.Item(slot))})
		}
		tw.Render()
		return nil
	}

	tw := newTable(cmd.stdout, "Slot", "Weight", "Bytes")
	for slot := primitives.SlotID(0); primitives.Count(slot) < pg.NumItems(); slot++ {
		item := pg.Item(slot)
		tw.AppendRow([]any{slot, bits.FromBytes(width, item).Count(), hex.EncodeToString(item)})
	}
	tw.Render()
	return nil
}
