// Package relation is the storage manager for signature-indexed relations.
//
// A relation named NAME lives in five sibling files:
//
//	NAME.info  metadata: schema parameters and counters, rewritten on Close
//	NAME.data  pages of fixed-size tuples
//	NAME.tsig  pages of tuple signatures, one per tuple in tuple order
//	NAME.psig  pages of page signatures, one per data page in page order
//	NAME.bsig  pages of bit-slices, one per page-signature bit position
//
// A Relation handle owns all five files exclusively. It is not safe for
// concurrent use and assumes no other process writes the files while open.
package relation

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"sigdb/pkg/bits"
	dberror "sigdb/pkg/error"
	"sigdb/pkg/logging"
	"sigdb/pkg/primitives"
	"sigdb/pkg/signature"
	"sigdb/pkg/storage/page"
	"sigdb/pkg/tuple"
)

// File suffixes of a relation's files.
const (
	SuffixInfo = "info"
	SuffixData = "data"
	SuffixTsig = "tsig"
	SuffixPsig = "psig"
	SuffixBsig = "bsig"
)

var suffixes = []string{SuffixInfo, SuffixData, SuffixTsig, SuffixPsig, SuffixBsig}

// Relation is an open relation.
type Relation struct {
	name     primitives.Filepath
	params   Params
	counters Counters
	coder    signature.Coder

	info *page.BaseFile
	data *page.File
	tsig *page.File
	psig *page.File
	bsig *page.File

	log    zerolog.Logger
	closed bool
}

// Exists reports whether a relation's metadata file is present.
func Exists(name primitives.Filepath) bool {
	return name.WithSuffix(SuffixInfo).Exists()
}

// Create lays out a new relation on disk and closes it again.
//
// Parameters are validated before any file is touched. If anything fails once
// files exist, every file created so far is removed so no half-built relation
// is left behind.
//
// Parameters:
//   - name: Base path shared by the relation's files
//   - opts: Attribute count, coding scheme and requested signature widths
//
// Returns:
//   - Params: The layout that was persisted
//   - error: ErrInvalidParams or ErrSignatureSizing for unusable options,
//     ErrRelationExists if any of the files is present, or an I/O error
func Create(name primitives.Filepath, opts Options) (Params, error) {
	params, err := newParams(opts)
	if err != nil {
		return Params{}, err
	}

	for _, s := range suffixes {
		if name.WithSuffix(s).Exists() {
			return Params{}, dberror.ErrRelationExists.With("Create", "relation", "%s", name.WithSuffix(s))
		}
	}

	r := &Relation{
		name:   name,
		params: params,
		coder:  params.Coder(),
		log:    logging.WithRelation(name.Base()),
	}

	err = r.layout()
	if err == nil {
		err = r.Close()
	} else {
		err = multierr.Append(err, r.closeFiles())
	}
	if err != nil {
		for _, s := range suffixes {
			err = multierr.Append(err, name.WithSuffix(s).Remove())
		}
		r.log.Error().Err(err).Msg("relation creation abandoned")
		return Params{}, err
	}

	r.log.Info().
		Str("id", params.ID.String()).
		Int("attributes", params.Attributes).
		Stringer("scheme", params.Scheme).
		Uint("tsig_bits", params.TupleSig.Bits).
		Uint("psig_bits", params.PageSig.Bits).
		Uint("bsig_bits", params.BitSlice.Bits).
		Msg("relation created")
	return params, nil
}

// layout creates the five files: one empty page in each data-bearing file and
// the all-zero bit-slice rows.
func (r *Relation) layout() error {
	var err error
	if r.info, err = page.CreateBaseFile(r.name.WithSuffix(SuffixInfo)); err != nil {
		return err
	}
	if r.data, err = page.CreateFile(r.name.WithSuffix(SuffixData), r.params.TupleSize); err != nil {
		return err
	}
	if r.tsig, err = page.CreateFile(r.name.WithSuffix(SuffixTsig), r.params.TupleSig.Bytes); err != nil {
		return err
	}
	if r.psig, err = page.CreateFile(r.name.WithSuffix(SuffixPsig), r.params.PageSig.Bytes); err != nil {
		return err
	}
	if r.bsig, err = page.CreateFile(r.name.WithSuffix(SuffixBsig), r.params.BitSlice.Bytes); err != nil {
		return err
	}

	for _, f := range []*page.File{r.data, r.tsig, r.psig} {
		if _, err := f.AddPage(); err != nil {
			return err
		}
	}
	r.counters.Pages = 1
	r.counters.TupleSigPages = 1
	r.counters.PageSigPages = 1

	return r.initBitSlices()
}

// Open reads a relation's metadata and reopens its files. File contents are
// not checked against the metadata.
//
// Returns:
//   - *Relation: The open relation; call Close when done
//   - error: ErrRelationMissing if a file is absent, ErrShortIO or
//     ErrCorruptMetadata if the metadata cannot be read
func Open(name primitives.Filepath) (*Relation, error) {
	r := &Relation{
		name: name,
		log:  logging.WithRelation(name.Base()),
	}

	if err := r.open(); err != nil {
		return nil, multierr.Append(err, r.closeFiles())
	}

	r.coder = r.params.Coder()
	r.log.Debug().
		Uint32("tuples", uint32(r.counters.Tuples)).
		Uint32("pages", uint32(r.counters.Pages)).
		Msg("relation opened")
	return r, nil
}

func (r *Relation) open() error {
	var err error
	if r.info, err = page.OpenBaseFile(r.name.WithSuffix(SuffixInfo)); err != nil {
		return err
	}
	raw, err := r.info.ReadPageData(0)
	if err != nil {
		return err
	}
	if r.params, r.counters, err = decodeMeta(raw); err != nil {
		return err
	}

	if r.data, err = page.OpenFile(r.name.WithSuffix(SuffixData), r.params.TupleSize); err != nil {
		return err
	}
	if r.tsig, err = page.OpenFile(r.name.WithSuffix(SuffixTsig), r.params.TupleSig.Bytes); err != nil {
		return err
	}
	if r.psig, err = page.OpenFile(r.name.WithSuffix(SuffixPsig), r.params.PageSig.Bytes); err != nil {
		return err
	}
	r.bsig, err = page.OpenFile(r.name.WithSuffix(SuffixBsig), r.params.BitSlice.Bytes)
	return err
}

// Close persists the metadata, flushes every file and releases the handles.
// Handles are released even when the metadata write fails. Closing twice is
// a no-op.
func (r *Relation) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	err := errors.Wrap(r.info.WritePageData(0, encodeMeta(r.params, r.counters)), "writing metadata")
	for _, f := range []*page.File{r.data, r.tsig, r.psig, r.bsig} {
		err = multierr.Append(err, f.Sync())
	}
	err = multierr.Append(err, r.info.Sync())
	err = multierr.Append(err, r.closeFiles())

	if err != nil {
		r.log.Error().Err(err).Msg("relation close failed")
		return err
	}
	r.log.Debug().Uint32("tuples", uint32(r.counters.Tuples)).Msg("relation closed")
	return nil
}

func (r *Relation) closeFiles() error {
	var err error
	if r.info != nil {
		err = multierr.Append(err, r.info.Close())
	}
	for _, f := range []*page.File{r.data, r.tsig, r.psig, r.bsig} {
		if f != nil {
			err = multierr.Append(err, f.Close())
		}
	}
	return err
}

// Name returns the relation's base path.
func (r *Relation) Name() primitives.Filepath {
	return r.name
}

// Params returns the immutable schema parameters.
func (r *Relation) Params() Params {
	return r.params
}

// Counters returns a snapshot of the dynamic counters.
func (r *Relation) Counters() Counters {
	return r.counters
}

// MakeTupleSig computes the tuple-width signature of a tuple or query.
func (r *Relation) MakeTupleSig(t tuple.Tuple) *bits.Bits {
	return r.coder.Signature(t, r.params.TupleSig.Bits)
}

// MakePageSig computes the page-width signature of a tuple or query.
func (r *Relation) MakePageSig(t tuple.Tuple) *bits.Bits {
	return r.coder.Signature(t, r.params.PageSig.Bits)
}

// ReadDataPage loads data page pid.
func (r *Relation) ReadDataPage(pid primitives.PageNumber) (*page.Page, error) {
	return r.data.ReadPage(pid)
}

// ReadTupleSigPage loads page pid of the tuple-signature file.
func (r *Relation) ReadTupleSigPage(pid primitives.PageNumber) (*page.Page, error) {
	return r.tsig.ReadPage(pid)
}

// ReadPageSigPage loads page pid of the page-signature file.
func (r *Relation) ReadPageSigPage(pid primitives.PageNumber) (*page.Page, error) {
	return r.psig.ReadPage(pid)
}

// ReadBitSlicePage loads page pid of the bit-slice file.
func (r *Relation) ReadBitSlicePage(pid primitives.PageNumber) (*page.Page, error) {
	return r.bsig.ReadPage(pid)
}

// PageSignature returns the stored page signature of data page pid.
func (r *Relation) PageSignature(pid primitives.PageNumber) (*bits.Bits, error) {
	if primitives.Count(pid) >= r.counters.PageSigs {
		return nil, errors.Errorf("data page %d has no page signature (%d stored)", pid, r.counters.PageSigs)
	}
	ppid, slot := r.params.PageSig.Locate(primitives.Count(pid))
	p, err := r.psig.ReadPage(ppid)
	if err != nil {
		return nil, err
	}
	return bits.FromBytes(r.params.PageSig.Bits, p.Item(slot)), nil
}
