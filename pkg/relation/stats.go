package relation

import "sigdb/pkg/primitives"

// Stats is a snapshot of a relation's static layout and dynamic counts.
type Stats struct {
	Name     string
	Params   Params
	Counters Counters

	// PageCapacity is the number of data pages the bit-slice rows can
	// represent. Insertion stops once the data file would exceed it.
	PageCapacity primitives.Count
	// FillFactor is the share of data-page slots holding tuples.
	FillFactor float64
}

// Stats reports the relation's current statistics.
func (r *Relation) Stats() Stats {
	s := Stats{
		Name:         r.name.Base(),
		Params:       r.params,
		Counters:     r.counters,
		PageCapacity: primitives.Count(r.params.BitSlice.Bits),
	}
	if slots := r.counters.Pages * r.params.TuplesPerPage; slots > 0 {
		s.FillFactor = float64(r.counters.Tuples) / float64(slots)
	}
	return s
}
