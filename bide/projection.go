package bide

import (
	"seqmine/sequence"
)

// NewRootProjectedDatabase is the index of the empty prefix: every sequence,
// viewed from its first itemset boundary.
func NewRootProjectedDatabase(db *sequence.Database) *ProjectedDatabase {
	pdb := &ProjectedDatabase{
		db:          db,
		projections: make([]Projection, 0, db.Size()),
	}
	for _, s := range db.Sequences() {
		pdb.projections = append(pdb.projections, Projection{
			Primary: PseudoSequence{SequenceID: s.ID},
		})
	}
	return pdb
}

// resumeAfter is the view that starts right after item j of itemset t.
func resumeAfter(s *sequence.Sequence, t, j int) PseudoSequence {
	if j == len(s.Itemsets[t])-1 {
		return PseudoSequence{SequenceID: s.ID, ItemsetIndex: t + 1}
	}
	return PseudoSequence{SequenceID: s.ID, ItemsetIndex: t, ItemIndex: j + 1, Continuation: true}
}

// hasRemainder reports whether a continuation view still has items in its
// first itemset.
func hasRemainder(s *sequence.Sequence, ps PseudoSequence) bool {
	return ps.Continuation && ps.ItemIndex < len(s.Itemsets[ps.ItemsetIndex])
}

// Project builds the child index for prefix+key. Only sequences listed in
// coverage are projected. Every child view resumes right after the first
// occurrence of the item reachable from the parent's resume point.
func (pdb *ProjectedDatabase) Project(key ExtensionKey, coverage Coverage) *ProjectedDatabase {
	child := &ProjectedDatabase{
		db:          pdb.db,
		projections: make([]Projection, 0, len(coverage)),
	}
	c := 0
	for _, proj := range pdb.projections {
		if c == len(coverage) {
			break
		}
		if proj.Primary.SequenceID != coverage[c] {
			continue
		}
		c++
		s := pdb.db.Get(proj.Primary.SequenceID)
		var projected Projection
		var ok bool
		if key.Kind == S_EXTENSION {
			projected, ok = projectSExtension(s, proj, key.Item)
		} else {
			projected, ok = projectIExtension(s, proj, key.Item)
		}
		if ok {
			child.projections = append(child.projections, projected)
		}
	}
	return child
}

// projectSExtension looks for the item in the itemsets strictly after the
// ones already consumed by the prefix.
func projectSExtension(s *sequence.Sequence, proj Projection, item sequence.Item) (Projection, bool) {
	start := proj.Primary.ItemsetIndex
	if proj.Primary.Continuation {
		start++
	}
	var projected Projection
	found := false
	for t := start; t < len(s.Itemsets); t++ {
		j := s.Itemsets[t].IndexOf(item)
		if j == -1 {
			continue
		}
		view := resumeAfter(s, t, j)
		if !found {
			projected.Primary = view
			found = true
		} else if view.Continuation {
			projected.Alternates = append(projected.Alternates, view)
		}
	}
	return projected, found
}

// projectIExtension looks for the item in the trailing remainders of the
// itemsets that hold the prefix's last itemset, in itemset order.
func projectIExtension(s *sequence.Sequence, proj Projection, item sequence.Item) (Projection, bool) {
	var projected Projection
	found := false
	visit := func(view PseudoSequence) {
		if !hasRemainder(s, view) {
			return
		}
		j := s.Itemsets[view.ItemsetIndex].IndexOfFrom(item, view.ItemIndex)
		if j == -1 {
			return
		}
		next := resumeAfter(s, view.ItemsetIndex, j)
		if !found {
			projected.Primary = next
			found = true
		} else if next.Continuation {
			projected.Alternates = append(projected.Alternates, next)
		}
	}
	visit(proj.Primary)
	for _, alt := range proj.Alternates {
		visit(alt)
	}
	return projected, found
}
