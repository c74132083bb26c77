package bide

import (
	"sort"
)

// CountExtensions makes one pass over the index and returns, for every
// single-item extension supported by at least minSupport sequences, the set
// of sequences supporting it. A key is counted at most once per sequence.
//
// An item is an I-extension candidate only inside a trailing remainder
// (a continuation view); it is an S-extension candidate in any itemset after
// an itemset boundary.
func CountExtensions(pdb *ProjectedDatabase, minSupport int) []Extension {
	coverages := make(map[ExtensionKey]Coverage)
	alreadyCounted := make(map[ExtensionKey]bool)

	add := func(key ExtensionKey, sid int) {
		if alreadyCounted[key] {
			return
		}
		alreadyCounted[key] = true
		coverages[key] = append(coverages[key], sid)
	}

	for _, proj := range pdb.projections {
		// Projections are grouped by sequence id, one per id.
		for k := range alreadyCounted {
			delete(alreadyCounted, k)
		}
		sid := proj.Primary.SequenceID
		s := pdb.db.Get(sid)

		countRemainder := func(view PseudoSequence) {
			if !hasRemainder(s, view) {
				return
			}
			for _, item := range s.Itemsets[view.ItemsetIndex][view.ItemIndex:] {
				add(ExtensionKey{Kind: I_EXTENSION, Item: item}, sid)
			}
		}

		start := proj.Primary.ItemsetIndex
		if proj.Primary.Continuation {
			countRemainder(proj.Primary)
			start++
		}
		for t := start; t < len(s.Itemsets); t++ {
			for _, item := range s.Itemsets[t] {
				add(ExtensionKey{Kind: S_EXTENSION, Item: item}, sid)
			}
		}
		for _, alt := range proj.Alternates {
			countRemainder(alt)
		}
	}

	extensions := make([]Extension, 0, len(coverages))
	for key, coverage := range coverages {
		if len(coverage) >= minSupport {
			extensions = append(extensions, Extension{Key: key, Coverage: coverage})
		}
	}
	sortExtensions(extensions)
	return extensions
}

// sortExtensions orders by item, I-extensions first, so a single worker
// visits the search tree deterministically.
func sortExtensions(extensions []Extension) {
	sort.Slice(extensions, func(i, j int) bool {
		a, b := extensions[i].Key, extensions[j].Key
		if a.Item != b.Item {
			return a.Item < b.Item
		}
		return a.Kind > b.Kind
	})
}
