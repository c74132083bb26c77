package bide

import (
	"math"

	"seqmine/sequence"
)

// Period is a window of itemsets of one sequence in which an item could be
// inserted into the prefix without breaking its match. S-extension periods
// host a new itemset before prefix itemset Position; I-extension periods
// host an item added to prefix itemset Position, so only itemsets holding
// Within qualify and only items below Below count.
type Period struct {
	SequenceID int
	Kind       ExtensionKind
	Position   int
	Start      int
	End        int
	Within     sequence.Itemset
	Below      sequence.Item
}

func (p *Period) forEachCandidate(s *sequence.Sequence, visit func(item sequence.Item)) {
	for t := p.Start; t < p.End; t++ {
		is := s.Itemsets[t]
		if p.Kind == S_EXTENSION {
			for _, item := range is {
				visit(item)
			}
			continue
		}
		if !is.ContainsAll(p.Within) {
			continue
		}
		for _, item := range is {
			if item >= p.Below {
				break
			}
			if p.Within.IndexOf(item) == -1 {
				visit(item)
			}
		}
	}
}

// embedding holds, for one sequence, the itemset index matched by each prefix
// itemset in the leftmost (first) and rightmost (last) instance of the prefix.
type embedding struct {
	s     *sequence.Sequence
	first []int
	last  []int
}

func leftmostEmbedding(s *sequence.Sequence, itemsets []sequence.Itemset) ([]int, bool) {
	positions := make([]int, len(itemsets))
	t := 0
	for k, p := range itemsets {
		for t < len(s.Itemsets) && !s.Itemsets[t].ContainsAll(p) {
			t++
		}
		if t == len(s.Itemsets) {
			return nil, false
		}
		positions[k] = t
		t++
	}
	return positions, true
}

func rightmostEmbedding(s *sequence.Sequence, itemsets []sequence.Itemset) ([]int, bool) {
	positions := make([]int, len(itemsets))
	t := len(s.Itemsets) - 1
	for k := len(itemsets) - 1; k >= 0; k-- {
		for t >= 0 && !s.Itemsets[t].ContainsAll(itemsets[k]) {
			t--
		}
		if t < 0 {
			return nil, false
		}
		positions[k] = t
		t--
	}
	return positions, true
}

func embeddingsOf(db *sequence.Database, prefix *Prefix, withLast bool) []embedding {
	embeddings := make([]embedding, 0, len(prefix.Coverage))
	for _, sid := range prefix.Coverage {
		s := db.Get(sid)
		e := embedding{s: s}
		var ok bool
		if e.first, ok = leftmostEmbedding(s, prefix.Itemsets); !ok {
			continue
		}
		if withLast {
			if e.last, ok = rightmostEmbedding(s, prefix.Itemsets); !ok {
				continue
			}
		}
		embeddings = append(embeddings, e)
	}
	return embeddings
}

// firstBefore is the itemset matched by prefix itemset k-1 in the first
// instance, -1 for k == 0.
func (e *embedding) firstBefore(k int) int {
	if k == 0 {
		return -1
	}
	return e.first[k-1]
}

// lastAfter is the itemset matched by prefix itemset k+1 in the last
// instance, or the sequence length when k is the last prefix itemset.
func (e *embedding) lastAfter(k int) int {
	if k+1 == len(e.last) {
		return len(e.s.Itemsets)
	}
	return e.last[k+1]
}

// maximumPeriods are the periods of prefix itemset k bounded by the first
// instance on the left and the last instance on the right. Every item found
// in them can be inserted in at least one instance of the prefix.
func maximumPeriods(e *embedding, prefix *Prefix, k int) []Period {
	sid := e.s.ID
	within := prefix.Itemsets[k]
	below := math.MaxInt
	if k == len(prefix.Itemsets)-1 {
		// Larger items in the last itemset are forward I-extensions.
		below = within.Last()
	}
	return []Period{
		{SequenceID: sid, Kind: S_EXTENSION, Position: k, Start: e.firstBefore(k) + 1, End: e.last[k]},
		{SequenceID: sid, Kind: I_EXTENSION, Position: k, Start: e.firstBefore(k) + 1, End: e.lastAfter(k),
			Within: within, Below: below},
	}
}

// semiMaximumPeriods are bounded by the first instance on both sides. They
// are contained in the maximum periods and stay valid for every pattern
// grown from the prefix, except for items added to its last itemset.
func semiMaximumPeriods(e *embedding, prefix *Prefix, k int) []Period {
	sid := e.s.ID
	periods := []Period{
		{SequenceID: sid, Kind: S_EXTENSION, Position: k, Start: e.firstBefore(k) + 1, End: e.first[k]},
	}
	if k < len(prefix.Itemsets)-1 {
		periods = append(periods, Period{SequenceID: sid, Kind: I_EXTENSION, Position: k,
			Start: e.firstBefore(k) + 1, End: e.first[k] + 1, Within: prefix.Itemsets[k], Below: math.MaxInt})
	}
	return periods
}

type periodsFunc func(e *embedding, prefix *Prefix, k int) []Period

// hasFullSupportInsertion reports whether, for some prefix itemset k, an
// item of the periods appears in the periods of every sequence of the
// coverage set. Items are counted once per sequence.
func hasFullSupportInsertion(db *sequence.Database, prefix *Prefix, withLast bool, periodsAt periodsFunc) bool {
	support := prefix.Support()
	if support == 0 || len(prefix.Itemsets) == 0 {
		return false
	}
	embeddings := embeddingsOf(db, prefix, withLast)
	if len(embeddings) != support {
		return false
	}

	counts := make(map[ExtensionKey]int)
	alreadyCounted := make(map[ExtensionKey]bool)
	for k := range prefix.Itemsets {
		for key := range counts {
			delete(counts, key)
		}
		for n := range embeddings {
			e := &embeddings[n]
			for key := range alreadyCounted {
				delete(alreadyCounted, key)
			}
			for _, period := range periodsAt(e, prefix, k) {
				kind := period.Kind
				period.forEachCandidate(e.s, func(item sequence.Item) {
					key := ExtensionKey{Kind: kind, Item: item}
					if alreadyCounted[key] {
						return
					}
					alreadyCounted[key] = true
					// A key missing from an earlier sequence can no longer reach full support.
					if counts[key] == n {
						counts[key] = n + 1
					}
				})
			}
			for key, c := range counts {
				if c <= n {
					delete(counts, key)
				}
			}
			if len(counts) == 0 {
				break
			}
		}
		for _, c := range counts {
			if c == support {
				return true
			}
		}
	}
	return false
}

// HasBackwardExtension reports whether an item can be inserted inside the
// prefix (before its end) in every sequence of its coverage set. Such a
// prefix is not closed.
func HasBackwardExtension(db *sequence.Database, prefix *Prefix) bool {
	return hasFullSupportInsertion(db, prefix, true, maximumPeriods)
}

// BackScanPrune reports whether no pattern grown from the prefix can be
// closed, so its subtree can be skipped.
func BackScanPrune(db *sequence.Database, prefix *Prefix) bool {
	return hasFullSupportInsertion(db, prefix, false, semiMaximumPeriods)
}
