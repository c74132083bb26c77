package bide

import (
	"math/rand"
	"sort"

	"seqmine/pattern"
	"seqmine/sequence"
)

func is(items ...sequence.Item) sequence.Itemset {
	return sequence.NewItemset(items...)
}

// exampleDatabase is the example database with a..g mapped to 1..7.
func exampleDatabase() *sequence.Database {
	return sequence.NewDatabase([][]sequence.Itemset{
		{is(1), is(1, 2, 3), is(1, 3), is(4), is(3, 6)},
		{is(1, 4), is(3), is(2, 3), is(1, 5)},
		{is(5, 6), is(1, 2), is(4, 6), is(3), is(2)},
		{is(5), is(7), is(1, 6), is(3), is(2), is(3)},
	})
}

func randomDatabase(seed int64, numSequences, maxItemsets, maxItemsetSize, numItems int) *sequence.Database {
	r := rand.New(rand.NewSource(seed))
	sequences := make([][]sequence.Itemset, numSequences)
	for i := range sequences {
		n := 1 + r.Intn(maxItemsets)
		for j := 0; j < n; j++ {
			size := 1 + r.Intn(maxItemsetSize)
			items := make([]sequence.Item, size)
			for k := range items {
				items[k] = 1 + r.Intn(numItems)
			}
			sequences[i] = append(sequences[i], sequence.NewItemset(items...))
		}
	}
	return sequence.NewDatabase(sequences)
}

func coverageOf(db *sequence.Database, itemsets []sequence.Itemset) []int {
	sids := make([]int, 0)
	for _, s := range db.Sequences() {
		if sequence.Contains(s.Itemsets, itemsets) {
			sids = append(sids, s.ID)
		}
	}
	return sids
}

// bruteForceFrequent enumerates every frequent pattern breadth first. Each
// pattern is generated once: by an S-extension with any item or by an
// I-extension with an item above the last one.
func bruteForceFrequent(db *sequence.Database, minSupport int) []pattern.Pattern {
	itemSet := make(map[sequence.Item]bool)
	for _, s := range db.Sequences() {
		for _, itemset := range s.Itemsets {
			for _, item := range itemset {
				itemSet[item] = true
			}
		}
	}
	items := make([]sequence.Item, 0, len(itemSet))
	for item := range itemSet {
		items = append(items, item)
	}
	sort.Ints(items)

	frequent := make([]pattern.Pattern, 0)
	level := make([][]sequence.Itemset, 0)
	for _, item := range items {
		level = append(level, []sequence.Itemset{{item}})
	}
	for len(level) > 0 {
		next := make([][]sequence.Itemset, 0)
		for _, candidate := range level {
			sids := coverageOf(db, candidate)
			if len(sids) < minSupport {
				continue
			}
			frequent = append(frequent, pattern.NewPattern(candidate, sids))
			last := candidate[len(candidate)-1]
			for _, item := range items {
				grown := append(cloneItemsets(candidate), sequence.Itemset{item})
				next = append(next, grown)
				if item > last.Last() {
					grown := cloneItemsets(candidate)
					grown[len(grown)-1] = append(grown[len(grown)-1], item)
					next = append(next, grown)
				}
			}
		}
		level = next
	}
	return frequent
}

func cloneItemsets(itemsets []sequence.Itemset) []sequence.Itemset {
	c := make([]sequence.Itemset, len(itemsets))
	for i, itemset := range itemsets {
		c[i] = itemset.Clone()
	}
	return c
}

// bruteForceClosed keeps the frequent patterns with no frequent proper
// super-pattern of the same support.
func bruteForceClosed(db *sequence.Database, minSupport int) []pattern.Pattern {
	frequent := bruteForceFrequent(db, minSupport)
	closed := make([]pattern.Pattern, 0)
	for i := range frequent {
		p := &frequent[i]
		isClosed := true
		for j := range frequent {
			q := &frequent[j]
			if q.Support == p.Support && q.Length() > p.Length() && sequence.Contains(q.Itemsets, p.Itemsets) {
				isClosed = false
				break
			}
		}
		if isClosed {
			closed = append(closed, *p)
		}
	}
	pattern.SortPatterns(closed)
	return closed
}

func patternLines(patterns []pattern.Pattern) []string {
	sorted := make([]pattern.Pattern, len(patterns))
	copy(sorted, patterns)
	pattern.SortPatterns(sorted)
	lines := make([]string, len(sorted))
	for i := range sorted {
		lines[i] = sorted[i].String()
	}
	return lines
}
