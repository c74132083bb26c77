package sequence

import (
	"sort"
	"strconv"
	"strings"
)

// Item is an opaque identifier of an event (e.g. a query partition).
type Item = int

// Itemset is the set of items seen at one position of a sequence.
// Items are kept in strictly increasing order.
type Itemset []Item

// NewItemset sorts and de-duplicates items.
func NewItemset(items ...Item) Itemset {
	is := make(Itemset, len(items))
	copy(is, items)
	sort.Ints(is)
	j := 0
	for i := 0; i < len(is); i++ {
		if j > 0 && is[j-1] == is[i] {
			continue
		}
		is[j] = is[i]
		j++
	}
	return is[:j]
}

// IndexOf returns the position of item in the itemset or -1.
func (is Itemset) IndexOf(item Item) int {
	return is.IndexOfFrom(item, 0)
}

// IndexOfFrom looks for item among is[from:] and returns its absolute position or -1.
func (is Itemset) IndexOfFrom(item Item, from int) int {
	if from >= len(is) {
		return -1
	}
	rest := is[from:]
	i := sort.SearchInts(rest, item)
	if i < len(rest) && rest[i] == item {
		return from + i
	}
	return -1
}

// ContainsAll reports whether every item of other is in is.
func (is Itemset) ContainsAll(other Itemset) bool {
	if len(other) > len(is) {
		return false
	}
	i := 0
	for _, item := range other {
		for i < len(is) && is[i] < item {
			i++
		}
		if i == len(is) || is[i] != item {
			return false
		}
		i++
	}
	return true
}

// Last returns the largest item. The itemset must not be empty.
func (is Itemset) Last() Item {
	return is[len(is)-1]
}

func (is Itemset) Clone() Itemset {
	c := make(Itemset, len(is))
	copy(c, is)
	return c
}

// Sequence is an ordered list of itemsets with an id unique in its database.
type Sequence struct {
	ID       int
	Itemsets []Itemset
}

func (s *Sequence) Size() int {
	return len(s.Itemsets)
}

// ItemCount is the total number of items over all itemsets.
func (s *Sequence) ItemCount() int {
	count := 0
	for _, is := range s.Itemsets {
		count += len(is)
	}
	return count
}

func (s *Sequence) String() string {
	return FormatItemsets(s.Itemsets)
}

// FormatItemsets renders itemsets in the tokenized input convention,
// each itemset followed by -1.
func FormatItemsets(itemsets []Itemset) string {
	var b strings.Builder
	for i, is := range itemsets {
		if i > 0 {
			b.WriteByte(' ')
		}
		for _, item := range is {
			b.WriteString(strconv.Itoa(item))
			b.WriteByte(' ')
		}
		b.WriteString(ITEMSET_END)
	}
	return b.String()
}

// Contains reports whether pattern is a subsequence of itemsets: there are
// increasing positions j_0 < j_1 < ... with pattern[k] ⊆ itemsets[j_k].
// Greedy leftmost matching is exact for this relation.
func Contains(itemsets []Itemset, pattern []Itemset) bool {
	pos := 0
	for _, p := range pattern {
		found := false
		for pos < len(itemsets) {
			t := pos
			pos++
			if itemsets[t].ContainsAll(p) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
