package bide

import (
	"seqmine/sequence"
)

type ExtensionKind int

const (
	// S_EXTENSION appends a new itemset to the prefix.
	S_EXTENSION ExtensionKind = iota
	// I_EXTENSION adds an item to the last itemset of the prefix.
	I_EXTENSION
)

func (k ExtensionKind) String() string {
	if k == I_EXTENSION {
		return "i"
	}
	return "s"
}

type ExtensionKey struct {
	Kind ExtensionKind
	Item sequence.Item
}

// Coverage is the ascending list of ids of the sequences containing a pattern.
type Coverage []int

func (c Coverage) Support() int {
	return len(c)
}

func (c Coverage) Clone() Coverage {
	n := make(Coverage, len(c))
	copy(n, c)
	return n
}

// Extension is a frequent candidate extension with the sequences supporting it.
type Extension struct {
	Key      ExtensionKey
	Coverage Coverage
}

// PseudoSequence is a suffix view of one sequence of the store. It never
// copies items: reads go through the referenced sequence.
type PseudoSequence struct {
	SequenceID   int
	ItemsetIndex int
	ItemIndex    int
	// Continuation is true when the first itemset of the view is the
	// trailing remainder of an itemset that already matched part of the prefix.
	Continuation bool
}

// Projection groups the views of one sequence at a search node. Primary
// resumes after the first occurrence of the prefix. Alternates are later
// itemsets that also hold the prefix's last itemset, resumed after it; they
// only feed I-extensions.
type Projection struct {
	Primary    PseudoSequence
	Alternates []PseudoSequence
}

// ProjectedDatabase is what remains to match after the prefix, one
// Projection per supporting sequence, ordered by sequence id.
type ProjectedDatabase struct {
	db          *sequence.Database
	projections []Projection
}

func (pdb *ProjectedDatabase) Size() int {
	return len(pdb.projections)
}

func (pdb *ProjectedDatabase) Projections() []Projection {
	return pdb.projections
}

// Prefix is the pattern under construction with its coverage set.
type Prefix struct {
	Itemsets []sequence.Itemset
	Coverage Coverage
}

func (p *Prefix) Support() int {
	return len(p.Coverage)
}

// Extend returns a new prefix grown by key. The receiver is not modified.
func (p *Prefix) Extend(key ExtensionKey, coverage Coverage) *Prefix {
	itemsets := make([]sequence.Itemset, len(p.Itemsets), len(p.Itemsets)+1)
	copy(itemsets, p.Itemsets)
	if key.Kind == I_EXTENSION {
		last := len(itemsets) - 1
		grown := make(sequence.Itemset, len(itemsets[last]), len(itemsets[last])+1)
		copy(grown, itemsets[last])
		itemsets[last] = append(grown, key.Item)
	} else {
		itemsets = append(itemsets, sequence.Itemset{key.Item})
	}
	return &Prefix{Itemsets: itemsets, Coverage: coverage}
}

func (p *Prefix) String() string {
	return sequence.FormatItemsets(p.Itemsets)
}
