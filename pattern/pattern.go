package pattern

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"seqmine/sequence"

	"github.com/pkg/errors"
)

const (
	FORMAT_SPMF = "spmf"
	FORMAT_JSON = "json"
)

const (
	SID_MARKER = "SID:"
	SUP_MARKER = "SUP:"
)

// Pattern is a closed sequential pattern together with the ids of the
// sequences containing it. Support is the absolute number of those sequences.
type Pattern struct {
	Itemsets    []sequence.Itemset `json:"p"`
	SequenceIDs []int              `json:"sid"`
	Support     int                `json:"sup"`
}

func NewPattern(itemsets []sequence.Itemset, sequenceIDs []int) Pattern {
	p := Pattern{
		Itemsets:    make([]sequence.Itemset, len(itemsets)),
		SequenceIDs: make([]int, len(sequenceIDs)),
		Support:     len(sequenceIDs),
	}
	for i, is := range itemsets {
		p.Itemsets[i] = is.Clone()
	}
	copy(p.SequenceIDs, sequenceIDs)
	return p
}

// Length is the number of items over all itemsets.
func (p *Pattern) Length() int {
	n := 0
	for _, is := range p.Itemsets {
		n += len(is)
	}
	return n
}

// Key identifies the pattern by its itemsets alone.
func (p *Pattern) Key() string {
	return sequence.FormatItemsets(p.Itemsets)
}

// String is the SPMF text line: "1 -1 3 -1 SID: 0 1 2 SUP: 3".
func (p *Pattern) String() string {
	var b strings.Builder
	for _, is := range p.Itemsets {
		for _, item := range is {
			b.WriteString(strconv.Itoa(item))
			b.WriteByte(' ')
		}
		b.WriteString(sequence.ITEMSET_END)
		b.WriteByte(' ')
	}
	b.WriteString(SID_MARKER)
	for _, sid := range p.SequenceIDs {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(sid))
	}
	b.WriteByte(' ')
	b.WriteString(SUP_MARKER)
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(p.Support))
	return b.String()
}

// MarshalLine encodes the pattern as one output line without the newline.
func (p *Pattern) MarshalLine(format string) ([]byte, error) {
	switch format {
	case FORMAT_SPMF, "":
		return []byte(p.String()), nil
	case FORMAT_JSON:
		return json.Marshal(p)
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// ParseLine reads back a line written by MarshalLine in either format.
func ParseLine(line string) (Pattern, error) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "{") {
		var p Pattern
		if err := json.Unmarshal([]byte(line), &p); err != nil {
			return Pattern{}, errors.Wrap(err, "invalid json pattern line")
		}
		return p, nil
	}
	return parseSPMFLine(line)
}

func parseSPMFLine(line string) (Pattern, error) {
	var p Pattern
	tokens := strings.Fields(line)
	i := 0
	current := make([]sequence.Item, 0)
	for ; i < len(tokens) && tokens[i] != SID_MARKER; i++ {
		if tokens[i] == sequence.ITEMSET_END {
			if len(current) == 0 {
				return Pattern{}, fmt.Errorf("empty itemset in pattern line %q", line)
			}
			p.Itemsets = append(p.Itemsets, sequence.NewItemset(current...))
			current = current[:0]
			continue
		}
		item, err := strconv.Atoi(tokens[i])
		if err != nil || item < 0 {
			return Pattern{}, fmt.Errorf("invalid item %q in pattern line", tokens[i])
		}
		current = append(current, item)
	}
	if len(current) > 0 || len(p.Itemsets) == 0 {
		return Pattern{}, fmt.Errorf("pattern line %q has no closed itemset", line)
	}
	if i == len(tokens) {
		return Pattern{}, fmt.Errorf("missing %s in pattern line %q", SID_MARKER, line)
	}

	p.SequenceIDs = make([]int, 0)
	for i++; i < len(tokens) && tokens[i] != SUP_MARKER; i++ {
		sid, err := strconv.Atoi(tokens[i])
		if err != nil {
			return Pattern{}, fmt.Errorf("invalid sequence id %q in pattern line", tokens[i])
		}
		p.SequenceIDs = append(p.SequenceIDs, sid)
	}
	if i+2 != len(tokens) {
		return Pattern{}, fmt.Errorf("missing %s value in pattern line %q", SUP_MARKER, line)
	}
	support, err := strconv.Atoi(tokens[i+1])
	if err != nil {
		return Pattern{}, fmt.Errorf("invalid support %q in pattern line", tokens[i+1])
	}
	p.Support = support
	return p, nil
}

// SortPatterns orders by length, then lexicographically by text, so outputs
// of different runs can be compared.
func SortPatterns(patterns []Pattern) {
	sort.Slice(patterns, func(i, j int) bool {
		li, lj := patterns[i].Length(), patterns[j].Length()
		if li != lj {
			return li < lj
		}
		return patterns[i].String() < patterns[j].String()
	})
}
