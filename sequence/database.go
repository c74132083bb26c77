package sequence

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	ITEMSET_END  = "-1"
	SEQUENCE_END = "-2"
)

// 20 MB.
const MAX_LINE_BYTES = 20 * 1024 * 1024

// ParseError is returned when a token of the input is neither an item nor a marker.
type ParseError struct {
	Line   int
	Token  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: invalid token %q: %s", e.Line, e.Token, e.Reason)
}

// Database is the immutable in-memory sequence store.
type Database struct {
	sequences []*Sequence
	maxItems  int
}

// NewDatabase builds a store from itemset lists. Sequence ids are the
// positions in the given slice. Itemsets are normalized and empty ones dropped.
func NewDatabase(sequences [][]Itemset) *Database {
	db := &Database{sequences: make([]*Sequence, 0, len(sequences))}
	for _, itemsets := range sequences {
		s := &Sequence{ID: len(db.sequences)}
		for _, is := range itemsets {
			n := NewItemset(is...)
			if len(n) > 0 {
				s.Itemsets = append(s.Itemsets, n)
			}
		}
		db.add(s)
	}
	return db
}

func (db *Database) add(s *Sequence) {
	db.sequences = append(db.sequences, s)
	if c := s.ItemCount(); c > db.maxItems {
		db.maxItems = c
	}
}

// Size is N, the denominator of relative support.
func (db *Database) Size() int {
	return len(db.sequences)
}

// Get returns the sequence with the given id or nil.
func (db *Database) Get(id int) *Sequence {
	if id < 0 || id >= len(db.sequences) {
		return nil
	}
	return db.sequences[id]
}

// Sequences returns the sequences ordered by id. Callers must not modify them.
func (db *Database) Sequences() []*Sequence {
	return db.sequences
}

// MaxItems is the item count of the longest sequence, which bounds the
// length of any pattern.
func (db *Database) MaxItems() int {
	return db.maxItems
}

func CreateScannerFromReader(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	// Adjust scanner buffer capacity to MAX_LINE_BYTES per line.
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, MAX_LINE_BYTES)
	return scanner
}

// Load reads a tokenized sequence database. A bare integer is an item of the
// current itemset, -1 closes the itemset and -2 closes the sequence. A line
// without -2 closes its sequence at the end of the line. Lines starting with
// '#', '%' or '@' are metadata and skipped.
func Load(r io.Reader) (*Database, error) {
	scanner := CreateScannerFromReader(r)
	db := &Database{sequences: make([]*Sequence, 0)}

	var current *Sequence
	var itemset []Item
	closeItemset := func() {
		if len(itemset) > 0 {
			current.Itemsets = append(current.Itemsets, NewItemset(itemset...))
		}
		itemset = itemset[:0]
	}
	closeSequence := func() {
		closeItemset()
		current.ID = db.Size()
		db.add(current)
		current = nil
	}

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == '%' || line[0] == '@' {
			continue
		}
		for _, token := range strings.Fields(line) {
			if current == nil {
				current = &Sequence{}
			}
			switch token {
			case ITEMSET_END:
				closeItemset()
				continue
			case SEQUENCE_END:
				closeSequence()
				continue
			}
			item, err := strconv.Atoi(token)
			if err != nil {
				return nil, &ParseError{Line: lineNum, Token: token, Reason: "not an integer"}
			}
			if item < 0 {
				return nil, &ParseError{Line: lineNum, Token: token, Reason: "negative item"}
			}
			itemset = append(itemset, item)
		}
		if current != nil && (len(current.Itemsets) > 0 || len(itemset) > 0) {
			closeSequence()
		}
		current = nil
		itemset = itemset[:0]
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading sequence database at line %d", lineNum)
	}

	log.WithFields(log.Fields{
		"sequences": db.Size(),
		"max_items": db.MaxItems(),
	}).Debug("Loaded sequence database.")
	return db, nil
}
