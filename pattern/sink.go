package pattern

import (
	"bufio"
	"bytes"
	"io"
	"sync"

	"seqmine/sequence"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Sink receives closed patterns as the search finds them.
type Sink interface {
	Emit(p Pattern) error
}

// Collector keeps emitted patterns in memory.
type Collector struct {
	Patterns []Pattern
}

func (c *Collector) Emit(p Pattern) error {
	c.Patterns = append(c.Patterns, p)
	return nil
}

// SyncSink serializes Emit calls from concurrent workers.
type SyncSink struct {
	mu   sync.Mutex
	sink Sink
}

func NewSyncSink(sink Sink) *SyncSink {
	return &SyncSink{sink: sink}
}

func (s *SyncSink) Emit(p Pattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink.Emit(p)
}

// FileSink writes one line per pattern. The first write error is kept and
// returned by every later Emit and by Flush.
type FileSink struct {
	w      *bufio.Writer
	format string
	count  int
	err    error
}

func NewFileSink(w io.Writer, format string) (*FileSink, error) {
	if format == "" {
		format = FORMAT_SPMF
	}
	if format != FORMAT_SPMF && format != FORMAT_JSON {
		return nil, errors.Errorf("unknown output format %q", format)
	}
	return &FileSink{w: bufio.NewWriter(w), format: format}, nil
}

func (f *FileSink) Emit(p Pattern) error {
	if f.err != nil {
		return f.err
	}
	line, err := p.MarshalLine(f.format)
	if err != nil {
		f.err = err
		return err
	}
	if _, err := f.w.Write(line); err != nil {
		log.WithFields(log.Fields{"line": string(line), "err": err}).Error("Unable to write to file.")
		f.err = errors.Wrap(err, "write pattern")
		return f.err
	}
	if err := f.w.WriteByte('\n'); err != nil {
		f.err = errors.Wrap(err, "write pattern")
		return f.err
	}
	f.count++
	return nil
}

// Flush must succeed before the output is considered complete.
func (f *FileSink) Flush() error {
	if f.err != nil {
		return f.err
	}
	if err := f.w.Flush(); err != nil {
		f.err = errors.Wrap(err, "flush patterns")
	}
	return f.err
}

// Count is the number of patterns written so far.
func (f *FileSink) Count() int {
	return f.count
}

// ReadPatterns parses a pattern file in either output format.
func ReadPatterns(r io.Reader) ([]Pattern, error) {
	scanner := sequence.CreateScannerFromReader(r)
	patterns := make([]Pattern, 0)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		p, err := ParseLine(string(line))
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNum)
		}
		patterns = append(patterns, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read patterns")
	}
	return patterns, nil
}
