package pattern

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"seqmine/sequence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePattern() Pattern {
	return NewPattern([]sequence.Itemset{{1}, {2, 3}}, []int{0, 2, 5})
}

func TestPatternString(t *testing.T) {
	p := samplePattern()
	assert.Equal(t, "1 -1 2 3 -1 SID: 0 2 5 SUP: 3", p.String())
	assert.Equal(t, 3, p.Length())
	assert.Equal(t, "1 -1 2 3 -1", p.Key())
}

func TestNewPatternCopiesInput(t *testing.T) {
	itemsets := []sequence.Itemset{{1}, {2, 3}}
	sids := []int{0, 1}
	p := NewPattern(itemsets, sids)
	itemsets[1][0] = 9
	sids[0] = 7
	assert.Equal(t, "1 -1 2 3 -1 SID: 0 1 SUP: 2", p.String())
}

func TestMarshalLine(t *testing.T) {
	p := samplePattern()

	line, err := p.MarshalLine(FORMAT_SPMF)
	require.NoError(t, err)
	assert.Equal(t, p.String(), string(line))

	line, err = p.MarshalLine(FORMAT_JSON)
	require.NoError(t, err)
	assert.Equal(t, `{"p":[[1],[2,3]],"sid":[0,2,5],"sup":3}`, string(line))

	_, err = p.MarshalLine("xml")
	assert.Error(t, err)
}

func TestParseLine(t *testing.T) {
	for _, line := range []string{
		"1 -1 2 3 -1 SID: 0 2 5 SUP: 3",
		`{"p":[[1],[2,3]],"sid":[0,2,5],"sup":3}`,
		"  1 -1 3 2 -1 SID: 0 2 5 SUP: 3 ",
	} {
		p, err := ParseLine(line)
		require.NoError(t, err, line)
		assert.Equal(t, samplePattern(), p, line)
	}
}

func TestParseLineErrors(t *testing.T) {
	for _, line := range []string{
		"",
		"SID: 0 SUP: 1",
		"1 -1 2 SID: 0 SUP: 1",
		"1 -1 SUP: 1",
		"1 -1 SID: 0",
		"1 -1 SID: x SUP: 1",
		"1 -1 SID: 0 SUP: y",
		"a -1 SID: 0 SUP: 1",
		"1 -1 -1 SID: 0 SUP: 1",
		"{not json",
	} {
		_, err := ParseLine(line)
		assert.Error(t, err, line)
	}
}

func TestSortPatterns(t *testing.T) {
	patterns := []Pattern{
		NewPattern([]sequence.Itemset{{1}, {3}}, []int{0}),
		NewPattern([]sequence.Itemset{{2}}, []int{0, 1}),
		NewPattern([]sequence.Itemset{{1}, {2}}, []int{0}),
	}
	SortPatterns(patterns)
	assert.Equal(t, "2 -1", patterns[0].Key())
	assert.Equal(t, "1 -1 2 -1", patterns[1].Key())
	assert.Equal(t, "1 -1 3 -1", patterns[2].Key())
}

func TestFileSinkRoundTrip(t *testing.T) {
	for _, format := range []string{FORMAT_SPMF, FORMAT_JSON} {
		var buf bytes.Buffer
		sink, err := NewFileSink(&buf, format)
		require.NoError(t, err)

		patterns := []Pattern{samplePattern(), NewPattern([]sequence.Itemset{{4}}, []int{1})}
		for _, p := range patterns {
			require.NoError(t, sink.Emit(p))
		}
		require.NoError(t, sink.Flush())
		assert.Equal(t, 2, sink.Count())
		assert.Equal(t, 2, strings.Count(buf.String(), "\n"))

		read, err := ReadPatterns(&buf)
		require.NoError(t, err)
		assert.Equal(t, patterns, read)
	}
}

func TestNewFileSinkRejectsUnknownFormat(t *testing.T) {
	_, err := NewFileSink(&bytes.Buffer{}, "csv")
	assert.Error(t, err)
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestFileSinkErrorIsSticky(t *testing.T) {
	sink, err := NewFileSink(failingWriter{}, FORMAT_SPMF)
	require.NoError(t, err)
	// Buffered writes only fail once the buffer is flushed.
	require.NoError(t, sink.Emit(samplePattern()))
	err = sink.Flush()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, err, sink.Emit(samplePattern()))
	assert.Equal(t, err, sink.Flush())
}

func TestReadPatternsReportsLine(t *testing.T) {
	_, err := ReadPatterns(strings.NewReader("1 -1 SID: 0 SUP: 1\n\nbad\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestSyncSinkSerializesEmits(t *testing.T) {
	collector := &Collector{}
	sink := NewSyncSink(collector)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = sink.Emit(NewPattern([]sequence.Itemset{{i}}, []int{j}))
			}
		}(i)
	}
	wg.Wait()
	assert.Len(t, collector.Patterns, 400)
}
