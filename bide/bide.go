package bide

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"seqmine/pattern"
	"seqmine/sequence"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Algorithm implemented : BIDE+ (closed sequential patterns)
// Wang, J., Han, J. "BIDE: Efficient Mining of Frequent Closed Sequences"

/*	Depth first pattern growth over pseudo projected databases.
	Every node of the search tree is a prefix with the ids of the sequences
	containing it and a view of what remains of each of them.

	ENTER    : check for cancellation and the node budget
	PRUNE    : BackScan, if some item can be inserted inside the prefix in the
	           semi maximum periods of every sequence, no pattern below the
	           node is closed and the node itself has a backward extension
	COUNT    : frequent S- and I-extensions of the prefix
	RECURSE  : grow each extension, remember the largest child support
	EMIT     : the prefix is closed if no child has its support and no item can
	           be inserted inside it in the maximum periods of every sequence

	Children of the empty prefix share nothing but the sink and are explored
	by up to Workers goroutines.
*/

var ErrNodeBudgetExceeded = errors.New("search node budget exceeded")

type Options struct {
	MinSupport MinSupport
	// Workers is the number of goroutines exploring length-1 prefixes.
	Workers int
	// MaxNodes bounds the number of search nodes entered. Zero means no bound.
	MaxNodes int64
	// DisableBackScan turns off subtree pruning. Results are identical.
	DisableBackScan bool
}

type Stats struct {
	Sequences       int
	MinSupport      int
	NodesEntered    int64
	SubtreesPruned  int64
	PatternsEmitted int64
	MaxDepth        int
	Duration        time.Duration
}

func (s *Stats) merge(other *Stats) {
	s.NodesEntered += other.NodesEntered
	s.SubtreesPruned += other.SubtreesPruned
	s.PatternsEmitted += other.PatternsEmitted
	if other.MaxDepth > s.MaxDepth {
		s.MaxDepth = other.MaxDepth
	}
}

type Miner struct {
	opts Options
}

func NewMiner(opts Options) *Miner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Miner{opts: opts}
}

// Run mines the closed sequential patterns of db and emits each of them once
// into sink. With more than one worker sink is wrapped in a pattern.SyncSink
// and the emission order is not deterministic.
func (m *Miner) Run(ctx context.Context, db *sequence.Database, sink pattern.Sink) (Stats, error) {
	startTime := time.Now()
	stats := Stats{Sequences: db.Size()}

	minSupport, err := m.opts.MinSupport.Resolve(db.Size())
	if err != nil {
		return stats, err
	}
	stats.MinSupport = minSupport

	root := NewRootProjectedDatabase(db)
	rootPrefix := &Prefix{Itemsets: []sequence.Itemset{}}
	extensions := CountExtensions(root, minSupport)
	log.WithFields(log.Fields{"sequences": db.Size(), "min_support": minSupport,
		"frequent_items": len(extensions), "workers": m.opts.Workers}).Debug("Starting closed pattern search.")

	budget := &nodeBudget{max: m.opts.MaxNodes}
	if m.opts.Workers == 1 || len(extensions) < 2 {
		s := m.newSearch(ctx, db, minSupport, sink, budget)
		for _, ext := range extensions {
			if _, err := s.grow(rootPrefix, root, ext, 1); err != nil {
				stats.merge(&s.stats)
				return stats, err
			}
			log.WithFields(log.Fields{"item": ext.Key.Item, "support": ext.Coverage.Support()}).
				Debug("Explored length-1 prefix.")
		}
		stats.merge(&s.stats)
		stats.Duration = time.Since(startTime)
		return stats, nil
	}

	syncSink := pattern.NewSyncSink(sink)
	var statsMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Workers)
	for _, ext := range extensions {
		ext := ext
		g.Go(func() error {
			s := m.newSearch(gctx, db, minSupport, syncSink, budget)
			_, err := s.grow(rootPrefix, root, ext, 1)
			statsMu.Lock()
			stats.merge(&s.stats)
			statsMu.Unlock()
			if err == nil {
				log.WithFields(log.Fields{"item": ext.Key.Item, "support": ext.Coverage.Support()}).
					Debug("Explored length-1 prefix.")
			}
			return err
		})
	}
	err = g.Wait()
	stats.Duration = time.Since(startTime)
	return stats, err
}

// nodeBudget is shared by all workers of a run.
type nodeBudget struct {
	max     int64
	entered atomic.Int64
}

func (b *nodeBudget) enter() error {
	n := b.entered.Add(1)
	if b.max > 0 && n > b.max {
		return ErrNodeBudgetExceeded
	}
	return nil
}

// search is the state of one worker. It is not safe for concurrent use.
type search struct {
	ctx        context.Context
	db         *sequence.Database
	minSupport int
	sink       pattern.Sink
	backScan   bool
	budget     *nodeBudget
	stats      Stats
}

func (m *Miner) newSearch(ctx context.Context, db *sequence.Database, minSupport int,
	sink pattern.Sink, budget *nodeBudget) *search {
	return &search{
		ctx:        ctx,
		db:         db,
		minSupport: minSupport,
		sink:       sink,
		backScan:   !m.opts.DisableBackScan,
		budget:     budget,
	}
}

// grow builds the child of prefix for ext and visits it. It returns the
// support of the child.
func (s *search) grow(prefix *Prefix, pdb *ProjectedDatabase, ext Extension, depth int) (int, error) {
	child := prefix.Extend(ext.Key, ext.Coverage)
	return s.visit(child, pdb.Project(ext.Key, ext.Coverage), depth)
}

func (s *search) visit(prefix *Prefix, pdb *ProjectedDatabase, depth int) (int, error) {
	if err := s.ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.budget.enter(); err != nil {
		return 0, err
	}
	s.stats.NodesEntered++
	if depth > s.stats.MaxDepth {
		s.stats.MaxDepth = depth
	}
	support := prefix.Support()

	// A BackScan hit also means a backward extension, so the node is not
	// emitted either.
	if s.backScan && BackScanPrune(s.db, prefix) {
		s.stats.SubtreesPruned++
		return support, nil
	}

	extensions := CountExtensions(pdb, s.minSupport)
	childMaxSupport := 0
	for _, ext := range extensions {
		childSupport, err := s.grow(prefix, pdb, ext, depth+1)
		if err != nil {
			return 0, err
		}
		if childSupport > childMaxSupport {
			childMaxSupport = childSupport
		}
	}

	if (len(extensions) == 0 || childMaxSupport != support) && !HasBackwardExtension(s.db, prefix) {
		if err := s.sink.Emit(pattern.NewPattern(prefix.Itemsets, prefix.Coverage)); err != nil {
			return 0, errors.Wrapf(err, "emit pattern %s", prefix.String())
		}
		s.stats.PatternsEmitted++
	}
	return support, nil
}

// Mine is a convenience wrapper returning the closed patterns in memory.
func Mine(ctx context.Context, db *sequence.Database, opts Options) ([]pattern.Pattern, Stats, error) {
	collector := &pattern.Collector{}
	stats, err := NewMiner(opts).Run(ctx, db, collector)
	if err != nil {
		return nil, stats, err
	}
	return collector.Patterns, stats, nil
}
