package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"time"

	"seqmine/bide"
	C "seqmine/config"
	"seqmine/filestore"
	"seqmine/metrics"
	"seqmine/pattern"
	"seqmine/sequence"
	serviceDisk "seqmine/services/disk"
	serviceGCS "seqmine/services/gcstorage"
	serviceS3 "seqmine/services/s3"
	"seqmine/util"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	log "github.com/sirupsen/logrus"
)

// RunSummary is logged at the end of a run and published next to the results.
type RunSummary struct {
	RunID        string        `json:"run_id"`
	InputPath    string        `json:"input_path"`
	OutputDir    string        `json:"output_dir"`
	OutputName   string        `json:"output_name"`
	OutputFormat string        `json:"output_format"`
	MinSupport   string        `json:"min_support"`
	Stats        bide.Stats    `json:"stats"`
	InputBytes   int64         `json:"input_bytes"`
	OutputBytes  int64         `json:"output_bytes"`
	TimeTaken    time.Duration `json:"time_taken"`
}

func main() {
	flags := C.RegisterFlags(flag.CommandLine)
	flag.Parse()

	config, err := C.Load(flags)
	if err != nil {
		log.WithError(err).Error("Invalid configuration.")
		os.Exit(1)
	}
	C.InitLogging(config)
	flushSentry, err := C.InitSentry(config)
	if err != nil {
		log.WithError(err).Error("Failed to init sentry.")
	}
	defer flushSentry()
	defer util.NotifyOnPanic("Task#PatternMine", config.Env)

	runID := xid.New().String()
	exporter := metrics.InitMetrics(config.Env, config.AppName, config.GcpProjectId, config.GcpProjectLocation, runID)

	log.WithFields(log.Fields{
		"Env":             config.Env,
		"RunID":           runID,
		"Storage":         config.Storage,
		"Bucket":          config.BucketName,
		"localDiskTmpDir": config.LocalDiskTmpDir,
		"NumRoutines":     config.NumRoutines,
	}).Infoln("Initialising")

	cloudManager, err := newFileManager(config)
	if err != nil {
		log.WithError(err).Error("Failed to init file manager.")
		os.Exit(1)
	}

	summary, err := runPatternMine(context.Background(), config, cloudManager, runID)
	if err != nil {
		metrics.Increment(metrics.IncrMineRunFailure)
	} else {
		metrics.Increment(metrics.IncrMineRunSuccess)
	}
	if exporter != nil {
		exporter.Flush()
		exporter.StopMetricsExporter()
	}
	if err != nil {
		log.WithFields(log.Fields{"run_id": runID, "err": err}).Error("Pattern mining failed.")
		flushSentry()
		os.Exit(1)
	}
	log.WithFields(log.Fields{"summary": summary}).Info("Pattern mining finished.")
}

func newFileManager(config *C.Configuration) (filestore.FileManager, error) {
	switch config.Storage {
	case C.STORAGE_GCS:
		return serviceGCS.New(config.BucketName)
	case C.STORAGE_S3:
		return serviceS3.New(config.BucketName, config.Region)
	default:
		return serviceDisk.New(config.BucketName), nil
	}
}

func minSupportFromConfig(config *C.Configuration) bide.MinSupport {
	if config.MinSupportCount != nil {
		return bide.AbsoluteSupport(*config.MinSupportCount)
	}
	return bide.RelativeSupport(*config.MinSupportRatio)
}

// countingReader counts the bytes read through it.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// runPatternMine loads the sequence database, mines the closed patterns into
// a local temporary file and publishes it only once mining and flushing
// succeeded, so a partial result is never visible.
func runPatternMine(ctx context.Context, config *C.Configuration, cloudManager filestore.FileManager,
	runID string) (*RunSummary, error) {
	startTime := time.Now()
	logCtx := log.WithFields(log.Fields{"run_id": runID})
	summary := &RunSummary{
		RunID:        runID,
		InputPath:    config.InputPath,
		OutputFormat: config.OutputFormat,
		MinSupport:   minSupportFromConfig(config).String(),
	}

	// Load.
	loadStart := time.Now()
	dir, name := filestore.SplitPath(config.InputPath)
	rc, err := cloudManager.Get(dir, name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", config.InputPath)
	}
	counter := &countingReader{r: rc}
	db, err := sequence.Load(counter)
	rc.Close()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", config.InputPath)
	}
	summary.InputBytes = counter.n
	metrics.RecordLatency(metrics.LatencyMineLoad, time.Since(loadStart))
	metrics.RecordBytesSize(metrics.BytesMineInput, counter.n)
	logCtx.WithFields(log.Fields{"sequences": db.Size(), "bytes": counter.n}).Info("Loaded sequence database.")

	// Mine.
	if err := os.MkdirAll(config.LocalDiskTmpDir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create tmp dir")
	}
	tmpFile, err := os.CreateTemp(config.LocalDiskTmpDir, "patterns_"+runID+"_*")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create tmp file")
	}
	defer func() {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
	}()
	sink, err := pattern.NewFileSink(tmpFile, config.OutputFormat)
	if err != nil {
		return nil, err
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}
	miner := bide.NewMiner(bide.Options{
		MinSupport:      minSupportFromConfig(config),
		Workers:         config.NumRoutines,
		MaxNodes:        config.MaxNodes,
		DisableBackScan: config.DisableBackscan,
	})
	stats, err := miner.Run(ctx, db, sink)
	summary.Stats = stats
	if err != nil {
		return nil, errors.Wrap(err, "failed to mine closed patterns")
	}
	if err := sink.Flush(); err != nil {
		return nil, err
	}
	metrics.RecordLatency(metrics.LatencyMineSearch, stats.Duration)
	metrics.CountInt(metrics.CountMineSequences, int64(stats.Sequences))
	metrics.CountInt(metrics.CountMineNodesEntered, stats.NodesEntered)
	metrics.CountInt(metrics.CountMineSubtreesPruned, stats.SubtreesPruned)
	metrics.CountInt(metrics.CountMinePatternsEmitted, stats.PatternsEmitted)
	logCtx.WithFields(log.Fields{"patterns": sink.Count(), "nodes": stats.NodesEntered,
		"pruned": stats.SubtreesPruned, "min_support": stats.MinSupport}).Info("Mined closed patterns.")

	// Publish.
	publishStart := time.Now()
	if config.OutputPath != "" {
		summary.OutputDir, summary.OutputName = filestore.SplitPath(config.OutputPath)
	} else {
		summary.OutputDir, summary.OutputName = cloudManager.GetPatternsFilePathAndName(runID, config.OutputFormat)
	}
	size, err := tmpFile.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if _, err := tmpFile.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if err := cloudManager.Create(summary.OutputDir, summary.OutputName, tmpFile); err != nil {
		return nil, errors.Wrap(err, "failed to publish closed patterns")
	}
	summary.OutputBytes = size
	metrics.RecordBytesSize(metrics.BytesMineOutput, size)

	summary.TimeTaken = time.Since(startTime)
	statsDir, statsName := cloudManager.GetRunStatsFilePathAndName(runID)
	summaryBytes, err := json.Marshal(summary)
	if err != nil {
		return nil, err
	}
	if err := cloudManager.Create(statsDir, statsName, bytes.NewReader(summaryBytes)); err != nil {
		return nil, errors.Wrap(err, "failed to publish run stats")
	}
	metrics.RecordLatency(metrics.LatencyMinePublish, time.Since(publishStart))
	return summary, nil
}
