package gcstorage

import (
	"testing"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
)

// Path helpers do not need a client.
var gcsDriver = &GCSDriver{BucketName: "seqmine-dev-test"}

func TestGetRunDir(t *testing.T) {
	runID := xid.New().String()
	assert.Equal(t, "runs/"+runID+"/", gcsDriver.GetRunDir(runID))
}

func TestGetPatternsFilePathAndName(t *testing.T) {
	runID := xid.New().String()

	resultPath, resultName := gcsDriver.GetPatternsFilePathAndName(runID, "spmf")
	assert.Equal(t, gcsDriver.GetRunDir(runID), resultPath)
	assert.Equal(t, "closed_patterns.txt", resultName)

	_, resultName = gcsDriver.GetPatternsFilePathAndName(runID, "json")
	assert.Equal(t, "closed_patterns.json", resultName)
}

func TestGetRunStatsFilePathAndName(t *testing.T) {
	runID := xid.New().String()
	resultPath, resultName := gcsDriver.GetRunStatsFilePathAndName(runID)
	assert.Equal(t, gcsDriver.GetRunDir(runID), resultPath)
	assert.Equal(t, "run_stats.json", resultName)
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, "data/seq.txt", ObjectName("data/", "seq.txt"))
	assert.Equal(t, "data/seq.txt", ObjectName("data", "seq.txt"))
	assert.Equal(t, "seq.txt", ObjectName("", "seq.txt"))
	assert.Equal(t, "seqmine-dev-test", gcsDriver.GetBucketName())
}
