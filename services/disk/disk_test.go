package disk

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGet(t *testing.T) {
	driver := New(t.TempDir())
	runID := xid.New().String()
	dir, name := driver.GetPatternsFilePathAndName(runID, "spmf")

	content := "1 -1 2 -1 SID: 0 1 2 3 SUP: 4\n"
	require.NoError(t, driver.Create(dir, name, strings.NewReader(content)))

	rc, err := driver.Get(dir, name)
	require.NoError(t, err)
	defer rc.Close()
	read, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, string(read))

	// Only the target file is left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCreateOverwrites(t *testing.T) {
	dir := t.TempDir()
	driver := New(dir)
	require.NoError(t, driver.Create(dir, "out.txt", strings.NewReader("first")))
	require.NoError(t, driver.Create(dir, "out.txt", strings.NewReader("second")))

	read, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(read))
}

func TestGetMissingFile(t *testing.T) {
	driver := New(t.TempDir())
	_, err := driver.Get(driver.GetBucketName(), "missing.txt")
	assert.True(t, os.IsNotExist(err))
}

func TestPathHelpers(t *testing.T) {
	driver := New("/tmp/seqmine")
	runID := xid.New().String()

	assert.Equal(t, "/tmp/seqmine/runs/"+runID+"/", driver.GetRunDir(runID))
	path, name := driver.GetPatternsFilePathAndName(runID, "json")
	assert.Equal(t, driver.GetRunDir(runID), path)
	assert.Equal(t, "closed_patterns.json", name)
	path, name = driver.GetRunStatsFilePathAndName(runID)
	assert.Equal(t, driver.GetRunDir(runID), path)
	assert.Equal(t, "run_stats.json", name)
}
