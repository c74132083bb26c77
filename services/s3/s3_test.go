package s3

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryS3 keeps objects in a map keyed by bucket and key.
type memoryS3 struct {
	s3iface.S3API
	objects map[string][]byte
}

func (m *memoryS3) PutObject(input *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	m.objects[*input.Bucket+"/"+*input.Key] = body
	return &s3.PutObjectOutput{}, nil
}

func (m *memoryS3) GetObject(input *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
	body, ok := m.objects[*input.Bucket+"/"+*input.Key]
	if !ok {
		return nil, assert.AnError
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: aws.Int64(int64(len(body))),
	}, nil
}

func newTestDriver() (*S3Driver, *memoryS3) {
	client := &memoryS3{objects: make(map[string][]byte)}
	return NewWithClient(client, "seqmine-dev-test", "us-east-1"), client
}

func TestCreateAndGet(t *testing.T) {
	driver, client := newTestDriver()
	runID := xid.New().String()
	dir, name := driver.GetPatternsFilePathAndName(runID, "spmf")

	content := "1 -1 3 -1 SID: 0 1 2 3 SUP: 4\n"
	require.NoError(t, driver.Create(dir, name, strings.NewReader(content)))
	assert.Contains(t, client.objects, "seqmine-dev-test/runs/"+runID+"/closed_patterns.txt")

	rc, err := driver.Get(dir, name)
	require.NoError(t, err)
	defer rc.Close()
	read, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, string(read))
}

func TestGetMissingObject(t *testing.T) {
	driver, _ := newTestDriver()
	_, err := driver.Get("runs/", "missing.txt")
	assert.Error(t, err)
}

func TestPathHelpers(t *testing.T) {
	driver, _ := newTestDriver()
	runID := xid.New().String()

	assert.Equal(t, "runs/"+runID+"/", driver.GetRunDir(runID))
	path, name := driver.GetRunStatsFilePathAndName(runID)
	assert.Equal(t, driver.GetRunDir(runID), path)
	assert.Equal(t, "run_stats.json", name)
	_, name = driver.GetPatternsFilePathAndName(runID, "json")
	assert.Equal(t, "closed_patterns.json", name)

	assert.Equal(t, "a/b.txt", ObjectKey("a", "b.txt"))
	assert.Equal(t, "a/b.txt", ObjectKey("a/", "b.txt"))
	assert.Equal(t, "seqmine-dev-test", driver.GetBucketName())
}
