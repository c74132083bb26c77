package gcstorage

import (
	"context"
	"io"

	"seqmine/filestore"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var _ filestore.FileManager = (*GCSDriver)(nil)

type GCSDriver struct {
	client     *storage.Client
	BucketName string
}

func New(bucketName string) (*GCSDriver, error) {
	ctx := context.Background()
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	d := &GCSDriver{
		BucketName: bucketName,
		client:     client,
	}
	return d, nil
}

func (gcsd *GCSDriver) Create(dir, fileName string, reader io.ReadSeeker) error {
	ctx := context.Background()
	obj := gcsd.client.Bucket(gcsd.BucketName).Object(ObjectName(dir, fileName))
	w := obj.NewWriter(ctx)
	if _, err := io.Copy(w, reader); err != nil {
		// Closing after a failed copy would commit a partial object.
		w.CloseWithError(err)
		return errors.Wrapf(err, "upload gs://%s/%s", gcsd.BucketName, ObjectName(dir, fileName))
	}
	err := w.Close()
	if err == nil {
		log.WithFields(log.Fields{"bucket": gcsd.BucketName, "object": ObjectName(dir, fileName)}).
			Debug("GCSDriver created object")
	}
	return err
}

func (gcsd *GCSDriver) Get(dir, fileName string) (io.ReadCloser, error) {
	ctx := context.Background()
	obj := gcsd.client.Bucket(gcsd.BucketName).Object(ObjectName(dir, fileName))
	rc, err := obj.NewReader(ctx)
	return rc, err
}

func (gcsd *GCSDriver) GetBucketName() string {
	return gcsd.BucketName
}

func (gcsd *GCSDriver) GetRunDir(runID string) string {
	return filestore.RunDir(runID)
}

func (gcsd *GCSDriver) GetPatternsFilePathAndName(runID, format string) (string, string) {
	return gcsd.GetRunDir(runID), filestore.PatternsFileName(format)
}

func (gcsd *GCSDriver) GetRunStatsFilePathAndName(runID string) (string, string) {
	return gcsd.GetRunDir(runID), filestore.STATS_FILE_NAME
}

// ObjectName joins a dir and a file name into an object name.
func ObjectName(dir, fileName string) string {
	return filestore.WithTrailingSlash(dir) + fileName
}
