package disk

import (
	"io"
	"os"

	"seqmine/filestore"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var _ filestore.FileManager = (*DiskDriver)(nil)

type DiskDriver struct {
	// This can be used as namespace
	// to differentiate files across multiple instances of DiskDriver
	// Analogus to bucket name
	baseDir string
}

func New(baseDir string) *DiskDriver {
	return &DiskDriver{baseDir: baseDir}
}

func MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func (dd *DiskDriver) Create(path, fileName string, reader io.ReadSeeker) error {
	if path != "" {
		if err := MkdirAll(path); err != nil {
			log.WithError(err).Errorln("Failed to create dir")
			return err
		}
	}

	path = filestore.WithTrailingSlash(path)
	// Written next to the target and renamed so readers never see a partial file.
	tmp, err := os.CreateTemp(dirOrCurrent(path), "."+fileName+".*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "write %s%s", path, fileName)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path+fileName)
}

func dirOrCurrent(path string) string {
	if path == "" {
		return "."
	}
	return path
}

// Get opens a file in read only mode.
// Caller should take care of closing the returned io.ReadCloser.
func (dd *DiskDriver) Get(path, fileName string) (io.ReadCloser, error) {
	log.WithFields(log.Fields{
		"Path":     path,
		"FileName": fileName,
	}).Debug("DiskDriver Opening file")

	path = filestore.WithTrailingSlash(path)
	file, err := os.OpenFile(path+fileName, os.O_RDONLY, 0444)
	return file, err
}

func (dd *DiskDriver) GetBucketName() string {
	return dd.baseDir
}

func (dd *DiskDriver) GetRunDir(runID string) string {
	return filestore.WithTrailingSlash(dd.baseDir) + filestore.RunDir(runID)
}

func (dd *DiskDriver) GetPatternsFilePathAndName(runID, format string) (string, string) {
	return dd.GetRunDir(runID), filestore.PatternsFileName(format)
}

func (dd *DiskDriver) GetRunStatsFilePathAndName(runID string) (string, string) {
	return dd.GetRunDir(runID), filestore.STATS_FILE_NAME
}
