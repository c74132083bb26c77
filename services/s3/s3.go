package s3

import (
	"io"

	"seqmine/filestore"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var _ filestore.FileManager = (*S3Driver)(nil)

type S3Driver struct {
	s3         s3iface.S3API
	BucketName string
	Region     string
}

func New(bucketName, region string) (*S3Driver, error) {
	sess, err := session.NewSession(aws.NewConfig().WithRegion(region))
	if err != nil {
		return nil, err
	}
	return NewWithClient(s3.New(sess), bucketName, region), nil
}

// NewWithClient uses an existing client, e.g. one pointed at a local endpoint.
func NewWithClient(client s3iface.S3API, bucketName, region string) *S3Driver {
	return &S3Driver{s3: client, BucketName: bucketName, Region: region}
}

func (sd *S3Driver) Create(dir, fileName string, reader io.ReadSeeker) error {
	log.WithFields(log.Fields{
		"Dir":        dir,
		"BucketName": sd.BucketName,
		"Region":     sd.Region,
	}).Debug("S3Driver Creating file")

	input := &s3.PutObjectInput{
		Bucket: aws.String(sd.BucketName),
		Body:   reader,
		Key:    aws.String(ObjectKey(dir, fileName)),
	}
	if _, err := sd.s3.PutObject(input); err != nil {
		return errors.Wrapf(err, "put s3://%s/%s", sd.BucketName, ObjectKey(dir, fileName))
	}
	return nil
}

func (sd *S3Driver) Get(dir, fileName string) (io.ReadCloser, error) {
	input := s3.GetObjectInput{
		Bucket: aws.String(sd.BucketName),
		Key:    aws.String(ObjectKey(dir, fileName)),
	}
	op, err := sd.s3.GetObject(&input)
	if err != nil {
		return nil, err
	}
	return op.Body, nil
}

func (sd *S3Driver) GetBucketName() string {
	return sd.BucketName
}

func (sd *S3Driver) GetRunDir(runID string) string {
	return filestore.RunDir(runID)
}

func (sd *S3Driver) GetPatternsFilePathAndName(runID, format string) (string, string) {
	return sd.GetRunDir(runID), filestore.PatternsFileName(format)
}

func (sd *S3Driver) GetRunStatsFilePathAndName(runID string) (string, string) {
	return sd.GetRunDir(runID), filestore.STATS_FILE_NAME
}

// ObjectKey joins a dir and a file name without doubling the separator.
func ObjectKey(dir, fileName string) string {
	return filestore.WithTrailingSlash(dir) + fileName
}
