package s3

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/sommelier/searchbench/storage/fs"
	"github.com/sommelier/searchbench/types"
)

// Type should match the package name
const Type = "s3"

// Storage is a way to store run results in an S3 bucket.
type Storage struct {
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	Region          string `json:"region,omitempty"`
	Bucket          string `json:"bucket"`

	// Run files older than CheckExpiry will be
	// deleted on calls to Maintain(). If this is
	// the zero value, no old run files will be
	// deleted.
	CheckExpiry time.Duration `json:"check_expiry,omitempty"`
}

// New creates a new Storage instance based on json config
func New(config json.RawMessage) (Storage, error) {
	var storage Storage
	err := json.Unmarshal(config, &storage)
	return storage, err
}

// Type returns the storage driver package name
func (Storage) Type() string {
	return Type
}

func (s Storage) service() s3svc {
	return newS3(session.New(), &aws.Config{
		Credentials: credentials.NewStaticCredentials(s.AccessKeyID, s.SecretAccessKey, ""),
		Region:      &s.Region,
	})
}

// Store stores results on S3 according to the configuration in s.
func (s Storage) Store(results []types.Result) error {
	jsonBytes, err := json.Marshal(results)
	if err != nil {
		return err
	}
	params := &s3.PutObjectInput{
		Bucket:      &s.Bucket,
		Key:         fs.GenerateFilename(),
		Body:        bytes.NewReader(jsonBytes),
		ContentType: aws.String("application/json"),
	}
	_, err = s.service().PutObject(params)
	if err == nil {
		logrus.WithFields(logrus.Fields{"bucket": s.Bucket, "key": *params.Key}).Debug("stored run")
	}
	return err
}

// Maintain deletes run files that are older than s.CheckExpiry.
func (s Storage) Maintain() error {
	if s.CheckExpiry == 0 {
		return nil
	}

	svc := s.service()

	var marker *string
	for {
		listParams := &s3.ListObjectsInput{
			Bucket: &s.Bucket,
			Marker: marker,
		}
		listResp, err := svc.ListObjects(listParams)
		if err != nil {
			return err
		}

		var objsToDelete []*s3.ObjectIdentifier
		for _, o := range listResp.Contents {
			if time.Since(*o.LastModified) > s.CheckExpiry {
				objsToDelete = append(objsToDelete, &s3.ObjectIdentifier{Key: o.Key})
			}
		}

		if len(objsToDelete) > 0 {
			delParams := &s3.DeleteObjectsInput{
				Bucket: &s.Bucket,
				Delete: &s3.Delete{
					Objects: objsToDelete,
					Quiet:   aws.Bool(true),
				},
			}
			if _, err := svc.DeleteObjects(delParams); err != nil {
				return err
			}
			logrus.WithField("bucket", s.Bucket).Debugf("deleted %d expired runs", len(objsToDelete))
		}

		if listResp.IsTruncated == nil || !*listResp.IsTruncated || len(listResp.Contents) == 0 {
			break
		}

		marker = listResp.Contents[len(listResp.Contents)-1].Key
	}

	return nil
}

// newS3 calls s3.New(), but may be replaced for mocking in tests.
var newS3 = func(p client.ConfigProvider, cfgs ...*aws.Config) s3svc {
	return s3.New(p, cfgs...)
}

// s3svc is used for mocking the s3.S3 type.
type s3svc interface {
	PutObject(*s3.PutObjectInput) (*s3.PutObjectOutput, error)
	ListObjects(*s3.ListObjectsInput) (*s3.ListObjectsOutput, error)
	DeleteObjects(*s3.DeleteObjectsInput) (*s3.DeleteObjectsOutput, error)
}
