// Package s3 stores run reports as JSON objects in an S3 bucket, so a
// fleet of hosts can publish delivery measurements to one place.
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

	"github.com/paneprobe/paneprobe/storage/fs"
	"github.com/paneprobe/paneprobe/types"
)

// Type should match the package name
const Type = "s3"

// Storage is a way to store run reports in an S3 bucket.
type Storage struct {
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	Region          string `json:"region"`
	Bucket          string `json:"bucket"`

	// Report objects older than ReportExpiry will be deleted on
	// calls to Maintain(). If this is the zero value, no old
	// reports will be deleted.
	ReportExpiry time.Duration `json:"report_expiry,omitempty"`
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

// Store uploads the report to S3 under a timestamp-sortable key.
func (s Storage) Store(report *types.RunReport) error {
	jsonBytes, err := json.Marshal(report)
	if err != nil {
		return err
	}
	params := &s3.PutObjectInput{
		Bucket: &s.Bucket,
		Key:    fs.GenerateFilename(),
		Body:   bytes.NewReader(jsonBytes),
	}
	_, err = s.service().PutObject(params)
	return err
}

// Maintain deletes report objects that are older than s.ReportExpiry.
func (s Storage) Maintain() error {
	if s.ReportExpiry == 0 {
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
			if time.Since(*o.LastModified) > s.ReportExpiry {
				objsToDelete = append(objsToDelete, &s3.ObjectIdentifier{Key: o.Key})
			}
		}

		if len(objsToDelete) == 0 {
			break
		}

		delParams := &s3.DeleteObjectsInput{
			Bucket: &s.Bucket,
			Delete: &s3.Delete{
				Objects: objsToDelete,
				Quiet:   aws.Bool(true),
			},
		}

		if _, err = svc.DeleteObjects(delParams); err != nil {
			return err
		}

		if !*listResp.IsTruncated {
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
