// Package s3dest implements the AWS S3 upload destination.
package s3dest

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

const (
	destinationNameConstant              = "aws-s3"
	bucketNotConfiguredMessageConstant   = "s3 bucket not configured"
	sessionCreationErrorTemplateConstant = "unable to create aws session: %w"
	archiveOpenErrorTemplateConstant     = "unable to open archive %s: %w"
	uploadErrorTemplateConstant          = "unable to upload %s to bucket %s: %w"
)

// ErrBucketNotConfigured indicates the destination was requested without a bucket identifier.
var ErrBucketNotConfigured = errors.New(bucketNotConfiguredMessageConstant)

// Store uploads archives to one S3 bucket.
type Store struct {
	bucketName string
	uploader   *s3manager.Uploader
}

// NewStore constructs the destination using the ambient AWS credential chain.
func NewStore(bucketName string) (*Store, error) {
	if len(bucketName) == 0 {
		return nil, ErrBucketNotConfigured
	}

	awsSession, sessionError := session.NewSession()
	if sessionError != nil {
		return nil, fmt.Errorf(sessionCreationErrorTemplateConstant, sessionError)
	}

	return &Store{
		bucketName: bucketName,
		uploader:   s3manager.NewUploader(awsSession),
	}, nil
}

// Name identifies the destination in logs and notifications.
func (store *Store) Name() string {
	return destinationNameConstant
}

// Upload streams the local archive to the bucket under the remote path.
func (store *Store) Upload(executionContext context.Context, localArchivePath string, remoteArchivePath string) error {
	archiveFile, openError := os.Open(localArchivePath)
	if openError != nil {
		return fmt.Errorf(archiveOpenErrorTemplateConstant, localArchivePath, openError)
	}
	defer archiveFile.Close()

	_, uploadError := store.uploader.UploadWithContext(executionContext, &s3manager.UploadInput{
		Bucket: aws.String(store.bucketName),
		Key:    aws.String(remoteArchivePath),
		Body:   archiveFile,
	})
	if uploadError != nil {
		return fmt.Errorf(uploadErrorTemplateConstant, remoteArchivePath, store.bucketName, uploadError)
	}

	return nil
}
