package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"overlay-service/internal/config"
)

const (
	emptyAWSSessionToken = ""
	assetKeyPrefix       = "assets"
	previewKeyPrefix     = "previews"
	attachmentKeyPrefix  = "attachments"

	errFailedCreateAWSSessionFmt          = "failed to create AWS session: %w"
	errFailedPutObjectFmt                 = "failed to put object: %w"
	errFailedGetObjectFmt                 = "failed to get object: %w"
	errFailedReadObjectBodyFmt            = "failed to read object body: %w"
	errFailedDeleteObjectFmt              = "failed to delete object: %w"
	errFailedGeneratePresignedDownloadFmt = "failed to generate presigned download URL: %w"
)

// Store holds overlay media bytes in a single bucket. Asset bytes and their
// preview frames live in parallel keyspaces under the owning broadcaster so a
// channel's objects share a prefix.
type Store struct {
	svc                *s3.S3
	bucket             string
	presignedURLExpiry time.Duration
}

func NewStore(cfg *config.AWSConfig, bucket string, presignedURLExpiry time.Duration) (*Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			emptyAWSSessionToken,
		),
	})

	if err != nil {
		return nil, fmt.Errorf(errFailedCreateAWSSessionFmt, err)
	}

	return &Store{
		svc:                s3.New(sess),
		bucket:             bucket,
		presignedURLExpiry: presignedURLExpiry,
	}, nil
}

// AssetKey is the object key for an asset's media bytes.
func AssetKey(broadcaster string, assetID uuid.UUID) string {
	return fmt.Sprintf("%s/%s/%s", assetKeyPrefix, broadcaster, assetID)
}

// PreviewKey is the object key for an asset's still preview frame.
func PreviewKey(broadcaster string, assetID uuid.UUID) string {
	return fmt.Sprintf("%s/%s/%s", previewKeyPrefix, broadcaster, assetID)
}

// AttachmentKey is the object key for a script attachment's bytes.
func AttachmentKey(broadcaster string, attachmentID uuid.UUID) string {
	return fmt.Sprintf("%s/%s/%s", attachmentKeyPrefix, broadcaster, attachmentID)
}

func (s *Store) Put(ctx context.Context, objectKey string, data []byte, contentType string) error {
	_, err := s.svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})

	if err != nil {
		return fmt.Errorf(errFailedPutObjectFmt, err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, objectKey string) ([]byte, string, error) {
	out, err := s.svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})

	if err != nil {
		return nil, "", fmt.Errorf(errFailedGetObjectFmt, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf(errFailedReadObjectBodyFmt, err)
	}

	return data, aws.StringValue(out.ContentType), nil
}

// Delete removes the object. Deleting a key that does not exist is not an
// error, so cleanup after a failed ingestion can fire unconditionally.
func (s *Store) Delete(ctx context.Context, objectKey string) error {
	_, err := s.svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})

	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil
		}
		return fmt.Errorf(errFailedDeleteObjectFmt, err)
	}

	return nil
}

func (s *Store) GeneratePresignedDownloadURL(ctx context.Context, objectKey string) (string, error) {
	req, _ := s.svc.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	req.SetContext(ctx)

	url, err := req.Presign(s.presignedURLExpiry)
	if err != nil {
		return "", fmt.Errorf(errFailedGeneratePresignedDownloadFmt, err)
	}

	return url, nil
}
