package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// seams for tests
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
		return c.DeleteObject(ctx, in)
	}
)

// S3Config carries the settings for an S3-compatible backend (MinIO in dev).
type S3Config struct {
	RootUser     string
	RootPassword string
	Bucket       string
	Region       string
	BaseEndpoint string
}

// S3ImageStore implements ImageStore on top of aws-sdk-go-v2.
type S3ImageStore struct {
	cfg S3Config
}

func NewS3ImageStore(cfg S3Config) *S3ImageStore {
	return &S3ImageStore{cfg: cfg}
}

func (s *S3ImageStore) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.RootUser,     // MINIO_ROOT_USER
			s.cfg.RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.cfg.BaseEndpoint)
		o.UsePathStyle = true
	})

	return client, nil
}

// objectURL derives the public URL for a stored key.
func (s *S3ImageStore) objectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.cfg.BaseEndpoint, "/"), s.cfg.Bucket, key)
}

// Upload stores a new object under folder/targetID and returns its id and URL.
func (s *S3ImageStore) Upload(ctx context.Context, file io.Reader, folder, targetID string) (*UploadResult, error) {
	key := folder + "/" + targetID
	return s.put(ctx, file, key)
}

// Replace overwrites the object behind an existing identifier in place, so
// the previous blob is not orphaned and the id stays stable.
func (s *S3ImageStore) Replace(ctx context.Context, file io.Reader, existingID string) (*UploadResult, error) {
	return s.put(ctx, file, existingID)
}

func (s *S3ImageStore) put(ctx context.Context, file io.Reader, key string) (*UploadResult, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.cfg.Bucket
	if _, err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Body:   file,
	}); err != nil {
		return nil, fmt.Errorf("error uploading object: %w", err)
	}

	return &UploadResult{ID: key, URL: s.objectURL(key)}, nil
}

// Delete removes the object behind the identifier.
func (s *S3ImageStore) Delete(ctx context.Context, id string) error {
	client, err := s.getClient(ctx)
	if err != nil {
		return err
	}

	bucket := s.cfg.Bucket
	if _, err := deleteObject(client, ctx, &s3.DeleteObjectInput{
		Bucket: &bucket,
		Key:    &id,
	}); err != nil {
		return fmt.Errorf("error deleting object: %w", err)
	}
	return nil
}
