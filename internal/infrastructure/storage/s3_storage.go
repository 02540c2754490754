package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"image-optimizer/internal/domain/entities"
	"image-optimizer/pkg/file"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client the storage uses.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type S3Storage struct {
	client     S3API
	bucketName string
	prefix     string
}

func NewS3Storage(ctx context.Context, bucketName, region, prefix string) (*S3Storage, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewS3StorageWithClient(s3.NewFromConfig(cfg), bucketName, prefix), nil
}

func NewS3StorageWithClient(client S3API, bucketName, prefix string) *S3Storage {
	return &S3Storage{client: client, bucketName: bucketName, prefix: prefix}
}

func (s *S3Storage) key(id string) string {
	if s.prefix == "" {
		return id
	}
	return s.prefix + "/" + id
}

func (s *S3Storage) ReadBinary(ctx context.Context, itemIndex int, field string, att *entities.BinaryAttachment) ([]byte, error) {
	return readBinary(ctx, s, itemIndex, field, att)
}

func (s *S3Storage) WriteBinary(ctx context.Context, data []byte, fileName, mimeType string) (*entities.BinaryAttachment, error) {
	id := file.MakeKey(fileName, mimeType)
	metadata := map[string]string{}
	if fileName != "" {
		metadata["filename"] = fileName
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(s.key(id)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimeType),
		Metadata:    metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("S3 upload: %w", err)
	}
	return newAttachment(id, data, fileName, mimeType), nil
}

func (s *S3Storage) Get(ctx context.Context, id string) ([]byte, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("binary %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read S3 object: %w", err)
	}
	return data, nil
}

func (s *S3Storage) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(s.key(id)),
	})
	return err
}

func (s *S3Storage) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucketName)}
	if s.prefix != "" {
		input.Prefix = aws.String(s.prefix + "/")
	}
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return removed, err
		}
		for _, obj := range page.Contents {
			if obj.LastModified == nil || !obj.LastModified.Before(cutoff) {
				continue
			}
			_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(s.bucketName),
				Key:    obj.Key,
			})
			if err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}
