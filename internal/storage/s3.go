package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Backend implements Backend against an S3-compatible object store.
// It implements the full put/get/presign/list contract, with a CDN base
// URL fallback so presign degrades to a static CDN URL when presigning
// fails.
type S3Backend struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	bucket     string
	cdnBaseURL string
}

func NewS3Backend(ctx context.Context, bucket, region, cdnBaseURL string) (*S3Backend, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return &S3Backend{
		client:     client,
		presigner:  s3.NewPresignClient(client),
		bucket:     bucket,
		cdnBaseURL: cdnBaseURL,
	}, nil
}

func (b *S3Backend) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("put %s to s3: %w", key, err)
	}
	return key, nil
}

func (b *S3Backend) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s from s3: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s body: %w", key, err)
	}
	return data, nil
}

func (b *S3Backend) Presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := b.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		if b.cdnBaseURL != "" {
			return b.cdnBaseURL + "/" + strings.TrimPrefix(key, "/"), nil
		}
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

func (b *S3Backend) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list prefix %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}
