// Package archive uploads finished record logs to S3-compatible storage.
package archive

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds construction parameters for an Uploader.
type Config struct {
	Region          string
	Bucket          string
	Prefix          string // key prefix, e.g. "runs/"
	Endpoint        string // optional; for MinIO and other S3-compatible stores
	AccessKeyID     string // optional; falls back to the default credentials chain
	SecretAccessKey string
	PathStyle       bool
	HTTPClient      *http.Client // optional
}

// Environment variables:
//   UGSIM_S3_BUCKET=<bucket> (required)
//   UGSIM_S3_REGION=<region> (default us-east-1)
//   UGSIM_S3_PREFIX=<key prefix>
//   UGSIM_S3_ENDPOINT=<url> (optional)
//   UGSIM_S3_PATH_STYLE=true|false
//   AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY (optional)

// Uploader copies local files into one bucket.
type Uploader struct {
	client *s3.Client
	bucket string
	prefix string
}

// New creates an Uploader from cfg.
func New(ctx context.Context, cfg Config) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.HTTPClient != nil {
			o.HTTPClient = cfg.HTTPClient
		}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
	return &Uploader{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// OpenFromEnv constructs an Uploader from the process environment.
func OpenFromEnv(ctx context.Context) (*Uploader, error) {
	bucket := os.Getenv("UGSIM_S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("UGSIM_S3_BUCKET required for archiving")
	}
	return New(ctx, Config{
		Bucket:    bucket,
		Region:    os.Getenv("UGSIM_S3_REGION"),
		Prefix:    os.Getenv("UGSIM_S3_PREFIX"),
		Endpoint:  os.Getenv("UGSIM_S3_ENDPOINT"),
		PathStyle: strings.EqualFold(os.Getenv("UGSIM_S3_PATH_STYLE"), "true"),
	})
}

// Key returns the object key a file is uploaded under.
func (u *Uploader) Key(name string) string {
	return path.Join(u.prefix, name)
}

// Upload puts the file at localPath under Key(name) and returns the key.
func (u *Uploader) Upload(ctx context.Context, name, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	key := u.Key(name)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &u.bucket,
		Key:           &key,
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String("application/zstd"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	slog.Info("record log archived", "bucket", u.bucket, "key", key, "bytes", info.Size())
	return key, nil
}
