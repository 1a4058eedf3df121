// Package staging uploads export files to S3 for graph-database bulk loading.
package staging

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// S3Client is the subset of *s3.Client the uploader needs.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ S3Client = (*s3.Client)(nil)

// NewS3Client builds a client from the default credential chain.
func NewS3Client(ctx context.Context, region string) (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

type Uploader struct {
	Client S3Client
	Bucket string
	Prefix string
	// Concurrency bounds parallel uploads; 0 means 4.
	Concurrency int
	Logger      *zap.Logger
}

type Object struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// URI is the s3:// location of the uploaded prefix, as bulk loaders expect it.
func (u *Uploader) URI() string {
	return "s3://" + u.Bucket + "/" + strings.Trim(u.Prefix, "/")
}

// Key maps a local file under baseDir to its object key.
func (u *Uploader) Key(baseDir, file string) (string, error) {
	rel, err := filepath.Rel(baseDir, file)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside %s", file, baseDir)
	}
	return path.Join(strings.Trim(u.Prefix, "/"), filepath.ToSlash(rel)), nil
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".jsonl", ".ndjson":
		return "application/x-ndjson"
	}
	return "application/octet-stream"
}

// Upload puts every file under baseDir to the bucket and returns the objects
// sorted by key.
func (u *Uploader) Upload(ctx context.Context, baseDir string, files []string) ([]Object, error) {
	if u.Bucket == "" {
		return nil, errors.New("staging: bucket is required")
	}
	logger := u.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := u.Concurrency
	if limit <= 0 {
		limit = 4
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var mu sync.Mutex
	var out []Object
	for _, file := range files {
		g.Go(func() error {
			key, err := u.Key(baseDir, file)
			if err != nil {
				return err
			}
			size, err := u.put(gctx, file, key)
			if err != nil {
				return fmt.Errorf("upload %s: %w", file, err)
			}
			mu.Lock()
			out = append(out, Object{Key: key, Size: size})
			mu.Unlock()
			logger.Debug("uploaded", zap.String("bucket", u.Bucket), zap.String("key", key), zap.Int64("bytes", size))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	logger.Info("staging upload complete", zap.Int("objects", len(out)), zap.String("uri", u.URI()))
	return out, nil
}

func (u *Uploader) put(ctx context.Context, file, key string) (int64, error) {
	f, err := os.Open(file)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}

	_, err = u.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.Bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(contentType(file)),
	})
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
