// Package remote implements the optional shared cache tier on S3.
package remote

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/mod/module"
)

var _ ports.RemoteCache = (*S3Cache)(nil)

// S3API is the subset of the S3 client used by S3Cache.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Cache implements ports.RemoteCache on an S3 bucket.
type S3Cache struct {
	client S3API
	bucket string
	prefix string
	goos   string
	goarch string
}

// NewS3Cache creates an S3Cache storing objects under prefix in bucket.
func NewS3Cache(client S3API, bucket, prefix string) *S3Cache {
	return &S3Cache{
		client: client,
		bucket: bucket,
		prefix: prefix,
		goos:   runtime.GOOS,
		goarch: runtime.GOARCH,
	}
}

// ObjectKey returns the object key for key on goos/goarch. Tool and version
// use the module cache case encoding so keys stay distinct on
// case-insensitive stores. Separators in the version are percent-escaped
// first so a branch name stays one key segment.
func ObjectKey(prefix string, key domain.CacheKey, goos, goarch string) (string, error) {
	tool, err := module.EscapeVersion(key.Tool)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrInvalidToolName.Error()), "tool", key.Tool)
	}
	segment, err := domain.VersionSegment(key.Version)
	if err != nil {
		return "", err
	}
	version, err := module.EscapeVersion(segment)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrInvalidVersion.Error()), "version", key.Version)
	}
	return path.Join(prefix, tool, version, goos+"-"+goarch, domain.BinaryName(key.Tool, goos)), nil
}

// Enabled reports true.
func (c *S3Cache) Enabled() bool {
	return true
}

// Fetch downloads the artifact for key into destFile.
// It returns false, nil if the bucket has no such object.
func (c *S3Cache) Fetch(ctx context.Context, key domain.CacheKey, destFile string) (bool, error) {
	objectKey, err := ObjectKey(c.prefix, key, c.goos, c.goarch)
	if err != nil {
		return false, err
	}

	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, c.fetchErr(err, objectKey)
	}
	defer func() {
		_ = out.Body.Close()
	}()

	if err := writeFileAtomic(destFile, out.Body); err != nil {
		return false, c.fetchErr(err, objectKey)
	}
	return true, nil
}

// Push uploads sourceFile as the artifact for key.
func (c *S3Cache) Push(ctx context.Context, key domain.CacheKey, sourceFile string) error {
	objectKey, err := ObjectKey(c.prefix, key, c.goos, c.goarch)
	if err != nil {
		return err
	}

	//nolint:gosec // sourceFile is a binary inside the tool cache
	f, err := os.Open(sourceFile)
	if err != nil {
		return c.pushErr(err, objectKey)
	}
	defer func() {
		_ = f.Close()
	}()

	info, err := f.Stat()
	if err != nil {
		return c.pushErr(err, objectKey)
	}

	_, err = c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(objectKey),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return c.pushErr(err, objectKey)
	}
	return nil
}

func (c *S3Cache) fetchErr(err error, objectKey string) error {
	fetchErr := zerr.With(zerr.Wrap(err, domain.ErrRemoteFetchFailed.Error()), "bucket", c.bucket)
	return zerr.With(fetchErr, "key", objectKey)
}

func (c *S3Cache) pushErr(err error, objectKey string) error {
	pushErr := zerr.With(zerr.Wrap(err, domain.ErrRemotePushFailed.Error()), "bucket", c.bucket)
	return zerr.With(pushErr, "key", objectKey)
}

// isNotFound reports whether err means the object does not exist. S3
// compatible servers do not all return the typed NoSuchKey error.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

// writeFileAtomic writes r to path through a temp file in the same directory.
func writeFileAtomic(path string, r io.Reader) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := io.Copy(tmpFile, r); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, domain.ExecPerm); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
