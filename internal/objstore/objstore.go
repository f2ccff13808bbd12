// Package objstore lets output and export files target S3 as well as the local disk.
package objstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/huangsam/statdash/internal/contract"
	"go.uber.org/zap"
)

const s3Scheme = "s3://"

// PutObjectAPI is the subset of the S3 client used for uploads.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewClient builds the S3 client used for s3:// destinations. Tests replace it.
var NewClient = func(ctx context.Context) (PutObjectAPI, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

// IsS3Path reports whether the path is an s3:// URL.
func IsS3Path(path string) bool {
	return strings.HasPrefix(path, s3Scheme)
}

// ParseS3Path splits s3://bucket/key into its bucket and key.
func ParseS3Path(path string) (string, string, error) {
	if !IsS3Path(path) {
		return "", "", fmt.Errorf("not an s3 path: %s", path)
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(path, s3Scheme), "/")
	if !ok || bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("invalid s3 path %q (expected s3://bucket/key)", path)
	}
	return bucket, key, nil
}

// Upload copies the contents of r to the s3:// destination.
func Upload(ctx context.Context, api PutObjectAPI, r io.Reader, dest string) error {
	bucket, key, err := ParseS3Path(dest)
	if err != nil {
		return err
	}

	_, err = api.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to %s: %w", dest, err)
	}

	contract.Logger().Debug("uploaded object", zap.String("bucket", bucket), zap.String("key", key))
	return nil
}

// Output is a writable destination. Local paths are written in place; s3://
// paths are staged in a temp file and uploaded on Commit.
type Output struct {
	*os.File
	dest   string
	staged bool
}

// Create opens a destination for writing. An empty path means stdout.
func Create(path string) (*Output, error) {
	if !IsS3Path(path) {
		file, err := contract.SelectOutputFile(path)
		if err != nil {
			return nil, err
		}
		return &Output{File: file, dest: path}, nil
	}

	if _, _, err := ParseS3Path(path); err != nil {
		return nil, err
	}
	file, err := os.CreateTemp("", "statdash-*")
	if err != nil {
		return nil, fmt.Errorf("failed to stage upload for %s: %w", path, err)
	}
	return &Output{File: file, dest: path, staged: true}, nil
}

// Destination returns where the output ends up.
func (o *Output) Destination() string {
	if o.dest == "" {
		return "stdout"
	}
	return o.dest
}

// Commit finalizes the output: local files are closed, staged files are
// uploaded and removed. Stdout is left open.
func (o *Output) Commit(ctx context.Context) error {
	if o.File == os.Stdout {
		return nil
	}
	if !o.staged {
		return o.Close()
	}

	defer func() {
		_ = o.Close()
		_ = os.Remove(o.Name())
	}()

	if _, err := o.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind staged file: %w", err)
	}

	api, err := NewClient(ctx)
	if err != nil {
		return err
	}
	return Upload(ctx, api, o.File, o.dest)
}

// Discard drops the output without uploading it.
func (o *Output) Discard() {
	if o.File == os.Stdout {
		return
	}
	_ = o.Close()
	if o.staged {
		_ = os.Remove(o.Name())
	}
}
