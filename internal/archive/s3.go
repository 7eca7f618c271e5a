// Package archive copies the data folder to object storage.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/spacesedan/postsentiment/internal/store"
)

type Uploader interface {
	EnsureContainer(ctx context.Context, name string) error
	Upload(ctx context.Context, localPath, remoteKey string) error
	UploadTree(ctx context.Context, localDir string) (int, error)
}

// ObjectAPI is the part of the S3 client the uploader calls.
type ObjectAPI interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Uploader struct {
	client ObjectAPI
	region string
	bucket string
}

func NewS3Uploader(client ObjectAPI, region string) *S3Uploader {
	return &S3Uploader{client: client, region: region}
}

// EnsureContainer selects the bucket for later uploads and creates it when
// it does not exist yet.
func (u *S3Uploader) EnsureContainer(ctx context.Context, name string) error {
	if name == "" {
		return errors.New("[Archive] bucket name is required")
	}
	u.bucket = name

	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(name)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	if !errors.As(err, &notFound) {
		return fmt.Errorf("[Archive] Failed to check bucket %s: %w", name, err)
	}

	slog.Info("[Archive] Creating bucket", slog.String("bucket", name))
	input := &s3.CreateBucketInput{Bucket: aws.String(name)}
	// us-east-1 rejects an explicit location constraint.
	if u.region != "" && u.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(u.region),
		}
	}
	if _, err := u.client.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("[Archive] Failed to create bucket %s: %w", name, err)
	}
	return nil
}

func (u *S3Uploader) Upload(ctx context.Context, localPath, remoteKey string) error {
	if u.bucket == "" {
		return errors.New("[Archive] EnsureContainer must be called before Upload")
	}

	f, err := os.Open(localPath)
	if err != nil {
		return &store.FileIOError{Op: "open", Path: localPath, Err: err}
	}
	defer f.Close()

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(remoteKey),
		Body:        f,
		ContentType: aws.String(contentType(localPath)),
	})
	if err != nil {
		return fmt.Errorf("[Archive] Failed to upload %s: %w", remoteKey, err)
	}

	slog.Info("[Archive] Uploaded file",
		slog.String("bucket", u.bucket),
		slog.String("key", remoteKey))
	return nil
}

// UploadTree uploads every regular file under localDir. Keys are the paths
// relative to localDir with forward slashes. Dot files, which include
// in-progress atomic writes, are skipped.
func (u *S3Uploader) UploadTree(ctx context.Context, localDir string) (int, error) {
	uploaded := 0
	err := filepath.WalkDir(localDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() || isTempFile(d.Name()) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		key, err := RemoteKey(localDir, path)
		if err != nil {
			return err
		}
		if err := u.Upload(ctx, path, key); err != nil {
			return err
		}
		uploaded++
		return nil
	})
	if err != nil {
		return uploaded, err
	}

	slog.Info("[Archive] Uploaded data folder",
		slog.String("dir", localDir),
		slog.Int("files", uploaded))
	return uploaded, nil
}

func RemoteKey(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", fmt.Errorf("[Archive] %s is not under %s: %w", path, root, err)
	}
	return filepath.ToSlash(rel), nil
}

func isTempFile(name string) bool {
	return strings.HasPrefix(name, ".")
}

func contentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
