package exprannot

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/carbocation/pfx"
)

// Opener opens annotation, sequence and table files from local disk, Google
// Storage (gs://bucket/path) or S3 (s3://bucket/key). Nil clients are created
// on first use with default credentials. An Opener is safe for concurrent use.
type Opener struct {
	Storage *storage.Client
	S3      *s3.Client

	m sync.Mutex
}

var defaultOpener = &Opener{}

// Open opens path with a shared Opener and transparently decompresses it.
func Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return defaultOpener.Open(ctx, path)
}

// Open returns a reader over the (decompressed) content at path. The caller
// must Close it.
func (o *Opener) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	raw, err := o.openRaw(ctx, path)
	if err != nil {
		return nil, err
	}

	r, err := MaybeDecompress(raw)
	if err != nil {
		raw.Close()
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return &readCloser{Reader: r, closer: raw}, nil
}

func (o *Opener) openRaw(ctx context.Context, path string) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(path, "gs://"):
		bucket, object, err := splitBucketPath(path, "gs://")
		if err != nil {
			return nil, err
		}
		client, err := o.storageClient(ctx)
		if err != nil {
			return nil, err
		}
		rdr, err := client.Bucket(bucket).Object(object).NewReader(ctx)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}
		return rdr, nil

	case strings.HasPrefix(path, "s3://"):
		bucket, key, err := splitBucketPath(path, "s3://")
		if err != nil {
			return nil, err
		}
		client, err := o.s3Client(ctx)
		if err != nil {
			return nil, err
		}
		out, err := client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}
		return out.Body, nil
	}

	local, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}

	return os.Open(local)
}

func (o *Opener) storageClient(ctx context.Context) (*storage.Client, error) {
	o.m.Lock()
	defer o.m.Unlock()

	if o.Storage == nil {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, pfx.Err(err)
		}
		o.Storage = client
	}

	return o.Storage, nil
}

func (o *Opener) s3Client(ctx context.Context) (*s3.Client, error) {
	o.m.Lock()
	defer o.m.Unlock()

	if o.S3 == nil {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, pfx.Err(err)
		}
		o.S3 = s3.NewFromConfig(cfg)
	}

	return o.S3, nil
}

// splitBucketPath detects the bucket and the path to the actual file.
func splitBucketPath(path, scheme string) (string, string, error) {
	pathParts := strings.SplitN(strings.TrimPrefix(path, scheme), "/", 2)
	if len(pathParts) != 2 || pathParts[0] == "" || pathParts[1] == "" {
		return "", "", fmt.Errorf("Tried to split %s into a bucket and an object path, but got %d parts: %v", path, len(pathParts), pathParts)
	}

	return pathParts[0], pathParts[1], nil
}

// readCloser pairs a decompressing reader with the underlying stream that
// must be closed.
type readCloser struct {
	io.Reader
	closer io.Closer
}

func (c *readCloser) Close() error {
	if rc, ok := c.Reader.(io.Closer); ok {
		rc.Close()
	}

	return c.closer.Close()
}
