package exprannot

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

// ReaderAtCloser is random access to a file of known size. Lazy annotation
// tables read single lines through it.
type ReaderAtCloser interface {
	io.ReaderAt
	io.Closer
	Size() int64
}

// OpenAt opens path for random access with a shared Opener.
func OpenAt(ctx context.Context, path string) (ReaderAtCloser, error) {
	return defaultOpener.OpenAt(ctx, path)
}

// OpenAt opens a local or gs:// file for random access. Compressed files and
// s3:// paths are not supported, since neither can serve byte ranges here.
func (o *Opener) OpenAt(ctx context.Context, path string) (ReaderAtCloser, error) {
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
		handle := client.Bucket(bucket).Object(object)
		attrs, err := handle.Attrs(ctx)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}
		if attrs.ContentEncoding == "gzip" {
			return nil, fmt.Errorf("%s: compressed objects cannot be read lazily", path)
		}
		return &GSReaderAtCloser{ObjectHandle: handle, Context: ctx, size: attrs.Size}, nil

	case strings.HasPrefix(path, "s3://"):
		return nil, fmt.Errorf("%s: random access is only supported for local and gs:// files", path)
	}

	local, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(local)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	kind, err := DetectDataType(bufio.NewReader(io.NewSectionReader(f, 0, st.Size())))
	if err != nil {
		f.Close()
		return nil, err
	}
	if kind != DataTypeNoCompression {
		f.Close()
		return nil, fmt.Errorf("%s: compressed files cannot be read lazily", path)
	}

	return &fileReaderAt{File: f, size: st.Size()}, nil
}

type fileReaderAt struct {
	*os.File
	size int64
}

func (f *fileReaderAt) Size() int64 { return f.size }

// GSReaderAtCloser decorates a Google Storage object handle with ReadAt. Each
// call is one ranged request.
type GSReaderAtCloser struct {
	*storage.ObjectHandle
	Context context.Context
	size    int64
}

func (o *GSReaderAtCloser) ReadAt(p []byte, offset int64) (int, error) {
	if offset >= o.size {
		return 0, io.EOF
	}

	rdr, err := o.NewRangeReader(o.Context, offset, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer rdr.Close()

	n, err := io.ReadFull(rdr, p)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}

	return n, err
}

func (o *GSReaderAtCloser) Size() int64 { return o.size }

// Close is a no-op. The storage client is shared.
func (o *GSReaderAtCloser) Close() error { return nil }
