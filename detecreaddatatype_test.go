package exprannot

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

const plainAnnotation = "id\tsymbol\np1\tGENE1\n"

func gzipped(t *testing.T, s string) []byte {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write([]byte(s)); err != nil {
		t.Fatalf("write gz: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("close gz: %v", err)
	}
	return buf.Bytes()
}

func TestDetectDataType(t *testing.T) {
	for _, v := range []struct {
		Data     []byte
		Expected DataType
	}{
		{[]byte(plainAnnotation), DataTypeNoCompression},
		{gzipped(t, plainAnnotation), DataTypeGzip},
		{[]byte{0x42, 0x5a, 0x68, 0x39}, DataTypeBZip2},
		{[]byte("ab"), DataTypeNoCompression},
	} {
		dt, err := DetectDataType(bufio.NewReader(bytes.NewReader(v.Data)))
		if err != nil {
			t.Fatal(err)
		}
		if dt != v.Expected {
			t.Fatalf("expected %v, got %v", v.Expected, dt)
		}
	}
}

func TestMaybeDecompress(t *testing.T) {
	for _, data := range [][]byte{[]byte(plainAnnotation), gzipped(t, plainAnnotation)} {
		r, err := MaybeDecompress(bytes.NewReader(data))
		if err != nil {
			t.Fatal(err)
		}
		out, err := io.ReadAll(r)
		if err != nil {
			t.Fatal(err)
		}
		if string(out) != plainAnnotation {
			t.Fatalf("expected %q, got %q", plainAnnotation, out)
		}
	}
}

func TestOpenLocalGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annot.txt.gz")
	if err := os.WriteFile(path, gzipped(t, plainAnnotation), 0o644); err != nil {
		t.Fatal(err)
	}

	rc, err := Open(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()

	out, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != plainAnnotation {
		t.Fatalf("expected %q, got %q", plainAnnotation, out)
	}
}

func TestSplitBucketPath(t *testing.T) {
	bucket, object, err := splitBucketPath("gs://arrays/annotations/mouse.txt", "gs://")
	if err != nil {
		t.Fatal(err)
	}
	if bucket != "arrays" || object != "annotations/mouse.txt" {
		t.Fatalf("got %q %q", bucket, object)
	}

	for _, v := range []struct {
		Path, Scheme string
	}{
		{"s3://arrays", "s3://"},
		{"gs://arrays", "gs://"},
		{"gs:///mouse.txt", "gs://"},
		{"s3://", "s3://"},
	} {
		if _, _, err := splitBucketPath(v.Path, v.Scheme); err == nil {
			t.Fatalf("%s: expected an error for a path without a bucket and an object", v.Path)
		}
	}
}
