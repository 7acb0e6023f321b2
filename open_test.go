package exprannot

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenDecompresses(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(plain, []byte("p1\tGENE1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte("p1\tGENE1\n"))
	zw.Close()
	zipped := filepath.Join(dir, "zipped.txt.gz")
	if err := os.WriteFile(zipped, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{plain, zipped} {
		f, err := Open(context.Background(), path)
		if err != nil {
			t.Fatal(err)
		}
		got, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "p1\tGENE1\n" {
			t.Fatalf("%s: unexpected content %q", path, got)
		}
	}

	if _, err := OpenAt(context.Background(), zipped); err == nil {
		t.Fatal("expected lazy access to a compressed file to fail")
	}
}

func TestOpenAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.txt")
	if err := os.WriteFile(path, []byte("0123456789"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := OpenAt(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if f.Size() != 10 {
		t.Fatalf("expected size 10, got %d", f.Size())
	}

	p := make([]byte, 3)
	if _, err := f.ReadAt(p, 4); err != nil {
		t.Fatal(err)
	}
	if string(p) != "456" {
		t.Fatalf("unexpected %q", p)
	}
}
