package ramcsv

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carbocation/exprannot"
	"github.com/carbocation/exprannot/annotation"
)

var _ annotation.Table = (*Table)(nil)

const probes = "probe\tSymbol\tName\n" +
	"p1\tGENE1\tfirst gene\n" +
	"\n" +
	"p2\t\tsecond\r\n" +
	"p3\tGENE3\n"

func TestMatchesDelimited(t *testing.T) {
	lazy, err := New(strings.NewReader(probes), int64(len(probes)), Options{Header: true})
	if err != nil {
		t.Fatal(err)
	}
	eager, err := annotation.ReadDelimited(strings.NewReader(probes), annotation.DelimitedOptions{Header: true})
	if err != nil {
		t.Fatal(err)
	}

	if strings.Join(lazy.Fields(), ",") != strings.Join(eager.Fields(), ",") {
		t.Fatalf("fields differ: %v vs %v", lazy.Fields(), eager.Fields())
	}
	if strings.Join(lazy.IDs(), ",") != "p1,p2,p3" {
		t.Fatalf("unexpected ids %v", lazy.IDs())
	}

	for _, id := range append(eager.IDs(), "p9") {
		for _, f := range append(eager.Fields(), "Chromosome") {
			if l, e := lazy.Value(id, f), eager.Value(id, f); l != e {
				t.Fatalf("%s/%s: lazy %+v, eager %+v", id, f, l, e)
			}
		}
	}

	if err := lazy.Err(); err != nil {
		t.Fatal(err)
	}
}

func TestNoHeader(t *testing.T) {
	data := "p1,GENE1\np2,GENE2,extra\n"
	tab, err := New(strings.NewReader(data), int64(len(data)), Options{Delimiter: ','})
	if err != nil {
		t.Fatal(err)
	}

	if strings.Join(tab.Fields(), ",") != "field1,field2" {
		t.Fatalf("unexpected fields %v", tab.Fields())
	}
	if v := tab.Value("p2", "field2"); v.String != "extra" {
		t.Fatalf("unexpected %+v", v)
	}
	if v := tab.Value("p1", "field2"); v.Valid {
		t.Fatalf("expected absent, got %+v", v)
	}

	cells, err := tab.Read("p1")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(cells, "|") != "p1|GENE1" {
		t.Fatalf("unexpected cells %v", cells)
	}
	if _, err := tab.Read("p9"); !errors.Is(err, exprannot.ErrMissingIdentifier) {
		t.Fatalf("expected ErrMissingIdentifier, got %v", err)
	}
}

func TestMalformed(t *testing.T) {
	for _, v := range []struct {
		Data string
		Line int
	}{
		{"id\tSymbol\np1\tA\np1\tB\n", 3},
		{"id\tSymbol\n\tA\n", 2},
		{"id\tSymbol\np1\tA\tB\n", 2},
	} {
		_, err := New(bytes.NewReader([]byte(v.Data)), int64(len(v.Data)), Options{Header: true})
		var mfe *exprannot.MalformedFileError
		if !errors.As(err, &mfe) {
			t.Fatalf("%q: expected a MalformedFileError, got %v", v.Data, err)
		}
		if mfe.Line != v.Line {
			t.Fatalf("%q: expected line %d, got %d", v.Data, v.Line, mfe.Line)
		}
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probes.txt")
	if err := os.WriteFile(path, []byte(probes), 0o644); err != nil {
		t.Fatal(err)
	}

	tab, err := Open(context.Background(), path, Options{Header: true})
	if err != nil {
		t.Fatal(err)
	}
	defer tab.Close()

	if tab.Len() != 3 {
		t.Fatalf("expected 3 identifiers, got %d", tab.Len())
	}
	if v := tab.Value("p3", "Symbol"); v.String != "GENE3" {
		t.Fatalf("unexpected %+v", v)
	}
}

func TestReadFailures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probes.txt")
	if err := os.WriteFile(path, []byte(probes), 0o644); err != nil {
		t.Fatal(err)
	}

	tab, err := Open(context.Background(), path, Options{Header: true})
	if err != nil {
		t.Fatal(err)
	}
	if v := tab.Value("p1", "Symbol"); v.String != "GENE1" || tab.Failures() != 0 {
		t.Fatalf("unexpected %+v after %d failures", v, tab.Failures())
	}

	// Reads from the closed file fail. Unknown identifiers need no read.
	if err := tab.Close(); err != nil {
		t.Fatal(err)
	}
	if v := tab.Value("p1", "Symbol"); v.Valid {
		t.Fatalf("expected no value, got %+v", v)
	}
	if v := tab.Value("p9", "Symbol"); v.Valid {
		t.Fatalf("expected no value, got %+v", v)
	}
	if tab.Failures() != 1 || tab.Err() == nil {
		t.Fatalf("expected one failure, got %d (%v)", tab.Failures(), tab.Err())
	}
}
