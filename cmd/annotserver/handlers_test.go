package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/carbocation/exprannot/annotation"
	"github.com/carbocation/exprannot/ramcsv"
	"github.com/carbocation/exprannot/translator"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	b, _ := annotation.NewBuilder("Symbol", "EntrezID")
	b.Add("p1", annotation.Record{"Symbol": "GENE1", "EntrezID": "101"})
	b.Add("p2", annotation.Record{"Symbol": ""})

	tr, err := translator.Build(context.Background(), translator.Config{Source: b.Build(), Links: true})
	if err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(router(NewGlobal(tr, log.New(io.Discard, "", 0))))
	t.Cleanup(srv.Close)

	return srv
}

func get(t *testing.T, url string, status int, out interface{}) string {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != status {
		t.Fatalf("%s: expected status %d, got %d: %s", url, status, resp.StatusCode, body)
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			t.Fatalf("%s: %v: %s", url, err, body)
		}
	}

	return string(body)
}

func TestFields(t *testing.T) {
	srv := testServer(t)

	var out struct {
		Fields       []string `json:"fields"`
		DefaultField string   `json:"default_field"`
	}
	get(t, srv.URL+"/fields", http.StatusOK, &out)

	if strings.Join(out.Fields, ",") != "Symbol,EntrezID,EntrezID link" || out.DefaultField != "Symbol" {
		t.Fatalf("unexpected %+v", out)
	}
}

func TestTranslate(t *testing.T) {
	srv := testServer(t)

	for _, v := range []struct {
		Path     string
		Status   int
		Expected string
	}{
		{"/translate/p1", http.StatusOK, `"value":"GENE1"`},
		{"/translate/p2", http.StatusOK, `"value":""`},
		{"/translate/p9", http.StatusOK, `"value":null`},
		{"/translate/p1/EntrezID%20link", http.StatusOK, `list_uids=101"`},
		{"/translate/p2/EntrezID", http.StatusOK, `"value":null`},
		{"/translate/p1/Chromosome", http.StatusNotFound, `unknown field Chromosome`},
		{"/translate/p1?all=1", http.StatusOK, `"EntrezID":"101"`},
	} {
		if body := get(t, srv.URL+v.Path, v.Status, nil); !strings.Contains(body, v.Expected) {
			t.Fatalf("%s: %s lacks %s", v.Path, body, v.Expected)
		}
	}

	metrics := get(t, srv.URL+"/metrics", http.StatusOK, nil)
	for _, want := range []string{
		`annotserver_lookups_total{field="Symbol",result="found"} 3`,
		`annotserver_lookups_total{field="Symbol",result="absent"} 1`,
		`annotserver_lookups_total{field="",result="unknown_field"} 1`,
	} {
		if !strings.Contains(metrics, want) {
			t.Fatalf("metrics lack %s:\n%s", want, metrics)
		}
	}
}

func TestVersion(t *testing.T) {
	srv := testServer(t)

	var out struct {
		GoVersion string `json:"go_version"`
	}
	get(t, srv.URL+"/version", http.StatusOK, &out)
}

func TestLoadSnapshotAndLazy(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	path := filepath.Join(dir, "probes.txt")
	if err := os.WriteFile(path, []byte("probe\tSymbol\np1\tGENE1\np2\t\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	db := filepath.Join(dir, "annot.db")

	o := options{sqlite: db, saveSnapshot: "v1", lazy: true}
	o.cfg.Annotation = path
	o.cfg.Options.Header = true

	lazy, err := load(ctx, o)
	if err != nil {
		t.Fatal(err)
	}
	defer lazy.close()
	if lazy.lazy == nil {
		t.Fatal("expected -lazy to index the annotation file")
	}
	if v := lazy.translator.Translate("p1"); v.String != "GENE1" {
		t.Fatalf("unexpected %+v", v)
	}

	snap, err := load(ctx, options{sqlite: db, snapshot: "v1"})
	if err != nil {
		t.Fatal(err)
	}
	defer snap.close()
	if snap.lazy != nil {
		t.Fatal("a snapshot is not read lazily")
	}

	for _, id := range []string{"p1", "p2", "p3"} {
		if a, b := lazy.translator.Translate(id), snap.translator.Translate(id); a != b {
			t.Fatalf("%s: lazy %+v, snapshot %+v", id, a, b)
		}
	}

	if _, err := load(ctx, options{snapshot: "v1"}); err == nil {
		t.Fatal("expected an error without -sqlite")
	}
}

func TestLoadRejectsLazyCharset(t *testing.T) {
	o := options{lazy: true}
	o.cfg.Annotation = "probes.txt"
	o.cfg.Options.Charset = "latin1"

	if _, err := load(context.Background(), o); err == nil || !strings.Contains(err.Error(), "-charset") {
		t.Fatalf("expected a -charset error, got %v", err)
	}
}

// The primary file has a Symbol column of its own, shadowing the default
// field of the joined gene file.
func TestSnapshotOfShadowedJoin(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	probes := filepath.Join(dir, "probes.txt")
	if err := os.WriteFile(probes, []byte("probe\tSymbol\tGene\np1\tPSYM\tGENE1\np2\tPSYM2\tGENE9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	genes := filepath.Join(dir, "genes.txt")
	if err := os.WriteFile(genes, []byte("gene\tSymbol\tName\nGENE1\tG1\tfirst gene\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	o := options{sqlite: filepath.Join(dir, "annot.db"), saveSnapshot: "v1"}
	o.cfg.Annotation = probes
	o.cfg.Options.Header = true
	o.cfg.Join = genes
	o.cfg.JoinField = "Gene"
	o.cfg.JoinOptions.Header = true

	built, err := load(ctx, o)
	if err != nil {
		t.Fatal(err)
	}
	defer built.close()

	snap, err := load(ctx, options{sqlite: o.sqlite, snapshot: "v1"})
	if err != nil {
		t.Fatal(err)
	}
	defer snap.close()

	if a, b := built.translator.DefaultField(), snap.translator.DefaultField(); a != b {
		t.Fatalf("default field %q became %q", a, b)
	}
	for _, v := range []struct {
		ID       string
		Expected string
	}{
		{"p1", "G1"},
		{"p2", ""},
		{"p3", ""},
	} {
		a, b := built.translator.Translate(v.ID), snap.translator.Translate(v.ID)
		if a != b || a.String != v.Expected {
			t.Fatalf("%s: built %+v, snapshot %+v, expected %q", v.ID, a, b, v.Expected)
		}
	}
}

type flakyReaderAt struct {
	data []byte
	fail atomic.Bool
}

func (f *flakyReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if f.fail.Load() {
		return 0, errors.New("bucket unreachable")
	}
	return bytes.NewReader(f.data).ReadAt(p, off)
}

func TestTranslateReadError(t *testing.T) {
	ra := &flakyReaderAt{data: []byte("probe\tSymbol\np1\tGENE1\n")}
	tab, err := ramcsv.New(ra, int64(len(ra.data)), ramcsv.Options{Header: true})
	if err != nil {
		t.Fatal(err)
	}
	tr, err := translator.Build(context.Background(), translator.Config{Source: tab})
	if err != nil {
		t.Fatal(err)
	}

	g := NewGlobal(tr, log.New(io.Discard, "", 0))
	g.reads = tab
	srv := httptest.NewServer(router(g))
	defer srv.Close()

	ra.fail.Store(true)
	get(t, srv.URL+"/translate/p1", http.StatusInternalServerError, nil)
	get(t, srv.URL+"/translate/p1/Symbol", http.StatusInternalServerError, nil)

	// Identifiers absent from the index need no read.
	get(t, srv.URL+"/translate/p9", http.StatusOK, nil)

	ra.fail.Store(false)
	if body := get(t, srv.URL+"/translate/p1", http.StatusOK, nil); !strings.Contains(body, `"value":"GENE1"`) {
		t.Fatalf("expected recovery, got %s", body)
	}

	metrics := get(t, srv.URL+"/metrics", http.StatusOK, nil)
	if want := `annotserver_lookups_total{field="",result="read_error"} 2`; !strings.Contains(metrics, want) {
		t.Fatalf("metrics lack %s:\n%s", want, metrics)
	}
}

func TestSplitList(t *testing.T) {
	for _, v := range []struct {
		Input    string
		Expected string
	}{
		{"", ""},
		{"Symbol", "Symbol"},
		{"Symbol, EntrezID ,", "Symbol|EntrezID"},
		{" , ", ""},
	} {
		if got := strings.Join(splitList(v.Input), "|"); got != v.Expected {
			t.Fatalf("%q: expected %q, got %q", v.Input, v.Expected, got)
		}
	}
}
