package compileinfo

import (
	"bytes"
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	c := CompileInfo{
		Binary:     "github.com/carbocation/exprannot/cmd/annotate",
		Module:     "github.com/carbocation/exprannot",
		Version:    "(devel)",
		GoVersion:  "go1.23.0",
		Commit:     "abc123",
		CommitTime: "2024-01-02T03:04:05Z",
		Modified:   true,
	}

	s := c.String()
	for _, want := range []string{"cmd/annotate", "go1.23.0", "abc123", "2024-01-02T03:04:05Z", "uncommitted"} {
		if !strings.Contains(s, want) {
			t.Fatalf("%q lacks %q", s, want)
		}
	}

	if s := (CompileInfo{Binary: "x"}).String(); !strings.Contains(s, "commit unknown") || strings.Contains(s, "uncommitted") {
		t.Fatalf("unexpected %q", s)
	}
}

func TestFprint(t *testing.T) {
	var buf bytes.Buffer
	if err := Fprint(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(buf.String(), "\n") || strings.Count(buf.String(), "\n") != 1 {
		t.Fatalf("expected a single line, got %q", buf.String())
	}
}
