package annotation

import (
	"errors"
	"testing"

	"github.com/carbocation/exprannot"
)

func TestBuilderAbsentVersusEmpty(t *testing.T) {
	b, err := NewBuilder("Symbol", "Description")
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Add("p1", Record{"Symbol": "GENE1", "Description": ""}); err != nil {
		t.Fatal(err)
	}
	if err := b.Add("p2", Record{"Symbol": "GENE2"}); err != nil {
		t.Fatal(err)
	}
	src := b.Build()

	if v := src.Value("p1", "Description"); !v.Valid || v.String != "" {
		t.Fatalf("expected a present empty description, got %+v", v)
	}
	if v := src.Value("p2", "Description"); v.Valid {
		t.Fatalf("expected an absent description, got %+v", v)
	}
	if v := src.Value("p3", "Symbol"); v.Valid {
		t.Fatalf("expected an absent value for an unknown identifier, got %+v", v)
	}
	if rec, ok := src.Record("p2"); !ok || rec == nil {
		t.Fatal("expected a non-nil record for a present identifier")
	}
	if ids := src.IDs(); len(ids) != 2 || ids[0] != "p1" || ids[1] != "p2" {
		t.Fatalf("expected insertion order, got %v", ids)
	}
}

func TestBuilderRejectsBadInput(t *testing.T) {
	b, err := NewBuilder("Symbol")
	if err != nil {
		t.Fatal(err)
	}

	if err := b.Add("", Record{}); !errors.Is(err, exprannot.ErrEmptyIdentifier) {
		t.Fatalf("expected ErrEmptyIdentifier, got %v", err)
	}
	if err := b.Add("p1", Record{"Symbol": "A"}); err != nil {
		t.Fatal(err)
	}
	if err := b.Add("p1", Record{"Symbol": "B"}); !errors.Is(err, exprannot.ErrDuplicateIdentifier) {
		t.Fatalf("expected ErrDuplicateIdentifier, got %v", err)
	}
	if err := b.Add("p2", Record{"Chromosome": "1"}); !errors.Is(err, exprannot.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if _, err := NewBuilder("Symbol", "Symbol"); err == nil {
		t.Fatal("expected an error for a duplicated field")
	}
}

func TestRecordIsACopy(t *testing.T) {
	b, _ := NewBuilder("Symbol")
	b.Add("p1", Record{"Symbol": "GENE1"})
	src := b.Build()

	rec, _ := src.Record("p1")
	rec["Symbol"] = "changed"

	if v := src.Value("p1", "Symbol"); v.String != "GENE1" {
		t.Fatalf("source was mutated through a returned record: %+v", v)
	}
}
