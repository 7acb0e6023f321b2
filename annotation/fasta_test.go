package annotation

import (
	"errors"
	"strings"
	"testing"

	"github.com/carbocation/exprannot"
)

const plainFasta = `>seq1 some description
ACGT
acgt
>seq2
NNNN
; a comment line
TT
>empty
`

func TestReadFasta(t *testing.T) {
	src, err := ReadFasta(strings.NewReader(plainFasta))
	if err != nil {
		t.Fatal(err)
	}

	for _, v := range []struct {
		ID  string
		Seq string
	}{
		{"seq1", "ACGTacgt"},
		{"seq2", "NNNNTT"},
		{"empty", ""},
	} {
		got := src.Value(v.ID, FastaField)
		if !got.Valid || got.String != v.Seq {
			t.Fatalf("%s: expected %q, got %+v", v.ID, v.Seq, got)
		}
	}

	if v := src.Value("seq1 some description", FastaField); v.Valid {
		t.Fatal("the identifier must stop at the first whitespace")
	}
	if ids := src.IDs(); len(ids) != 3 || ids[0] != "seq1" {
		t.Fatalf("unexpected identifiers %v", ids)
	}
}

func TestReadFastaMalformed(t *testing.T) {
	for _, v := range []struct {
		Data string
		Line int
	}{
		{"ACGT\n>seq1\nACGT\n", 1},
		{">seq1\nAC\n>\nGT\n", 3},
		{">seq1\nAC\n>seq1\nGT\n", 3},
	} {
		_, err := ReadFasta(strings.NewReader(v.Data))
		var mfe *exprannot.MalformedFileError
		if !errors.As(err, &mfe) || mfe.Line != v.Line {
			t.Fatalf("%q: expected a malformed file error on line %d, got %v", v.Data, v.Line, err)
		}
	}
}
