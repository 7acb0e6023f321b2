package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/carbocation/exprannot"
	"github.com/carbocation/exprannot/annotation"
	"github.com/carbocation/exprannot/bioassay"
	"github.com/carbocation/exprannot/matrix"
	"github.com/carbocation/exprannot/translator"
	"gopkg.in/guregu/null.v3"
)

func genes(t *testing.T) *translator.Translator {
	t.Helper()

	b, _ := annotation.NewBuilder("Symbol", "EntrezID")
	b.Add("x", annotation.Record{"Symbol": "GENE1", "EntrezID": "101"})
	b.Add("z", annotation.Record{"Symbol": "GENE3"})

	tr, err := translator.FromSource(b.Build(), "")
	if err != nil {
		t.Fatal(err)
	}
	return tr
}

func TestWriteMatrix(t *testing.T) {
	a, _ := bioassay.New("A", []string{"x", "y"})
	a.SetFloats(bioassay.FieldM, []float64{1, 2})
	b, _ := bioassay.New("B", []string{"x", "z"})
	b.SetFloats(bioassay.FieldM, []float64{3, 4.5})

	m, err := matrix.Merge([]*bioassay.BioAssay{a, b}, matrix.MergeOptions{})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteMatrix(&buf, m, matrix.DimensionM, genes(t), []string{"Symbol"}); err != nil {
		t.Fatal(err)
	}

	want := "id\tSymbol\tA\tB\n" +
		"x\tGENE1\t1\t3\n" +
		"y\t\t2\tNaN\n" +
		"z\tGENE3\tNaN\t4.5\n"
	if buf.String() != want {
		t.Fatalf("unexpected report:\n%s", buf.String())
	}
}

func TestWriteMatrixValidatesFirst(t *testing.T) {
	m, _ := matrix.FromValues([]string{"x"}, []string{"A"}, map[string][][]float64{matrix.DimensionM: {{1}}})

	var buf bytes.Buffer
	if err := WriteMatrix(&buf, m, matrix.DimensionM, genes(t), []string{"Chromosome"}); !errors.Is(err, exprannot.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if err := WriteMatrix(&buf, m, matrix.DimensionA, nil, nil); !errors.Is(err, exprannot.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatal("nothing must be written for a misconfigured report")
	}
}

func TestWriteAssay(t *testing.T) {
	b, _ := bioassay.New("A", []string{"x", "z"})
	b.SetFloatValues(bioassay.FieldM, []null.Float{null.FloatFrom(0.25), {}})
	b.SetInts(bioassay.FieldFlags, []null.Int{null.IntFrom(0), null.IntFrom(bioassay.FlagBad)})

	var buf bytes.Buffer
	if err := WriteAssay(&buf, b, genes(t), nil); err != nil {
		t.Fatal(err)
	}

	want := "id\tSymbol\tEntrezID\tm\tflags\n" +
		"x\tGENE1\t101\t0.25\t0\n" +
		"z\tGENE3\t\t\t-100\n"
	if buf.String() != want {
		t.Fatalf("unexpected report:\n%s", buf.String())
	}
}
