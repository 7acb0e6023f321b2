// annotate merges BioAssay tables into an expression matrix and writes it
// with the annotations of each identifier.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/carbocation/exprannot"
	"github.com/carbocation/exprannot/annotation"
	"github.com/carbocation/exprannot/bioassay"
	"github.com/carbocation/exprannot/matrix"
	"github.com/carbocation/exprannot/report"
	"github.com/carbocation/exprannot/translator"
	"github.com/carbocation/pfx"

	_ "github.com/carbocation/exprannot/compileinfoprint"
)

var (
	STDOUT = bufio.NewWriterSize(os.Stdout, 4096)
)

type options struct {
	design          string
	assays          string
	mergeReplicates bool
	aggregate       string

	filter   string
	nonEmpty bool
	flagsMin int64

	policy     string
	dimensions string
	dimension  string
	naRate     float64
	mThreshold float64
	mRate      float64
	center     string
	scale      string

	annotation   string
	header       bool
	trim         bool
	charset      string
	defaultField string
	join         string
	joinField    string
	joinHeader   bool
	fallback     bool
	fasta        string
	links        bool
	description  bool
	unique       bool
	fields       string

	out string
}

func main() {
	defer STDOUT.Flush()

	var o options
	flag.StringVar(&o.design, "design", "", "Design sheet (tab-delimited, columns slide, file, sample, replicate, date). Either this or -assays is required.")
	flag.StringVar(&o.assays, "assays", "", "Comma-delimited list of BioAssay TSV files, used when there is no design sheet.")
	flag.BoolVar(&o.mergeReplicates, "merge-replicates", false, "Merge the slides of each sample of the design into one assay before building the matrix.")
	flag.StringVar(&o.aggregate, "aggregate", "median", "How replicates are combined: median or mean.")

	flag.StringVar(&o.filter, "filter", "", "Comma-delimited thresholds that every kept row must pass, e.g. 'a>=8,|m|>=1'.")
	flag.BoolVar(&o.nonEmpty, "nonempty", false, "Drop rows flagged as empty (no red, green, m and a values, or an 'empty' description).")
	flag.Int64Var(&o.flagsMin, "flags-min", 0, "If nonzero, drop rows whose flags are below this value.")

	flag.StringVar(&o.policy, "policy", "union", "Which identifiers the matrix keeps: union or intersection.")
	flag.StringVar(&o.dimensions, "dims", bioassay.FieldM, "Comma-delimited assay fields merged into the matrix.")
	flag.StringVar(&o.dimension, "dim", bioassay.FieldM, "Matrix dimension that is filtered, transformed and written.")
	flag.Float64Var(&o.naRate, "na-rate", 1, "Drop matrix rows with more than this fraction of NaN values.")
	flag.Float64Var(&o.mThreshold, "m-threshold", 0, "If nonzero, keep matrix rows where at least -m-rate of the samples have |m| >= this value.")
	flag.Float64Var(&o.mRate, "m-rate", 2.0/3.0, "Share of samples that must pass -m-threshold.")
	flag.StringVar(&o.center, "center", "", "Center the matrix by 'row' or 'column'.")
	flag.StringVar(&o.scale, "scale", "", "Scale the matrix to unit variance by 'row' or 'column'.")

	flag.StringVar(&o.annotation, "annotation", "", "Delimited annotation file: identifier column, then annotation columns.")
	flag.BoolVar(&o.header, "header", true, "The annotation file's first row names its columns.")
	flag.BoolVar(&o.trim, "trim", false, "Trim whitespace around annotation cells.")
	flag.StringVar(&o.charset, "charset", "", "Encoding of the annotation files, e.g. latin1. Default is UTF-8.")
	flag.StringVar(&o.defaultField, "default-field", "", "Default annotation field. Default is the first annotation column.")
	flag.StringVar(&o.join, "join", "", "Second annotation file, keyed by the values of -join-field.")
	flag.StringVar(&o.joinField, "join-field", "", "Field of -annotation whose values are the identifiers of -join.")
	flag.BoolVar(&o.joinHeader, "join-header", true, "The -join file's first row names its columns.")
	flag.BoolVar(&o.fallback, "fallback", false, "When a join finds nothing, report the primary annotation instead.")
	flag.StringVar(&o.fasta, "fasta", "", "FASTA file of probe sequences.")
	flag.BoolVar(&o.links, "links", false, "Add URL fields for well-known database identifiers.")
	flag.BoolVar(&o.description, "description", false, "Add the assays' description column as an annotation field.")
	flag.BoolVar(&o.unique, "unique", false, "Add a field giving every identifier a unique name based on the default field.")
	flag.StringVar(&o.fields, "fields", "", "Comma-delimited annotation fields to write. Default is all.")

	flag.StringVar(&o.out, "out", "", "Output file. Default is stdout.")
	flag.Parse()

	if o.design == "" && o.assays == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(context.Background(), o); err != nil {
		log.Fatalln(pfx.Err(err))
	}
}

func run(ctx context.Context, o options) error {
	// Annotation files are read first so that a bad one fails before the
	// assays are.
	files, err := loadTranslator(ctx, o)
	if err != nil {
		return err
	}
	fields, err := checkFields(files, o)
	if err != nil {
		return err
	}

	assays, err := loadAssays(ctx, o)
	if err != nil {
		return err
	}
	log.Printf("Loaded %d assays\n", len(assays))

	if assays, err = filterAssays(assays, o); err != nil {
		return err
	}

	m, err := buildMatrix(assays, o)
	if err != nil {
		return err
	}
	log.Printf("Matrix has %d rows and %d columns\n", m.NRows(), m.NColumns())

	t, err := finishTranslator(files, m, assays, o)
	if err != nil {
		return err
	}

	w := STDOUT
	if o.out != "" {
		f, err := os.Create(o.out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = bufio.NewWriter(f)
	}

	if err := report.WriteMatrix(w, m, o.dimension, t, fields); err != nil {
		return err
	}

	return w.Flush()
}

// loadTranslator builds the part of the translator that comes from
// annotation and FASTA files. It is nil when there are none.
func loadTranslator(ctx context.Context, o options) (*translator.Translator, error) {
	if o.annotation == "" && o.fasta == "" {
		return nil, nil
	}

	return translator.Build(ctx, translator.Config{
		Annotation: o.annotation,
		Options: annotation.DelimitedOptions{
			Header:  o.header,
			Trim:    o.trim,
			Charset: o.charset,
			Logger:  log.Default(),
		},
		DefaultField: o.defaultField,
		Join:         o.join,
		JoinOptions: annotation.DelimitedOptions{
			Header:  o.joinHeader,
			Trim:    o.trim,
			Charset: o.charset,
		},
		JoinField: o.joinField,
		Fallback:  o.fallback,
		Fasta:     o.fasta,
		Links:     o.links,
	})
}

// checkFields validates -fields and -unique against the translator that
// finishTranslator will build from files.
func checkFields(files *translator.Translator, o options) ([]string, error) {
	fields := splitList(o.fields)
	if files == nil && !o.description {
		if len(fields) > 0 {
			return nil, errors.New("-fields needs -annotation, -fasta or -description")
		}
		if o.unique {
			return nil, errors.New("-unique needs -annotation, -fasta or -description")
		}
		return nil, nil
	}

	known := make(map[string]struct{})
	if files != nil {
		for _, f := range files.Fields() {
			known[f] = struct{}{}
		}
	}
	if o.description {
		known[translator.DescriptionField] = struct{}{}
	}
	if o.unique {
		known[translator.DefaultUniqueField] = struct{}{}
	}
	for _, f := range fields {
		if _, ok := known[f]; !ok {
			return nil, exprannot.UnknownField(f, "annotation fields")
		}
	}

	return fields, nil
}

// finishTranslator adds what depends on the assays to files: their
// description column, then the unique names of the matrix rows.
func finishTranslator(files *translator.Translator, m *matrix.Matrix, assays []*bioassay.BioAssay, o options) (*translator.Translator, error) {
	var parts []*translator.Translator
	if files != nil {
		parts = append(parts, files)
	}
	if o.description {
		t, err := translator.NewDescription(assays...)
		if err != nil {
			return nil, err
		}
		parts = append(parts, t)
	}

	switch len(parts) {
	case 0:
		return nil, nil
	case 1:
	default:
		t, err := translator.Concat(parts...)
		if err != nil {
			return nil, err
		}
		parts = []*translator.Translator{t}
	}
	t := parts[0]

	if o.unique {
		var err error
		t, err = translator.UniqueIdentifier(m.Rows(), t, translator.UniqueOptions{Suffix: translator.SuffixIndex})
		if err != nil {
			return nil, err
		}
	}

	return t, nil
}

func parseAxis(s string) (matrix.Axis, error) {
	switch s {
	case "row":
		return matrix.ByRow, nil
	case "column":
		return matrix.ByColumn, nil
	}
	return 0, fmt.Errorf("unknown axis %q, expected row or column", s)
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
