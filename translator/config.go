package translator

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/carbocation/exprannot/annotation"
)

// Config describes a translator pipeline built from files. Stages are
// applied in field order: the annotation file, an optional join to a second
// file, an optional FASTA file, links, the identifier field and finally the
// field selection.
type Config struct {
	// Source, if set, is used as the annotation table instead of reading
	// Annotation.
	Source annotation.Table

	Annotation   string
	Options      annotation.DelimitedOptions
	DefaultField string

	// Join, if set, is a second annotation file keyed by the values of
	// JoinField in the first.
	Join        string
	JoinOptions annotation.DelimitedOptions
	JoinField   string
	Fallback    bool

	Fasta string

	Links bool

	// IdentifierField, if set, adds a field holding the identifier itself.
	IdentifierField string

	// Select restricts the output to these fields, in this order.
	Select []string
}

// Build loads the files named in cfg and composes the translator they
// describe. Every field name is checked before Build returns.
func Build(ctx context.Context, cfg Config) (*Translator, error) {
	if cfg.Source == nil && cfg.Annotation == "" && cfg.Fasta == "" {
		return nil, errors.New("translator config: need an annotation or a FASTA file")
	}

	var t *Translator

	switch {
	case cfg.Source != nil:
		base, err := FromSource(cfg.Source, cfg.DefaultField)
		if err != nil {
			return nil, err
		}
		t = base

	case cfg.Annotation != "":
		base, err := LoadMultiColumn(ctx, cfg.Annotation, cfg.Options)
		if err != nil {
			return nil, err
		}
		if cfg.DefaultField != "" {
			if base, err = base.WithDefaultField(cfg.DefaultField); err != nil {
				return nil, err
			}
		}
		t = base
	}

	if cfg.Join != "" {
		if t == nil {
			return nil, errors.New("translator config: a join needs an annotation file")
		}
		second, err := LoadMultiColumn(ctx, cfg.Join, cfg.JoinOptions)
		if err != nil {
			return nil, err
		}
		if t, err = Join(t, cfg.JoinField, second, cfg.Fallback); err != nil {
			return nil, err
		}
	}

	if cfg.Fasta != "" {
		fasta, err := LoadFasta(ctx, cfg.Fasta)
		if err != nil {
			return nil, err
		}
		if t == nil {
			t = fasta
		} else if t, err = Concat(t, fasta); err != nil {
			return nil, err
		}
	}

	var err error
	if cfg.Links {
		if t, err = CommonLinks(t); err != nil {
			return nil, err
		}
	}

	if cfg.IdentifierField != "" {
		if t, err = AddIdentifier(t, cfg.IdentifierField); err != nil {
			return nil, err
		}
	}

	if len(cfg.Select) > 0 {
		if t, err = Select(t, cfg.Select...); err != nil {
			return nil, fmt.Errorf("translator config: %w", err)
		}
	}

	if logger := cfg.Options.Logger; logger != nil {
		logf(logger, "Built %s translator with fields %v (default %q)", t.Kind(), t.Fields(), t.DefaultField())
	}

	return t, nil
}

func logf(l *log.Logger, format string, args ...interface{}) {
	l.Printf(format+"\n", args...)
}
