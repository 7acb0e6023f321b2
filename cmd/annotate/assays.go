package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/carbocation/exprannot"
	"github.com/carbocation/exprannot/bioassay"
	"github.com/carbocation/exprannot/design"
	"github.com/carbocation/exprannot/filter"
	"github.com/carbocation/exprannot/matrix"
	"github.com/carbocation/pfx"
)

func loadAssays(ctx context.Context, o options) ([]*bioassay.BioAssay, error) {
	if o.design == "" {
		var out []*bioassay.BioAssay
		for _, path := range splitList(o.assays) {
			b, err := readAssay(ctx, path, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
			if err != nil {
				return nil, err
			}
			out = append(out, b)
		}
		return out, nil
	}

	f, err := exprannot.Open(ctx, o.design)
	if err != nil {
		return nil, pfx.Err(err)
	}
	d, err := design.ReadSheet(f)
	f.Close()
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", o.design, err))
	}

	d, err = d.WithAssays(func(s design.Slide) (*bioassay.BioAssay, error) {
		if s.File == "" {
			return nil, fmt.Errorf("slide %s has no file", s.Name)
		}
		return readAssay(ctx, resolve(o.design, s.File), s.Name)
	})
	if err != nil {
		return nil, err
	}

	if !o.mergeReplicates {
		return d.Assays(), nil
	}

	return mergeReplicates(d, o.aggregate)
}

// resolve makes file relative to the directory of the design sheet.
func resolve(sheet, file string) string {
	if filepath.IsAbs(file) || strings.Contains(file, "://") || strings.HasPrefix(file, "~") {
		return file
	}
	if strings.Contains(sheet, "://") {
		return sheet[:strings.LastIndex(sheet, "/")+1] + file
	}
	return filepath.Join(filepath.Dir(sheet), file)
}

func readAssay(ctx context.Context, path, name string) (*bioassay.BioAssay, error) {
	f, err := exprannot.Open(ctx, path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	b, err := bioassay.NewTSVReader(f, name).Read()
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return b, nil
}

// mergeReplicates combines the slides of each sample, in the order samples
// first appear. Slides without a sample stand alone.
func mergeReplicates(d *design.Design, aggregate string) ([]*bioassay.BioAssay, error) {
	agg, err := bioassay.ParseAggregate(aggregate)
	if err != nil {
		return nil, err
	}
	rm := bioassay.ReplicateMerger{Aggregate: agg, StdDev: true}

	var order []string
	groups := make(map[string][]*bioassay.BioAssay)
	for _, s := range d.Slides() {
		key := s.Sample
		if key == "" {
			key = s.Name
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], s.Assay)
	}

	out := make([]*bioassay.BioAssay, 0, len(order))
	for _, key := range order {
		reps := groups[key]
		if len(reps) == 1 {
			out = append(out, reps[0].WithName(key))
			continue
		}
		merged, err := rm.Merge(key, reps...)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", key, err)
		}
		log.Printf("Merged %d replicates of %s\n", len(reps), key)
		out = append(out, merged)
	}

	return out, nil
}

func assayFilter(o options) (filter.Filter, error) {
	var fs []filter.Filter
	for _, expr := range splitList(o.filter) {
		th, err := filter.ParseThreshold(expr)
		if err != nil {
			return nil, err
		}
		fs = append(fs, th)
	}
	if o.nonEmpty {
		fs = append(fs, filter.NonEmpty(bioassay.DefaultEmptyTester))
	}
	if o.flagsMin != 0 {
		fs = append(fs, filter.FlagsAtLeast(o.flagsMin))
	}

	if len(fs) == 0 {
		return nil, nil
	}
	return filter.And(fs...), nil
}

func filterAssays(assays []*bioassay.BioAssay, o options) ([]*bioassay.BioAssay, error) {
	f, err := assayFilter(o)
	if err != nil || f == nil {
		return assays, err
	}

	out := make([]*bioassay.BioAssay, len(assays))
	for i, b := range assays {
		if out[i], err = filter.Apply(b, f); err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		log.Printf("%s: kept %d of %d rows\n", b.Name(), out[i].Len(), b.Len())
	}

	return out, nil
}

func buildMatrix(assays []*bioassay.BioAssay, o options) (*matrix.Matrix, error) {
	policy, err := matrix.ParsePolicy(o.policy)
	if err != nil {
		return nil, err
	}

	m, err := matrix.Merge(assays, matrix.MergeOptions{Dimensions: splitList(o.dimensions), Policy: policy})
	if err != nil {
		return nil, err
	}

	if o.naRate < 1 {
		if m, err = m.FilterRows(filter.NARows(o.naRate)); err != nil {
			return nil, err
		}
	}
	if o.mThreshold != 0 {
		if m, err = m.FilterRows(filter.MThresholdRows(o.mThreshold, o.mRate, true)); err != nil {
			return nil, err
		}
	}

	if o.center != "" {
		axis, err := parseAxis(o.center)
		if err != nil {
			return nil, err
		}
		if m, err = matrix.Center(m, o.dimension, axis); err != nil {
			return nil, err
		}
	}
	if o.scale != "" {
		axis, err := parseAxis(o.scale)
		if err != nil {
			return nil, err
		}
		if m, err = matrix.Scale(m, o.dimension, axis); err != nil {
			return nil, err
		}
	}

	return m, nil
}
