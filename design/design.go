// Package design describes an experiment: which hybridizations (slides)
// belong to which samples and replicates, and the BioAssay read for each.
package design

import (
	"fmt"
	"time"

	"github.com/carbocation/exprannot"
	"github.com/carbocation/exprannot/bioassay"
)

type Slide struct {
	Name      string
	File      string
	Sample    string
	Replicate string

	// Date of hybridization. The zero value means unknown.
	Date time.Time

	// Assay is nil until loaded.
	Assay *bioassay.BioAssay
}

// Design is an ordered set of uniquely named slides. It is not modified
// after construction.
type Design struct {
	slides []Slide
	index  map[string]int
}

func New(slides ...Slide) (*Design, error) {
	d := &Design{
		slides: make([]Slide, 0, len(slides)),
		index:  make(map[string]int, len(slides)),
	}

	for _, s := range slides {
		if s.Name == "" {
			return nil, fmt.Errorf("design: slide %d: %w", len(d.slides)+1, exprannot.ErrEmptyIdentifier)
		}
		if _, exists := d.index[s.Name]; exists {
			return nil, fmt.Errorf("design: %w %q", exprannot.ErrDuplicateIdentifier, s.Name)
		}
		d.index[s.Name] = len(d.slides)
		d.slides = append(d.slides, s)
	}

	return d, nil
}

func (d *Design) Len() int { return len(d.slides) }

func (d *Design) Slides() []Slide {
	return append([]Slide(nil), d.slides...)
}

func (d *Design) Slide(name string) (Slide, bool) {
	i, ok := d.index[name]
	if !ok {
		return Slide{}, false
	}
	return d.slides[i], true
}

// Assays returns the loaded assays in slide order, skipping slides that have
// none.
func (d *Design) Assays() []*bioassay.BioAssay {
	var out []*bioassay.BioAssay
	for _, s := range d.slides {
		if s.Assay != nil {
			out = append(out, s.Assay)
		}
	}
	return out
}

// Filter returns the slides keep accepts, in order.
func (d *Design) Filter(keep func(Slide) bool) *Design {
	var slides []Slide
	for _, s := range d.slides {
		if keep(s) {
			slides = append(slides, s)
		}
	}

	out, _ := New(slides...)
	return out
}

// WithAssays returns a copy of d in which each slide holds the assay load
// returns for it, renamed after the slide.
func (d *Design) WithAssays(load func(Slide) (*bioassay.BioAssay, error)) (*Design, error) {
	slides := d.Slides()
	for i := range slides {
		b, err := load(slides[i])
		if err != nil {
			return nil, fmt.Errorf("slide %s: %w", slides[i].Name, err)
		}
		if b == nil {
			return nil, fmt.Errorf("slide %s: no assay loaded", slides[i].Name)
		}
		slides[i].Assay = b.WithName(slides[i].Name)
	}

	return New(slides...)
}
