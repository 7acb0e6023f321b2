package exprannot

import (
	"bytes"

	"github.com/csimplestring/go-csv/detector"
)

// DefaultDelimiter is used when a sample is too small or too ambiguous to sniff.
const DefaultDelimiter = '\t'

// DetermineDelimiter returns the single most likely rune that delimits the
// values in sample, assuming a CSV-like file. Annotation exports are almost
// always tab-delimited, so that is the fallback.
func DetermineDelimiter(sample []byte) rune {
	if len(sample) == 0 {
		return DefaultDelimiter
	}

	// Tabs are unambiguous and the detector does not always rank them first
	// when descriptions contain commas.
	firstLine := sample
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		firstLine = sample[:i]
	}
	if bytes.IndexByte(firstLine, '\t') >= 0 {
		return '\t'
	}

	d := detector.New()
	delimiters := d.DetectDelimiter(bytes.NewReader(sample), '"')

	if len(delimiters) > 0 && len(delimiters[0]) > 0 {
		return rune(delimiters[0][0])
	}

	return DefaultDelimiter
}
