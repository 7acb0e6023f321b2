package annotation

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/carbocation/exprannot"
	"github.com/carbocation/pfx"
)

// FastaField is the single field of a Source read from FASTA.
const FastaField = "Fasta"

// LoadFasta opens path (local, gs:// or s3://, optionally compressed) and
// reads it with ReadFasta.
func LoadFasta(ctx context.Context, path string) (*Source, error) {
	f, err := exprannot.Open(ctx, path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	src, err := ReadFasta(f)
	if err != nil {
		var mfe *exprannot.MalformedFileError
		if errors.As(err, &mfe) {
			mfe.Path = path
		}
		return nil, pfx.Err(err)
	}

	return src, nil
}

// ReadFasta maps each record's identifier (the header up to its first
// whitespace) to its sequence. Wrapped sequence lines are joined.
func ReadFasta(r io.Reader) (*Source, error) {
	sc := bufio.NewScanner(r)
	const maxLine = 64 * 1024 * 1024 // allow very long single-line sequences
	sc.Buffer(make([]byte, 64*1024), maxLine)

	b, err := NewBuilder(FastaField)
	if err != nil {
		return nil, err
	}

	var (
		id       string
		idLine   int
		seq      []byte
		inRecord bool
	)

	flush := func() error {
		if !inRecord {
			return nil
		}
		if err := b.Add(id, Record{FastaField: string(seq)}); err != nil {
			return &exprannot.MalformedFileError{Line: idLine, Reason: "bad record header", Err: err}
		}
		seq = seq[:0]
		return nil
	}

	for lineNo := 1; sc.Scan(); lineNo++ {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 || line[0] == ';' {
			continue
		}

		if line[0] == '>' {
			if err := flush(); err != nil {
				return nil, err
			}
			fields := bytes.Fields(line[1:])
			if len(fields) == 0 {
				return nil, &exprannot.MalformedFileError{Line: lineNo, Reason: "record header has no identifier"}
			}
			id = string(fields[0])
			idLine = lineNo
			inRecord = true
			continue
		}

		if !inRecord {
			return nil, &exprannot.MalformedFileError{Line: lineNo, Reason: "sequence data before the first header"}
		}

		for _, chunk := range bytes.Fields(line) {
			seq = append(seq, chunk...)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if err := flush(); err != nil {
		return nil, err
	}

	return b.Build(), nil
}
