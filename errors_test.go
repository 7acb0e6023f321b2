package exprannot

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestMalformedFileErrorIs(t *testing.T) {
	cause := fmt.Errorf("bad quote")
	err := fmt.Errorf("loading: %w", &MalformedFileError{Path: "annot.txt", Line: 7, Reason: "unparseable row", Err: cause})

	if !errors.Is(err, ErrMalformedFile) {
		t.Fatalf("expected %v to be ErrMalformedFile", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected %v to unwrap to its cause", err)
	}

	var mfe *MalformedFileError
	if !errors.As(err, &mfe) || mfe.Line != 7 {
		t.Fatalf("expected line 7, got %+v", mfe)
	}
	if !strings.Contains(err.Error(), "annot.txt:7") {
		t.Fatalf("expected path and line in %q", err.Error())
	}
}

func TestUnknownField(t *testing.T) {
	err := UnknownField("Symbol", "select")
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if !strings.Contains(err.Error(), `"Symbol"`) {
		t.Fatalf("expected field name in %q", err.Error())
	}
}
