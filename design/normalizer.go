package design

import (
	"context"
	"errors"
	"fmt"
)

// Normalizer is a remote normalization service. The numerical work happens
// on the other side; this package only drives it.
type Normalizer interface {
	Normalize(ctx context.Context, d *Design) error
	SaveReport(ctx context.Context, path string) error
	Clean(ctx context.Context) error
	Disconnect() error
}

// RunNormalization normalizes d once, saves the report when reportPath is
// set, and then always cleans up and disconnects. All errors are returned.
func RunNormalization(ctx context.Context, n Normalizer, d *Design, reportPath string) error {
	var runErr error
	if err := n.Normalize(ctx, d); err != nil {
		runErr = fmt.Errorf("normalize: %w", err)
	} else if reportPath != "" {
		if err := n.SaveReport(ctx, reportPath); err != nil {
			runErr = fmt.Errorf("save report %s: %w", reportPath, err)
		}
	}

	var cleanErr, closeErr error
	if err := n.Clean(ctx); err != nil {
		cleanErr = fmt.Errorf("clean: %w", err)
	}
	if err := n.Disconnect(); err != nil {
		closeErr = fmt.Errorf("disconnect: %w", err)
	}

	return errors.Join(runErr, cleanErr, closeErr)
}
