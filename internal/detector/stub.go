//go:build !gocv
// +build !gocv

package detector

import (
	"context"
	"errors"

	"github.com/nurulfaradila/pcb-defect-detection/internal/core"
)

// GoCVDetector is the no-OpenCV build of the detector. Every inspection
// fails, which the worker pool records as a terminal FAILURE; builds
// meant to produce real detections need the gocv tag.
type GoCVDetector struct {
	cfg Config
}

func NewGoCVDetector(cfg Config) (*GoCVDetector, error) {
	return &GoCVDetector{cfg: cfg}, nil
}

func (d *GoCVDetector) Close() error {
	return nil
}

func (d *GoCVDetector) Inspect(ctx context.Context, imagePath string) (*core.InspectionResult, error) {
	_ = ctx
	_ = imagePath
	return nil, errors.New("gocv build tag is not enabled")
}
