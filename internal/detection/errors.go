package detection

import (
	"fmt"
	"math"
)

// InvalidFrameError reports a frame with zero or negative dimensions.
type InvalidFrameError struct {
	Width  float64
	Height float64
}

func (e *InvalidFrameError) Error() string {
	return fmt.Sprintf("invalid frame dimensions %gx%g", e.Width, e.Height)
}

// ValidateFrame returns an InvalidFrameError unless both dimensions are positive.
func ValidateFrame(width, height float64) error {
	if width <= 0 || height <= 0 {
		return &InvalidFrameError{Width: width, Height: height}
	}
	return nil
}

// InvalidConfidenceError reports a confidence outside [0,100] after normalization.
type InvalidConfidenceError struct {
	Label      string
	Confidence float64
}

func (e *InvalidConfidenceError) Error() string {
	return fmt.Sprintf("invalid confidence %g for %q: want value in [0,100]", e.Confidence, e.Label)
}

// ValidateConfidence checks a normalized confidence value.
func ValidateConfidence(label string, conf float64) error {
	if conf < 0 || conf > 100 || math.IsNaN(conf) {
		return &InvalidConfidenceError{Label: label, Confidence: conf}
	}
	return nil
}
