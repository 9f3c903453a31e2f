package sink

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"

	"threatwatch/internal/detection"
)

// ReplayFrames decodes JSONL frames from r and hands each to fn. A speed >0
// replays with the recorded spacing divided by speed; speed <= 0 inserts no delay.
func ReplayFrames(r io.Reader, fn func(detection.Frame) error, speed float64) error {
	dec := json.NewDecoder(r)
	var prev time.Time
	for {
		var f detection.Frame
		if err := dec.Decode(&f); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if !prev.IsZero() && speed > 0 {
			diff := f.Timestamp.Sub(prev)
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				time.Sleep(diff)
			}
		}
		if err := fn(f); err != nil {
			return err
		}
		prev = f.Timestamp
	}
}

// ReplayFramesFile opens a file and replays its frames.
func ReplayFramesFile(path string, fn func(detection.Frame) error, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReplayFrames(f, fn, speed)
}

// ReadDetections decodes a JSONL detection log.
func ReadDetections(r io.Reader) ([]detection.Detection, error) {
	dec := json.NewDecoder(r)
	var out []detection.Detection
	for {
		var d detection.Detection
		if err := dec.Decode(&d); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}
		out = append(out, d)
	}
}

// ReadDetectionsFile reads a JSONL detection log from disk.
func ReadDetectionsFile(path string) ([]detection.Detection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadDetections(f)
}
