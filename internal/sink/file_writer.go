package sink

import (
	"os"

	"github.com/goccy/go-json"

	"threatwatch/internal/alert"
	"threatwatch/internal/detection"
)

// FileWriter writes detections, alerts and raw frames to JSONL files.
type FileWriter struct {
	files    []*os.File
	detEnc   *json.Encoder
	alertEnc *json.Encoder
	frameEnc *json.Encoder
}

// NewFileWriter creates a FileWriter. Any path may be empty to skip that log.
func NewFileWriter(detectionPath, alertPath, framePath string) (*FileWriter, error) {
	fw := &FileWriter{}
	open := func(path string) (*json.Encoder, error) {
		if path == "" {
			return nil, nil
		}
		f, err := os.Create(path)
		if err != nil {
			fw.Close()
			return nil, err
		}
		fw.files = append(fw.files, f)
		return json.NewEncoder(f), nil
	}
	var err error
	if fw.detEnc, err = open(detectionPath); err != nil {
		return nil, err
	}
	if fw.alertEnc, err = open(alertPath); err != nil {
		return nil, err
	}
	if fw.frameEnc, err = open(framePath); err != nil {
		return nil, err
	}
	return fw, nil
}

// WriteDetection logs a single detection, if enabled.
func (f *FileWriter) WriteDetection(d detection.Detection) error {
	if f.detEnc == nil {
		return nil
	}
	return f.detEnc.Encode(d)
}

// WriteDetections logs multiple detections.
func (f *FileWriter) WriteDetections(rows []detection.Detection) error {
	for _, d := range rows {
		if err := f.WriteDetection(d); err != nil {
			return err
		}
	}
	return nil
}

// WriteAlert logs a single alert, if enabled.
func (f *FileWriter) WriteAlert(a alert.Alert) error {
	if f.alertEnc == nil {
		return nil
	}
	return f.alertEnc.Encode(a)
}

// WriteAlerts logs multiple alerts.
func (f *FileWriter) WriteAlerts(rows []alert.Alert) error {
	for _, a := range rows {
		if err := f.WriteAlert(a); err != nil {
			return err
		}
	}
	return nil
}

// WriteFrame logs a raw frame, if enabled.
func (f *FileWriter) WriteFrame(fr detection.Frame) error {
	if f.frameEnc == nil {
		return nil
	}
	return f.frameEnc.Encode(fr)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	for _, file := range f.files {
		if e := file.Close(); e != nil && err == nil {
			err = e
		}
	}
	f.files = nil
	return err
}
