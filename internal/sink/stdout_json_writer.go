package sink

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"threatwatch/internal/alert"
	"threatwatch/internal/detection"
)

// JSONStdoutWriter prints detections, alerts and frames as JSON lines.
type JSONStdoutWriter struct {
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

// NewJSONWriter creates a JSONStdoutWriter writing to out.
func NewJSONWriter(out io.Writer) *JSONStdoutWriter {
	return &JSONStdoutWriter{out: out}
}

// WriteJSON outputs any value as one JSON line.
func (w *JSONStdoutWriter) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// WriteDetection outputs a detection in JSON format.
func (w *JSONStdoutWriter) WriteDetection(d detection.Detection) error {
	return w.WriteJSON(d)
}

// WriteAlert outputs an alert in JSON format.
func (w *JSONStdoutWriter) WriteAlert(a alert.Alert) error {
	return w.WriteJSON(a)
}

// WriteFrame outputs a raw frame in JSON format.
func (w *JSONStdoutWriter) WriteFrame(f detection.Frame) error {
	return w.WriteJSON(f)
}
