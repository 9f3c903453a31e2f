package sink

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"threatwatch/internal/alert"
	"threatwatch/internal/detection"
)

var (
	timeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	detailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	severityStyle = map[detection.Level]lipgloss.Style{
		detection.LevelCritical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("9")),
		detection.LevelHigh:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		detection.LevelMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		detection.LevelLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	}
	classStyle = map[detection.Class]lipgloss.Style{
		detection.ClassWeapon: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		detection.ClassPerson: lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		detection.ClassDrone:  lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	}
)

// ConsoleWriter prints human-friendly, severity-colored lines for a terminal.
type ConsoleWriter struct {
	out        io.Writer
	detections bool
}

// NewConsoleWriter writes to os.Stdout. Detections are printed only when
// showDetections is set; alerts are always printed.
func NewConsoleWriter(showDetections bool) *ConsoleWriter {
	return &ConsoleWriter{out: os.Stdout, detections: showDetections}
}

// WriteDetection prints one detection line.
func (w *ConsoleWriter) WriteDetection(d detection.Detection) error {
	if !w.detections {
		return nil
	}
	style, ok := classStyle[d.Class]
	if !ok {
		style = detailStyle
	}
	_, err := fmt.Fprintf(w.out, "%s %s %s\n",
		timeStyle.Render(d.Timestamp.Format("15:04:05")),
		style.Render(fmt.Sprintf("%-8s", d.Class)),
		detailStyle.Render(fmt.Sprintf("%s %.1f%% src=%s", d.Label, d.Confidence, d.SourceID)),
	)
	return err
}

// WriteAlert prints one alert line.
func (w *ConsoleWriter) WriteAlert(a alert.Alert) error {
	style, ok := severityStyle[a.Severity]
	if !ok {
		style = detailStyle
	}
	_, err := fmt.Fprintf(w.out, "%s %s %s %s\n",
		timeStyle.Render(a.CreatedAt.Format("15:04:05")),
		style.Render(fmt.Sprintf("[%s]", a.Severity)),
		style.Render(a.Title),
		detailStyle.Render(a.Description),
	)
	return err
}
