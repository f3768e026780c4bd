// internal/report/report.go

// Package report renders sweep results for humans and CI: Markdown and HTML
// summaries, raw JSON, and JUnit XML.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/karavela/qasweep/api/schemas"
)

// Writer renders one run into a specific format.
type Writer interface {
	// Write renders the run to w.
	Write(w io.Writer, run *schemas.SweepResult) error
	// Ext is the file extension for this format, without the dot.
	Ext() string
}

// New returns the writer for a format name.
func New(format string) (Writer, error) {
	switch strings.ToLower(format) {
	case "markdown", "md":
		return &MarkdownWriter{}, nil
	case "html":
		return &HTMLWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "junit", "xml":
		return &JUnitWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

// WriteFiles renders the run in every requested format under dir and returns
// the paths written. File names carry the run's start timestamp so repeated
// runs never clobber each other.
func WriteFiles(dir string, run *schemas.SweepResult, formats []string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating report directory %s: %w", dir, err)
	}

	base := fmt.Sprintf("qasweep-%s", run.StartedAt.Format("20060102-150405"))
	var paths []string
	for _, format := range formats {
		writer, err := New(format)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, base+"."+writer.Ext())
		f, err := os.Create(path)
		if err != nil {
			return paths, fmt.Errorf("creating report file %s: %w", path, err)
		}
		if err := writer.Write(f, run); err != nil {
			f.Close()
			return paths, fmt.Errorf("writing %s report: %w", format, err)
		}
		if err := f.Close(); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// formatDuration renders durations the way the reports show them.
func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
