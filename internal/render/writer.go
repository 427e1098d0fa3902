package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ChartPress/internal/chart"
)

// FileLayout is the timestamp prefix of chart file names.
const FileLayout = "2006-01-02_15-04"

// FileWriter stores rendered charts as PNG files in Dir.
type FileWriter struct {
	Dir string
}

// NewFileWriter creates dir if needed.
func NewFileWriter(dir string) (*FileWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &FileWriter{Dir: dir}, nil
}

// FileName returns "<YYYY-MM-DD_HH-MM>_<SYMBOL>.png".
func FileName(symbol string, now time.Time) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, strings.ToUpper(symbol))
	return fmt.Sprintf("%s_%s.png", now.Format(FileLayout), safe)
}

// Write renders l into a temporary file and renames it into place, so a
// failed render never leaves a partial chart behind.
func (fw *FileWriter) Write(l *chart.Layout, now time.Time) (string, error) {
	tmp, err := os.CreateTemp(fw.Dir, ".chart-*.png.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := PNG(l, tmp); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	path := filepath.Join(fw.Dir, FileName(l.Symbol, now))
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename chart: %w", err)
	}
	return path, nil
}
