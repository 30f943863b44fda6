package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
	PDF  Format = "pdf"
	JSON Format = "json"
)

var Formats = []Format{CSV, XLSX, PDF, JSON}

// Options tune the human-facing formats. CSV and JSON ignore them.
type Options struct {
	Title       string
	Currency    string
	GeneratedAt time.Time
}

func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CSV, nil
	}
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

func (f Format) ContentType() string {
	switch f {
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case PDF:
		return "application/pdf"
	case JSON:
		return "application/json"
	default:
		return "text/csv; charset=utf-8"
	}
}

func (f Format) Extension() string {
	return string(f)
}

// Write serializes rows to w in the given format.
func Write(w io.Writer, f Format, rows []Row, opts Options) error {
	switch f {
	case CSV:
		return WriteCSV(w, rows)
	case XLSX:
		return WriteXLSX(w, rows)
	case PDF:
		return WritePDF(w, rows, opts)
	case JSON:
		return WriteJSON(w, rows)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}

// Filename builds base_YYYYMMDD_HHMMSS.ext.
func Filename(base string, f Format, at time.Time) string {
	if base == "" {
		base = strings.ToLower(SheetName)
	}
	return fmt.Sprintf("%s_%s.%s", base, at.Format("20060102_150405"), f.Extension())
}

// WriteFile writes rows into dir, creating it if needed, and returns the
// absolute path of the new file.
func WriteFile(dir, base string, f Format, rows []Row, opts Options) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not get current working directory: %w", err)
		}
		dir = cwd
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating output directory %q: %w", dir, err)
	}
	at := opts.GeneratedAt
	if at.IsZero() {
		at = time.Now()
	}
	path := filepath.Join(dir, Filename(base, f, at))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("error creating %s file: %w", f, err)
	}
	if err := Write(file, f, rows, opts); err != nil {
		file.Close()
		os.Remove(path)
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("error closing %s file: %w", f, err)
	}
	return filepath.Abs(path)
}
