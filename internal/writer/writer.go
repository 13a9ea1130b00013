package writer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-scripts/meetings/internal/types"
)

// CSVWriter writes meeting records to a single CSV file, replacing it on
// every write.
type CSVWriter struct {
	path string
}

// New creates a CSVWriter for path, creating the parent directory if needed.
func New(path string) (*CSVWriter, error) {
	if path == "" {
		return nil, fmt.Errorf("output path is empty")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return &CSVWriter{path: path}, nil
}

// Path returns the file the writer targets.
func (w *CSVWriter) Path() string {
	return w.path
}

// WriteRecords writes the header and one row per record, overwriting any
// previous file. Rows end with \r\n.
func (w *CSVWriter) WriteRecords(records []types.MeetingRecord) error {
	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	cw.UseCRLF = true
	if err := cw.Write(types.Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, record := range records {
		if err := cw.Write(record.Row()); err != nil {
			return fmt.Errorf("failed to write record %q: %w", record.Title, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	return file.Close()
}
