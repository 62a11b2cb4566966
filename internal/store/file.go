// internal/store/file.go
package store

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/leadscape/leadminer/pkg/types"
)

// leadColumns is the fixed column order for tabular exports.
var leadColumns = []string{
	"profile_url", "name", "headline", "location", "company",
	"position", "followers", "connections", "platform", "discovered_at",
}

func leadRow(lead types.Lead) []string {
	record := lead.ToRecord()
	row := make([]string, len(leadColumns))
	for i, column := range leadColumns {
		switch v := record[column].(type) {
		case nil:
			row[i] = ""
		case string:
			row[i] = v
		case int:
			row[i] = strconv.Itoa(v)
		default:
			row[i] = fmt.Sprintf("%v", v)
		}
	}
	return row
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return nil
}

// JSONSink writes the full lead batch to a JSON file, replacing any
// previous contents.
type JSONSink struct {
	path   string
	indent bool
}

// NewJSONSink creates a JSON file sink at path.
func NewJSONSink(path string, indent bool) (*JSONSink, error) {
	if path == "" {
		return nil, fmt.Errorf("JSON output path is required")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	return &JSONSink{path: path, indent: indent}, nil
}

func (s *JSONSink) Name() string { return "json:" + s.path }

// Export writes the leads as a JSON array.
func (s *JSONSink) Export(ctx context.Context, leads []types.Lead) error {
	file, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	if s.indent {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(leads); err != nil {
		return fmt.Errorf("failed to encode leads: %w", err)
	}
	return nil
}

func (s *JSONSink) Close() error { return nil }

// CSVSink writes the lead batch as CSV with a fixed header row.
type CSVSink struct {
	path string
}

// NewCSVSink creates a CSV file sink at path.
func NewCSVSink(path string) (*CSVSink, error) {
	if path == "" {
		return nil, fmt.Errorf("CSV output path is required")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	return &CSVSink{path: path}, nil
}

func (s *CSVSink) Name() string { return "csv:" + s.path }

// Export writes the header and one row per lead.
func (s *CSVSink) Export(ctx context.Context, leads []types.Lead) error {
	file, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(leadColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, lead := range leads {
		if err := writer.Write(leadRow(lead)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

func (s *CSVSink) Close() error { return nil }
