package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format identifies a supported spreadsheet encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned for file extensions that cannot be parsed.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrEmpty is returned when a file has no header row.
var ErrEmpty = errors.New("file has no header row")

// Sheet is a parsed header row plus data rows, all as text.
type Sheet struct {
	Columns []string
	Rows    [][]string
}

// DetectFormat resolves the format from a filename extension.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// Read parses r according to format.
func Read(r io.Reader, format Format) (*Sheet, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r)
	case FormatXLSX:
		return ReadXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// ReadCSV parses a comma separated file. Ragged rows are tolerated and a
// leading UTF-8 byte order mark is dropped.
func ReadCSV(r io.Reader) (*Sheet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return build(header, records[1:]), nil
}

// ReadXLSX parses the first worksheet of an Excel workbook.
func ReadXLSX(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close() //nolint:errcheck

	name := f.GetSheetName(0)
	if name == "" {
		return nil, ErrEmpty
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	return build(rows[0], rows[1:]), nil
}

// ReadBytes is a convenience wrapper for in-memory uploads.
func ReadBytes(data []byte, filename string) (*Sheet, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}
	return Read(bytes.NewReader(data), format)
}

func build(header []string, body [][]string) *Sheet {
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}
	rows := make([][]string, 0, len(body))
	for _, rec := range body {
		if blank(rec) {
			continue
		}
		row := make([]string, len(columns))
		copy(row, rec)
		rows = append(rows, row)
	}
	return &Sheet{Columns: dedupeColumns(columns), Rows: rows}
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// dedupeColumns renames repeated headers the way spreadsheet exports do,
// so a second "Residence Prior to Project Entry" becomes
// "Residence Prior to Project Entry.1".
func dedupeColumns(columns []string) []string {
	seen := make(map[string]int, len(columns))
	out := make([]string, len(columns))
	for i, col := range columns {
		n, ok := seen[col]
		if !ok {
			seen[col] = 1
			out[i] = col
			continue
		}
		name := fmt.Sprintf("%s.%d", col, n)
		for {
			if _, taken := seen[name]; !taken {
				break
			}
			n++
			name = fmt.Sprintf("%s.%d", col, n)
		}
		seen[col] = n + 1
		seen[name] = 1
		out[i] = name
	}
	return out
}
