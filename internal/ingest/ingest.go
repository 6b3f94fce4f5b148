// Package ingest decodes uploaded spreadsheet files into a raw table the
// analysis pipeline can consume. Handles CSV with non-UTF-8 encoding
// fallback and XLSX first-sheet extraction.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/pias-analytics/pias-backend/internal/domain"
)

// MaxUploadSize caps accepted uploads at 25 MB.
const MaxUploadSize = 25 << 20

// ErrUnsupportedFormat is returned for file extensions outside the
// allow-list.
var ErrUnsupportedFormat = errors.New("unsupported file format: use csv, xlsx or xls")

// ErrTooLarge is returned when the upload exceeds MaxUploadSize.
var ErrTooLarge = errors.New("file exceeds the 25MB upload limit")

var allowedExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
	".xls":  true,
}

// Read decodes the uploaded bytes into a raw table based on the filename's
// extension, then validates its basic shape.
func Read(filename string, data []byte) (domain.RawTable, error) {
	if len(data) > MaxUploadSize {
		return domain.RawTable{}, ErrTooLarge
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return domain.RawTable{}, ErrUnsupportedFormat
	}

	var (
		table domain.RawTable
		err   error
	)
	if ext == ".csv" {
		table, err = readCSV(data)
	} else {
		table, err = readXLSX(data)
	}
	if err != nil {
		return domain.RawTable{}, err
	}
	if err := ValidateShape(table); err != nil {
		return domain.RawTable{}, err
	}
	return table, nil
}

// ValidateShape enforces the minimal table shape: at least 3 columns and one
// data row.
func ValidateShape(table domain.RawTable) error {
	if len(table.Headers) < 3 {
		return errors.New("file must have at least 3 columns")
	}
	if len(table.Rows) == 0 {
		return errors.New("file has no data rows")
	}
	return nil
}

// readCSV parses CSV bytes, retrying with Windows-1252 then Latin-1 when the
// content is not valid UTF-8. Spreadsheet exports from older tooling
// routinely arrive in those encodings.
func readCSV(data []byte) (domain.RawTable, error) {
	if !utf8.Valid(data) {
		decoded := false
		for _, cm := range []*charmap.Charmap{charmap.Windows1252, charmap.ISO8859_1} {
			converted, err := cm.NewDecoder().Bytes(data)
			if err == nil && utf8.Valid(converted) {
				data = converted
				decoded = true
				break
			}
		}
		if !decoded {
			return domain.RawTable{}, errors.New("unable to read file: encoding issues")
		}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var table domain.RawTable
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.RawTable{}, fmt.Errorf("failed to parse csv: %w", err)
		}
		if table.Headers == nil {
			table.Headers = record
			continue
		}
		if emptyRecord(record) {
			continue
		}
		table.Rows = append(table.Rows, record)
	}
	return table, nil
}

// readXLSX extracts the first sheet of an XLSX workbook.
func readXLSX(data []byte) (domain.RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return domain.RawTable{}, errors.New("workbook has no sheets")
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	defer rows.Close()

	var table domain.RawTable
	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return domain.RawTable{}, fmt.Errorf("failed to read row: %w", err)
		}
		if table.Headers == nil {
			table.Headers = record
			continue
		}
		if emptyRecord(record) {
			continue
		}
		// Pad short rows so every row aligns with the header.
		for len(record) < len(table.Headers) {
			record = append(record, "")
		}
		table.Rows = append(table.Rows, record)
	}
	if err := rows.Error(); err != nil {
		return domain.RawTable{}, fmt.Errorf("error iterating rows: %w", err)
	}
	return table, nil
}

func emptyRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
