package ingest

import (
	"errors"
	"strings"
	"testing"
)

var sampleCSV = []byte(`product,category,stock,sales
Widget A,Tools,50,20
Widget B,Tools,30,12
`)

func TestReadCSV(t *testing.T) {
	table, err := Read("inventory.csv", sampleCSV)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(table.Headers) != 4 {
		t.Errorf("headers = %v", table.Headers)
	}
	if len(table.Rows) != 2 {
		t.Errorf("got %d rows, want 2", len(table.Rows))
	}
	if table.Rows[0][0] != "Widget A" {
		t.Errorf("first cell = %q", table.Rows[0][0])
	}
}

func TestReadCSVSkipsBlankLines(t *testing.T) {
	data := []byte("a,b,c\n1,2,3\n,,\n\n4,5,6\n")
	table, err := Read("file.csv", data)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(table.Rows) != 2 {
		t.Errorf("got %d rows, want 2 (blank lines skipped)", len(table.Rows))
	}
}

func TestReadCSVEncodingFallback(t *testing.T) {
	// "Café" in Windows-1252: 0xE9 is not valid UTF-8.
	data := []byte("product,category,stock,sales\nCaf\xe9,Food,10,5\n")
	table, err := Read("latin.csv", data)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if table.Rows[0][0] != "Café" {
		t.Errorf("decoded cell = %q, want Café", table.Rows[0][0])
	}
}

func TestReadRejectsUnsupportedExtension(t *testing.T) {
	_, err := Read("report.pdf", sampleCSV)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Read() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestReadRejectsOversize(t *testing.T) {
	big := []byte(strings.Repeat("x", MaxUploadSize+1))
	_, err := Read("big.csv", big)
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("Read() error = %v, want ErrTooLarge", err)
	}
}

func TestReadValidatesShape(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"too few columns", "a,b\n1,2\n"},
		{"no data rows", "a,b,c\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read("file.csv", []byte(tt.data)); err == nil {
				t.Error("Read() = nil error, want shape validation failure")
			}
		})
	}
}
