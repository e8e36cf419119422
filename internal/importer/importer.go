// Package importer reads the first sheet of a spreadsheet or CSV upload into
// header-keyed records.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Extensions are the accepted upload types.
var Extensions = []string{".xlsx", ".xls", ".csv"}

// ErrUnsupportedExtension is wrapped by ParseError for files outside the allow-list.
var ErrUnsupportedExtension = errors.New("unsupported file type")

// ErrEmpty is wrapped by ParseError when the sheet has no data rows.
var ErrEmpty = errors.New("no data rows")

// ParseError is fatal to an import: no rows from the file are applied.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Allowed reports whether the file name has an accepted extension.
func Allowed(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Parse reads the first sheet of the file. The header row gives the record keys.
func Parse(filename string, r io.Reader) ([]map[string]any, error) {
	if !Allowed(filename) {
		return nil, &ParseError{File: filename, Err: fmt.Errorf("%w %q, expected one of %s",
			ErrUnsupportedExtension, filepath.Ext(filename), strings.Join(Extensions, ", "))}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{File: filename, Err: err}
	}

	var table [][]string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		table, err = readXLSX(data)
	case ".xls":
		table, err = readXLS(data)
	case ".csv":
		table, err = readCSV(data)
	}
	if err != nil {
		return nil, &ParseError{File: filename, Err: err}
	}

	records := Records(table)
	if len(records) == 0 {
		return nil, &ParseError{File: filename, Err: ErrEmpty}
	}
	return records, nil
}

// Records keys every data row by the header row. Blank cells and blank rows are
// dropped.
func Records(table [][]string) []map[string]any {
	if len(table) == 0 {
		return nil
	}
	header := make([]string, len(table[0]))
	for i, h := range table[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var out []map[string]any
	for _, row := range table[1:] {
		rec := map[string]any{}
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if v := strings.TrimSpace(cell); v != "" {
				rec[header[i]] = v
			}
		}
		if len(rec) > 0 {
			out = append(out, rec)
		}
	}
	return out
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}
	// Raw values keep dates as serial numbers for the normalizer.
	return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
}

func readXLS(data []byte) (table [][]string, err error) {
	// The xls decoder panics on some corrupt files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("corrupt xls file: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrEmpty
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		table = append(table, cells)
	}
	return table, nil
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.ReadAll()
}
