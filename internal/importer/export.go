package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExportExtensions are the file types Write can produce.
var ExportExtensions = []string{".xlsx", ".csv"}

// Write renders records as a single sheet with columns as the header row, in
// the format given by the file name. Missing keys become blank cells.
func Write(filename string, w io.Writer, columns []string, records []map[string]any) error {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		return writeCSV(w, columns, records)
	case ".xlsx":
		return writeXLSX(w, columns, records)
	default:
		return fmt.Errorf("%w %q, expected one of %s", ErrUnsupportedExtension, ext, strings.Join(ExportExtensions, ", "))
	}
}

func writeCSV(w io.Writer, columns []string, records []map[string]any) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	row := make([]string, len(columns))
	for _, rec := range records {
		for i, col := range columns {
			row[i] = cell(rec[col])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, columns []string, records []map[string]any) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for r, rec := range records {
		row := make([]any, len(columns))
		for i, col := range columns {
			row[i] = rec[col]
		}
		axis, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}

func cell(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
