package importer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestAllowed(t *testing.T) {
	assert.True(t, Allowed("plan.XLSX"))
	assert.True(t, Allowed("plan.xls"))
	assert.True(t, Allowed("dir/plan.csv"))
	assert.False(t, Allowed("plan.json"))
	assert.False(t, Allowed("plan"))
}

func TestParseCSV(t *testing.T) {
	in := "\ufeffID,Task,PIC,End Date\n1,Wire harness,Amy,2025/1/2\n,,,\n2,\"Bench, rig\",,45658\n"

	got, err := Parse("plan.csv", strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"ID": "1", "Task": "Wire harness", "PIC": "Amy", "End Date": "2025/1/2"},
		{"ID": "2", "Task": "Bench, rig", "End Date": "45658"},
	}, got)
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"ID", "Task", "Status"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{3, "Frame", "Done"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	got, err := Parse("plan.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"ID": "3", "Task": "Frame", "Status": "Done"}}, got)
}

func TestParseErrors(t *testing.T) {
	tests := map[string]struct {
		file   string
		data   string
		expErr error
	}{
		"An unsupported extension should fail.": {
			file:   "plan.pdf",
			data:   "x",
			expErr: ErrUnsupportedExtension,
		},
		"A header only file should fail.": {
			file:   "plan.csv",
			data:   "ID,Task\n",
			expErr: ErrEmpty,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(test.file, strings.NewReader(test.data))
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, test.file, pe.File)
			assert.ErrorIs(t, err, test.expErr)
		})
	}
}

func TestParseMalformedBinary(t *testing.T) {
	for _, name := range []string{"broken.xlsx", "broken.xls"} {
		_, err := Parse(name, strings.NewReader("not a spreadsheet"))
		var pe *ParseError
		assert.ErrorAs(t, err, &pe, name)
	}
}

func TestWriteThenParse(t *testing.T) {
	columns := []string{"ID", "Task", "Status"}
	records := []map[string]any{
		{"ID": 1, "Task": "Wire harness", "Status": "Done"},
		{"ID": "B-2", "Task": "Bench, rig"},
	}
	exp := []map[string]any{
		{"ID": "1", "Task": "Wire harness", "Status": "Done"},
		{"ID": "B-2", "Task": "Bench, rig"},
	}

	for _, name := range []string{"plan.csv", "plan.xlsx"} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(name, &buf, columns, records))

			got, err := Parse(name, &buf)
			require.NoError(t, err)
			assert.Equal(t, exp, got)
		})
	}
}

func TestWriteUnsupportedExtension(t *testing.T) {
	var buf bytes.Buffer
	err := Write("plan.xls", &buf, []string{"ID"}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedExtension)
}
