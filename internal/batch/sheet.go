package batch

import (
	"encoding/csv"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"speakai-platform/internal/apperr"

	"github.com/xuri/excelize/v2"
)

// Sheet is a parsed upload: the first row is the header.
type Sheet struct {
	Header []string
	Rows   [][]string
}

// ReadSheet parses CSV or Excel content chosen by the filename extension.
func ReadSheet(filename string, r io.Reader) (Sheet, error) {
	var rows [][]string
	var err error
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		rows, err = readCSV(r)
	case ".xlsx", ".xlsm", ".xls":
		rows, err = readExcel(r)
	default:
		return Sheet{}, apperr.Validation("unsupported file type %q, upload a .csv or .xlsx file", ext)
	}
	if err != nil {
		return Sheet{}, apperr.Validation("could not read %s: %v", filepath.Base(filename), err)
	}
	if len(rows) == 0 {
		return Sheet{}, apperr.Validation("%s has no header row", filepath.Base(filename))
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return Sheet{Header: header, Rows: rows[1:]}, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

func readExcel(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

// Column returns every cell of the named column. Short rows yield "".
func (s Sheet) Column(name string) ([]string, error) {
	idx := -1
	for i, h := range s.Header {
		if h == strings.TrimSpace(name) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperr.Validation("column %q not found, available columns: %s", name, strings.Join(s.Header, ", "))
	}
	out := make([]string, 0, len(s.Rows))
	for _, row := range s.Rows {
		if idx < len(row) {
			out = append(out, row[idx])
		} else {
			out = append(out, "")
		}
	}
	return out, nil
}
