package bulk

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// MaxFileSize is the largest upload accepted by ParseFile.
const MaxFileSize = 5 << 20

// Row is one data row keyed by header cell.
type Row map[string]string

// Sheet is the parsed contents of an uploaded file.
type Sheet struct {
	Name   string
	Header []string
	Rows   []Row
}

// ParseFile reads a .csv, .xlsx or .xls file. Only the first worksheet of a
// workbook is used. The first row is the header; rows with no non-blank cell
// are skipped.
func ParseFile(name string, r io.Reader) (*Sheet, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, fileError(name, "failed to read file", err)
	}
	if len(data) > MaxFileSize {
		return nil, fileError(name, ErrFileTooLarge.Error(), ErrFileTooLarge)
	}

	var records [][]string
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv":
		records, err = readCSV(data)
	case ".xlsx":
		records, err = readXLSX(data)
	case ".xls":
		records, err = readXLS(data)
	default:
		return nil, fileError(name, ErrUnsupportedFormat.Error(), ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fileError(name, "failed to parse file", err)
	}

	return buildSheet(name, records), nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader.ReadAll()
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return f.GetRows(sheets[0])
}

func readXLS(data []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if wb.NumSheets() == 0 {
		return nil, nil
	}
	ws := wb.GetSheet(0)
	if ws == nil {
		return nil, fmt.Errorf("first worksheet is unreadable")
	}

	var records [][]string
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := ws.Row(i)
		if row == nil {
			records = append(records, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		records = append(records, cells)
	}
	return records, nil
}

// buildSheet keys records by the first non-blank row.
func buildSheet(name string, records [][]string) *Sheet {
	sheet := &Sheet{Name: name}

	start := 0
	for ; start < len(records); start++ {
		if !blank(records[start]) {
			break
		}
	}
	if start == len(records) {
		return sheet
	}

	for _, h := range records[start] {
		sheet.Header = append(sheet.Header, strings.TrimSpace(h))
	}

	for _, rec := range records[start+1:] {
		if blank(rec) {
			continue
		}
		row := make(Row, len(sheet.Header))
		for i, h := range sheet.Header {
			if h == "" {
				continue
			}
			if i < len(rec) {
				row[h] = strings.TrimSpace(rec[i])
			} else {
				row[h] = ""
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

func blank(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// RowsToCSV encodes rows under header, in header order.
func RowsToCSV(header []string, rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	record := make([]string, len(header))
	for _, row := range rows {
		for i, h := range header {
			record[i] = row[h]
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
