// Package importer turns roster spreadsheets (.csv, .xlsx) into validated rows.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files that are neither .csv nor .xlsx.
var ErrUnsupportedFormat = errors.New("unsupported file format, upload a .csv or .xlsx file")

// ErrEmptyFile is returned when the file has no header row.
var ErrEmptyFile = errors.New("file has no header row")

// table is a header plus raw data records and the source line of each record.
type table struct {
	header  []string
	records [][]string
	lines   []int
}

func readTable(filename string, r io.Reader) (*table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return readCSV(r)
	case ".xlsx":
		return readXLSX(r)
	}
	return nil, ErrUnsupportedFormat
}

func readCSV(r io.Reader) (*table, error) {
	rd := csv.NewReader(r)
	rd.FieldsPerRecord = -1
	rd.TrimLeadingSpace = true

	header, err := rd.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	tbl := &table{header: header}
	for {
		record, err := rd.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		line, _ := rd.FieldPos(0)
		tbl.records = append(tbl.records, record)
		tbl.lines = append(tbl.lines, line)
	}
	return tbl, nil
}

func readXLSX(r io.Reader) (*table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("invalid xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	tbl := &table{header: rows[0], records: rows[1:]}
	for i := range tbl.records {
		tbl.lines = append(tbl.lines, i+2)
	}
	return tbl, nil
}
