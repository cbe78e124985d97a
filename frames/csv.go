package frames

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var ErrNoHeader = errors.New("no header row")

// ReadCSV reads a header row followed by records. Column types are inferred from
// the non-empty cells: int, then float, then bool, otherwise string.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoHeader
	}

	header := records[0]
	columns := make([]string, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("column_%d", i)
		}
		columns[i] = name
	}
	records = records[1:]

	parsers := make([]func(string) any, len(columns))
	for i := range columns {
		parsers[i] = inferParser(records, i)
	}

	rows := make([][]any, 0, len(records))
	for n, record := range records {
		if len(record) > len(columns) {
			return nil, fmt.Errorf("line %d: expecting %d fields, got %d", n+2, len(columns), len(record))
		}
		row := make([]any, len(columns))
		for i := range columns {
			if i >= len(record) {
				continue
			}
			cell := strings.TrimSpace(record[i])
			if cell == "" {
				continue
			}
			row[i] = parsers[i](cell)
		}
		rows = append(rows, row)
	}

	return New(columns, rows)
}

func ReadCSVFile(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

func inferParser(records [][]string, col int) func(string) any {
	allInt, allFloat, allBool := true, true, true
	for _, record := range records {
		if col >= len(record) {
			continue
		}
		cell := strings.TrimSpace(record[col])
		if cell == "" {
			continue
		}
		if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
			allInt = false
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			allFloat = false
		}
		if _, ok := parseBool(cell); !ok {
			allBool = false
		}
	}
	switch {
	case allInt:
		return func(s string) any {
			v, _ := strconv.ParseInt(s, 10, 64)
			return v
		}
	case allFloat:
		return func(s string) any {
			v, _ := strconv.ParseFloat(s, 64)
			return v
		}
	case allBool:
		return func(s string) any {
			v, _ := parseBool(s)
			return v
		}
	}
	return func(s string) any {
		return s
	}
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}
