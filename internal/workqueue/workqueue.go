// Package workqueue loads the list of entity keys a run processes.
package workqueue

import (
	"encoding/csv"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/agentstation/gamemeta/pkg/errors"
)

// Load reads the distinct, non-empty values of column from the CSV file at
// path, trimmed and sorted.
func Load(path, column string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer func() { _ = f.Close() }()

	queue, err := Read(f, column)
	if err != nil {
		var parseErr *errors.ParseError
		if errors.As(err, &parseErr) && parseErr.File == "" {
			parseErr.File = path
		}
		return nil, err
	}
	return queue, nil
}

// Read is Load over an open reader.
func Read(r io.Reader, column string) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.NewValidationError("input", "", "file is empty")
	}
	if err != nil {
		return nil, errors.NewParseError("csv", "", "header", err)
	}

	col := -1
	for i, h := range header {
		// Spreadsheet exports may prefix the first header with a BOM.
		if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == column {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, errors.NewValidationError("column", column, "not found in header")
	}

	var names []string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewParseError("csv", "", "row", err)
		}
		if col >= len(row) {
			continue
		}
		if name := strings.TrimSpace(row[col]); name != "" {
			names = append(names, name)
		}
	}

	slices.Sort(names)
	return slices.Compact(names), nil
}
