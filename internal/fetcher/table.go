package fetcher

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/getpulpo/fleet-importer/internal/model"
)

// TableOptions selects what to read and which columns must exist.
type TableOptions struct {
	Sheet     string   // XLSX only; empty means first sheet
	Delimiter rune     // CSV only
	Required  []string // headers that must be present
}

// Table is a parsed spreadsheet: the header in column order plus one raw
// row per data line.
type Table struct {
	Header []string
	Rows   []model.RawRow
}

// ReadTable reads a spreadsheet (.csv, .xls, .xlsx by extension) into raw
// rows keyed by column header. Header validation is fail-fast: a missing
// required column aborts the whole file before any row is produced. Short
// data rows are padded so every header has a cell.
func ReadTable(path string, opts TableOptions) (*Table, error) {
	var (
		grid [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil, eris.Wrap(openErr, "table: open csv")
		}
		defer f.Close()
		grid, err = ReadCSV(f, CSVOptions{Delimiter: opts.Delimiter})
	case ".xls", ".xlsx":
		grid, err = ReadXLSX(path, opts.Sheet)
	default:
		return nil, eris.Errorf("table: unsupported file type %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, eris.Errorf("table: %s is empty", path)
	}

	header := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		header[i] = strings.TrimSpace(h)
	}
	if err := checkHeader(header, opts.Required); err != nil {
		return nil, err
	}

	source := filepath.Base(path)
	rows := make([]model.RawRow, 0, len(grid)-1)
	for i, record := range grid[1:] {
		cells := make(map[string]string, len(header))
		for j, h := range header {
			if h == "" {
				continue
			}
			if j < len(record) {
				cells[h] = record[j]
			} else {
				cells[h] = ""
			}
		}
		rows = append(rows, model.RawRow{
			Index:  i + 1,
			Sheet:  opts.Sheet,
			Source: source,
			Cells:  cells,
		})
	}
	return &Table{Header: header, Rows: rows}, nil
}

func checkHeader(header, required []string) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []string
	for _, want := range required {
		if !present[want] {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("table: missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}
