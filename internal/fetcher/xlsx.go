package fetcher

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// SheetNames returns the sheet names of a workbook in file order. Import
// commands that process every sheet of a feed iterate this list.
func SheetNames(path string) ([]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	names := make([]string, 0, len(f.Sheets))
	for _, sheet := range f.Sheets {
		names = append(names, sheet.Name)
	}
	return names, nil
}

// ReadXLSX reads one sheet of a workbook and returns all rows as string
// slices. sheet may be empty, in which case the first sheet is used.
func ReadXLSX(path, sheet string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	var s *xlsx.Sheet
	if sheet == "" {
		if len(f.Sheets) == 0 {
			return nil, eris.Errorf("xlsx: %s has no sheets", path)
		}
		s = f.Sheets[0]
	} else {
		var ok bool
		s, ok = f.Sheet[sheet]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found in %s", sheet, path)
		}
	}

	var rows [][]string
	for _, row := range s.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
