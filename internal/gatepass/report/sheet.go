package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// sheet wraps a single-sheet workbook and a row cursor.
type sheet struct {
	f      *excelize.File
	name   string
	row    int
	header int
}

func newSheet(name string) (*sheet, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", name); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("report: name sheet: %w", err)
	}
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"D9D9D9"}, Pattern: 1},
		Border:    border,
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("report: header style: %w", err)
	}
	return &sheet{f: f, name: name, row: 1, header: header}, nil
}

// addRow writes values starting at column A of the next row.
func (s *sheet) addRow(values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return err
	}
	if err := s.f.SetSheetRow(s.name, cell, &values); err != nil {
		return fmt.Errorf("report: row %d: %w", s.row, err)
	}
	s.row++
	return nil
}

// addHeader writes a styled header row.
func (s *sheet) addHeader(titles ...string) error {
	values := make([]any, len(titles))
	for i, t := range titles {
		values[i] = t
	}
	r := s.row
	if err := s.addRow(values...); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, r)
	last, _ := excelize.CoordinatesToCellName(len(titles), r)
	return s.f.SetCellStyle(s.name, first, last, s.header)
}

func (s *sheet) skip() { s.row++ }

// widths sets fixed column widths, in characters, from column A.
func (s *sheet) widths(w ...float64) error {
	for i, width := range w {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := s.f.SetColWidth(s.name, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

func (s *sheet) bytes() ([]byte, error) {
	defer s.f.Close()
	buf, err := s.f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("report: write: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *sheet) close() { _ = s.f.Close() }
