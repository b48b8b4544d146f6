package report

import (
	"github.com/xuri/excelize/v2"

	"rollcall/internal/attendance"
)

const sheetName = "Attendance"

// XLSX writes one header row and one row per entry to a single sheet.
func XLSX(entries []attendance.Entry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}
	if err := setRow(f, 1, columns); err != nil {
		return nil, err
	}
	for i, e := range entries {
		if err := setRow(f, i+2, row(e)); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, n int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return f.SetSheetRow(sheetName, cell, &row)
}
