package xlsexport

import "github.com/xuri/excelize/v2"

const fontFamily = "Times New Roman"

func writeColumn(f *excelize.File, sheet string, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}

// writeRow значения пишутся в колонки начиная с первой
func writeRow(f *excelize.File, sheet string, row int, values ...interface{}) error {
	for idx, value := range values {
		if value == nil {
			continue
		}
		if err := writeColumn(f, sheet, idx+1, row, value); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, row int, headers []string, width float64) (int, error) {
	row++
	style, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
		},
		Font: &excelize.Font{
			Bold:   true,
			Family: fontFamily,
			Size:   11,
		},
	})
	if err != nil {
		return row, err
	}
	if err = setRangeStyle(f, sheet, 1, row, len(headers), row, style); err != nil {
		return row, err
	}
	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return row, err
	}
	if err = f.SetColWidth(sheet, "A", lastCol, width); err != nil {
		return row, err
	}
	values := make([]interface{}, 0, len(headers))
	for _, header := range headers {
		values = append(values, header)
	}
	return row, writeRow(f, sheet, row, values...)
}

func applyDataCellStyle(f *excelize.File, sheet string, colFrom, rowFrom, colTo, rowTo int) error {
	style, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Family: fontFamily,
			Size:   11,
		},
	})
	if err != nil {
		return err
	}
	return setRangeStyle(f, sheet, colFrom, rowFrom, colTo, rowTo, style)
}

func applyPercentStyle(f *excelize.File, sheet string, col, rowFrom, rowTo int) error {
	// 10 - встроенный формат 0.00%
	style, err := f.NewStyle(&excelize.Style{
		NumFmt: 10,
		Font: &excelize.Font{
			Family: fontFamily,
			Size:   11,
		},
	})
	if err != nil {
		return err
	}
	return setRangeStyle(f, sheet, col, rowFrom, col, rowTo, style)
}

func setRangeStyle(f *excelize.File, sheet string, colFrom, rowFrom, colTo, rowTo, style int) error {
	cellFirst, err := excelize.CoordinatesToCellName(colFrom, rowFrom)
	if err != nil {
		return err
	}
	cellLast, err := excelize.CoordinatesToCellName(colTo, rowTo)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cellFirst, cellLast, style)
}
