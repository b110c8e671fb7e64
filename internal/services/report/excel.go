package report

import (
	"fmt"
	"strconv"

	"github.com/user/route-optimizer-api/internal/models"
	"github.com/user/route-optimizer-api/internal/services/query"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Results"

// ExportQueryResult выгружает строки результата в XLSX.
// Числовые значения пишутся числами, остальные строками.
func ExportQueryResult(result *query.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("нет результата для выгрузки")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	columns := columnNames(result.Rows)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DCE6F1"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, col); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}

	for r, row := range result.Rows {
		for c, col := range columns {
			v, ok := row.Get(col)
			if !ok || v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, cellValue(v)); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// columnNames - объединение колонок в порядке первого появления
func columnNames(rows []models.Row) []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range rows {
		for _, f := range row {
			if !seen[f.Name] {
				seen[f.Name] = true
				out = append(out, f.Name)
			}
		}
	}
	return out
}

func cellValue(v any) any {
	s := models.Text(v)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
