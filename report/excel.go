package report

import (
	"fmt"

	"jewelstock/services"

	"github.com/xuri/excelize/v2"
)

// BuildReorderWorkbook renders the reorder rows into a spreadsheet,
// one row per below-threshold position. Used by the export endpoint
// and as the email attachment.
func BuildReorderWorkbook(rows []services.ReorderRow) *excelize.File {
	f := excelize.NewFile()
	sheet := "Sheet1"

	f.SetCellValue(sheet, "A1", "Category")
	f.SetCellValue(sheet, "B1", "Item")
	f.SetCellValue(sheet, "C1", "Sub Item")
	f.SetCellValue(sheet, "D1", "Weight")
	f.SetCellValue(sheet, "E1", "Qty On Hand")
	f.SetCellValue(sheet, "F1", "Qty Pending")
	f.SetCellValue(sheet, "G1", "Threshold")
	f.SetCellValue(sheet, "H1", "To Order")

	for i, row := range rows {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", i+2), row.CategoryKey)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", i+2), row.ItemKey)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", i+2), row.SubItemKey)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", i+2), row.WeightKey)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", i+2), row.Qty)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", i+2), row.Pending)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", i+2), row.Threshold)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", i+2), row.ToOrder)
	}

	return f
}
