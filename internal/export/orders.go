package export

import (
	"bytes"
	"fmt"
	"strings"

	"refpoints-bot/internal/ledger"

	"github.com/xuri/excelize/v2"
)

const ordersSheet = "Orders"

var orderHeaders = []string{"#", "Order ID", "User ID", "Service", "Link", "Cost", "Created At"}

// OrdersWorkbook renders orders into an xlsx document held in memory.
func OrdersWorkbook(orders []ledger.OrderRecord) ([]byte, error) {
	const operation = "export.OrdersWorkbook"

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		return nil, fmt.Errorf("%s: failed to create sheet: %w", operation, err)
	}

	for col, header := range orderHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(ordersSheet, cell, header)
	}

	for row, o := range orders {
		values := []interface{}{
			row + 1,
			o.ID,
			o.UserID,
			serviceLabel(o.Service),
			o.Link,
			o.Cost,
			o.CreatedAt.Format("2006-01-02 15:04"),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(ordersSheet, cell, value)
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(orderHeaders), 1)
		f.SetCellStyle(ordersSheet, "A1", last, style)
	}
	f.SetColWidth(ordersSheet, "E", "E", 48)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("%s: failed to write workbook: %w", operation, err)
	}
	return buf.Bytes(), nil
}

func serviceLabel(key string) string {
	if svc, ok := ledger.LookupService(key); ok {
		return svc.Name
	}
	if key == "" {
		return key
	}
	return strings.ToUpper(key[:1]) + key[1:]
}
