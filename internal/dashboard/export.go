package dashboard

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/goatkit/querypro/internal/models"
)

const reportSheet = "Complaints"

var reportHeaders = []any{"Ticket ID", "Title", "Status", "Priority", "Category", "Submitted", "Resolved", "Admin Response"}

// ExportXLSX writes complaints as a spreadsheet report to w.
func ExportXLSX(w io.Writer, complaints []models.Complaint) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(reportSheet, "A1", &reportHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetRowStyle(reportSheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, c := range complaints {
		resolved := ""
		if c.ResolvedAt != nil {
			resolved = c.ResolvedAt.Format(time.DateTime)
		}
		row := []any{
			c.TicketID,
			c.Title,
			c.Status.Label(),
			c.Priority.Label(),
			c.Category,
			c.CreatedAt.Format(time.DateTime),
			resolved,
			c.AdminResponse,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(reportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(reportSheet, "A", "A", 16); err != nil {
		return err
	}
	if err := f.SetColWidth(reportSheet, "B", "B", 40); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
