// Package export renders a submission into an Excel workbook. It only
// consumes already-computed totals; nothing here feeds back into the
// ledger.
package export

import (
	"fmt"
	"io"

	"github.com/LuisEmilioVP/NexuViaticos/internal/submission"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Exporter builds submission spreadsheets.
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates an exporter.
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger}
}

const sheetName = "Rendicion"

// itemsHeaderRow is the row where the line-item table starts.
const itemsHeaderRow = 7

// WriteSubmission renders the detail as an xlsx workbook into w.
func (e *Exporter) WriteSubmission(w io.Writer, detail *submission.Detail) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		e.logger.Warn("Failed to remove default sheet", zap.Error(err))
	}

	header := detail.Submission
	status := header.Status
	if header.CustomStatus != nil && *header.CustomStatus != "" {
		status = *header.CustomStatus
	}

	e.setCell(f, "A1", "Rendición de Gastos")
	e.setCell(f, "A2", "Código")
	e.setCell(f, "B2", header.Code)
	e.setCell(f, "A3", "Empleado")
	e.setCell(f, "B3", detail.EmployeeName)
	e.setCell(f, "A4", "Fecha")
	e.setCell(f, "B4", header.CreatedAt.Format("2006-01-02"))
	e.setCell(f, "A5", "Estado")
	e.setCell(f, "B5", status)
	if header.Notes != nil && *header.Notes != "" {
		e.setCell(f, "A6", "Observaciones")
		e.setCell(f, "B6", *header.Notes)
	}

	columns := []string{"Tipo de Gasto", "Nº de Cuenta", "Cliente", "Sucursal", "Fecha", "Descripción", "Importe sin ITBIS", "ITBIS", "Total"}
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, itemsHeaderRow)
		e.setCell(f, cell, col)
	}

	row := itemsHeaderRow + 1
	for _, item := range detail.Items {
		branch := ""
		if item.BranchName != nil {
			branch = *item.BranchName
		}
		values := []interface{}{
			item.ExpenseTypeName,
			item.AccountCode,
			item.ClientName,
			branch,
			item.Date.Format("2006-01-02"),
			item.Description,
			amountCell(item.BaseAmount),
			amountCell(item.TaxAmount),
			amountCell(item.Total()),
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			e.setCell(f, cell, v)
		}
		row++
	}

	totalLabelCell, _ := excelize.CoordinatesToCellName(len(columns)-1, row+1)
	totalCell, _ := excelize.CoordinatesToCellName(len(columns), row+1)
	e.setCell(f, totalLabelCell, "Total General")
	e.setCell(f, totalCell, amountCell(header.Total))

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Submission exported",
		zap.Int64("submission_id", header.ID),
		zap.String("code", header.Code),
		zap.Int("items", len(detail.Items)))
	return nil
}

func (e *Exporter) setCell(f *excelize.File, cell string, value interface{}) {
	if err := f.SetCellValue(sheetName, cell, value); err != nil {
		e.logger.Warn("Failed to set cell value", zap.String("cell", cell), zap.Error(err))
	}
}

// amountCell renders money with two decimal places, as text, so Excel
// does not re-interpret the value as a float.
func amountCell(d decimal.Decimal) string {
	return d.StringFixed(2)
}
