// Package export writes the filtered transaction view to an XLSX workbook.
package export

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Tomcat63/FinanceAnalyzer/internal/domain"
)

// SheetName is the name of the single worksheet in the workbook.
const SheetName = "Transaktionen"

// ErrEmpty is returned when there is nothing to export.
var ErrEmpty = errors.New("no transactions to export")

// Columns are the header labels, in column order.
var Columns = []string{"Datum", "Empfänger", "Verwendungszweck", "Betrag", "Kategorie", "Fixkosten"}

var columnWidths = map[string]float64{"A": 12, "B": 32, "C": 48, "D": 14, "E": 18, "F": 10}

// FileName returns the download name of an export created at t.
func FileName(t time.Time) string {
	return "Export_" + t.Format("2006-01-02") + ".xlsx"
}

// Write renders txs in their given order as a workbook to w.
func Write(w io.Writer, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return ErrEmpty
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("Write: rename sheet: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("Write: header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("Write: header style: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "F1", bold); err != nil {
		return fmt.Errorf("Write: header style: %w", err)
	}

	for i, tx := range txs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("Write: row %d: %w", i+1, err)
		}
		row := []interface{}{
			tx.BookingDate.String(),
			tx.Payee,
			tx.Memo,
			tx.Amount.InexactFloat64(),
			tx.Category,
			yesNo(tx.FixedCost),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("Write: row %d: %w", i+1, err)
		}
	}

	// 4 is the built-in "#,##0.00" format.
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("Write: amount style: %w", err)
	}
	last := fmt.Sprintf("D%d", len(txs)+1)
	if err := f.SetCellStyle(SheetName, "D2", last, money); err != nil {
		return fmt.Errorf("Write: amount style: %w", err)
	}

	for col, width := range columnWidths {
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("Write: column %s: %w", col, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "Ja"
	}
	return "Nein"
}
