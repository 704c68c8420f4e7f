// Package xlsx renders inventory batches as an Excel workbook.
package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"pharmaledger/internal/domain/inventory"
)

const sheet = "Inventory"

var headers = []string{
	"Product", "Batch", "Supplier", "Available Units", "Units/Pack", "Pack Type",
	"Purchase Price", "MRP", "Pack MRP", "Expiry", "Manufacturer", "Salt Composition", "HSN",
}

// Exporter implements inventory.Exporter.
type Exporter struct{}

var _ inventory.Exporter = Exporter{}

// New creates an exporter.
func New() Exporter { return Exporter{} }

// ContentType is the xlsx MIME type.
func (Exporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileExtension is "xlsx".
func (Exporter) FileExtension() string { return "xlsx" }

// WriteBatches writes one header row and one row per batch.
func (Exporter) WriteBatches(w io.Writer, batches []inventory.Batch) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	idx, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	for i, b := range batches {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			b.ProductName,
			b.BatchNo,
			supplierCell(b),
			b.AvailableQuantity,
			b.UnitsPerPack,
			b.PackType,
			b.PurchasePrice.InexactFloat64(),
			b.MRP.InexactFloat64(),
			b.MRPPack.InexactFloat64(),
			expiryCell(b),
			b.Manufacturer,
			b.SaltComposition,
			b.HSNNo,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func supplierCell(b inventory.Batch) string {
	if b.SupplierID == nil {
		return ""
	}
	return b.SupplierID.String()
}

func expiryCell(b inventory.Batch) string {
	if b.ExpiryDate == nil {
		return ""
	}
	return b.ExpiryDate.Format("2006-01-02")
}
