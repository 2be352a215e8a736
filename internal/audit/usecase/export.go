package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/fekuna/omnipos-production-service/internal/audit/dto"
	"github.com/xuri/excelize/v2"
)

const (
	productionSheet = "Production"
	purchaseSheet   = "Purchases"
)

var (
	productionHeader = []interface{}{
		"Date", "Event ID", "Kind", "Template ID", "Batch ID", "Product Quantity", "Ratio",
		"Raw Material ID", "Raw Material Quantity", "Unit", "Reversal Of", "Actor",
	}
	purchaseHeader = []interface{}{
		"Date", "Purchase ID", "Raw Material ID", "Quantity", "Unit", "Unit Price", "Total Cost", "Supplier", "Actor",
	}
)

// Export writes production events (one row per raw material line) and purchases
// matching filters to w as an XLSX workbook. Paging in filters is ignored.
func (uc *auditUseCase) Export(ctx context.Context, w io.Writer, filters *dto.LedgerFilters) error {
	all := *filters
	all.Page, all.PageSize = 0, 0

	events, _, err := uc.ListProductionEvents(ctx, &all)
	if err != nil {
		return err
	}
	purchases, _, err := uc.ListPurchases(ctx, &all)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", productionSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(purchaseSheet); err != nil {
		return err
	}

	if err := f.SetSheetRow(productionSheet, "A1", &productionHeader); err != nil {
		return err
	}
	row := 2
	for _, e := range events {
		for _, l := range e.Lines {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			values := []interface{}{
				dateOf(e.CreatedAt), e.ID, string(e.Kind), e.TemplateID, e.BatchID,
				e.Quantity.InexactFloat64(), e.Ratio.InexactFloat64(),
				l.RawMaterialID, l.Quantity.InexactFloat64(), l.Unit,
				deref(e.ReversalOf), deref(e.ActorID),
			}
			if err := f.SetSheetRow(productionSheet, cell, &values); err != nil {
				return err
			}
			row++
		}
	}

	if err := f.SetSheetRow(purchaseSheet, "A1", &purchaseHeader); err != nil {
		return err
	}
	for i, p := range purchases {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			dateOf(p.CreatedAt), p.ID, p.RawMaterialID,
			p.Quantity.InexactFloat64(), p.Unit, p.UnitPrice.InexactFloat64(), p.TotalCost.InexactFloat64(),
			deref(p.Supplier), deref(p.ActorID),
		}
		if err := f.SetSheetRow(purchaseSheet, cell, &values); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write ledger workbook: %w", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
