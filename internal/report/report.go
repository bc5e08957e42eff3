package report

import (
	"fmt"

	"comment-translator/internal/comment"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// SheetName is the name of the worksheet holding one row per fragment.
const SheetName = "Comments"

// Columns is the header row.
var Columns = []any{"File Name", "Comment Type", "Comment Index", "Comment Segment"}

// WriteXLSX writes fragments to an XLSX workbook at path, one row per
// fragment in the given order.
func WriteXLSX(path string, fragments []comment.Fragment) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("open sheet writer: %w", err)
	}
	if err := sw.SetRow("A1", Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, frag := range fragments {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{frag.File, string(frag.Kind), frag.Index, frag.Text}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	log.Info().Str("path", path).Int("rows", len(fragments)).Msg("Report saved")
	return nil
}
