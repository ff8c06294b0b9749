package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"scwm-service/internal/domain"
)

const historySheet = "History"

var exportHistoryCmd = &cobra.Command{
	Use:   "export-history",
	Short: "Export recent scans to an xlsx workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out, _ := cmd.Flags().GetString("out")
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		scans, err := store.Scans.ListRecentScans(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if err := writeHistoryXLSX(out, scans); err != nil {
			return err
		}

		zap.L().Info("history exported", zap.String("out", out), zap.Int("rows", len(scans)))
		return nil
	},
}

func init() {
	exportHistoryCmd.Flags().String("out", "history.xlsx", "output workbook")
	exportHistoryCmd.Flags().Int("limit", 1000, "number of most recent scans")
}

// writeHistoryXLSX writes scans newest first, one row each, below a header.
func writeHistoryXLSX(path string, scans []domain.Scan) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(historySheet)
	if err != nil {
		return eris.Wrap(err, "export: new sheet")
	}

	sw, err := f.NewStreamWriter(historySheet)
	if err != nil {
		return eris.Wrap(err, "export: stream writer")
	}

	header := []any{"ID", "Waste type", "Confidence", "Advice", "Timestamp"}
	if err := sw.SetRow("A1", header); err != nil {
		return eris.Wrap(err, "export: header")
	}

	for i, s := range scans {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return eris.Wrap(err, "export: cell name")
		}
		row := []any{s.ID, s.WasteType, s.Confidence, s.Advice, s.Timestamp.UTC().Format("2006-01-02 15:04:05")}
		if err := sw.SetRow(cell, row); err != nil {
			return eris.Wrapf(err, "export: row %d", i+2)
		}
	}

	if err := sw.Flush(); err != nil {
		return eris.Wrap(err, "export: flush")
	}

	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return eris.Wrap(err, "export: drop default sheet")
	}

	if err := f.SaveAs(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}
