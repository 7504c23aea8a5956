package render

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/bluewater-labs/aquasite-cli/internal/zonal"
)

// SummaryXLSX writes the per-zone suitable-area table as an XLSX workbook:
// one row per zone, name and km² columns.
func SummaryXLSX(summaries []zonal.Summary, path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Suitable Area")
	if err != nil {
		return eris.Wrap(err, "render: add summary sheet")
	}

	header := sheet.AddRow()
	header.AddCell().Value = "Zone"
	header.AddCell().Value = "Suitable Area (km²)"

	for _, s := range summaries {
		row := sheet.AddRow()
		row.AddCell().Value = s.Zone
		row.AddCell().SetFloat(s.AreaKM2)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "render: save summary table %s", path)
	}
	zap.L().Info("render: wrote summary table", zap.String("path", path), zap.Int("rows", len(summaries)))
	return nil
}
