package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"getmyhouse/models"
)

const (
	propertiesSheet = "Properties"
	summarySheet    = "Summary"
)

// ExportXLSX serializes results into an Excel workbook with a
// properties sheet and a summary sheet.
func ExportXLSX(results []models.ScoredListing) ([]byte, error) {
	table := Render(results)
	if err := validate(table); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), propertiesSheet)

	header := make([]interface{}, len(table.Headers))
	for i, h := range table.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(propertiesSheet, "A1", &header); err != nil {
		return nil, err
	}

	for i, r := range results {
		l := r.Listing
		row := []interface{}{
			i + 1, l.Location, l.PropertyType, l.Typology, l.Price, l.WCs,
			l.UsageState, l.TransportMinutes, l.DistanceKm, l.Agency,
			r.Score, l.URL,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(propertiesSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	if err := writeSummary(f, results); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, results []models.ScoredListing) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	var minPrice, maxPrice, total int
	for i, r := range results {
		p := r.Listing.Price
		total += p
		if i == 0 || p < minPrice {
			minPrice = p
		}
		if p > maxPrice {
			maxPrice = p
		}
	}
	avg := 0
	if len(results) > 0 {
		avg = total / len(results)
	}

	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Results", len(results)},
		{"Min price (EUR)", minPrice},
		{"Max price (EUR)", maxPrice},
		{"Avg price (EUR)", avg},
	}
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
