package report

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/samuelfneumann/flapq/experiment"
)

// ResultsSheet is the name of the sheet written by SaveXLSX
const ResultsSheet = "Results"

// Header holds the column names of result tables
var Header = []string{
	"Episode",
	"Total Reward",
	"Average Reward (last 10)",
	"Accuracy",
	"Mean Loss",
	"Epsilon",
}

// SaveXLSX saves a table of the results, one row per pass, as an Excel
// workbook at filename.
func SaveXLSX(filename string, r experiment.Results) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(ResultsSheet); err != nil {
		return fmt.Errorf("saveXLSX: %v", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("saveXLSX: %v", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(ResultsSheet, "A1", &header); err != nil {
		return fmt.Errorf("saveXLSX: %v", err)
	}

	for i := 0; i < r.Len(); i++ {
		row := []interface{}{
			i + 1,
			cell(r.TotalReward, i),
			cell(r.AverageReward, i),
			cell(r.Accuracy, i),
			cell(r.MeanLoss, i),
			cell(r.Epsilon, i),
		}
		axis := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(ResultsSheet, axis, &row); err != nil {
			return fmt.Errorf("saveXLSX: %v", err)
		}
	}

	if err := f.SaveAs(filename); err != nil {
		return fmt.Errorf("saveXLSX: could not save workbook: %v", err)
	}
	return nil
}

// cell returns data[i], or an empty cell if data holds no finite value
// at i
func cell(data []float64, i int) interface{} {
	if i >= len(data) || math.IsNaN(data[i]) || math.IsInf(data[i], 0) {
		return ""
	}
	return data[i]
}
