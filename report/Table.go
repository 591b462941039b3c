package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/logrusorgru/aurora"

	"github.com/samuelfneumann/flapq/experiment"
)

// PrintTable prints a coloured table of the results of the first n
// passes to w. If n is not positive, all passes are printed.
func PrintTable(w io.Writer, r experiment.Results, n int) error {
	if n <= 0 || n > r.Len() {
		n = r.Len()
	}

	header := make([]string, len(Header))
	for i, h := range Header {
		header[i] = fmt.Sprintf("%24s", h)
	}
	if _, err := fmt.Fprintln(w, aurora.Green(strings.Join(header, ""))); err != nil {
		return fmt.Errorf("printTable: %v", err)
	}

	for i := 0; i < n; i++ {
		var row strings.Builder
		fmt.Fprintf(&row, "%24d", i+1)
		for _, data := range [][]float64{r.TotalReward, r.AverageReward,
			r.Accuracy, r.MeanLoss, r.Epsilon} {
			if i < len(data) {
				fmt.Fprintf(&row, "%24.4f", data[i])
			} else {
				fmt.Fprintf(&row, "%24s", "")
			}
		}

		if _, err := fmt.Fprintln(w, aurora.Blue(row.String())); err != nil {
			return fmt.Errorf("printTable: %v", err)
		}
	}

	return nil
}
