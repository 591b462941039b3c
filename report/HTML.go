package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/samuelfneumann/flapq/experiment"
	"github.com/samuelfneumann/flapq/experiment/tracker"
)

// WriteHTML writes an HTML page of interactive line charts of the
// reward, accuracy, loss and exploration rate per pass to w.
func WriteHTML(w io.Writer, r experiment.Results) error {
	episodes := make([]string, r.Len())
	for i := range episodes {
		episodes[i] = strconv.Itoa(i + 1)
	}

	reward := newLine("Agent Performance in Flappy Bird", episodes)
	reward.AddSeries("Total Reward per Episode", lineData(r.TotalReward))
	reward.AddSeries(fmt.Sprintf("Average Reward (last %d episodes)",
		tracker.Window), lineData(r.AverageReward))

	accuracy := newLine("Agent Accuracy in Flappy Bird", episodes)
	accuracy.AddSeries("Accuracy over Episodes", lineData(r.Accuracy))

	loss := newLine("Mean Loss", episodes)
	loss.AddSeries("Mean Loss per Episode", lineData(r.MeanLoss))

	epsilon := newLine("Exploration Rate", episodes)
	epsilon.AddSeries("Epsilon", lineData(r.Epsilon))

	page := components.NewPage()
	page.AddCharts(reward, accuracy, loss, epsilon)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("writeHTML: could not render charts: %v", err)
	}
	return nil
}

func newLine(title string, episodes []string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: title,
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
	)
	return line.SetXAxis(episodes)
}

// lineData converts data to chart points. NaN is not representable in
// the chart options and is rendered as a gap.
func lineData(data []float64) []opts.LineData {
	items := make([]opts.LineData, 0, len(data))
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			items = append(items, opts.LineData{Value: "-"})
			continue
		}
		items = append(items, opts.LineData{Value: v})
	}
	return items
}
