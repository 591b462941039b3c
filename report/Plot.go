// Package report writes the results of an experiment as plots, charts,
// spreadsheets and console tables.
package report

import (
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/samuelfneumann/flapq/experiment"
	"github.com/samuelfneumann/flapq/experiment/tracker"
)

// File names of the plots written by SavePlots
const (
	RewardPlot   = "reward.png"
	AccuracyPlot = "accuracy.png"
)

var (
	rewardColour   = color.RGBA{R: 31, G: 119, B: 180, A: 128}
	averageColour  = color.RGBA{R: 255, G: 165, A: 255}
	accuracyColour = color.RGBA{G: 128, A: 255}
)

// SavePlots saves a plot of the total and average reward per pass and
// a plot of the accuracy per pass as PNG images in dir.
func SavePlots(dir string, r experiment.Results) error {
	p := plot.New()
	p.Title.Text = "Agent Performance in Flappy Bird"
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = "Total Reward"
	p.Add(plotter.NewGrid())

	if err := addLine(p, r.TotalReward, "Total Reward per Episode",
		rewardColour, 1); err != nil {
		return fmt.Errorf("savePlots: %v", err)
	}
	if err := addLine(p, r.AverageReward, fmt.Sprintf("Average Reward "+
		"(last %d episodes)", tracker.Window), averageColour, 2); err != nil {
		return fmt.Errorf("savePlots: %v", err)
	}

	filename := filepath.Join(dir, RewardPlot)
	if err := p.Save(12*vg.Inch, 3*vg.Inch, filename); err != nil {
		return fmt.Errorf("savePlots: could not save plot: %v", err)
	}

	p = plot.New()
	p.Title.Text = "Agent Accuracy in Flappy Bird"
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = "Accuracy"
	p.Add(plotter.NewGrid())

	if err := addLine(p, r.Accuracy, "Accuracy over Episodes",
		accuracyColour, 1); err != nil {
		return fmt.Errorf("savePlots: %v", err)
	}

	filename = filepath.Join(dir, AccuracyPlot)
	if err := p.Save(12*vg.Inch, 3*vg.Inch, filename); err != nil {
		return fmt.Errorf("savePlots: could not save plot: %v", err)
	}

	return nil
}

func addLine(p *plot.Plot, data []float64, label string, c color.Color,
	width float64) error {
	pts := make(plotter.XYs, len(data))
	for i, y := range data {
		pts[i].X = float64(i)
		pts[i].Y = y
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("could not create line plotter: %v", err)
	}
	line.Color = c
	line.Width = vg.Points(width)

	p.Add(line)
	p.Legend.Add(label, line)
	return nil
}
