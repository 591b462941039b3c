package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/aunum/log"

	"github.com/samuelfneumann/flapq/dataset"
	"github.com/samuelfneumann/flapq/experiment"
	"github.com/samuelfneumann/flapq/experiment/tracker"
	"github.com/samuelfneumann/flapq/report"
)

// Number of actions: no flap or flap
const actions = 2

func main() {
	data := flag.String("data", "flappy_bird.csv.zip", "dataset of "+
		"recorded game play, as a CSV file or a zip archive holding one")
	config := flag.String("config", "", "JSON experiment and agent "+
		"configuration (defaults are used if empty)")
	seed := flag.Uint64("seed", 42, "random seed")
	passes := flag.Int("passes", 0, "number of passes over the training "+
		"data (overrides the configuration if positive)")
	frac := flag.Float64("frac", 0.1, "fraction of the dataset to use")
	split := flag.Float64("split", 0.8, "fraction of the used data to "+
		"train on; the rest is held out for evaluation")
	out := flag.String("out", "results", "directory to write results to")
	progress := flag.Bool("progress", false, "display a progress bar for "+
		"each pass")
	flag.Parse()

	settings := experiment.DefaultSettings()
	if *config != "" {
		var err error
		if settings, err = experiment.LoadSettings(*config); err != nil {
			log.Fatalf("could not load configuration: %v", err)
		}
	}
	if *passes > 0 {
		settings.Experiment.Passes = *passes
	}
	settings.Experiment.Progress = *progress

	// Load and preprocess the data
	d, err := dataset.Load(*data)
	if err != nil {
		log.Fatalf("could not load dataset: %v", err)
	}
	d.Normalize()

	subset, err := d.Sample(*frac, *seed)
	if err != nil {
		log.Fatalf("could not sample dataset: %v", err)
	}
	train, test, err := subset.Split(*split)
	if err != nil {
		log.Fatalf("could not split dataset: %v", err)
	}
	log.Infof("loaded %d records: training on %d, evaluating on %d",
		d.Len(), train.Len(), test.Len())

	if err := os.MkdirAll(*out, 0o755); err != nil {
		log.Fatalf("could not create output directory: %v", err)
	}

	// Experiment
	e, err := settings.CreateExp(train.Records(), actions, *seed,
		tracker.NewReturn(filepath.Join(*out, "return.bin")),
		tracker.NewAccuracy(filepath.Join(*out, "accuracy.bin")),
		tracker.NewLoss(filepath.Join(*out, "loss.bin")),
	)
	if err != nil {
		log.Fatalf("could not create experiment: %v", err)
	}
	defer e.Close()

	results, err := e.Run()
	if err != nil {
		log.Fatalf("could not run experiment: %v", err)
	}
	if err := e.Save(); err != nil {
		log.Fatalf("could not save tracked data: %v", err)
	}

	if test.Len() > 0 {
		acc, err := e.Evaluate(test.Records())
		if err != nil {
			log.Fatalf("could not evaluate agent: %v", err)
		}
		log.Successf("Test Accuracy: %.2f", acc)
	}

	// Reports
	if err := report.SavePlots(*out, results); err != nil {
		log.Fatalf("could not save plots: %v", err)
	}

	f, err := os.Create(filepath.Join(*out, "results.html"))
	if err != nil {
		log.Fatalf("could not create chart file: %v", err)
	}
	defer f.Close()
	if err := report.WriteHTML(f, results); err != nil {
		log.Fatalf("could not write charts: %v", err)
	}

	if err := report.SaveXLSX(filepath.Join(*out, "results.xlsx"),
		results); err != nil {
		log.Fatalf("could not save results table: %v", err)
	}

	if err := report.PrintTable(os.Stdout, results, 20); err != nil {
		log.Fatalf("could not print results: %v", err)
	}
}
