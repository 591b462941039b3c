// Package dataset implements loading and preprocessing of recorded
// flap / no-flap game play, where each record holds the game state
// observed by the player, the action the player took and the reward
// received.
package dataset

import (
	"archive/zip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Features lists the names of the state features, in the order they
// appear in a Record's feature vector.
var Features = []string{
	"last_pipe_horizontal_position",
	"last_top_pipe_vertical_position",
	"last_bottom_pipe_vertical_position",
	"next_pipe_horizontal_position",
	"next_top_pipe_vertical_position",
	"next_bottom_pipe_vertical_position",
	"next_next_pipe_horizontal_position",
	"next_next_top_pipe_vertical_position",
	"next_next_bottom_pipe_vertical_position",
	"player_s_vertical_position",
	"player_s_vertical_velocity",
	"player_s_rotation",
}

// Column names of the logged action and reward
const (
	ActionColumn = "action"
	RewardColumn = "reward"
)

// ErrNoCSV is returned when a zip archive holds no CSV file
var ErrNoCSV = errors.New("no csv file in archive")

// Record is a single recorded step of game play
type Record struct {
	Features []float64
	Action   int
	Reward   float64
}

// Normalization holds the per-feature statistics used to standardize
// a Dataset
type Normalization struct {
	Mean   []float64
	StdDev []float64
}

// Dataset is an ordered collection of Records
type Dataset struct {
	records []Record
}

// New returns a new Dataset holding copies of records
func New(records []Record) *Dataset {
	d := &Dataset{records: make([]Record, len(records))}
	for i, r := range records {
		d.records[i] = r.clone()
	}
	return d
}

func (r Record) clone() Record {
	features := make([]float64, len(r.Features))
	copy(features, r.Features)
	return Record{Features: features, Action: r.Action, Reward: r.Reward}
}

// Load reads a Dataset from a CSV file, or from the first CSV file in a
// zip archive if path has a .zip extension.
func Load(path string) (*Dataset, error) {
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return loadZip(path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load: %v", err)
	}
	defer file.Close()

	return Read(file)
}

func loadZip(path string) (*Dataset, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("load: %v", err)
	}
	defer archive.Close()

	for _, f := range archive.File {
		if f.FileInfo().IsDir() ||
			!strings.EqualFold(filepath.Ext(f.Name), ".csv") {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("load: %v", err)
		}
		defer rc.Close()

		return Read(rc)
	}

	return nil, fmt.Errorf("load: %w: %v", ErrNoCSV, path)
}

// Read reads a Dataset from CSV data. The first row must be a header
// naming at least the columns in Features, ActionColumn and
// RewardColumn; other columns are ignored.
func Read(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read: could not read header: %v", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	featureCols := make([]int, len(Features))
	for i, name := range Features {
		col, ok := columns[name]
		if !ok {
			return nil, fmt.Errorf("read: missing column %q", name)
		}
		featureCols[i] = col
	}
	actionCol, ok := columns[ActionColumn]
	if !ok {
		return nil, fmt.Errorf("read: missing column %q", ActionColumn)
	}
	rewardCol, ok := columns[RewardColumn]
	if !ok {
		return nil, fmt.Errorf("read: missing column %q", RewardColumn)
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read: %v", err)
		}

		record := Record{Features: make([]float64, len(Features))}
		for i, col := range featureCols {
			if record.Features[i], err = parseFloat(row[col]); err != nil {
				return nil, fmt.Errorf("read: line %v: column %q: %v", line,
					Features[i], err)
			}
		}

		action, err := parseFloat(row[actionCol])
		if err != nil || action != math.Trunc(action) || action < 0 {
			return nil, fmt.Errorf("read: line %v: invalid action %q", line,
				row[actionCol])
		}
		record.Action = int(action)

		if record.Reward, err = parseFloat(row[rewardCol]); err != nil {
			return nil, fmt.Errorf("read: line %v: column %q: %v", line,
				RewardColumn, err)
		}

		records = append(records, record)
	}

	return &Dataset{records: records}, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// Len returns the number of records in the Dataset
func (d *Dataset) Len() int {
	return len(d.records)
}

// At returns a copy of record i
func (d *Dataset) At(i int) Record {
	return d.records[i].clone()
}

// States returns copies of the feature vectors of all records, in
// order
func (d *Dataset) States() [][]float64 {
	states := make([][]float64, len(d.records))
	for i, r := range d.records {
		states[i] = r.clone().Features
	}
	return states
}

// Records returns copies of all records, in order
func (d *Dataset) Records() []Record {
	records := make([]Record, len(d.records))
	for i, r := range d.records {
		records[i] = r.clone()
	}
	return records
}

// Normalize standardizes each feature in place to zero mean and unit
// sample standard deviation, and returns the statistics used. A
// feature with zero standard deviation is only centred.
func (d *Dataset) Normalize() Normalization {
	n := Normalization{
		Mean:   make([]float64, len(Features)),
		StdDev: make([]float64, len(Features)),
	}
	if len(d.records) == 0 {
		return n
	}

	column := make([]float64, len(d.records))
	for j := range Features {
		for i, r := range d.records {
			column[i] = r.Features[j]
		}
		n.Mean[j], n.StdDev[j] = stat.MeanStdDev(column, nil)
	}

	d.Apply(n)
	return n
}

// Apply standardizes each feature in place using the given statistics
func (d *Dataset) Apply(n Normalization) {
	for _, r := range d.records {
		for j := range r.Features {
			r.Features[j] -= n.Mean[j]
			if std := n.StdDev[j]; std > 0 && !math.IsNaN(std) {
				r.Features[j] /= std
			}
		}
	}
}

// Sample returns a new Dataset holding round(frac * Len()) records
// drawn without replacement, in random order.
func (d *Dataset) Sample(frac float64, seed uint64) (*Dataset, error) {
	if frac <= 0 || frac > 1 {
		return nil, fmt.Errorf("sample: fraction must be in (0, 1]"+
			"\n\thave(%v)", frac)
	}

	n := int(math.Round(frac * float64(len(d.records))))
	if n == 0 {
		return nil, fmt.Errorf("sample: fraction %v of %v records is empty",
			frac, len(d.records))
	}

	indices := make([]int, n)
	sampleuv.WithoutReplacement(indices, len(d.records), rand.NewSource(seed))

	return d.subset(indices), nil
}

// Split splits the Dataset in order into a training Dataset holding the
// first int(trainFrac * Len()) records and a test Dataset holding the
// rest.
func (d *Dataset) Split(trainFrac float64) (train, test *Dataset,
	err error) {
	if trainFrac <= 0 || trainFrac > 1 {
		return nil, nil, fmt.Errorf("split: training fraction must be in "+
			"(0, 1]\n\thave(%v)", trainFrac)
	}

	nTrain := int(trainFrac * float64(len(d.records)))
	return New(d.records[:nTrain]), New(d.records[nTrain:]), nil
}

func (d *Dataset) subset(indices []int) *Dataset {
	records := make([]Record, len(indices))
	for i, index := range indices {
		records[i] = d.records[index].clone()
	}
	return &Dataset{records: records}
}
