// Package experiment implements functionality for running an experiment
package experiment

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/samuelfneumann/flapq/agent"
	"github.com/samuelfneumann/flapq/agent/nonlinear/discrete/deepq"
	"github.com/samuelfneumann/flapq/dataset"
	"github.com/samuelfneumann/flapq/experiment/tracker"
)

// Interface Experiment outlines structs that can run experiments.
// Experiments will track TimeSteps, caching each TimeStep in RAM to be
// later saved to disk. The Save() function will then take all cached
// data and save it to disk. This is usually performed after an
// experiment has been run. The Run() method will run all passes over
// the data, and the RunPass() function will run a single pass.
//
// In order to save data, Experiments use Trackers. Trackers determine
// which data generated during the experiment is saved. Experiments
// will send each TimeStep to Trackers using the Tracker's Track()
// method. The Tracker then determines which data from the TimeStep it
// caches and saves. New Trackers can be registered with an Experiment
// through the constructor or through an Experiment's Register()
// function.
type Experiment interface {
	Run() (Results, error)
	RunPass(p int) error

	// Results returns the per-pass results of all passes run so far
	Results() Results

	// Evaluate returns the greedy accuracy of the agent on records
	Evaluate(records []dataset.Record) (float64, error)

	// Save all tracked data to disk
	Save() error

	// Adds a new tracker.Tracker to the (possibly already running)
	// experiment. Useful if you want to track data only after a
	// specified event.
	Register(t tracker.Tracker)

	// Close releases the resources held by the agent
	Close() error
}

// Results holds the per-pass results of an experiment. Element i of
// each slice holds the result of pass i.
type Results struct {
	TotalReward   []float64
	AverageReward []float64 // Trailing average of TotalReward
	Accuracy      []float64
	MeanLoss      []float64 // NaN for passes without a learning update
	Epsilon       []float64 // Exploration rate after the pass
}

// Len returns the number of passes in the Results
func (r Results) Len() int {
	return len(r.TotalReward)
}

type Type string

const (
	OfflineExp Type = "OfflineExperiment"
)

// Config represents a configuration of an experiment.
type Config struct {
	Type
	Passes       int
	SyncInterval int
	Progress     bool
}

// DefaultConfig returns the default experiment configuration of 10
// passes over the data with a target network sync interval of 10
// passes.
func DefaultConfig() Config {
	return Config{
		Type:         OfflineExp,
		Passes:       10,
		SyncInterval: 10,
	}
}

// Validate checks a Config to ensure it is a valid configuration
func (c Config) Validate() error {
	if c.Type != OfflineExp && c.Type != "" {
		return fmt.Errorf("validate: no such experiment type %v", c.Type)
	}

	if c.Passes < 1 {
		return fmt.Errorf("validate: number of passes must be positive"+
			"\n\twant(>0)\n\thave(%v)", c.Passes)
	}

	if c.SyncInterval < 1 {
		return fmt.Errorf("validate: sync interval must be positive"+
			"\n\twant(>0)\n\thave(%v)", c.SyncInterval)
	}

	return nil
}

// Settings bundles together the configuration of an experiment and of
// the agent trained in the experiment.
type Settings struct {
	Experiment Config
	Agent      deepq.Config
}

// DefaultSettings returns the default experiment and agent
// configurations
func DefaultSettings() Settings {
	return Settings{
		Experiment: DefaultConfig(),
		Agent:      deepq.DefaultConfig(),
	}
}

// LoadSettings reads Settings from a JSON file. Fields missing from
// the file keep their default values.
func LoadSettings(filename string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(filename)
	if err != nil {
		return s, fmt.Errorf("loadSettings: could not read file: %v", err)
	}

	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("loadSettings: could not decode file: %v", err)
	}

	if err := s.Experiment.Validate(); err != nil {
		return s, fmt.Errorf("loadSettings: %v", err)
	}
	if err := s.Agent.Validate(); err != nil {
		return s, fmt.Errorf("loadSettings: %v", err)
	}

	return s, nil
}

// CreateExp creates the agent described by the Settings and returns an
// Experiment which trains it on records.
func (s Settings) CreateExp(records []dataset.Record, actions int,
	seed uint64, t ...tracker.Tracker) (Experiment, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("createExp: no records")
	}

	a, err := s.Agent.CreateAgent(len(records[0].Features), actions, seed)
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create agent: %v", err)
	}

	switch s.Experiment.Type {
	case OfflineExp, "":
		e, err := NewOffline(a, records, s.Experiment, t...)
		if err != nil {
			closeAgent(a)
			return nil, fmt.Errorf("createExp: %v", err)
		}
		return e, nil
	}

	closeAgent(a)
	return nil, fmt.Errorf("createExp: no such experiment type %v",
		s.Experiment.Type)
}

func closeAgent(a agent.Agent) {
	if c, ok := a.(agent.Closer); ok {
		c.Close()
	}
}
