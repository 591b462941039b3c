package experiment

import (
	"fmt"
	"io"
	"os"

	"github.com/aunum/log"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/flapq/agent"
	"github.com/samuelfneumann/flapq/dataset"
	"github.com/samuelfneumann/flapq/experiment/tracker"
	ts "github.com/samuelfneumann/flapq/timestep"
	"github.com/samuelfneumann/flapq/utils/progressbar"
)

// progressWidth is the width of the pass progress bar in characters
const progressWidth = 40

// Offline is an Experiment that trains an agent from a fixed sequence
// of recorded game play. Each pass over the records pairs every record
// with the record following it to build a transition, stores the
// transition, and performs a learning update once enough transitions
// have been stored. After each pass the exploration rate is decayed,
// and every SyncInterval passes the target network is synced to the
// policy network.
type Offline struct {
	agent.Agent
	records []dataset.Record
	config  Config

	// Per-pass metrics reported in the Results of the experiment
	returns  *tracker.Return
	accuracy *tracker.Accuracy
	loss     *tracker.Loss
	epsilons []float64

	trackers    []tracker.Tracker
	currentPass int
	out         io.Writer
}

// NewOffline creates and returns a new offline experiment which trains
// a given agent on a sequence of records. The t parameter is a slice
// of tracker.Tracker which determine what additional data is saved.
func NewOffline(a agent.Agent, records []dataset.Record, c Config,
	t ...tracker.Tracker) (*Offline, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newOffline: %v", err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("newOffline: at least 2 records are "+
			"required\n\twant(>=2)\n\thave(%v)", len(records))
	}

	return &Offline{
		Agent:    a,
		records:  records,
		config:   c,
		returns:  tracker.NewReturn(""),
		accuracy: tracker.NewAccuracy(""),
		loss:     tracker.NewLoss(""),
		trackers: t,
		out:      os.Stdout,
	}, nil
}

// Register registers a tracker.Tracker with an Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Offline) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// RunPass runs a single pass over the records, where p is the index of
// the pass. Target network syncs happen after passes whose index is a
// multiple of the sync interval.
func (o *Offline) RunPass(p int) error {
	var bar *progressbar.ManualProgressBar
	steps := len(o.records) - 1
	if o.config.Progress {
		label := fmt.Sprintf("Pass %d/%d", p+1, o.config.Passes)
		bar = progressbar.NewManualProgressBar(o.out, label, progressWidth,
			steps)
		defer bar.Close()
	}
	displayEvery := steps / 100
	if displayEvery < 1 {
		displayEvery = 1
	}

	for i := 0; i < steps; i++ {
		record := o.records[i]
		next := o.records[i+1]
		done := i == steps-1

		transition := ts.NewTransition(record.Features, record.Action,
			record.Reward, next.Features, done)
		if err := o.Remember(transition); err != nil {
			return fmt.Errorf("runPass: pass %v step %v: %v", p, i, err)
		}

		step := ts.New(stepType(i, steps), record.Reward,
			observation(record.Features), i)
		step.Action = record.Action

		if o.Buffered() >= o.BatchSize() {
			if err := o.Learn(); err != nil {
				return fmt.Errorf("runPass: pass %v step %v: %v", p, i, err)
			}
			step.Learned = true
			step.Loss = o.Loss()
		}

		greedy, err := o.Greedy(record.Features)
		if err != nil {
			return fmt.Errorf("runPass: pass %v step %v: %v", p, i, err)
		}
		step.Greedy = greedy

		o.track(step)

		if bar != nil {
			bar.Increment()
			if (i+1)%displayEvery == 0 || done {
				bar.Display()
			}
		}
	}

	o.DecayEpsilon()
	o.epsilons = append(o.epsilons, o.Epsilon())

	if p%o.config.SyncInterval == 0 {
		if err := o.SyncTarget(); err != nil {
			return fmt.Errorf("runPass: pass %v: %v", p, err)
		}
	}

	return nil
}

// Run runs the experiment for all passes and returns the per-pass
// results
func (o *Offline) Run() (Results, error) {
	for ; o.currentPass < o.config.Passes; o.currentPass++ {
		if err := o.RunPass(o.currentPass); err != nil {
			return o.Results(), fmt.Errorf("run: %v", err)
		}

		r := o.returns.Data()
		acc := o.accuracy.Data()
		log.Infof("Episode %d/%d, Total Reward: %v, Accuracy: %.2f",
			o.currentPass+1, o.config.Passes, r[len(r)-1], acc[len(acc)-1])
	}

	return o.Results(), nil
}

// Results returns the results of all passes run so far
func (o *Offline) Results() Results {
	returns := o.returns.Data()
	epsilons := make([]float64, len(o.epsilons))
	copy(epsilons, o.epsilons)

	return Results{
		TotalReward:   returns,
		AverageReward: tracker.MovingAverage(returns, tracker.Window),
		Accuracy:      o.accuracy.Data(),
		MeanLoss:      o.loss.Data(),
		Epsilon:       epsilons,
	}
}

// Evaluate returns the fraction of records on which the greedy action
// of the agent matches the logged action. The agent is left in the
// mode it was in before evaluation.
func (o *Offline) Evaluate(records []dataset.Record) (float64, error) {
	if len(records) == 0 {
		return 0, fmt.Errorf("evaluate: no records to evaluate")
	}

	if !o.IsEval() {
		o.Eval()
		defer o.Train()
	}

	correct := 0
	for i, record := range records {
		greedy, err := o.Greedy(record.Features)
		if err != nil {
			return 0, fmt.Errorf("evaluate: record %v: %v", i, err)
		}
		if greedy == record.Action {
			correct++
		}
	}

	return float64(correct) / float64(len(records)), nil
}

// Save saves all the data cached by the registered Trackers to disk
func (o *Offline) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

// Close closes the agent if it must be closed
func (o *Offline) Close() error {
	if c, ok := o.Agent.(agent.Closer); ok {
		return c.Close()
	}
	return nil
}

// track tracks the current timestep by caching its data in each Tracker
func (o *Offline) track(step ts.TimeStep) {
	o.returns.Track(step)
	o.accuracy.Track(step)
	o.loss.Track(step)

	for _, t := range o.trackers {
		t.Track(step)
	}
}

func stepType(i, steps int) ts.StepType {
	switch {
	case i == steps-1:
		return ts.Last
	case i == 0:
		return ts.First
	default:
		return ts.Mid
	}
}

func observation(features []float64) mat.Vector {
	if len(features) == 0 {
		return nil
	}
	obs := make([]float64, len(features))
	copy(obs, features)
	return mat.NewVecDense(len(obs), obs)
}
