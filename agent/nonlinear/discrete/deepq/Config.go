package deepq

import (
	"fmt"

	"github.com/samuelfneumann/flapq/agent"
	"github.com/samuelfneumann/flapq/expreplay"
	"github.com/samuelfneumann/flapq/initwfn"
	"github.com/samuelfneumann/flapq/network"
	"github.com/samuelfneumann/flapq/solver"
)

var _ agent.Config = Config{}

// Config implements a configuration for a DeepQ agent
type Config struct {
	PolicyLayers []int                 // Layer sizes in neural net
	Biases       []bool                // Whether each layer should have a bias
	Activations  []*network.Activation // Activation of each layer
	Solver       *solver.Solver        // Solver for learning weights

	// Initialization algorithm for weights
	InitWFn *initwfn.InitWFn

	// Experience replay parameters
	ExpReplay expreplay.Config
	BatchSize int

	Gamma float64 // Discount factor

	// Behaviour policy exploration. After each call to DecayEpsilon,
	// epsilon <- max(EpsilonMin, epsilon * EpsilonDecay)
	Epsilon      float64
	EpsilonMin   float64
	EpsilonDecay float64
}

// DefaultConfig returns a Config with a single hidden layer of 64 ReLU
// units, an Adam solver with step size 0.001, a replay buffer of 10000
// transitions sampled uniformly in batches of 32, a discount of 0.99
// and an exploration rate decaying from 1.0 to 0.01 by a factor of
// 0.995.
func DefaultConfig() Config {
	adam, err := solver.NewDefaultAdam(1e-3, 1)
	if err != nil {
		panic(fmt.Sprintf("defaultconfig: %v", err))
	}
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		panic(fmt.Sprintf("defaultconfig: %v", err))
	}

	return Config{
		PolicyLayers: []int{64},
		Biases:       []bool{true},
		Activations:  []*network.Activation{network.ReLU()},
		Solver:       adam,
		InitWFn:      init,
		ExpReplay: expreplay.Config{
			SampleMethod:      expreplay.Uniform,
			MaxReplayCapacity: 10000,
		},
		BatchSize:    32,
		Gamma:        0.99,
		Epsilon:      1.0,
		EpsilonMin:   0.01,
		EpsilonDecay: 0.995,
	}
}

// Validate checks a Config to ensure it is a valid configuration of a
// DeepQ agent.
func (c Config) Validate() error {
	if len(c.PolicyLayers) != len(c.Biases) {
		return fmt.Errorf("validate: invalid number of biases\n\twant(%v)"+
			"\n\thave(%v)", len(c.PolicyLayers), len(c.Biases))
	}

	if len(c.PolicyLayers) != len(c.Activations) {
		return fmt.Errorf("validate: invalid number of activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.PolicyLayers),
			len(c.Activations))
	}

	if c.Solver == nil || c.Solver.Config == nil {
		return fmt.Errorf("validate: a solver is required")
	}

	if c.InitWFn == nil || c.InitWFn.Config == nil {
		return fmt.Errorf("validate: a weight initializer is required")
	}

	if c.BatchSize < 1 {
		return fmt.Errorf("validate: batch size must be positive"+
			"\n\twant(>0)\n\thave(%v)", c.BatchSize)
	}

	if c.ExpReplay.MaxReplayCapacity < c.BatchSize {
		return fmt.Errorf("validate: replay capacity must be at least the "+
			"batch size\n\twant(>=%v)\n\thave(%v)", c.BatchSize,
			c.ExpReplay.MaxReplayCapacity)
	}

	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: gamma must be in [0, 1]\n\thave(%v)",
			c.Gamma)
	}

	if c.EpsilonMin < 0 || c.EpsilonMin > 1 {
		return fmt.Errorf("validate: minimum epsilon must be in [0, 1]"+
			"\n\thave(%v)", c.EpsilonMin)
	}

	if c.Epsilon < c.EpsilonMin || c.Epsilon > 1 {
		return fmt.Errorf("validate: epsilon must be in [%v, 1]\n\thave(%v)",
			c.EpsilonMin, c.Epsilon)
	}

	if c.EpsilonDecay <= 0 || c.EpsilonDecay > 1 {
		return fmt.Errorf("validate: epsilon decay must be in (0, 1]"+
			"\n\thave(%v)", c.EpsilonDecay)
	}

	return nil
}

// ValidAgent returns whether the agent is valid for the configuration.
// That is, whether Agent a can be constructed with Config c.
func (c Config) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*DeepQ)
	return ok
}

// CreateAgent creates a new DeepQ agent based on the configuration
func (c Config) CreateAgent(features, actions int,
	seed uint64) (agent.Agent, error) {
	return New(features, actions, c, seed)
}
