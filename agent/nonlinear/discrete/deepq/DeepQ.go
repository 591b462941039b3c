// Package deepq implements the deep Q-learning algorithm with a target
// network and an epsilon greedy behaviour policy.
package deepq

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/flapq/agent/nonlinear/discrete/policy"
	"github.com/samuelfneumann/flapq/expreplay"
	"github.com/samuelfneumann/flapq/network"
	ts "github.com/samuelfneumann/flapq/timestep"
)

// DeepQ implements the deep Q-learning algorithm. This algorithm is
// conceptually similar to DQN, and uses the MSE loss.
//
// Transitions are stored in an experience replay buffer with Remember.
// Each call to Learn samples a batch from the buffer and takes a single
// gradient step on the policy network. The target network, which
// provides the update target, only changes when SyncTarget is called.
type DeepQ struct {
	// Behaviour egreedy policy over the policy network
	behaviourPolicy *policy.EGreedy

	// Target network providing the update target. This is not a
	// network for a target policy.
	targetNet *network.ValueFunction

	// Network for learning weights that takes in batches of inputs.
	// After each update, its weights are copied to the policy network.
	trainNet   network.NeuralNet
	trainNetVM G.VM
	solver     G.Solver // Adapts the weights of trainNet

	// selectedActions holds one-hot encodings of the actions taken in
	// each sampled state, so that the loss uses the correct action
	// value since the network outputs one value per action.
	selectedActions *G.Node

	// updateTargets holds r + γ * max[Q_target(s', a')] for each sampled
	// transition, computed outside the training graph so that no
	// gradient flows into the target network.
	updateTargets *G.Node
	lossVal       G.Value
	loss          float64

	gamma        float64
	epsilonMin   float64
	epsilonDecay float64

	gradientSteps int
	numActions    int
	numFeatures   int
	batchSize     int

	replay *expreplay.Buffer
}

// New creates and returns a new DeepQ agent for states with the given
// number of features and the given number of discrete actions, which
// are enumerated from 0. The seed determines the initial weights,
// exploration and the sampling of the replay buffer.
func New(features, actions int, config Config, seed uint64) (*DeepQ, error) {
	if features < 1 {
		return nil, fmt.Errorf("new: features must be positive\n\thave(%v)",
			features)
	}
	if actions < 1 {
		return nil, fmt.Errorf("new: actions must be positive\n\thave(%v)",
			actions)
	}

	// Ensure the configuration is valid
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	batchSize := config.BatchSize

	// Policy network for selecting actions
	initWFn := config.InitWFn.InitWFn(initSeed(seed))
	policyNet, err := network.NewValueFunction(features, actions,
		config.PolicyLayers, config.Biases, initWFn, config.Activations)
	if err != nil {
		return nil, fmt.Errorf("new: could not create policy network: %v",
			err)
	}
	behaviourPolicy, err := policy.NewEGreedy(config.Epsilon, policyNet, seed)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	// The target network starts as an exact copy of the policy network
	targetNet, err := policyNet.Clone()
	if err != nil {
		return nil, fmt.Errorf("new: could not create target network: %v",
			err)
	}

	// Create a training network which learns the weights
	trainNet, err := policyNet.Network().CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create learning network: %v",
			err)
	}
	gTrain := trainNet.Graph()

	selectedActions := G.NewMatrix(
		gTrain,
		tensor.Float64,
		G.WithName("actionSelected"),
		G.WithShape(batchSize, actions),
		G.WithInit(G.Zeroes()),
	)
	updateTargets := G.NewVector(
		gTrain,
		tensor.Float64,
		G.WithName("updateTarget"),
		G.WithShape(batchSize),
		G.WithInit(G.Zeroes()),
	)

	selectedActionsValue := G.Must(G.HadamardProd(trainNet.Prediction(),
		selectedActions))
	selectedActionsValue = G.Must(G.Sum(selectedActionsValue, 1))

	// Compute the Mean Squarred TD error
	losses := G.Must(G.Sub(updateTargets, selectedActionsValue))
	losses = G.Must(G.Square(losses))
	cost := G.Must(G.Mean(losses))

	// Compute the gradient with respect to the Mean Squarred TD error
	if _, err = G.Grad(cost, trainNet.Learnables()...); err != nil {
		return nil, fmt.Errorf("new: could not compute gradient: %v", err)
	}

	// Create the experience replay buffer
	replay, err := config.ExpReplay.Create(replaySeed(seed))
	if err != nil {
		return nil, fmt.Errorf("new: could not create experience replay "+
			"buffer: %v", err)
	}

	// Solver state is never shared between agents created from the
	// same Config
	s, err := config.Solver.Fresh()
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	d := &DeepQ{
		behaviourPolicy: behaviourPolicy,
		targetNet:       targetNet,
		trainNet:        trainNet,
		solver:          s.Solver,
		selectedActions: selectedActions,
		updateTargets:   updateTargets,
		gamma:           config.Gamma,
		epsilonMin:      config.EpsilonMin,
		epsilonDecay:    config.EpsilonDecay,
		numActions:      actions,
		numFeatures:     features,
		batchSize:       batchSize,
		replay:          replay,
	}
	G.Read(cost, &d.lossVal)

	// Compile the trainNet graph into a VM
	d.trainNetVM = G.NewTapeMachine(
		gTrain,
		G.BindDualValues(trainNet.Learnables()...),
	)

	return d, nil
}

// replaySeed derives the seed of the replay buffer from the agent seed
// so that exploration and sampling use distinct random streams.
func replaySeed(seed uint64) uint64 {
	return seed ^ 0x9e3779b97f4a7c15
}

// initSeed derives the seed of the weight initializer from the agent
// seed
func initSeed(seed uint64) uint64 {
	return seed ^ 0xbf58476d1ce4e5b9
}

// UpdateTarget returns the Q-learning update target
// r + γ * max[Q(s', a')] for a transition, given the action values of
// the next state. If the transition is terminal, the update target is
// exactly the reward.
func UpdateTarget(reward, gamma float64, nextActionValues []float64,
	done bool) float64 {
	if done {
		return reward
	}
	return reward + gamma*floats.Max(nextActionValues)
}

// Remember stores a copy of a transition in the replay buffer
func (d *DeepQ) Remember(t ts.Transition) error {
	if len(t.State) != d.numFeatures || len(t.NextState) != d.numFeatures {
		return fmt.Errorf("remember: %w: invalid state length"+
			"\n\twant(%v)\n\thave(%v, %v)", network.ErrDimensionMismatch,
			d.numFeatures, len(t.State), len(t.NextState))
	}
	if t.Action < 0 || t.Action >= d.numActions {
		return fmt.Errorf("remember: invalid action\n\twant([0, %v))"+
			"\n\thave(%v)", d.numActions, t.Action)
	}

	d.replay.Add(t)
	return nil
}

// Buffered returns the number of transitions in the replay buffer
func (d *DeepQ) Buffered() int {
	return d.replay.Len()
}

// BatchSize returns the number of transitions used in each update
func (d *DeepQ) BatchSize() int {
	return d.batchSize
}

// Learn updates the weights of the policy network using a batch of
// transitions sampled from the replay buffer. If the buffer holds
// fewer transitions than the batch size, Learn does nothing.
func (d *DeepQ) Learn() error {
	if d.replay.Len() < d.batchSize {
		return nil
	}

	batch, err := d.replay.Sample(d.batchSize)
	if err != nil {
		return fmt.Errorf("learn: %v", err)
	}

	states := make([]float64, 0, d.batchSize*d.numFeatures)
	nextStates := make([][]float64, d.batchSize)
	actions := make([]float64, d.batchSize*d.numActions)
	for i, t := range batch {
		states = append(states, t.State...)
		nextStates[i] = t.NextState
		actions[i*d.numActions+t.Action] = 1.0
	}

	// Compute the update targets with the target network
	nextActionValues, err := d.targetNet.EvaluateBatch(nextStates)
	if err != nil {
		return fmt.Errorf("learn: could not compute next action values: %v",
			err)
	}
	targets := make([]float64, d.batchSize)
	for i, t := range batch {
		targets[i] = UpdateTarget(t.Reward, d.gamma, nextActionValues[i],
			t.Done)
	}

	if err := d.trainNet.SetInput(states); err != nil {
		return fmt.Errorf("learn: could not set trainNet input: %v", err)
	}

	err = G.Let(d.selectedActions, tensor.New(
		tensor.WithShape(d.batchSize, d.numActions),
		tensor.WithBacking(actions),
	))
	if err != nil {
		return fmt.Errorf("learn: could not set selected actions: %v", err)
	}

	err = G.Let(d.updateTargets, tensor.New(
		tensor.WithShape(d.batchSize),
		tensor.WithBacking(targets),
	))
	if err != nil {
		return fmt.Errorf("learn: could not set update targets: %v", err)
	}

	// Run the learning step
	if err := d.trainNetVM.RunAll(); err != nil {
		d.trainNetVM.Reset()
		return fmt.Errorf("learn: could not run learning step: %v", err)
	}
	if loss, ok := d.lossVal.Data().(float64); ok {
		d.loss = loss
	}
	if err := d.solver.Step(d.trainNet.Model()); err != nil {
		d.trainNetVM.Reset()
		return fmt.Errorf("learn: could not step solver: %v", err)
	}
	d.trainNetVM.Reset()
	d.gradientSteps++

	// Mirror the newly learned weights in the policy network
	if err := d.behaviourPolicy.Set(d.trainNet); err != nil {
		return fmt.Errorf("learn: could not update policy network: %v", err)
	}
	return nil
}

// Loss returns the loss of the most recent call to Learn that took a
// gradient step
func (d *DeepQ) Loss() float64 {
	return d.loss
}

// GradientSteps returns the number of gradient steps taken
func (d *DeepQ) GradientSteps() int {
	return d.gradientSteps
}

// SyncTarget sets the weights of the target network to a copy of the
// weights of the policy network
func (d *DeepQ) SyncTarget() error {
	if err := d.targetNet.SetParameters(d.behaviourPolicy.Parameters()); err != nil {
		return fmt.Errorf("synctarget: %v", err)
	}
	return nil
}

// DecayEpsilon decays the epsilon of the behaviour policy, never going
// below the configured minimum
func (d *DeepQ) DecayEpsilon() {
	ε := d.behaviourPolicy.Epsilon() * d.epsilonDecay
	d.behaviourPolicy.SetEpsilon(math.Max(d.epsilonMin, ε))
}

// Epsilon returns the current epsilon of the behaviour policy
func (d *DeepQ) Epsilon() float64 {
	return d.behaviourPolicy.Epsilon()
}

// SelectAction returns an action selected by the behaviour policy. In
// evaluation mode, the greedy action is returned.
func (d *DeepQ) SelectAction(state []float64) (int, error) {
	return d.behaviourPolicy.SelectAction(state)
}

// Greedy returns the greedy action of the policy network in a state
func (d *DeepQ) Greedy(state []float64) (int, error) {
	return d.behaviourPolicy.Greedy(state)
}

// TdError calculates the TD error generated by the learner on some
// transition.
func (d *DeepQ) TdError(t ts.Transition) (float64, error) {
	if t.Action < 0 || t.Action >= d.numActions {
		return 0, fmt.Errorf("tderror: invalid action\n\twant([0, %v))"+
			"\n\thave(%v)", d.numActions, t.Action)
	}

	actionValues, err := d.behaviourPolicy.Evaluate(t.State)
	if err != nil {
		return 0, fmt.Errorf("tderror: %w", err)
	}
	nextActionValues, err := d.targetNet.Evaluate(t.NextState)
	if err != nil {
		return 0, fmt.Errorf("tderror: %w", err)
	}

	target := UpdateTarget(t.Reward, d.gamma, nextActionValues, t.Done)
	return target - actionValues[t.Action], nil
}

// Policy returns the policy network
func (d *DeepQ) Policy() *network.ValueFunction {
	return d.behaviourPolicy.ValueFunction
}

// Target returns the target network
func (d *DeepQ) Target() *network.ValueFunction {
	return d.targetNet
}

// PolicyParameters returns a copy of the weights of the policy network
func (d *DeepQ) PolicyParameters() []*tensor.Dense {
	return d.behaviourPolicy.Parameters()
}

// TargetParameters returns a copy of the weights of the target network
func (d *DeepQ) TargetParameters() []*tensor.Dense {
	return d.targetNet.Parameters()
}

// Eval sets the agent into evaluation mode
func (d *DeepQ) Eval() {
	d.behaviourPolicy.Eval()
}

// Train sets the agent into training mode
func (d *DeepQ) Train() {
	d.behaviourPolicy.Train()
}

// IsEval returns whether the agent is in evaluation mode
func (d *DeepQ) IsEval() bool {
	return d.behaviourPolicy.IsEval()
}

// Close releases the VMs used by the agent
func (d *DeepQ) Close() error {
	errs := []error{
		d.trainNetVM.Close(),
		d.behaviourPolicy.Close(),
		d.targetNet.Close(),
	}
	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("close: %v", err)
		}
	}
	return nil
}
