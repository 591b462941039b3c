// Package expreplay implements experience replay buffers which hold
// transitions and return batches of them for learning.
package expreplay

import (
	"fmt"

	"github.com/gammazero/deque"

	"github.com/samuelfneumann/flapq/timestep"
)

// ExperienceReplayer implements an experience replay buffer
type ExperienceReplayer interface {
	// Add adds a transition to the buffer
	Add(t timestep.Transition)

	// Sample samples a batch of n transitions from the buffer
	Sample(n int) ([]timestep.Transition, error)

	// Len returns the current number of samples in the buffer
	Len() int

	// MaxCapacity returns the maximum allowable samples in the buffer
	MaxCapacity() int
}

// Config implements a specific configuration of an ExperienceReplayer
type Config struct {
	SampleMethod      SelectorType
	MaxReplayCapacity int
}

// Create creates and returns the ExperienceReplayer with the specified
// Config.
func (c Config) Create(seed uint64) (*Buffer, error) {
	sampler, err := CreateSelector(c.SampleMethod, seed)
	if err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}
	return New(c.MaxReplayCapacity, sampler)
}

// Buffer implements a concrete, bounded ExperienceReplayer. When the
// buffer is full, the oldest transition is evicted to make room for a
// new one.
//
// Transitions are copied into the buffer when added and copied out of
// the buffer when sampled, so callers never alias the buffer's
// contents.
type Buffer struct {
	data        *deque.Deque[timestep.Transition]
	sampler     Selector
	maxCapacity int
}

// New creates and returns a new Buffer holding at most maxCapacity
// transitions. The sampler parameter determines how data is sampled
// from the buffer.
func New(maxCapacity int, sampler Selector) (*Buffer, error) {
	if maxCapacity < 1 {
		return nil, fmt.Errorf("new: maxCapacity must be >= 1\n\twant(>=1)"+
			"\n\thave(%v)", maxCapacity)
	}
	if sampler == nil {
		return nil, fmt.Errorf("new: sampler must not be nil")
	}

	return &Buffer{
		data:        deque.New[timestep.Transition](),
		sampler:     sampler,
		maxCapacity: maxCapacity,
	}, nil
}

// NewUniform returns a new Buffer which is sampled uniformly at random
// without replacement, using the given seed.
func NewUniform(maxCapacity int, seed uint64) (*Buffer, error) {
	return New(maxCapacity, NewUniformSelector(seed))
}

// String implements the fmt.Stringer interface
func (b *Buffer) String() string {
	return fmt.Sprintf("Buffer{Len: %v, MaxCapacity: %v}", b.Len(),
		b.MaxCapacity())
}

// Add adds a copy of a transition to the buffer. If the buffer is
// full, the oldest transition is removed first.
func (b *Buffer) Add(t timestep.Transition) {
	for b.data.Len() >= b.maxCapacity {
		b.data.PopFront()
	}
	b.data.PushBack(t.Clone())
}

// Sample returns n distinct transitions from the buffer, chosen by the
// buffer's Selector. Sampling more transitions than the buffer holds is
// an error.
func (b *Buffer) Sample(n int) ([]timestep.Transition, error) {
	if n < 0 {
		return nil, &ExpReplayError{Op: "sample", Err: errNegativeBatch}
	}
	if n == 0 {
		return []timestep.Transition{}, nil
	}
	if b.data.Len() == 0 {
		return nil, &ExpReplayError{Op: "sample", Err: errEmptyCache}
	}
	if n > b.data.Len() {
		return nil, &ExpReplayError{
			Op: "sample",
			Err: fmt.Errorf("%w\n\twant(<=%v)\n\thave(%v)",
				errInsufficientSamples, b.data.Len(), n),
		}
	}

	indices := b.sampler.choose(n, b.data.Len())
	batch := make([]timestep.Transition, len(indices))
	for i, index := range indices {
		batch[i] = b.data.At(index).Clone()
	}

	return batch, nil
}

// Transitions returns a copy of all transitions in the buffer, from
// oldest to newest.
func (b *Buffer) Transitions() []timestep.Transition {
	all := make([]timestep.Transition, b.data.Len())
	for i := range all {
		all[i] = b.data.At(i).Clone()
	}
	return all
}

// Len returns the current number of samples in the buffer
func (b *Buffer) Len() int {
	return b.data.Len()
}

// MaxCapacity returns the maximum number of samples allowed in the
// buffer
func (b *Buffer) MaxCapacity() int {
	return b.maxCapacity
}

// Clear removes all transitions from the buffer
func (b *Buffer) Clear() {
	b.data.Clear()
}
