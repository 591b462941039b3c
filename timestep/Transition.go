package timestep

import "fmt"

// Transition is a single recorded step of experience, a
// (state, action, reward, next state, terminal) tuple.
//
// A Transition owns its state slices. NewTransition and Clone copy
// them, so no two Transitions share backing arrays.
type Transition struct {
	State     []float64
	Action    int
	Reward    float64
	NextState []float64
	Done      bool
}

// NewTransition returns a new Transition holding copies of state and
// nextState.
func NewTransition(state []float64, action int, reward float64,
	nextState []float64, done bool) Transition {
	return Transition{
		State:     copyFloats(state),
		Action:    action,
		Reward:    reward,
		NextState: copyFloats(nextState),
		Done:      done,
	}
}

// Clone returns a deep copy of the Transition
func (t Transition) Clone() Transition {
	return NewTransition(t.State, t.Action, t.Reward, t.NextState, t.Done)
}

// Equal returns whether two Transitions hold the same values
func (t Transition) Equal(other Transition) bool {
	if t.Action != other.Action || t.Reward != other.Reward ||
		t.Done != other.Done {
		return false
	}
	return floatsEqual(t.State, other.State) &&
		floatsEqual(t.NextState, other.NextState)
}

func (t Transition) String() string {
	return fmt.Sprintf("Transition{S: %v, A: %v, R: %.2f, S': %v, Done: %v}",
		t.State, t.Action, t.Reward, t.NextState, t.Done)
}

func copyFloats(in []float64) []float64 {
	if in == nil {
		return nil
	}
	out := make([]float64, len(in))
	copy(out, in)
	return out
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
