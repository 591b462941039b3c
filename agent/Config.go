package agent

// Config represents a configuration for creating an agent
type Config interface {
	// CreateAgent creates the agent that the config describes, for
	// states with the given number of features and the given number of
	// discrete actions.
	CreateAgent(features, actions int, seed uint64) (Agent, error)

	// ValidAgent returns whether the argument agent is valid for the
	// Config
	ValidAgent(Agent) bool

	// Validate returns an error describing whether or not the
	// configuration is valid or not.
	Validate() error
}
