package build

// State is the lifecycle state of a Transformation.
type State string

const (
	StateDraft    State = "draft"
	StateBuilding State = "building"
	StateReady    State = "ready"
	StateError    State = "error"
)

// IsTerminal reports whether s is ready or error.
func (s State) IsTerminal() bool {
	return s == StateReady || s == StateError
}

// String implements fmt.Stringer.
func (s State) String() string {
	return string(s)
}

// canTransition lists the only legal edges of the state machine.
func canTransition(from, to State) bool {
	switch from {
	case StateDraft:
		return to == StateBuilding
	case StateBuilding:
		return to == StateReady || to == StateError
	case StateReady, StateError:
		return to == StateBuilding
	}
	return false
}
