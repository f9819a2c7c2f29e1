package model

// Mode is the active control regime. Exactly one is active at any
// time; default Auto (spec.md section 3).
type Mode int

const (
	ModeAuto Mode = iota
	ModeManual
	ModeWizard
)

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeManual:
		return "manual"
	case ModeWizard:
		return "wizard"
	default:
		return "unknown"
	}
}

// StateKind enumerates the state machine's three variants (spec.md
// section 3).
type StateKind int

const (
	StateIdle StateKind = iota
	StateWatering
	StatePaused
)

// State is the state machine's current state. Only the fields
// relevant to Kind are populated: Watering for StateWatering,
// PriorState/Signals for StatePaused.
type State struct {
	Kind StateKind

	Watering WaterSector

	PriorState *State
	Signals    map[WeatherSignal]struct{}
}

// Idle is the zero Idle state, the state machine's initial value.
func Idle() State {
	return State{Kind: StateIdle}
}

// WateringState builds a Watering(ws) state.
func WateringState(ws WaterSector) State {
	return State{Kind: StateWatering, Watering: ws}
}

// PausedState builds a Paused{prior, signals} state seeded with one signal.
func PausedState(prior State, signal WeatherSignal) State {
	return State{
		Kind:       StatePaused,
		PriorState: &prior,
		Signals:    map[WeatherSignal]struct{}{signal: {}},
	}
}
