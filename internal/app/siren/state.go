// Package siren provides playback control for the looping alarm signal.
package siren

// State represents the playback state.
type State int

const (
	StateIdle       State = iota // No playback process exists
	StateLooping                 // A mode's asset is looping
	StateAnnouncing              // The loop is preempted by a one-shot announcement
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLooping:
		return "looping"
	case StateAnnouncing:
		return "announcing"
	default:
		return "unknown"
	}
}

// Status is a point-in-time snapshot of the controller, shaped for the API.
type Status struct {
	Mode         string   `json:"mode"`
	Running      bool     `json:"running"`
	Modes        []string `json:"modes"`
	CustomExists bool     `json:"custom_exists"`
}
