package daemon

// State is a Daemon Loop state.
type State int

const (
	Starting State = iota
	Running
	Reloading
	Stopping
	Terminated
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Reloading:
		return "reloading"
	case Stopping:
		return "stopping"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}
