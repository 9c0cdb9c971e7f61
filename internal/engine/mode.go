package engine

// Mode is the lifecycle state of the engine
type Mode int

const (
	Idle Mode = iota
	Running
	Paused
	Completed
	Aborted
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Active reports whether a run is in progress
func (m Mode) Active() bool {
	return m == Running || m == Paused
}
