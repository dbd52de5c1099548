package crash

// State is a Responder state.
type State int32

const (
	Idle State = iota
	Capturing
	Delegating
	Finalizing
	Reraised
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	case Delegating:
		return "delegating"
	case Finalizing:
		return "finalizing"
	case Reraised:
		return "reraised"
	default:
		return "unknown"
	}
}
