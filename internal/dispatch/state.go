package dispatch

// State is a dispatch loop state.
type State int32

const (
	AwaitingSend State = iota
	TurnReceived
	ExecutingTools
	Done
)

func (s State) String() string {
	switch s {
	case AwaitingSend:
		return "awaiting_send"
	case TurnReceived:
		return "turn_received"
	case ExecutingTools:
		return "executing_tools"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}
