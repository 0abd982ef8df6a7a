package runner

import "github.com/petasbytes/course-agent/internal/provider"

// State is a position in the round loop.
type State int

const (
	// AwaitingModel: a model call is due.
	AwaitingModel State = iota
	// DispatchingTools: the last response requested tools that must be run
	// and answered before the next call.
	DispatchingTools
	// Done: the last response's text is the answer.
	Done
)

func (s State) String() string {
	switch s {
	case AwaitingModel:
		return "awaiting_model"
	case DispatchingTools:
		return "dispatching_tools"
	case Done:
		return "done"
	}
	return "unknown"
}

// event is what the loop observed since entering the current state.
type event struct {
	// Set when leaving AwaitingModel.
	response *provider.Response
	offered  bool // whether the call that produced response offered tools

	// Set when leaving DispatchingTools: rounds completed so far.
	rounds int
}

// transition is the outcome of step. offerTools applies to the model call
// made on entering AwaitingModel.
type transition struct {
	next       State
	offerTools bool
}

// step is the round loop's transition function. maxRounds bounds tool rounds:
// once rounds reaches it, the next call is made with tools withdrawn.
func step(s State, ev event, maxRounds int) transition {
	switch s {
	case AwaitingModel:
		if ev.offered && ev.response != nil &&
			ev.response.StopReason == provider.StopToolUse &&
			len(ev.response.ToolUses()) > 0 {
			return transition{next: DispatchingTools}
		}
		return transition{next: Done}
	case DispatchingTools:
		return transition{next: AwaitingModel, offerTools: ev.rounds < maxRounds}
	}
	return transition{next: Done}
}

// offerFirst reports whether the first call may offer tools.
func offerFirst(toolCount, maxRounds int) bool {
	return toolCount > 0 && maxRounds > 0
}
