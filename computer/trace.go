package computer

import "fmt"

// Trace kinds, one per callback slot.
const (
	TraceEvent          = "event"
	TraceEventTest      = "event.test"
	TraceCheck          = "check"
	TraceProcessCheck   = "process.check"
	TraceProcessSetup   = "process.setup"
	TraceProcessTask    = "process.task"
	TraceProcessDone    = "process.complete"
	TraceProcessPause   = "process.pause"
	TraceProcessShrink  = "process.shrink"
	TraceSchedulerState = "state"
)

// TraceEntry records one callback invocation or scheduler transition.
type TraceEntry struct {
	Turn   Turn
	Player PlayerID
	Kind   string
	Name   string
	Index  int
	Result string
}

func (e TraceEntry) String() string {
	return fmt.Sprintf("%d p%d %s %s[%d] %s", e.Turn, e.Player, e.Kind, e.Name, e.Index, e.Result)
}

func (c *Computer) record(kind, name string, idx int, result string) {
	if c.trace == nil {
		return
	}
	c.trace(TraceEntry{
		Turn:   c.turn,
		Player: c.Player,
		Kind:   kind,
		Name:   name,
		Index:  idx,
		Result: result,
	})
}
