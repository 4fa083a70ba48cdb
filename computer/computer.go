package computer

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
)

// Turn is a simulation game turn.
type Turn int64

// PlayerID identifies a player slot.
type PlayerID int

// Capacities of the per-instance arrays, each including the sentinel slot.
const (
	ProcessesCount = 20
	ChecksCount    = 64
	EventsCount    = 33
)

// Result is returned by behavior callbacks.
type Result int

const (
	Fail Result = iota
	Continue
	Finish
	Wait
)

func (r Result) String() string {
	switch r {
	case Fail:
		return "fail"
	case Continue:
		return "continue"
	case Finish:
		return "finish"
	case Wait:
		return "wait"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// State is the scheduler goal state.
type State int

const (
	Resting        State = 1
	NeedsSelection State = 2
	Running        State = 3
)

func (s State) String() string {
	switch s {
	case Resting:
		return "resting"
	case NeedsSelection:
		return "select"
	case Running:
		return "running"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type ProcessFlags uint16

const (
	ProcTerminal ProcessFlags = 1 << iota
	ProcRunning
	ProcDisabled
	ProcDone
	ProcNeedsSurvey
)

type CheckFlags uint8

const (
	CheckDisabled CheckFlags = 1 << iota
	CheckTerminal
)

type EventFlags uint8

const (
	EventTerminal EventFlags = 1 << iota
)

// EventKind selects how an event is dispatched.
type EventKind int

const (
	// EventOnGameEvent reacts to pending game events of a matching kind.
	EventOnGameEvent EventKind = iota
	// EventPeriodic runs its test every TestInterval turns.
	EventPeriodic
)

type (
	ProcessFunc   func(c *Computer, p *Process) Result
	CheckFunc     func(c *Computer, chk *Check) Result
	EventFunc     func(c *Computer, ev *Event, gev *GameEvent) Result
	EventTestFunc func(c *Computer, ev *Event) bool
)

// ProcessBehavior is a process callback slot. ID is the symbolic name it
// was resolved from; Fn may be nil.
type ProcessBehavior struct {
	ID string
	Fn ProcessFunc
}

type CheckBehavior struct {
	ID string
	Fn CheckFunc
}

type EventBehavior struct {
	ID string
	Fn EventFunc
}

type EventTestBehavior struct {
	ID string
	Fn EventTestFunc
}

// Process is a long-running behavior with a setup/task/complete/pause life cycle.
type Process struct {
	Name     string
	Mnemonic string
	// Parent is the mnemonic of the template the process was copied from.
	Parent string

	Priority int
	Width    int
	Height   int
	Target   int
	Cap      int

	Check    ProcessBehavior
	Setup    ProcessBehavior
	Task     ProcessBehavior
	Complete ProcessBehavior
	Pause    ProcessBehavior

	Flags     ProcessFlags
	LastRun   Turn
	Started   Turn
	Completed Turn
	Failed    Turn
	Params    [4]int
}

func (p *Process) terminal() bool { return p.Flags&ProcTerminal != 0 }

// Check is a periodically polled condition.
type Check struct {
	Name     string
	Mnemonic string
	Flags    CheckFlags
	Interval Turn
	LastRun  Turn
	Fn       CheckBehavior
	Params   [4]int
}

// Event reacts to game events or to its own periodic test.
type Event struct {
	Name         string
	Mnemonic     string
	Flags        EventFlags
	Kind         EventKind
	GameEvent    GameEventKind
	TestInterval Turn
	LastTest     Turn
	Handler      EventBehavior
	Test         EventTestBehavior
	// Process is the mnemonic of a linked process, if any.
	Process string
	Params  [4]int
}

// Values are the per-archetype tunables of an AI player.
type Values struct {
	DigStackSize      int
	ProcessesEnabled  int
	ClickRate         int
	MaxRoomBuildTasks int
	TurnBegin         Turn
	SimBeforeDig      int
	RestTurns         Turn
}

// Archetype is a named bundle of templates defining one AI personality.
type Archetype struct {
	ID        int
	Name      string
	Values    Values
	Processes []Process
	Checks    []Check
	Events    []Event
}

// Computer is the live AI state of one player.
type Computer struct {
	Player PlayerID
	Model  int
	Values Values

	State     State
	Current   int
	Budget    int
	Countdown Turn

	Processes [ProcessesCount]Process
	Checks    [ChecksCount]Check
	Events    [EventsCount]Event

	// SightTargets marks scouted cells of the sight-of-evil grid.
	SightTargets [SightGrid]uint8

	world   World
	dungeon Dungeon
	turn    Turn
	rng     *rand.Rand
	log     *slog.Logger
	trace   func(TraceEntry)
}

// Turn returns the turn being processed.
func (c *Computer) Turn() Turn { return c.turn }

// Dungeon returns the world-state handle of the owning player.
func (c *Computer) Dungeon() Dungeon { return c.dungeon }

// World returns the game-state collaborator.
func (c *Computer) World() World { return c.world }

// Rand returns the deterministic generator for the current turn.
func (c *Computer) Rand() *rand.Rand {
	if c.rng == nil {
		c.rng = NewRand(0, c.turn, c.Player)
	}
	return c.rng
}

// Logger returns the instance logger.
func (c *Computer) Logger() *slog.Logger { return c.log }

// RunningProcess returns the running process, or nil.
func (c *Computer) RunningProcess() *Process {
	if !c.validProcess(c.Current) {
		return nil
	}
	return &c.Processes[c.Current]
}

// ProcessIndex returns the index of the process with the given mnemonic.
func (c *Computer) ProcessIndex(mnemonic string) (int, bool) {
	for i := range c.Processes {
		p := &c.Processes[i]
		if p.terminal() {
			break
		}
		if p.Mnemonic == mnemonic {
			return i, true
		}
	}
	return -1, false
}

func (c *Computer) indexOf(p *Process) int {
	for i := range c.Processes {
		if &c.Processes[i] == p {
			return i
		}
	}
	return -1
}

// ProcessCount returns the number of processes before the sentinel.
func (c *Computer) ProcessCount() int {
	for i := range c.Processes {
		if c.Processes[i].terminal() {
			return i
		}
	}
	return len(c.Processes)
}

// CheckCount returns the number of checks before the sentinel.
func (c *Computer) CheckCount() int {
	for i := range c.Checks {
		if c.Checks[i].Flags&CheckTerminal != 0 {
			return i
		}
	}
	return len(c.Checks)
}

// EventCount returns the number of events before the sentinel.
func (c *Computer) EventCount() int {
	for i := range c.Events {
		if c.Events[i].Flags&EventTerminal != 0 {
			return i
		}
	}
	return len(c.Events)
}

func (c *Computer) validProcess(idx int) bool {
	return idx >= 0 && idx < c.ProcessCount()
}

func (c *Computer) demandsSurvey() bool {
	for i := range c.Processes {
		p := &c.Processes[i]
		if p.terminal() {
			return false
		}
		if p.Flags&ProcNeedsSurvey != 0 {
			return true
		}
	}
	return false
}

func (c *Computer) clearSurveyDemand() {
	for i := range c.Processes {
		c.Processes[i].Flags &^= ProcNeedsSurvey
	}
}
