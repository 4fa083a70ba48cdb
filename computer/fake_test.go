package computer

import (
	"fmt"
	"io"
	"log/slog"
)

type fakeDungeon struct {
	owner     PlayerID
	heart     bool
	gold      int
	knownGold int
	avail     map[RoomKind]Availability
	rooms     []Room
	creatures []Creature
	// cyclic makes creature enumeration wrap around forever.
	cyclic bool
}

func (d *fakeDungeon) Owner() PlayerID { return d.owner }
func (d *fakeDungeon) HasHeart() bool  { return d.heart }
func (d *fakeDungeon) Gold() int       { return d.gold }
func (d *fakeDungeon) KnownGold() int  { return d.knownGold }

func (d *fakeDungeon) RoomAvailable(kind RoomKind) Availability {
	if a, ok := d.avail[kind]; ok {
		return a
	}
	return AvailNow
}

func (d *fakeDungeon) EachRoom(fn func(Room) bool) {
	for _, r := range d.rooms {
		if !fn(r) {
			return
		}
	}
}

func (d *fakeDungeon) EachCreature(fn func(Creature) bool) {
	if len(d.creatures) == 0 {
		return
	}
	for i := 0; ; i++ {
		if i >= len(d.creatures) && !d.cyclic {
			return
		}
		if !fn(d.creatures[i%len(d.creatures)]) {
			return
		}
	}
}

type fakeTask struct {
	id    TaskID
	owner PlayerID
	req   TaskRequest
}

type fakeTasks struct {
	next    TaskID
	tasks   []fakeTask
	fail    error
	passes  int
	removed []PlayerID
}

func (q *fakeTasks) CreateTask(owner PlayerID, req TaskRequest) (TaskID, error) {
	if q.fail != nil {
		return 0, q.fail
	}
	q.next++
	q.tasks = append(q.tasks, fakeTask{id: q.next, owner: owner, req: req})
	return q.next, nil
}

func (q *fakeTasks) CountTasks(owner PlayerID, kind TaskKind) int {
	n := 0
	for _, t := range q.tasks {
		if t.owner == owner && t.req.Kind == kind {
			n++
		}
	}
	return n
}

func (q *fakeTasks) HasTasksFor(owner PlayerID, process int) bool {
	for _, t := range q.tasks {
		if t.owner == owner && t.req.Process == process {
			return true
		}
	}
	return false
}

func (q *fakeTasks) ProcessTasks(owner PlayerID) { q.passes++ }

func (q *fakeTasks) RemoveTasks(owner PlayerID) {
	q.removed = append(q.removed, owner)
	kept := q.tasks[:0]
	for _, t := range q.tasks {
		if t.owner != owner {
			kept = append(kept, t)
		}
	}
	q.tasks = kept
}

// finish drops every task of the owner's process.
func (q *fakeTasks) finish(owner PlayerID, process int) {
	kept := q.tasks[:0]
	for _, t := range q.tasks {
		if t.owner != owner || t.req.Process != process {
			kept = append(kept, t)
		}
	}
	q.tasks = kept
}

type fakeWorld struct {
	turn     Turn
	players  []PlayerInfo
	dungeons []*fakeDungeon
	events   [][]GameEvent
	tasks    *fakeTasks
	surveys  int
}

func newFakeWorld(players int) *fakeWorld {
	w := &fakeWorld{tasks: &fakeTasks{}}
	for i := 0; i < players; i++ {
		w.players = append(w.players, PlayerInfo{ID: PlayerID(i), Active: true, Computer: true, Model: 1})
		w.dungeons = append(w.dungeons, &fakeDungeon{owner: PlayerID(i), heart: true, gold: 1000})
		w.events = append(w.events, nil)
	}
	return w
}

func (w *fakeWorld) Turn() Turn       { return w.turn }
func (w *fakeWorld) PlayerCount() int { return len(w.players) }
func (w *fakeWorld) Tasks() TaskQueue { return w.tasks }
func (w *fakeWorld) SurveyMap()       { w.surveys++ }

func (w *fakeWorld) Player(id PlayerID) (PlayerInfo, bool) {
	if int(id) < 0 || int(id) >= len(w.players) {
		return PlayerInfo{}, false
	}
	return w.players[id], true
}

func (w *fakeWorld) Dungeon(id PlayerID) Dungeon {
	if int(id) < 0 || int(id) >= len(w.dungeons) {
		return nil
	}
	return w.dungeons[id]
}

func (w *fakeWorld) PendingEvents(id PlayerID) []GameEvent {
	if int(id) < 0 || int(id) >= len(w.events) {
		return nil
	}
	out := w.events[id]
	w.events[id] = nil
	return out
}

func (w *fakeWorld) Opponents(id PlayerID) []PlayerID {
	var out []PlayerID
	for _, p := range w.players {
		if p.ID != id && p.Active {
			out = append(out, p.ID)
		}
	}
	return out
}

type fakeCatalog struct {
	archetypes  map[int]Archetype
	first, last int
}

func (c *fakeCatalog) Archetype(id int) (Archetype, error) {
	a, ok := c.archetypes[id]
	if !ok {
		return Archetype{}, fmt.Errorf("archetype %d: %w", id, ErrUnknownArchetype)
	}
	a.ID = id
	a.Processes = append([]Process(nil), a.Processes...)
	a.Checks = append([]Check(nil), a.Checks...)
	a.Events = append([]Event(nil), a.Events...)
	return a, nil
}

func (c *fakeCatalog) SkirmishRange() (int, int) { return c.first, c.last }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func always(r Result) ProcessFunc {
	return func(*Computer, *Process) Result { return r }
}

func proc(mnemonic string, check, setup, task ProcessFunc) Process {
	return Process{
		Name:     mnemonic,
		Mnemonic: mnemonic,
		Width:    5,
		Height:   5,
		Check:    ProcessBehavior{ID: "check", Fn: check},
		Setup:    ProcessBehavior{ID: "setup", Fn: setup},
		Task:     ProcessBehavior{ID: "task", Fn: task},
	}
}

func defaultValues() Values {
	return Values{ProcessesEnabled: 1, ClickRate: 10, MaxRoomBuildTasks: 3, RestTurns: 3}
}

// newTestComputer instantiates an archetype bound to world player 0.
func newTestComputer(w *fakeWorld, arch Archetype, trace func(TraceEntry)) *Computer {
	if arch.Values == (Values{}) {
		arch.Values = defaultValues()
	}
	c, err := Instantiate(0, arch, quietLogger())
	if err != nil {
		panic(err)
	}
	c.world = w
	c.dungeon = w.Dungeon(0)
	c.trace = trace
	return c
}

// step runs one driver turn on c with a budget of one action.
func step(c *Computer, turn Turn) {
	c.turn = turn
	c.Budget = 1
	c.dispatchEvents(turn, c.world.PendingEvents(c.Player))
	c.pollChecks(turn)
	c.advanceScheduler(turn)
}

type traceLog []TraceEntry

func (l *traceLog) add(e TraceEntry) { *l = append(*l, e) }

func (l traceLog) count(kind, name string) int {
	n := 0
	for _, e := range l {
		if e.Kind == kind && (name == "" || e.Name == name) {
			n++
		}
	}
	return n
}
