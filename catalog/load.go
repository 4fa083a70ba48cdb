package catalog

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/milk9111/keeperai/computer"
	"github.com/milk9111/keeperai/script"
)

// Value counts of each block kind.
const (
	processValues  = 5
	checkValues    = 2
	eventValues    = 3
	computerValues = 7
)

// DefaultValues are used for a computer block whose values are malformed.
var DefaultValues = computer.Values{
	DigStackSize:      1,
	ProcessesEnabled:  1,
	ClickRate:         13,
	MaxRoomBuildTasks: 3,
	TurnBegin:         0,
	SimBeforeDig:      8,
	RestTurns:         25,
}

// Catalog holds the archetypes built from a configuration file. It
// implements computer.Catalog.
type Catalog struct {
	common     CommonSpec
	archetypes map[int]computer.Archetype
	ids        []int
	warnings   []string
	log        *slog.Logger
	scripts    *script.Runtime
	dir        string
}

type Option func(*Catalog)

// WithDir sets the directory whose files override the embedded ones.
func WithDir(dir string) Option {
	return func(c *Catalog) { c.dir = dir }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) {
		if l != nil {
			c.log = l
		}
	}
}

// WithScripts sets the runtime resolving script callbacks.
func WithScripts(rt *script.Runtime) Option {
	return func(c *Catalog) { c.scripts = rt }
}

// New loads and builds the named configuration file. Malformed blocks are
// reported as warnings and skipped or defaulted; only an unreadable or
// undecodable file is an error.
func New(name string, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		archetypes: map[int]computer.Archetype{},
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.scripts == nil {
		c.scripts = script.NewRuntime(c.dir, c.log)
	}

	spec, err := LoadSpec[Spec](c.dir, name)
	if err != nil {
		return nil, err
	}
	c.build(spec)
	return c, nil
}

// Archetype returns an independent copy of an archetype.
func (c *Catalog) Archetype(id int) (computer.Archetype, error) {
	a, ok := c.archetypes[id]
	if !ok {
		return computer.Archetype{}, fmt.Errorf("catalog: archetype %d: %w", id, computer.ErrUnknownArchetype)
	}
	a.Processes = slices.Clone(a.Processes)
	a.Checks = slices.Clone(a.Checks)
	a.Events = slices.Clone(a.Events)
	return a, nil
}

func (c *Catalog) SkirmishRange() (int, int) {
	return c.common.SkirmishFirst, c.common.SkirmishLast
}

// IDs lists the archetype ids in file order.
func (c *Catalog) IDs() []int { return slices.Clone(c.ids) }

// Assists lists the archetypes offered as computer assistants.
func (c *Catalog) Assists() []int { return slices.Clone(c.common.ComputerAssists) }

// Warnings returns the problems found while building the catalog.
func (c *Catalog) Warnings() []string { return slices.Clone(c.warnings) }

func (c *Catalog) warn(msg string, args ...any) {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	c.warnings = append(c.warnings, b.String())
	c.log.Warn(msg, args...)
}

func (c *Catalog) build(spec Spec) {
	c.common = spec.Common

	processes := map[string]computer.Process{}
	for i, ps := range spec.Processes {
		if ps.Mnemonic == "" {
			c.warn("process without mnemonic", "index", i)
			continue
		}
		if _, dup := processes[ps.Mnemonic]; dup {
			c.warn("duplicate process mnemonic", "mnemonic", ps.Mnemonic)
			continue
		}
		processes[ps.Mnemonic] = c.buildProcess(ps)
	}

	checks := map[string]computer.Check{}
	for i, cs := range spec.Checks {
		if cs.Mnemonic == "" {
			c.warn("check without mnemonic", "index", i)
			continue
		}
		if _, dup := checks[cs.Mnemonic]; dup {
			c.warn("duplicate check mnemonic", "mnemonic", cs.Mnemonic)
			continue
		}
		checks[cs.Mnemonic] = c.buildCheck(cs)
	}

	events := map[string]computer.Event{}
	for i, es := range spec.Events {
		if es.Mnemonic == "" {
			c.warn("event without mnemonic", "index", i)
			continue
		}
		if _, dup := events[es.Mnemonic]; dup {
			c.warn("duplicate event mnemonic", "mnemonic", es.Mnemonic)
			continue
		}
		events[es.Mnemonic] = c.buildEvent(es)
	}

	for _, cs := range spec.Computers {
		if _, dup := c.archetypes[cs.ID]; dup {
			c.warn("duplicate computer id", "id", cs.ID)
			continue
		}
		arch := computer.Archetype{ID: cs.ID, Name: cs.Name, Values: c.buildValues(cs)}
		arch.Processes = pick(c, cs, "process", cs.Processes, processes, computer.ProcessesCount-1)
		arch.Checks = pick(c, cs, "check", cs.Checks, checks, computer.ChecksCount-1)
		arch.Events = pick(c, cs, "event", cs.Events, events, computer.EventsCount-1)
		for _, ev := range arch.Events {
			if ev.Process == "" {
				continue
			}
			if !slices.ContainsFunc(arch.Processes, func(p computer.Process) bool { return p.Mnemonic == ev.Process }) {
				c.warn("event links a process the computer does not run", "computer", cs.ID, "event", ev.Mnemonic, "process", ev.Process)
			}
		}
		c.archetypes[cs.ID] = arch
		c.ids = append(c.ids, cs.ID)
	}
	c.log.Debug("catalog built", "computers", len(c.ids), "processes", len(processes),
		"checks", len(checks), "events", len(events), "warnings", len(c.warnings))
}

// pick resolves a computer's mnemonic list, dropping unknown names and
// anything past the capacity.
func pick[T any](c *Catalog, cs ComputerSpec, kind string, names []string, from map[string]T, capacity int) []T {
	var out []T
	for _, name := range names {
		item, ok := from[name]
		if !ok {
			c.warn("unknown "+kind+" mnemonic", "computer", cs.ID, "mnemonic", name)
			continue
		}
		if len(out) >= capacity {
			c.warn("too many "+kind+" entries for computer", "computer", cs.ID, "limit", capacity)
			break
		}
		out = append(out, item)
	}
	return out
}

func (c *Catalog) buildValues(cs ComputerSpec) computer.Values {
	if len(cs.Values) != computerValues {
		c.warn("computer values malformed", "computer", cs.ID, "want", computerValues, "got", len(cs.Values))
		return DefaultValues
	}
	v := cs.Values
	return computer.Values{
		DigStackSize:      v[0],
		ProcessesEnabled:  v[1],
		ClickRate:         v[2],
		MaxRoomBuildTasks: v[3],
		TurnBegin:         computer.Turn(v[4]),
		SimBeforeDig:      v[5],
		RestTurns:         computer.Turn(v[6]),
	}
}

func (c *Catalog) buildProcess(ps ProcessSpec) computer.Process {
	p := computer.Process{Name: ps.Name, Mnemonic: ps.Mnemonic}
	if len(ps.Values) == processValues {
		p.Priority, p.Width, p.Height, p.Target, p.Cap = ps.Values[0], ps.Values[1], ps.Values[2], ps.Values[3], ps.Values[4]
	} else {
		c.warn("process values malformed", "mnemonic", ps.Mnemonic, "want", processValues, "got", len(ps.Values))
	}

	fns := c.functions("process", ps.Mnemonic, ps.Functions, 5)
	p.Check = c.processBehavior(ps.Mnemonic, fns[0])
	p.Setup = c.processBehavior(ps.Mnemonic, fns[1])
	p.Task = c.processBehavior(ps.Mnemonic, fns[2])
	p.Complete = c.processBehavior(ps.Mnemonic, fns[3])
	p.Pause = c.processBehavior(ps.Mnemonic, fns[4])

	p.Params = c.params("process", ps.Mnemonic, ps.Params)
	if ps.Disabled {
		p.Flags |= computer.ProcDisabled
	}
	return p
}

func (c *Catalog) buildCheck(cs CheckSpec) computer.Check {
	chk := computer.Check{Name: cs.Name, Mnemonic: cs.Mnemonic}
	if len(cs.Values) == checkValues {
		if cs.Values[0] != 0 {
			chk.Flags |= computer.CheckDisabled
		}
		chk.Interval = computer.Turn(cs.Values[1])
	} else {
		c.warn("check values malformed", "mnemonic", cs.Mnemonic, "want", checkValues, "got", len(cs.Values))
	}
	fns := c.functions("check", cs.Mnemonic, cs.Functions, 1)
	chk.Fn = c.checkBehavior(cs.Mnemonic, fns[0])
	chk.Params = c.params("check", cs.Mnemonic, cs.Params)
	return chk
}

func (c *Catalog) buildEvent(es EventSpec) computer.Event {
	ev := computer.Event{Name: es.Name, Mnemonic: es.Mnemonic, Process: es.Process}
	if len(es.Values) == eventValues {
		ev.Kind = computer.EventKind(es.Values[0])
		ev.GameEvent = computer.GameEventKind(es.Values[1])
		ev.TestInterval = computer.Turn(es.Values[2])
	} else {
		c.warn("event values malformed", "mnemonic", es.Mnemonic, "want", eventValues, "got", len(es.Values))
	}
	if ev.Kind != computer.EventOnGameEvent && ev.Kind != computer.EventPeriodic {
		c.warn("unknown event kind", "mnemonic", es.Mnemonic, "kind", int(ev.Kind))
		ev.Kind = computer.EventPeriodic
	}
	fns := c.functions("event", es.Mnemonic, es.Functions, 2)
	ev.Handler = c.eventBehavior(es.Mnemonic, fns[0])
	ev.Test = c.eventTestBehavior(es.Mnemonic, fns[1])
	ev.Params = c.params("event", es.Mnemonic, es.Params)
	return ev
}

// functions pads or truncates a function list to n names.
func (c *Catalog) functions(kind, mnemonic string, names []string, n int) []string {
	if len(names) > n {
		c.warn(kind+" has too many functions", "mnemonic", mnemonic, "want", n, "got", len(names))
	}
	out := make([]string, n)
	copy(out, names)
	return out
}

func (c *Catalog) params(kind, mnemonic string, values []int) [4]int {
	var out [4]int
	if len(values) > len(out) {
		c.warn(kind+" has too many params", "mnemonic", mnemonic, "got", len(values))
	}
	copy(out[:], values)
	return out
}

func (c *Catalog) processBehavior(mnemonic, name string) computer.ProcessBehavior {
	if script.IsScript(name) {
		b, err := c.scripts.Process(name)
		if err != nil {
			c.warn("process script unavailable", "mnemonic", mnemonic, "function", name, "err", err)
		}
		return b
	}
	b, ok := computer.LookupProcess(name)
	if !ok {
		c.warn("unknown process function", "mnemonic", mnemonic, "function", name)
	}
	return b
}

func (c *Catalog) checkBehavior(mnemonic, name string) computer.CheckBehavior {
	if script.IsScript(name) {
		b, err := c.scripts.Check(name)
		if err != nil {
			c.warn("check script unavailable", "mnemonic", mnemonic, "function", name, "err", err)
		}
		return b
	}
	b, ok := computer.LookupCheck(name)
	if !ok {
		c.warn("unknown check function", "mnemonic", mnemonic, "function", name)
	}
	return b
}

func (c *Catalog) eventBehavior(mnemonic, name string) computer.EventBehavior {
	if script.IsScript(name) {
		b, err := c.scripts.Event(name)
		if err != nil {
			c.warn("event script unavailable", "mnemonic", mnemonic, "function", name, "err", err)
		}
		return b
	}
	b, ok := computer.LookupEvent(name)
	if !ok {
		c.warn("unknown event function", "mnemonic", mnemonic, "function", name)
	}
	return b
}

func (c *Catalog) eventTestBehavior(mnemonic, name string) computer.EventTestBehavior {
	if script.IsScript(name) {
		b, err := c.scripts.EventTest(name)
		if err != nil {
			c.warn("event test script unavailable", "mnemonic", mnemonic, "function", name, "err", err)
		}
		return b
	}
	b, ok := computer.LookupEventTest(name)
	if !ok {
		c.warn("unknown event test function", "mnemonic", mnemonic, "function", name)
	}
	return b
}
