package computer

import (
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrUnknownArchetype is returned when an archetype id is not in the catalog.
	ErrUnknownArchetype = errors.New("unknown archetype")
	// ErrNoSuchProcess is returned when a mnemonic names no process of the instance.
	ErrNoSuchProcess = errors.New("no such process")
)

// Catalog provides archetypes to instantiate.
type Catalog interface {
	// Archetype returns an independent copy of the archetype, or an error
	// wrapping ErrUnknownArchetype.
	Archetype(id int) (Archetype, error)
	SkirmishRange() (first, last int)
}

// Instantiate builds a Computer for the player from an archetype. Templates
// are copied by value; the slot after the last copied item of each kind is
// marked terminal.
func Instantiate(player PlayerID, arch Archetype, log *slog.Logger) (*Computer, error) {
	if len(arch.Processes) >= ProcessesCount {
		return nil, fmt.Errorf("computer: archetype %d: %d processes exceed capacity %d", arch.ID, len(arch.Processes), ProcessesCount-1)
	}
	if len(arch.Checks) >= ChecksCount {
		return nil, fmt.Errorf("computer: archetype %d: %d checks exceed capacity %d", arch.ID, len(arch.Checks), ChecksCount-1)
	}
	if len(arch.Events) >= EventsCount {
		return nil, fmt.Errorf("computer: archetype %d: %d events exceed capacity %d", arch.ID, len(arch.Events), EventsCount-1)
	}
	if log == nil {
		log = slog.Default()
	}

	c := &Computer{
		Player:  player,
		Model:   arch.ID,
		Values:  arch.Values,
		State:   NeedsSelection,
		Current: -1,
		log:     log.With("player", int(player)),
	}
	c.Countdown = c.Values.RestTurns

	for i, tmpl := range arch.Processes {
		p := tmpl
		if p.Parent == "" {
			p.Parent = tmpl.Mnemonic
		}
		p.Flags &^= ProcTerminal | ProcRunning
		p.LastRun, p.Started, p.Completed, p.Failed = 0, 0, 0, 0
		c.Processes[i] = p
	}
	c.Processes[len(arch.Processes)] = Process{Flags: ProcTerminal}

	for i, tmpl := range arch.Checks {
		chk := tmpl
		chk.Flags &^= CheckTerminal
		chk.LastRun = 0
		c.Checks[i] = chk
	}
	c.Checks[len(arch.Checks)] = Check{Flags: CheckTerminal}

	for i, tmpl := range arch.Events {
		ev := tmpl
		ev.Flags &^= EventTerminal
		ev.LastTest = 0
		c.Events[i] = ev
	}
	c.Events[len(arch.Events)] = Event{Flags: EventTerminal}

	return c, nil
}

// Setup instantiates every computer-controlled player of the world. Players
// with a negative model get an archetype picked from the catalog's skirmish
// range with the match generator.
func (m *Manager) Setup() error {
	count := m.world.PlayerCount()
	m.computers = make([]*Computer, count)
	m.surveyed = false
	m.lastSurvey = 0

	rng := NewRand(m.seed, 0, 0)
	first, last := m.catalog.SkirmishRange()
	for id := 0; id < count; id++ {
		info, ok := m.world.Player(PlayerID(id))
		if !ok || !info.Computer {
			continue
		}
		model := info.Model
		if model < 0 {
			model = first
			if last > first {
				model = first + rng.IntN(last-first+1)
			}
		}
		if _, err := m.SetupPlayer(PlayerID(id), model); err != nil {
			return err
		}
	}
	return nil
}

// SetupPlayer instantiates one player's AI from the archetype and registers it.
func (m *Manager) SetupPlayer(player PlayerID, model int) (*Computer, error) {
	if int(player) < 0 || int(player) >= m.world.PlayerCount() {
		return nil, fmt.Errorf("computer: setup player %d: player out of range", player)
	}
	arch, err := m.catalog.Archetype(model)
	if err != nil {
		return nil, fmt.Errorf("computer: setup player %d: %w", player, err)
	}
	c, err := Instantiate(player, arch, m.log)
	if err != nil {
		return nil, fmt.Errorf("computer: setup player %d: %w", player, err)
	}
	m.bind(c)
	if len(m.computers) < m.world.PlayerCount() {
		grown := make([]*Computer, m.world.PlayerCount())
		copy(grown, m.computers)
		m.computers = grown
	}
	m.computers[player] = c
	m.log.Info("computer player set up", "player", int(player), "model", model, "name", arch.Name,
		"processes", len(arch.Processes), "checks", len(arch.Checks), "events", len(arch.Events))
	return c, nil
}

func (m *Manager) bind(c *Computer) {
	c.world = m.world
	c.dungeon = m.world.Dungeon(c.Player)
	c.trace = m.trace
}
