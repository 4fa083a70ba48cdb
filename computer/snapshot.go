package computer

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Snapshot is the saved runtime state of a match's AI players. Callbacks and
// names are not saved; Restore rebinds them from the catalog.
type Snapshot struct {
	Turn       Turn             `yaml:"turn"`
	LastSurvey Turn             `yaml:"last_survey"`
	Surveyed   bool             `yaml:"surveyed"`
	Computers  []ComputerRecord `yaml:"computers"`
}

type ComputerRecord struct {
	Player       PlayerID        `yaml:"player"`
	Model        int             `yaml:"model"`
	State        State           `yaml:"state"`
	Current      int             `yaml:"current"`
	Countdown    Turn            `yaml:"countdown"`
	SightTargets [SightGrid]int  `yaml:"sight_targets,flow"`
	Processes    []ProcessRecord `yaml:"processes"`
	Checks       []CheckRecord   `yaml:"checks"`
	Events       []EventRecord   `yaml:"events"`
}

type ProcessRecord struct {
	Mnemonic  string       `yaml:"mnemonic"`
	Flags     ProcessFlags `yaml:"flags"`
	Width     int          `yaml:"width"`
	Height    int          `yaml:"height"`
	Target    int          `yaml:"target"`
	LastRun   Turn         `yaml:"last_run"`
	Started   Turn         `yaml:"started"`
	Completed Turn         `yaml:"completed"`
	Failed    Turn         `yaml:"failed"`
	Params    [4]int       `yaml:"params,flow"`
}

type CheckRecord struct {
	Mnemonic string     `yaml:"mnemonic"`
	Flags    CheckFlags `yaml:"flags"`
	LastRun  Turn       `yaml:"last_run"`
	Params   [4]int     `yaml:"params,flow"`
}

type EventRecord struct {
	Mnemonic string `yaml:"mnemonic"`
	LastTest Turn   `yaml:"last_test"`
	Params   [4]int `yaml:"params,flow"`
}

// Snapshot encodes the runtime state of every instance as YAML.
func (m *Manager) Snapshot() ([]byte, error) {
	snap := Snapshot{
		Turn:       m.world.Turn(),
		LastSurvey: m.lastSurvey,
		Surveyed:   m.surveyed,
	}
	m.Each(func(c *Computer) {
		snap.Computers = append(snap.Computers, recordComputer(c))
	})
	data, err := yaml.Marshal(&snap)
	if err != nil {
		return nil, fmt.Errorf("computer: marshal snapshot: %w", err)
	}
	return data, nil
}

func recordComputer(c *Computer) ComputerRecord {
	rec := ComputerRecord{
		Player:    c.Player,
		Model:     c.Model,
		State:     c.State,
		Current:   c.Current,
		Countdown: c.Countdown,
	}
	for i, row := range c.SightTargets {
		rec.SightTargets[i] = int(row)
	}
	for i := 0; i < c.ProcessCount(); i++ {
		p := &c.Processes[i]
		rec.Processes = append(rec.Processes, ProcessRecord{
			Mnemonic:  p.Mnemonic,
			Flags:     p.Flags,
			Width:     p.Width,
			Height:    p.Height,
			Target:    p.Target,
			LastRun:   p.LastRun,
			Started:   p.Started,
			Completed: p.Completed,
			Failed:    p.Failed,
			Params:    p.Params,
		})
	}
	for i := 0; i < c.CheckCount(); i++ {
		chk := &c.Checks[i]
		rec.Checks = append(rec.Checks, CheckRecord{
			Mnemonic: chk.Mnemonic,
			Flags:    chk.Flags,
			LastRun:  chk.LastRun,
			Params:   chk.Params,
		})
	}
	for i := 0; i < c.EventCount(); i++ {
		ev := &c.Events[i]
		rec.Events = append(rec.Events, EventRecord{
			Mnemonic: ev.Mnemonic,
			LastTest: ev.LastTest,
			Params:   ev.Params,
		})
	}
	return rec
}

// Restore replaces the instances with the saved ones. Each instance is
// re-created from its archetype, then the saved runtime fields are applied
// slot by slot. Slots whose mnemonic no longer matches keep template values.
func (m *Manager) Restore(data []byte) error {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("computer: unmarshal snapshot: %w", err)
	}

	restored := make([]*Computer, m.world.PlayerCount())
	for _, rec := range snap.Computers {
		if int(rec.Player) < 0 || int(rec.Player) >= len(restored) {
			return fmt.Errorf("computer: restore player %d: player out of range", rec.Player)
		}
		arch, err := m.catalog.Archetype(rec.Model)
		if err != nil {
			return fmt.Errorf("computer: restore player %d: %w", rec.Player, err)
		}
		c, err := Instantiate(rec.Player, arch, m.log)
		if err != nil {
			return fmt.Errorf("computer: restore player %d: %w", rec.Player, err)
		}
		m.bind(c)
		m.applyRecord(c, rec)
		restored[rec.Player] = c
	}

	m.computers = restored
	m.lastSurvey = snap.LastSurvey
	m.surveyed = snap.Surveyed
	return nil
}

func (m *Manager) applyRecord(c *Computer, rec ComputerRecord) {
	c.State = rec.State
	c.Current = rec.Current
	c.Countdown = rec.Countdown
	for i, row := range rec.SightTargets {
		c.SightTargets[i] = uint8(row)
	}

	for i, pr := range rec.Processes {
		if i >= c.ProcessCount() || c.Processes[i].Mnemonic != pr.Mnemonic {
			c.log.Warn("saved process does not match archetype", "slot", i, "mnemonic", pr.Mnemonic)
			continue
		}
		p := &c.Processes[i]
		p.Flags = pr.Flags &^ ProcTerminal
		p.Width, p.Height, p.Target = pr.Width, pr.Height, pr.Target
		p.LastRun, p.Started, p.Completed, p.Failed = pr.LastRun, pr.Started, pr.Completed, pr.Failed
		p.Params = pr.Params
	}
	for i, cr := range rec.Checks {
		if i >= c.CheckCount() || c.Checks[i].Mnemonic != cr.Mnemonic {
			c.log.Warn("saved check does not match archetype", "slot", i, "mnemonic", cr.Mnemonic)
			continue
		}
		chk := &c.Checks[i]
		chk.Flags = cr.Flags &^ CheckTerminal
		chk.LastRun = cr.LastRun
		chk.Params = cr.Params
	}
	for i, er := range rec.Events {
		if i >= c.EventCount() || c.Events[i].Mnemonic != er.Mnemonic {
			c.log.Warn("saved event does not match archetype", "slot", i, "mnemonic", er.Mnemonic)
			continue
		}
		c.Events[i].LastTest = er.LastTest
		c.Events[i].Params = er.Params
	}

	if c.State == Running && (!c.validProcess(c.Current) || c.Processes[c.Current].Flags&ProcRunning == 0) {
		c.log.Error("saved running process is invalid", "process", c.Current)
		c.Current = -1
		c.State = Resting
	}
}
