package computer

import "log/slog"

// DefaultSurveyInterval is the minimum number of turns between map surveys.
const DefaultSurveyInterval Turn = 5000

// Manager owns the AI instances of one match and drives them each turn.
type Manager struct {
	world   World
	catalog Catalog
	log     *slog.Logger
	seed    uint64
	trace   func(TraceEntry)

	computers []*Computer

	surveyInterval Turn
	lastSurvey     Turn
	surveyed       bool
}

type Option func(*Manager)

// WithLogger sets the logger used by the manager and its instances.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithSeed sets the match seed of the deterministic generators.
func WithSeed(seed uint64) Option {
	return func(m *Manager) { m.seed = seed }
}

// WithTrace installs a hook receiving every callback invocation.
func WithTrace(fn func(TraceEntry)) Option {
	return func(m *Manager) { m.trace = fn }
}

func WithSurveyInterval(t Turn) Option {
	return func(m *Manager) { m.surveyInterval = t }
}

func NewManager(world World, catalog Catalog, opts ...Option) *Manager {
	m := &Manager{
		world:          world,
		catalog:        catalog,
		log:            slog.Default(),
		surveyInterval: DefaultSurveyInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Computer returns the instance of a player.
func (m *Manager) Computer(id PlayerID) (*Computer, bool) {
	if int(id) < 0 || int(id) >= len(m.computers) || m.computers[id] == nil {
		return nil, false
	}
	return m.computers[id], true
}

// Each calls fn for every registered instance in player order.
func (m *Manager) Each(fn func(*Computer)) {
	for _, c := range m.computers {
		if c != nil {
			fn(c)
		}
	}
}

// Remove tears down a player's instance. It must be called between turns.
func (m *Manager) Remove(id PlayerID) {
	c, ok := m.Computer(id)
	if !ok {
		return
	}
	if tasks := c.tasks(); tasks != nil {
		tasks.RemoveTasks(id)
	}
	m.computers[id] = nil
	m.log.Info("computer player removed", "player", int(id))
}

// LastSurvey returns the turn of the last map survey and whether one ran.
func (m *Manager) LastSurvey() (Turn, bool) {
	return m.lastSurvey, m.surveyed
}

// ProcessTurn advances every AI player by one turn in player order, then
// runs at most one map survey for all players that asked for one.
func (m *Manager) ProcessTurn() {
	turn := m.world.Turn()
	wantSurvey := false
	for id, c := range m.computers {
		if c == nil {
			continue
		}
		info, ok := m.world.Player(PlayerID(id))
		if !ok || !info.Active || !info.Computer {
			continue
		}
		if !m.processComputer(c, turn) {
			continue
		}
		if c.demandsSurvey() {
			wantSurvey = true
		}
	}
	if wantSurvey {
		m.runSurvey(turn)
	}
}

func (m *Manager) processComputer(c *Computer, turn Turn) bool {
	if c.dungeon == nil {
		c.dungeon = m.world.Dungeon(c.Player)
		if c.dungeon == nil {
			c.log.Error("computer player has invalid dungeon")
			return false
		}
	}
	if c.Values.ProcessesEnabled == 0 || c.Values.TurnBegin > turn {
		return false
	}
	c.turn = turn
	c.rng = NewRand(m.seed, turn, c.Player)
	c.Budget = 1

	c.dispatchEvents(turn, m.world.PendingEvents(c.Player))
	c.pollChecks(turn)
	c.advanceScheduler(turn)

	if c.Budget < 0 {
		c.log.Error("computer player performed more actions than allowed", "budget", c.Budget)
	}
	return true
}

func (m *Manager) runSurvey(turn Turn) {
	if m.lastSurvey > turn {
		m.lastSurvey = 0
	}
	if m.surveyed && m.lastSurvey+m.surveyInterval >= turn {
		return
	}
	for _, c := range m.computers {
		if c != nil {
			c.clearSurveyDemand()
		}
	}
	m.lastSurvey = turn
	m.surveyed = true
	m.log.Debug("surveying map", "turn", int64(turn))
	m.world.SurveyMap()
}
