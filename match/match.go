package match

import (
	"fmt"
	"log/slog"

	"github.com/milk9111/keeperai/catalog"
	"github.com/milk9111/keeperai/computer"
	"github.com/milk9111/keeperai/sandbox"
	"github.com/milk9111/keeperai/script"
)

// Config wires a sandbox world to the AI players of a catalog.
type Config struct {
	Sandbox sandbox.Config
	// Dir holds configuration and scripts overriding the embedded ones.
	Dir  string
	File string

	SurveyInterval computer.Turn
	Trace          func(computer.TraceEntry)
	Logger         *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		Sandbox:        sandbox.DefaultConfig(),
		File:           catalog.DefaultFile,
		SurveyInterval: computer.DefaultSurveyInterval,
	}
}

// Match runs a sandbox world with its computer players.
type Match struct {
	cfg     Config
	log     *slog.Logger
	scripts *script.Runtime

	World   *sandbox.World
	Catalog *catalog.Catalog
	Manager *computer.Manager
}

func New(cfg Config) (*Match, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	if cfg.File == "" {
		cfg.File = catalog.DefaultFile
	}
	if cfg.Sandbox.Logger == nil {
		cfg.Sandbox.Logger = log
	}

	m := &Match{
		cfg:     cfg,
		log:     log,
		scripts: script.NewRuntime(cfg.Dir, log),
	}
	cat, err := m.loadCatalog()
	if err != nil {
		return nil, err
	}
	m.Catalog = cat
	m.World = sandbox.New(cfg.Sandbox)
	m.Manager = m.newManager(cat)
	if err := m.Manager.Setup(); err != nil {
		return nil, fmt.Errorf("match: setup: %w", err)
	}
	return m, nil
}

func (m *Match) loadCatalog() (*catalog.Catalog, error) {
	cat, err := catalog.New(m.cfg.File,
		catalog.WithDir(m.cfg.Dir),
		catalog.WithLogger(m.log),
		catalog.WithScripts(m.scripts))
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}
	return cat, nil
}

func (m *Match) newManager(cat *catalog.Catalog) *computer.Manager {
	opts := []computer.Option{
		computer.WithLogger(m.log),
		computer.WithSeed(m.cfg.Sandbox.Seed),
	}
	if m.cfg.SurveyInterval > 0 {
		opts = append(opts, computer.WithSurveyInterval(m.cfg.SurveyInterval))
	}
	if m.cfg.Trace != nil {
		opts = append(opts, computer.WithTrace(m.cfg.Trace))
	}
	return computer.NewManager(m.World, cat, opts...)
}

// Step advances the world one turn, then lets the computer players act on it.
func (m *Match) Step() {
	m.World.Step()
	m.Manager.ProcessTurn()
}

// Run advances the match by n turns.
func (m *Match) Run(n int) {
	for range n {
		m.Step()
	}
}

// Reload rebuilds the catalog from disk and moves the running AI state onto
// it. Callbacks are rebound by slot and mnemonic; on error the old catalog
// stays in use.
func (m *Match) Reload() error {
	m.scripts.Reset()
	cat, err := m.loadCatalog()
	if err != nil {
		return err
	}
	snap, err := m.Manager.Snapshot()
	if err != nil {
		return fmt.Errorf("match: reload: %w", err)
	}
	mgr := m.newManager(cat)
	if err := mgr.Restore(snap); err != nil {
		return fmt.Errorf("match: reload: %w", err)
	}
	m.Catalog = cat
	m.Manager = mgr
	m.log.Info("catalog reloaded", "turn", int64(m.World.Turn()), "warnings", len(cat.Warnings()))
	return nil
}
