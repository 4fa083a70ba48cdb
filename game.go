package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/keeperai/catalog"
	"github.com/milk9111/keeperai/computer"
	"github.com/milk9111/keeperai/match"
)

const (
	baseWidth  = 1280
	baseHeight = 720

	maxTurnsPerFrame = 64
	recentTrace      = 14
	snapshotFile     = "keeperai-snapshot.yaml"
)

type Game struct {
	frames int

	match   *match.Match
	watcher *catalog.Watcher

	paused        bool
	turnsPerFrame int
	status        string
	recent        []computer.TraceEntry

	pauseUI *ebitenui.UI
}

func NewGame(cfg match.Config, turnsPerFrame int) (*Game, error) {
	g := &Game{turnsPerFrame: max(1, turnsPerFrame)}

	cfg.Trace = g.record
	m, err := match.New(cfg)
	if err != nil {
		return nil, err
	}
	g.match = m
	for _, w := range m.Catalog.Warnings() {
		log.Printf("catalog warning: %s", w)
	}

	if cfg.Dir != "" {
		w, err := catalog.Watch(cfg.Dir)
		if err != nil {
			log.Printf("not watching %s: %v", cfg.Dir, err)
		} else {
			g.watcher = w
		}
	}

	g.pauseUI = NewPauseUI(g)
	return g, nil
}

func (g *Game) record(e computer.TraceEntry) {
	if e.Kind == computer.TraceSchedulerState {
		return
	}
	g.recent = append(g.recent, e)
	if len(g.recent) > recentTrace {
		g.recent = g.recent[len(g.recent)-recentTrace:]
	}
}

func (g *Game) Update() error {
	g.frames++
	g.pollWatcher()

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) {
		g.turnsPerFrame = min(maxTurnsPerFrame, g.turnsPerFrame*2)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) {
		g.turnsPerFrame = max(1, g.turnsPerFrame/2)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.reload("manual")
	}

	if g.paused {
		if inpututil.IsKeyJustPressed(ebiten.KeyPeriod) {
			g.match.Step()
		}
		g.pauseUI.Update()
		return nil
	}

	g.match.Run(g.turnsPerFrame)
	return nil
}

func (g *Game) pollWatcher() {
	if g.watcher == nil {
		return
	}
	select {
	case path, ok := <-g.watcher.Changed:
		if ok {
			g.reload(path)
		}
	case err, ok := <-g.watcher.Errors:
		if ok {
			log.Printf("config watcher: %v", err)
		}
	default:
	}
}

func (g *Game) reload(reason string) {
	if err := g.match.Reload(); err != nil {
		g.status = fmt.Sprintf("reload failed: %v", err)
		log.Print(g.status)
		return
	}
	g.status = fmt.Sprintf("reloaded (%s) at turn %d, %d warnings", reason, g.match.World.Turn(), len(g.match.Catalog.Warnings()))
}

func (g *Game) saveSnapshot() {
	data, err := g.match.Manager.Snapshot()
	if err == nil {
		err = os.WriteFile(snapshotFile, data, 0o644)
	}
	if err != nil {
		g.status = fmt.Sprintf("snapshot failed: %v", err)
		return
	}
	g.status = fmt.Sprintf("saved %s at turn %d", snapshotFile, g.match.World.Turn())
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.drawWorld(screen)
	g.drawPanel(screen)
	if g.paused {
		g.pauseUI.Draw(screen)
	}
}

func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return baseWidth, baseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
