package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/keeperai/match"
)

func main() {
	seed := flag.Uint64("seed", 1, "match seed")
	configDir := flag.String("config", "", "directory overriding the embedded configuration and scripts; watched for changes")
	tps := flag.Int("tps", 30, "simulation frames per second")
	speed := flag.Int("speed", 1, "turns simulated per frame")
	threat := flag.Int("threat", -1, "raid chance per turn in 1/10000 (-1 keeps the default)")
	debug := flag.Bool("debug", false, "log AI decisions at debug level")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := match.DefaultConfig()
	cfg.Sandbox.Seed = *seed
	cfg.Dir = *configDir
	cfg.Logger = logger
	if *threat >= 0 {
		cfg.Sandbox.ThreatChance = *threat
	}

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("keeperai")
	ebiten.SetTPS(*tps)

	game, err := NewGame(cfg, *speed)
	if err != nil {
		log.Fatal(err)
	}
	defer game.Close()

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
