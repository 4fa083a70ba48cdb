package main

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/milk9111/keeperai/computer"
	"github.com/milk9111/keeperai/match"
)

func main() {
	turns := flag.Int("turns", 5000, "number of turns to simulate")
	seed := flag.Uint64("seed", 1, "match seed")
	dir := flag.String("config", "", "directory overriding the embedded configuration and scripts")
	models := flag.String("models", "0,1,2,-1", "archetype per player slot; 0 is human, negative picks a skirmish archetype")
	threat := flag.Int("threat", -1, "raid chance per turn in 1/10000 (-1 keeps the default)")
	digest := flag.Bool("digest", false, "print only the SHA-256 of the trace")
	verify := flag.Bool("verify", false, "run the match twice and fail unless both traces match")
	snapshot := flag.String("snapshot", "", "write the AI snapshot to this file after the run")
	verbose := flag.Bool("v", false, "log at debug level to stderr")
	behaviors := flag.Bool("behaviors", false, "list the built-in behavior names and exit")
	flag.Parse()

	if *behaviors {
		listBehaviors(os.Stdout)
		return
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := match.DefaultConfig()
	cfg.Sandbox.Seed = *seed
	cfg.Dir = *dir
	cfg.Logger = logger
	if *threat >= 0 {
		cfg.Sandbox.ThreatChance = *threat
	}
	parsed, err := parseModels(*models)
	if err != nil {
		log.Fatal(err)
	}
	cfg.Sandbox.Models = parsed

	sum, m, err := run(cfg, *turns, traceWriter(*digest))
	if err != nil {
		log.Fatal(err)
	}
	if *digest {
		fmt.Println(sum)
	}

	if *verify {
		again, _, err := run(cfg, *turns, traceWriter(true))
		if err != nil {
			log.Fatal(err)
		}
		if again != sum {
			log.Fatalf("trace mismatch: %s != %s", sum, again)
		}
		fmt.Fprintln(os.Stderr, "traces match")
	}

	if *snapshot != "" {
		data, err := m.Manager.Snapshot()
		if err != nil {
			log.Fatal(err)
		}
		if err := os.WriteFile(*snapshot, data, 0o644); err != nil {
			log.Fatal(err)
		}
	}
}

// traceWriter returns where trace lines go besides the digest.
func traceWriter(quiet bool) io.Writer {
	if quiet {
		return io.Discard
	}
	return os.Stdout
}

// run plays a match and returns the hex digest of its trace.
func run(cfg match.Config, turns int, out io.Writer) (string, *match.Match, error) {
	h := sha256.New()
	buf := bufio.NewWriter(out)
	defer buf.Flush()

	cfg.Trace = func(e computer.TraceEntry) {
		line := e.String() + "\n"
		_, _ = io.WriteString(h, line)
		_, _ = buf.WriteString(line)
	}
	m, err := match.New(cfg)
	if err != nil {
		return "", nil, err
	}
	for _, w := range m.Catalog.Warnings() {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	m.Run(turns)
	return hex.EncodeToString(h.Sum(nil)), m, nil
}

func listBehaviors(w io.Writer) {
	names := computer.BehaviorNames()
	for _, kind := range []string{"process", "check", "event", "event_test"} {
		fmt.Fprintf(w, "%s:\n", kind)
		for _, n := range names[kind] {
			fmt.Fprintf(w, "  %s\n", n)
		}
	}
}

func parseModels(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad model %q: %w", part, err)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no player slots in %q", s)
	}
	return out, nil
}
