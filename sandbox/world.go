package sandbox

import (
	"log/slog"
	"math/rand/v2"

	"github.com/milk9111/keeperai/computer"
)

// Config describes a sandbox match.
type Config struct {
	// Models holds the archetype of every player slot. Zero marks a human
	// slot; negative picks a skirmish archetype.
	Models []int
	Seed   uint64
	// Gold, Slabs, Diggers and Fighters describe each starting dungeon.
	Gold     int
	Slabs    int
	Diggers  int
	Fighters int
	// Seams is the number of gold seams near each dungeon.
	Seams         int
	LateRoomsTurn computer.Turn
	PaydayEvery   computer.Turn
	EntranceEvery computer.Turn
	// ThreatChance is the per-turn chance, in 1/10000, of a raid on a random player.
	ThreatChance int
	Logger       *slog.Logger
}

// DefaultConfig is a four player match with three computer players.
func DefaultConfig() Config {
	return Config{
		Models:        []int{0, 1, 2, -1},
		Seed:          1,
		Gold:          2500,
		Slabs:         160,
		Diggers:       4,
		Fighters:      3,
		Seams:         6,
		LateRoomsTurn: 3000,
		PaydayEvery:   1200,
		EntranceEvery: 300,
		ThreatChance:  40,
	}
}

// Map size in cells.
const (
	MapWidth  = 96
	MapHeight = 96
)

// World is a deterministic in-memory game implementing computer.World.
type World struct {
	cfg      Config
	log      *slog.Logger
	turn     computer.Turn
	rng      *rand.Rand
	players  []computer.PlayerInfo
	dungeons []*Dungeon
	events   []EventQueue
	seams    []int
	tasks    *Tasks
	physics  *physics
	surveys  int

	nextRoom     int
	nextCreature int
}

// New builds the world of a match. Every player starts with a heart, gold
// and a few creatures; the dungeons sit in the corners of the map.
func New(cfg Config) *World {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	w := &World{
		cfg:     cfg,
		log:     log,
		rng:     rand.New(rand.NewPCG(cfg.Seed, 0x5eed)),
		physics: newPhysics(),
	}
	w.tasks = &Tasks{w: w}

	for i, model := range cfg.Models {
		id := computer.PlayerID(i)
		w.players = append(w.players, computer.PlayerInfo{ID: id, Active: true, Computer: model != 0, Model: model})
		d := &Dungeon{
			w:      w,
			owner:  id,
			heart:  heartHealth,
			heartX: 16 + (i%2)*(MapWidth-32),
			heartY: 16 + (i/2%2)*(MapHeight-32),
			gold:   cfg.Gold,
			free:   cfg.Slabs,
		}
		w.dungeons = append(w.dungeons, d)
		w.seams = append(w.seams, cfg.Seams)
		for n := 0; n < cfg.Diggers; n++ {
			d.addCreature(true)
		}
		for n := 0; n < cfg.Fighters; n++ {
			d.addCreature(false)
		}
	}
	w.events = make([]EventQueue, len(w.players))
	return w
}

func (w *World) Turn() computer.Turn { return w.turn }
func (w *World) PlayerCount() int    { return len(w.players) }
func (w *World) Tasks() computer.TaskQueue {
	return w.tasks
}

// TaskList returns the concrete task subsystem.
func (w *World) TaskList() *Tasks { return w.tasks }

// Surveys returns how many map surveys ran.
func (w *World) Surveys() int { return w.surveys }

func (w *World) Player(id computer.PlayerID) (computer.PlayerInfo, bool) {
	if int(id) < 0 || int(id) >= len(w.players) {
		return computer.PlayerInfo{}, false
	}
	return w.players[id], true
}

func (w *World) Dungeon(id computer.PlayerID) computer.Dungeon {
	if d := w.dungeon(id); d != nil {
		return d
	}
	return nil
}

// DungeonOf returns the concrete dungeon of a player.
func (w *World) DungeonOf(id computer.PlayerID) (*Dungeon, bool) {
	d := w.dungeon(id)
	return d, d != nil
}

func (w *World) dungeon(id computer.PlayerID) *Dungeon {
	if int(id) < 0 || int(id) >= len(w.dungeons) {
		return nil
	}
	return w.dungeons[id]
}

func (w *World) PendingEvents(id computer.PlayerID) []computer.GameEvent {
	if int(id) < 0 || int(id) >= len(w.events) {
		return nil
	}
	return w.events[id].Drain()
}

// Push queues a game event for a player.
func (w *World) Push(id computer.PlayerID, ev computer.GameEvent) {
	if int(id) < 0 || int(id) >= len(w.events) {
		return
	}
	ev.Owner = id
	if ev.Turn == 0 {
		ev.Turn = w.turn
	}
	w.events[id].Push(ev)
}

func (w *World) Opponents(id computer.PlayerID) []computer.PlayerID {
	var out []computer.PlayerID
	for _, p := range w.players {
		if p.ID != id && p.Active {
			out = append(out, p.ID)
		}
	}
	return out
}

// SurveyMap reveals the gold seams of every dungeon.
func (w *World) SurveyMap() {
	w.surveys++
	for i, d := range w.dungeons {
		d.knownGold = w.seams[i]
	}
	w.log.Debug("map surveyed", "turn", int64(w.turn))
}

func (w *World) defeat(id computer.PlayerID) {
	if int(id) < 0 || int(id) >= len(w.players) || !w.players[id].Active {
		return
	}
	w.players[id].Active = false
	w.dungeons[id].heart = 0
	w.tasks.RemoveTasks(id)
	w.log.Info("player defeated", "player", int(id), "turn", int64(w.turn))
}

// Step advances the world to the next turn: creatures move, income and
// wages are paid, entrances attract creatures and raids are rolled. Events
// nobody drained by the end of the previous turn expire.
func (w *World) Step() {
	w.turn++
	for i := range w.events {
		w.events[i].DropBefore(w.turn - 1)
	}

	for _, d := range w.dungeons {
		for _, cr := range d.creatures {
			if cr.fighting && cr.task == 0 && w.turn >= cr.fightUntil {
				cr.fighting = false
			}
			if cr.moving && steer(cr.body, cr.dest) {
				cr.moving = false
				if cr.task != 0 {
					cr.fighting = true
				}
			}
		}
	}
	w.physics.step()

	for i, d := range w.dungeons {
		id := computer.PlayerID(i)
		if !w.players[i].Active {
			continue
		}
		if w.turn%10 == 0 && d.knownGold > 0 {
			d.gold += d.diggers()
		}
		if w.cfg.PaydayEvery > 0 && w.turn%w.cfg.PaydayEvery == 0 {
			wages := 10 * (len(d.creatures) - d.diggers())
			d.gold = max(0, d.gold-wages)
			w.Push(id, computer.GameEvent{Kind: computer.GameEventPayday, Target: wages})
		}
		if w.cfg.EntranceEvery > 0 && w.turn%w.cfg.EntranceEvery == 0 && d.roomCount(computer.RoomEntrance) > 0 {
			lair := 0
			for _, r := range d.rooms {
				if r.Kind == computer.RoomLair {
					lair += r.Capacity
				}
			}
			if len(d.creatures)-d.diggers() < lair {
				d.addCreature(false)
			}
		}
		d.refreshRooms()
	}

	if w.cfg.ThreatChance > 0 && w.rng.IntN(10000) < w.cfg.ThreatChance {
		w.raid()
	}
}

// raid attacks a random active player near its heart.
func (w *World) raid() {
	id := computer.PlayerID(w.rng.IntN(len(w.players)))
	if !w.players[id].Active {
		return
	}
	d := w.dungeons[id]
	x := d.heartX + w.rng.IntN(9) - 4
	y := d.heartY + w.rng.IntN(9) - 4
	kind := computer.GameEventFight
	if w.rng.IntN(4) == 0 {
		kind = computer.GameEventDoorAttacked
	}
	for _, cr := range d.creatures {
		if !cr.digger && cr.task == 0 {
			cr.fighting = true
			cr.fightUntil = w.turn + 60
			cr.health -= 8
			if cr.health <= 0 {
				d.removeCreature(cr.id)
			}
			break
		}
	}
	if len(d.rooms) > 0 && w.rng.IntN(8) == 0 {
		r := d.rooms[w.rng.IntN(len(d.rooms))]
		if _, ok := d.removeRoom(r.ID); ok {
			w.Push(id, computer.GameEvent{Kind: computer.GameEventRoomLost, Target: int(r.Kind), X: r.X, Y: r.Y})
		}
	}
	w.Push(id, computer.GameEvent{Kind: kind, X: x, Y: y})
}
