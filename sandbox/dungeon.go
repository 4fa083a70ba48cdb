package sandbox

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/keeperai/computer"
)

// Per-slab capacities of the rooms whose fill level matters to the AI.
const (
	treasuryGoldPerSlab = 250
	lairSlotsPerSlab    = 1
	heartHealth         = 100
)

type creature struct {
	id        int
	digger    bool
	fighting  bool
	health    int
	maxHealth int
	body      *cp.Body
	dest      cp.Vector
	moving    bool
	task      computer.TaskID

	// fightUntil ends a skirmish of a creature without a task.
	fightUntil computer.Turn
}

func (cr *creature) info() computer.Creature {
	pos := cr.body.Position()
	return computer.Creature{
		ID:        cr.id,
		Digger:    cr.digger,
		Fighting:  cr.fighting,
		Health:    cr.health,
		MaxHealth: cr.maxHealth,
		X:         int(pos.X),
		Y:         int(pos.Y),
	}
}

// Dungeon is one player's holdings in the sandbox.
type Dungeon struct {
	w     *World
	owner computer.PlayerID

	heart     int
	heartX    int
	heartY    int
	gold      int
	knownGold int
	// free is the number of claimed but unbuilt slabs.
	free int

	rooms     []computer.Room
	creatures []*creature
	slapUntil computer.Turn
}

func (d *Dungeon) Owner() computer.PlayerID { return d.owner }
func (d *Dungeon) HasHeart() bool           { return d.heart > 0 }
func (d *Dungeon) Gold() int                { return d.gold }
func (d *Dungeon) KnownGold() int           { return d.knownGold }

// Heart returns the position and remaining health of the dungeon heart.
func (d *Dungeon) Heart() (x, y, health int) { return d.heartX, d.heartY, d.heart }

// FreeSlabs returns the claimed area not yet built on.
func (d *Dungeon) FreeSlabs() int { return d.free }

// RoomAvailable reports whether a room kind can be built. The advanced rooms
// are researched after LateRoomsTurn.
func (d *Dungeon) RoomAvailable(kind computer.RoomKind) computer.Availability {
	switch kind {
	case computer.RoomNone, computer.RoomHeart, computer.RoomEntrance:
		return computer.AvailNever
	case computer.RoomTreasury, computer.RoomLair, computer.RoomHatchery,
		computer.RoomTraining, computer.RoomLibrary:
		return computer.AvailNow
	}
	if d.w.turn >= d.w.cfg.LateRoomsTurn {
		return computer.AvailNow
	}
	return computer.AvailLater
}

func (d *Dungeon) EachRoom(fn func(computer.Room) bool) {
	for _, r := range d.rooms {
		if !fn(r) {
			return
		}
	}
}

func (d *Dungeon) EachCreature(fn func(computer.Creature) bool) {
	for _, cr := range d.creatures {
		if !fn(cr.info()) {
			return
		}
	}
}

func (d *Dungeon) diggers() int {
	n := 0
	for _, cr := range d.creatures {
		if cr.digger {
			n++
		}
	}
	return n
}

func (d *Dungeon) roomCount(kind computer.RoomKind) int {
	n := 0
	for _, r := range d.rooms {
		if r.Kind == kind {
			n++
		}
	}
	return n
}

func (d *Dungeon) addRoom(kind computer.RoomKind, slabs int) computer.Room {
	d.w.nextRoom++
	r := computer.Room{
		ID:    d.w.nextRoom,
		Kind:  kind,
		Slabs: slabs,
		X:     d.heartX + (len(d.rooms)%4)*3 - 4,
		Y:     d.heartY + (len(d.rooms)/4)*3 - 4,
	}
	switch kind {
	case computer.RoomTreasury:
		r.Capacity = slabs * treasuryGoldPerSlab
	case computer.RoomLair:
		r.Capacity = slabs * lairSlotsPerSlab
	default:
		r.Capacity = slabs
	}
	d.rooms = append(d.rooms, r)
	d.refreshRooms()
	return r
}

func (d *Dungeon) removeRoom(id int) (computer.Room, bool) {
	for i, r := range d.rooms {
		if r.ID == id {
			d.rooms = append(d.rooms[:i], d.rooms[i+1:]...)
			d.free += r.Slabs
			d.refreshRooms()
			return r, true
		}
	}
	return computer.Room{}, false
}

// refreshRooms spreads the gold over treasuries and the creatures over lairs.
func (d *Dungeon) refreshRooms() {
	gold := d.gold
	sleepers := len(d.creatures) - d.diggers()
	for i := range d.rooms {
		r := &d.rooms[i]
		switch r.Kind {
		case computer.RoomTreasury:
			r.Used = min(gold, r.Capacity)
			gold -= r.Used
		case computer.RoomLair:
			r.Used = min(sleepers, r.Capacity)
			sleepers -= r.Used
		}
	}
}

func (d *Dungeon) addCreature(digger bool) *creature {
	d.w.nextCreature++
	hp := 40
	if digger {
		hp = 10
	}
	n := len(d.creatures)
	cr := &creature{
		id:        d.w.nextCreature,
		digger:    digger,
		health:    hp,
		maxHealth: hp,
		body:      d.w.physics.addBody(float64(d.heartX+n%5-2), float64(d.heartY+n/5%5-2)),
	}
	d.creatures = append(d.creatures, cr)
	d.refreshRooms()
	return cr
}

func (d *Dungeon) removeCreature(id int) {
	for i, cr := range d.creatures {
		if cr.id == id {
			d.w.physics.removeBody(cr.body)
			d.creatures = append(d.creatures[:i], d.creatures[i+1:]...)
			d.refreshRooms()
			return
		}
	}
}

func (d *Dungeon) creature(id int) *creature {
	for _, cr := range d.creatures {
		if cr.id == id {
			return cr
		}
	}
	return nil
}

// digPower is the work done on dig tasks per task pass.
func (d *Dungeon) digPower() int {
	p := max(1, d.diggers())
	if d.w.turn < d.slapUntil {
		p *= 2
	}
	return p
}

// idleFighters returns up to n fighters not assigned to a task.
func (d *Dungeon) idleFighters(n int) []*creature {
	var out []*creature
	for _, cr := range d.creatures {
		if len(out) >= n {
			break
		}
		if !cr.digger && cr.task == 0 {
			out = append(out, cr)
		}
	}
	return out
}

func (d *Dungeon) sendHome(cr *creature) {
	cr.task = 0
	cr.fighting = false
	cr.dest = cp.Vector{X: float64(d.heartX), Y: float64(d.heartY)}
	cr.moving = true
}
