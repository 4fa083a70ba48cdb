package sandbox

import (
	"fmt"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/keeperai/computer"
)

// Work units of the dig tasks, done at Dungeon.digPower per pass.
const (
	workPerRoomSlab  = 3
	workDigToGold    = 24
	workDigEntrance  = 40
	workDigToNeutral = 16
	goldPerSeam      = 600
	neutralSlabs     = 30
	summonCost       = 150
	sightCost        = 100
	entranceSlabs    = 9
	// Turns a crew may travel before its task is given up.
	maxTravel computer.Turn = 400
)

type task struct {
	id        computer.TaskID
	owner     computer.PlayerID
	req       computer.TaskRequest
	remaining int
	created   computer.Turn
	crew      []int
	dest      cp.Vector
}

// TaskInfo describes a pending task.
type TaskInfo struct {
	ID        computer.TaskID
	Request   computer.TaskRequest
	Remaining int
	Crew      int
}

// Tasks is the sandbox task subsystem. Tasks progress only when
// ProcessTasks is called for their owner.
type Tasks struct {
	w     *World
	next  computer.TaskID
	tasks []*task

	// Removals requested during a pass run once the pass is over.
	busy    bool
	dropped []computer.PlayerID
}

func (q *Tasks) CreateTask(owner computer.PlayerID, req computer.TaskRequest) (computer.TaskID, error) {
	d := q.w.dungeon(owner)
	if d == nil {
		return 0, fmt.Errorf("sandbox: create %s task: no dungeon for player %d", req.Kind, owner)
	}
	t := &task{owner: owner, req: req, created: q.w.turn}

	switch req.Kind {
	case computer.TaskDigRoom:
		slabs := req.Width * req.Height
		if slabs <= 0 || slabs > d.free {
			return 0, computer.ErrNoSpace
		}
		d.free -= slabs
		t.remaining = slabs * workPerRoomSlab
	case computer.TaskDigToGold:
		t.remaining = workDigToGold
	case computer.TaskDigToEntrance:
		if d.free < entranceSlabs {
			return 0, computer.ErrNoSpace
		}
		d.free -= entranceSlabs
		t.remaining = workDigEntrance
	case computer.TaskDigToNeutral:
		t.remaining = workDigToNeutral
	case computer.TaskPickupForAttack:
		target := q.w.dungeon(computer.PlayerID(req.Target))
		if target == nil || !target.HasHeart() {
			return 0, fmt.Errorf("sandbox: attack player %d: no target", req.Target)
		}
		t.dest = cp.Vector{X: float64(target.heartX), Y: float64(target.heartY)}
		if !q.assignCrew(d, t, max(1, req.Amount)) {
			return 0, fmt.Errorf("sandbox: attack player %d: no idle fighters", req.Target)
		}
	case computer.TaskDefend:
		t.dest = cp.Vector{X: float64(req.X), Y: float64(req.Y)}
		if !q.assignCrew(d, t, max(1, req.Amount)) {
			return 0, fmt.Errorf("sandbox: defend: no idle fighters")
		}
	case computer.TaskSummonDigger, computer.TaskSightOfEvil:
		cost := summonCost
		if req.Kind == computer.TaskSightOfEvil {
			cost = sightCost
		}
		if d.gold < cost {
			return 0, fmt.Errorf("sandbox: %s: %d gold needed", req.Kind, cost)
		}
	case computer.TaskSlapDiggers, computer.TaskSellTraps, computer.TaskMoveGoldToTreasury:
	default:
		return 0, fmt.Errorf("sandbox: unknown task kind %d", int(req.Kind))
	}

	q.next++
	t.id = q.next
	for _, id := range t.crew {
		if cr := d.creature(id); cr != nil {
			cr.task = t.id
		}
	}
	q.tasks = append(q.tasks, t)
	return t.id, nil
}

func (q *Tasks) assignCrew(d *Dungeon, t *task, n int) bool {
	crew := d.idleFighters(n)
	if len(crew) == 0 {
		return false
	}
	for _, cr := range crew {
		cr.dest = t.dest
		cr.moving = true
		t.crew = append(t.crew, cr.id)
	}
	return true
}

func (q *Tasks) CountTasks(owner computer.PlayerID, kind computer.TaskKind) int {
	n := 0
	for _, t := range q.tasks {
		if t.owner == owner && t.req.Kind == kind {
			n++
		}
	}
	return n
}

func (q *Tasks) HasTasksFor(owner computer.PlayerID, process int) bool {
	if process < 0 {
		return false
	}
	for _, t := range q.tasks {
		if t.owner == owner && t.req.Process == process {
			return true
		}
	}
	return false
}

// ProcessTasks advances the owner's tasks by one pass, in creation order.
func (q *Tasks) ProcessTasks(owner computer.PlayerID) {
	d := q.w.dungeon(owner)
	if d == nil {
		return
	}
	q.busy = true
	kept := q.tasks[:0]
	for _, t := range q.tasks {
		if t.owner != owner || !q.advance(d, t) {
			kept = append(kept, t)
		}
	}
	clear(q.tasks[len(kept):])
	q.tasks = kept
	q.busy = false

	dropped := q.dropped
	q.dropped = nil
	for _, id := range dropped {
		q.RemoveTasks(id)
	}
}

// RemoveTasks drops every task of the owner and releases its crews.
func (q *Tasks) RemoveTasks(owner computer.PlayerID) {
	if q.busy {
		q.dropped = append(q.dropped, owner)
		return
	}
	d := q.w.dungeon(owner)
	kept := q.tasks[:0]
	for _, t := range q.tasks {
		if t.owner != owner {
			kept = append(kept, t)
			continue
		}
		if d != nil {
			q.release(d, t)
		}
	}
	clear(q.tasks[len(kept):])
	q.tasks = kept
}

// Pending lists the owner's tasks in creation order.
func (q *Tasks) Pending(owner computer.PlayerID) []TaskInfo {
	var out []TaskInfo
	for _, t := range q.tasks {
		if t.owner == owner {
			out = append(out, TaskInfo{ID: t.id, Request: t.req, Remaining: t.remaining, Crew: len(t.crew)})
		}
	}
	return out
}

func (q *Tasks) release(d *Dungeon, t *task) {
	for _, id := range t.crew {
		if cr := d.creature(id); cr != nil {
			d.sendHome(cr)
		}
	}
	t.crew = nil
}

// advance does one pass of work and reports whether the task is done.
func (q *Tasks) advance(d *Dungeon, t *task) bool {
	switch t.req.Kind {
	case computer.TaskPickupForAttack, computer.TaskDefend:
		return q.advanceCrew(d, t)
	}
	if t.remaining > 0 {
		t.remaining -= d.digPower()
		if t.remaining > 0 {
			return false
		}
	}
	q.finish(d, t)
	return true
}

func (q *Tasks) advanceCrew(d *Dungeon, t *task) bool {
	arrived := 0
	alive := t.crew[:0]
	for _, id := range t.crew {
		cr := d.creature(id)
		if cr == nil {
			continue
		}
		alive = append(alive, id)
		if !cr.moving {
			arrived++
		}
	}
	t.crew = alive
	if len(t.crew) == 0 {
		return true
	}
	if arrived < len(t.crew) && q.w.turn-t.created < maxTravel {
		return false
	}

	if t.req.Kind == computer.TaskPickupForAttack {
		target := computer.PlayerID(t.req.Target)
		if td := q.w.dungeon(target); td != nil && td.HasHeart() {
			td.heart -= arrived * 5
			q.w.Push(target, computer.GameEvent{Kind: computer.GameEventHeartAttacked, Target: int(d.owner), X: td.heartX, Y: td.heartY})
			q.w.Push(target, computer.GameEvent{Kind: computer.GameEventFight, Target: int(d.owner), X: td.heartX, Y: td.heartY})
			if td.heart <= 0 {
				q.w.defeat(target)
			}
		}
	}
	q.release(d, t)
	return true
}

func (q *Tasks) finish(d *Dungeon, t *task) {
	req := t.req
	switch req.Kind {
	case computer.TaskDigRoom:
		d.addRoom(computer.RoomKind(req.Target), req.Width*req.Height)
	case computer.TaskDigToGold:
		if d.knownGold > 0 {
			d.knownGold--
		}
		if q.w.seams[d.owner] > 0 {
			q.w.seams[d.owner]--
			d.gold += goldPerSeam
		}
	case computer.TaskDigToEntrance:
		d.addRoom(computer.RoomEntrance, entranceSlabs)
	case computer.TaskDigToNeutral:
		d.free += neutralSlabs
	case computer.TaskSummonDigger:
		if d.gold >= summonCost {
			d.gold -= summonCost
			d.addCreature(true)
		}
	case computer.TaskSightOfEvil:
		if d.gold >= sightCost {
			d.gold -= sightCost
			if q.w.rng.IntN(3) == 0 {
				q.w.seams[d.owner]++
			}
		}
	case computer.TaskSlapDiggers:
		d.slapUntil = q.w.turn + 50
		for _, cr := range d.creatures {
			if cr.digger && cr.health > 1 {
				cr.health--
			}
		}
	case computer.TaskSellTraps:
		d.gold += min(max(req.Amount, 0), 200)
	case computer.TaskMoveGoldToTreasury:
		// Gold already sits in treasuries; hauling only refreshes the fill.
	}
	d.refreshRooms()
}
