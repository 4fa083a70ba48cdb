package sandbox

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/milk9111/keeperai/computer"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Models = []int{1, 2}
	cfg.ThreatChance = 0
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return cfg
}

func runTasks(w *World, owner computer.PlayerID, passes int) {
	for i := 0; i < passes; i++ {
		w.TaskList().ProcessTasks(owner)
	}
}

func TestEventQueueDrain(t *testing.T) {
	var q EventQueue
	q.Push(computer.GameEvent{Kind: computer.GameEventFight})
	q.Push(computer.GameEvent{Kind: computer.GameEventPayday})
	if q.Len() != 2 {
		t.Fatalf("expected 2 events, got %d", q.Len())
	}
	out := q.Drain()
	if len(out) != 2 || out[0].Kind != computer.GameEventFight || out[1].Kind != computer.GameEventPayday {
		t.Fatalf("expected events in push order, got %+v", out)
	}
	if q.Len() != 0 || q.Drain() != nil {
		t.Fatalf("expected an empty queue after drain")
	}

	var nilQueue *EventQueue
	nilQueue.Push(computer.GameEvent{})
	if nilQueue.Len() != 0 || nilQueue.Drain() != nil {
		t.Fatalf("expected nil queue to stay empty")
	}
}

func TestPushStampsOwnerAndTurn(t *testing.T) {
	w := New(testConfig())
	w.Step()
	w.PendingEvents(1)
	w.Push(1, computer.GameEvent{Kind: computer.GameEventFight})
	w.Push(7, computer.GameEvent{Kind: computer.GameEventFight})

	got := w.PendingEvents(1)
	if len(got) != 1 || got[0].Owner != 1 || got[0].Turn != 1 {
		t.Fatalf("expected one event owned by 1 at turn 1, got %+v", got)
	}
	if len(w.PendingEvents(0)) != 0 {
		t.Fatalf("expected no events for player 0")
	}
}

func TestRoomAvailability(t *testing.T) {
	cases := []struct {
		kind computer.RoomKind
		late computer.Turn
		want computer.Availability
	}{
		{computer.RoomTreasury, 3000, computer.AvailNow},
		{computer.RoomLair, 3000, computer.AvailNow},
		{computer.RoomTemple, 3000, computer.AvailLater},
		{computer.RoomTemple, 0, computer.AvailNow},
		{computer.RoomHeart, 0, computer.AvailNever},
		{computer.RoomEntrance, 0, computer.AvailNever},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("%s_%d", c.kind, c.late), func(t *testing.T) {
			cfg := testConfig()
			cfg.LateRoomsTurn = c.late
			w := New(cfg)
			if got := w.Dungeon(0).RoomAvailable(c.kind); got != c.want {
				t.Fatalf("expected %d, got %d", c.want, got)
			}
		})
	}
}

func TestDigRoomNeedsSpace(t *testing.T) {
	cfg := testConfig()
	cfg.Slabs = 10
	w := New(cfg)
	tasks := w.TaskList()

	_, err := tasks.CreateTask(0, computer.TaskRequest{Kind: computer.TaskDigRoom, Process: -1, Target: int(computer.RoomLair), Width: 4, Height: 4})
	if !errors.Is(err, computer.ErrNoSpace) {
		t.Fatalf("expected ErrNoSpace, got %v", err)
	}
	if _, err := tasks.CreateTask(0, computer.TaskRequest{Kind: computer.TaskDigRoom, Process: -1, Target: int(computer.RoomLair), Width: 3, Height: 3}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	d, _ := w.DungeonOf(0)
	if d.FreeSlabs() != 1 {
		t.Fatalf("expected 1 free slab, got %d", d.FreeSlabs())
	}
}

func TestDigRoomCompletes(t *testing.T) {
	cfg := testConfig()
	cfg.Diggers = 2
	w := New(cfg)
	tasks := w.TaskList()

	// Four slabs of work at two diggers per pass.
	_, err := tasks.CreateTask(0, computer.TaskRequest{Kind: computer.TaskDigRoom, Process: 3, Target: int(computer.RoomTreasury), Width: 2, Height: 2})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if !tasks.HasTasksFor(0, 3) || tasks.HasTasksFor(1, 3) || tasks.HasTasksFor(0, -1) {
		t.Fatalf("expected the task to belong to player 0 process 3 only")
	}

	runTasks(w, 0, 5)
	if tasks.CountTasks(0, computer.TaskDigRoom) != 1 {
		t.Fatalf("expected the room still being dug after 5 passes")
	}
	runTasks(w, 0, 1)
	if tasks.CountTasks(0, computer.TaskDigRoom) != 0 {
		t.Fatalf("expected the room dug after 6 passes")
	}

	d, _ := w.DungeonOf(0)
	var rooms []computer.Room
	d.EachRoom(func(r computer.Room) bool {
		rooms = append(rooms, r)
		return true
	})
	if len(rooms) != 1 || rooms[0].Kind != computer.RoomTreasury {
		t.Fatalf("expected one treasury, got %+v", rooms)
	}
	if rooms[0].Capacity != 4*treasuryGoldPerSlab || rooms[0].Used != 4*treasuryGoldPerSlab {
		t.Fatalf("expected a full 1000 gold treasury, got %+v", rooms[0])
	}
}

func TestTasksOnlyAdvanceForOwner(t *testing.T) {
	w := New(testConfig())
	tasks := w.TaskList()
	if _, err := tasks.CreateTask(1, computer.TaskRequest{Kind: computer.TaskDigToNeutral, Process: -1}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	runTasks(w, 0, 50)
	if tasks.CountTasks(1, computer.TaskDigToNeutral) != 1 {
		t.Fatalf("expected player 1's task untouched by player 0's passes")
	}
	runTasks(w, 1, 4)
	d, _ := w.DungeonOf(1)
	if d.FreeSlabs() != testConfig().Slabs+neutralSlabs {
		t.Fatalf("expected %d free slabs, got %d", testConfig().Slabs+neutralSlabs, d.FreeSlabs())
	}
}

func TestSurveyAndDigToGold(t *testing.T) {
	w := New(testConfig())
	d, _ := w.DungeonOf(0)
	if d.KnownGold() != 0 {
		t.Fatalf("expected no known gold before a survey")
	}
	w.SurveyMap()
	if w.Surveys() != 1 || d.KnownGold() != testConfig().Seams {
		t.Fatalf("expected %d known seams after one survey, got %d", testConfig().Seams, d.KnownGold())
	}

	gold := d.Gold()
	if _, err := w.TaskList().CreateTask(0, computer.TaskRequest{Kind: computer.TaskDigToGold, Process: -1}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	runTasks(w, 0, workDigToGold/testConfig().Diggers)
	if d.Gold() != gold+goldPerSeam {
		t.Fatalf("expected %d gold, got %d", gold+goldPerSeam, d.Gold())
	}
	if d.KnownGold() != testConfig().Seams-1 {
		t.Fatalf("expected one seam used, got %d known", d.KnownGold())
	}
}

func TestSlapDoublesDigPower(t *testing.T) {
	w := New(testConfig())
	d, _ := w.DungeonOf(0)
	base := d.digPower()
	if _, err := w.TaskList().CreateTask(0, computer.TaskRequest{Kind: computer.TaskSlapDiggers, Process: -1}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	runTasks(w, 0, 1)
	if d.digPower() != 2*base {
		t.Fatalf("expected dig power %d while slapped, got %d", 2*base, d.digPower())
	}
	for range 50 {
		w.Step()
	}
	if d.digPower() != base {
		t.Fatalf("expected dig power back to %d, got %d", base, d.digPower())
	}
}

func TestCreateTaskRejects(t *testing.T) {
	cfg := testConfig()
	cfg.Gold = 0
	w := New(cfg)
	cases := []struct {
		name  string
		owner computer.PlayerID
		req   computer.TaskRequest
	}{
		{"no_dungeon", 5, computer.TaskRequest{Kind: computer.TaskDigToGold}},
		{"summon_without_gold", 0, computer.TaskRequest{Kind: computer.TaskSummonDigger}},
		{"sight_without_gold", 0, computer.TaskRequest{Kind: computer.TaskSightOfEvil}},
		{"attack_unknown_player", 0, computer.TaskRequest{Kind: computer.TaskPickupForAttack, Target: 9}},
		{"unknown_kind", 0, computer.TaskRequest{Kind: computer.TaskKind(99)}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := w.TaskList().CreateTask(c.owner, c.req); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
	if n := len(w.TaskList().Pending(0)); n != 0 {
		t.Fatalf("expected no tasks created, got %d", n)
	}
}

func TestDefendersWalkToTarget(t *testing.T) {
	w := New(testConfig())
	hx, hy, _ := mustDungeon(t, w, 0).Heart()
	_, err := w.TaskList().CreateTask(0, computer.TaskRequest{Kind: computer.TaskDefend, Process: -1, X: hx, Y: hy + 8, Amount: 1})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if p := w.TaskList().Pending(0); len(p) != 1 || p[0].Crew != 1 {
		t.Fatalf("expected one defender assigned, got %+v", p)
	}

	turns := 0
	for ; turns < 200 && w.TaskList().CountTasks(0, computer.TaskDefend) > 0; turns++ {
		w.Step()
		w.TaskList().ProcessTasks(0)
	}
	if w.TaskList().CountTasks(0, computer.TaskDefend) != 0 {
		t.Fatalf("expected the defenders to arrive")
	}
	if turns < 5 || turns >= int(maxTravel) {
		t.Fatalf("expected a walk of a few turns, took %d", turns)
	}
}

func TestAttackDamagesHeart(t *testing.T) {
	w := New(testConfig())
	if _, err := w.TaskList().CreateTask(0, computer.TaskRequest{Kind: computer.TaskPickupForAttack, Process: -1, Target: 1, Amount: 1}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	for turn := 0; turn < 300 && w.TaskList().CountTasks(0, computer.TaskPickupForAttack) > 0; turn++ {
		w.Step()
		w.TaskList().ProcessTasks(0)
	}
	if w.TaskList().CountTasks(0, computer.TaskPickupForAttack) != 0 {
		t.Fatalf("expected the attack to resolve")
	}

	_, _, health := mustDungeon(t, w, 1).Heart()
	if health != heartHealth-5 {
		t.Fatalf("expected heart at %d, got %d", heartHealth-5, health)
	}
	events := w.PendingEvents(1)
	if len(events) != 2 || events[0].Kind != computer.GameEventHeartAttacked || events[1].Kind != computer.GameEventFight {
		t.Fatalf("expected heart attacked and fight events, got %+v", events)
	}
	if events[0].Target != 0 {
		t.Fatalf("expected the attacker recorded, got %d", events[0].Target)
	}
}

func TestDestroyedHeartDefeatsPlayer(t *testing.T) {
	w := New(testConfig())
	w.dungeons[1].heart = 3
	if _, err := w.TaskList().CreateTask(1, computer.TaskRequest{Kind: computer.TaskDigToNeutral, Process: -1}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if _, err := w.TaskList().CreateTask(0, computer.TaskRequest{Kind: computer.TaskPickupForAttack, Process: -1, Target: 1, Amount: 1}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	for turn := 0; turn < 300 && w.TaskList().CountTasks(0, computer.TaskPickupForAttack) > 0; turn++ {
		w.Step()
		w.TaskList().ProcessTasks(0)
	}

	info, _ := w.Player(1)
	if info.Active || w.Dungeon(1).HasHeart() {
		t.Fatalf("expected player 1 defeated")
	}
	if len(w.Opponents(0)) != 0 {
		t.Fatalf("expected no opponents left, got %v", w.Opponents(0))
	}
	if len(w.TaskList().Pending(1)) != 0 {
		t.Fatalf("expected the loser's tasks removed")
	}
}

func TestPaydayChargesWages(t *testing.T) {
	cfg := testConfig()
	cfg.PaydayEvery = 5
	w := New(cfg)
	for range 5 {
		w.Step()
	}
	events := w.PendingEvents(0)
	if len(events) != 1 || events[0].Kind != computer.GameEventPayday {
		t.Fatalf("expected one payday event, got %+v", events)
	}
	wages := 10 * cfg.Fighters
	if events[0].Target != wages || w.Dungeon(0).Gold() != cfg.Gold-wages {
		t.Fatalf("expected %d wages paid, got event %+v and gold %d", wages, events[0], w.Dungeon(0).Gold())
	}
}

func TestStepIsDeterministic(t *testing.T) {
	digest := func() string {
		cfg := testConfig()
		cfg.Models = []int{1, 2, 3, 4}
		cfg.ThreatChance = 3000
		w := New(cfg)
		out := ""
		for range 400 {
			w.Step()
			for id := range w.PlayerCount() {
				for _, ev := range w.PendingEvents(computer.PlayerID(id)) {
					out += fmt.Sprintf("%d:%d:%d:%d,%d;", ev.Turn, ev.Owner, ev.Kind, ev.X, ev.Y)
				}
			}
		}
		for _, d := range w.dungeons {
			out += fmt.Sprintf("|%d/%d/%d", d.Gold(), len(d.creatures), len(d.rooms))
		}
		return out
	}
	a, b := digest(), digest()
	if a != b {
		t.Fatalf("expected identical worlds")
	}
	if len(a) < 100 {
		t.Fatalf("expected raids to produce events, got %q", a)
	}
}

func mustDungeon(t *testing.T, w *World, id computer.PlayerID) *Dungeon {
	t.Helper()
	d, ok := w.DungeonOf(id)
	if !ok {
		t.Fatalf("no dungeon for player %d", id)
	}
	return d
}

func TestUndrainedEventsExpire(t *testing.T) {
	cfg := testConfig()
	cfg.PaydayEvery = 10
	w := New(cfg)
	for range 1000 {
		w.Step()
	}
	if n := w.events[0].Len(); n != 1 {
		t.Fatalf("expected only the last payday to stay queued, got %d events", n)
	}

	w.Push(1, computer.GameEvent{Kind: computer.GameEventFight})
	w.Step()
	if events := w.PendingEvents(1); len(events) != 1 || events[0].Kind != computer.GameEventFight {
		t.Fatalf("expected an event raised mid-turn to survive one step, got %+v", events)
	}
}

func TestEventQueueDropBefore(t *testing.T) {
	var q EventQueue
	for _, turn := range []computer.Turn{3, 4, 5, 4} {
		q.Push(computer.GameEvent{Turn: turn})
	}
	if n := q.DropBefore(5); n != 3 {
		t.Fatalf("expected 3 dropped, got %d", n)
	}
	if out := q.Drain(); len(out) != 1 || out[0].Turn != 5 {
		t.Fatalf("expected the turn 5 event to remain, got %+v", out)
	}
}
