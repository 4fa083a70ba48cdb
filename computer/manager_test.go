package computer

import "testing"

// sampleArchetype exercises the built-in behaviors against the fake world.
func sampleArchetype() Archetype {
	room := func(m string, kind RoomKind) Process {
		return Process{
			Name: m, Mnemonic: m, Width: 4, Height: 4, Target: int(kind), Cap: 7,
			Check:    mustProcess("check_any_room"),
			Setup:    mustProcess("setup_any_room"),
			Task:     mustProcess("process_task"),
			Complete: mustProcess("completed_build_a_room"),
			Pause:    mustProcess("paused_task"),
		}
	}
	gold := Process{
		Name: "dig gold", Mnemonic: "dig_gold", Width: 1, Height: 3, Cap: 500,
		Check: mustProcess("check_dig_to_gold"), Setup: mustProcess("setup_dig_to_gold"),
		Task: mustProcess("process_task"), Complete: mustProcess("completed_task"), Pause: mustProcess("paused_task"),
	}
	sight := Process{
		Name: "sight", Mnemonic: "sight", Priority: 3, Width: 2, Height: 6, Cap: 100,
		Check: mustProcess("check_sight_of_evil"), Setup: mustProcess("setup_sight_of_evil"),
		Task: mustProcess("process_sight_of_evil"), Complete: mustProcess("completed_task"), Pause: mustProcess("paused_task"),
	}
	slap := Check{Name: "slap", Mnemonic: "slap", Interval: 3, Fn: mustCheck("check_slap_imps")}
	slap.Params[0] = 40
	money := Check{Name: "money", Mnemonic: "money", Interval: 11, Fn: mustCheck("check_for_money")}
	money.Params[0] = 800
	fight := Event{Name: "fight", Mnemonic: "fight", Kind: EventOnGameEvent, GameEvent: GameEventFight, TestInterval: 4,
		Handler: EventBehavior{ID: "event_battle", Fn: eventBattle}}
	fight.Params[0] = 50
	return Archetype{
		ID:        1,
		Name:      "sample",
		Values:    Values{ProcessesEnabled: 1, ClickRate: 5, MaxRoomBuildTasks: 2, RestTurns: 4},
		Processes: []Process{room("treasury", RoomTreasury), room("lair", RoomLair), gold, sight},
		Checks:    []Check{slap, money},
		Events:    []Event{fight},
	}
}

func mustProcess(name string) ProcessBehavior {
	b, ok := LookupProcess(name)
	if !ok {
		panic("unknown process behavior " + name)
	}
	return b
}

func mustCheck(name string) CheckBehavior {
	b, ok := LookupCheck(name)
	if !ok {
		panic("unknown check behavior " + name)
	}
	return b
}

// scriptedWorld drives the fake world deterministically from the turn number.
func scriptedWorld(players int) *fakeWorld {
	w := newFakeWorld(players)
	for _, d := range w.dungeons {
		d.creatures = []Creature{{ID: 1, Digger: true}, {ID: 2}, {ID: 3}, {ID: 4}}
		d.gold = 400
	}
	return w
}

func advance(w *fakeWorld, turn Turn) {
	w.turn = turn
	if turn%9 == 0 {
		for i := range w.events {
			w.events[i] = append(w.events[i], GameEvent{Kind: GameEventFight, Owner: PlayerID(i), X: int(turn) % 13, Y: 2})
		}
	}
	// Tasks finish in creation order, one per owner every 6 turns.
	if turn%6 == 0 {
		done := map[PlayerID]bool{}
		kept := w.tasks.tasks[:0]
		for _, task := range w.tasks.tasks {
			if !done[task.owner] {
				done[task.owner] = true
				if task.req.Kind == TaskDigRoom {
					d := w.dungeons[task.owner]
					d.rooms = append(d.rooms, Room{ID: int(task.id), Kind: RoomKind(task.req.Target), Capacity: 10})
				}
				continue
			}
			kept = append(kept, task)
		}
		w.tasks.tasks = kept
	}
}

func runMatch(t *testing.T, seed uint64, turns Turn) traceLog {
	t.Helper()
	var log traceLog
	w := scriptedWorld(3)
	w.players[1].Computer = false
	cat := &fakeCatalog{archetypes: map[int]Archetype{1: sampleArchetype()}}
	m := NewManager(w, cat, WithLogger(quietLogger()), WithSeed(seed), WithTrace(log.add))
	if err := m.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	for turn := Turn(1); turn <= turns; turn++ {
		advance(w, turn)
		m.ProcessTurn()
	}
	return log
}

func TestDeterministicTrace(t *testing.T) {
	a := runMatch(t, 11, 400)
	b := runMatch(t, 11, 400)
	if len(a) == 0 {
		t.Fatalf("expected callbacks to be traced")
	}
	if len(a) != len(b) {
		t.Fatalf("trace lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("traces diverge at %d: %v vs %v", i, a[i], b[i])
		}
	}
	for _, e := range a {
		if e.Player == 1 {
			t.Fatalf("human player must not be driven: %v", e)
		}
	}
}

func TestBudgetOneActionPerTurn(t *testing.T) {
	log := runMatch(t, 3, 300)

	type key struct {
		turn   Turn
		player PlayerID
	}
	checks := map[key]int{}
	selections := map[key]int{}
	tasks := map[key]int{}
	for _, e := range log {
		k := key{e.Turn, e.Player}
		switch e.Kind {
		case TraceCheck:
			checks[k]++
		case TraceProcessCheck:
			selections[k] = 1
		case TraceProcessTask:
			tasks[k]++
		}
	}
	for k, n := range checks {
		if n+selections[k] > 1 {
			t.Fatalf("turn %d player %d: %d checks and %d selections", k.turn, k.player, n, selections[k])
		}
	}
	for k, n := range tasks {
		if n > 1 {
			t.Fatalf("turn %d player %d: task ran %d times", k.turn, k.player, n)
		}
	}
}

func TestProcessTurnSkipsInactivePlayers(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(w *fakeWorld, arch *Archetype)
		turn   Turn
		driven bool
	}{
		{"active", func(*fakeWorld, *Archetype) {}, 10, true},
		{"defeated", func(w *fakeWorld, _ *Archetype) { w.players[0].Active = false }, 10, false},
		{"human", func(w *fakeWorld, _ *Archetype) { w.players[0].Computer = false }, 10, false},
		{"disabled_archetype", func(_ *fakeWorld, a *Archetype) { a.Values.ProcessesEnabled = 0 }, 10, false},
		{"before_turn_begin", func(_ *fakeWorld, a *Archetype) { a.Values.TurnBegin = 20 }, 10, false},
		{"at_turn_begin", func(_ *fakeWorld, a *Archetype) { a.Values.TurnBegin = 10 }, 10, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var log traceLog
			w := newFakeWorld(1)
			arch := Archetype{ID: 1, Values: defaultValues(), Processes: []Process{proc("p", always(Fail), nil, nil)}}
			tc.mutate(w, &arch)
			cat := &fakeCatalog{archetypes: map[int]Archetype{1: arch}}
			m := NewManager(w, cat, WithLogger(quietLogger()), WithTrace(log.add))
			if _, err := m.SetupPlayer(0, 1); err != nil {
				t.Fatalf("SetupPlayer: %v", err)
			}
			w.turn = tc.turn
			m.ProcessTurn()
			if driven := log.count(TraceProcessCheck, "p") > 0; driven != tc.driven {
				t.Fatalf("expected driven=%v, got %v", tc.driven, driven)
			}
		})
	}
}

func TestSurveyIsBatched(t *testing.T) {
	w := newFakeWorld(3)
	for _, d := range w.dungeons {
		d.gold = 0
		d.knownGold = 0
	}
	arch := Archetype{ID: 1, Values: defaultValues(), Processes: []Process{{
		Name: "dig gold", Mnemonic: "dig_gold", Cap: 500,
		Check: mustProcess("check_dig_to_gold"), Setup: mustProcess("setup_dig_to_gold"),
	}}}
	arch.Values.RestTurns = 1
	cat := &fakeCatalog{archetypes: map[int]Archetype{1: arch}}
	m := NewManager(w, cat, WithLogger(quietLogger()), WithSurveyInterval(100))
	if err := m.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	w.turn = 1
	m.ProcessTurn()
	if w.surveys != 1 {
		t.Fatalf("expected one survey for three requests, got %d", w.surveys)
	}
	m.Each(func(c *Computer) {
		if c.demandsSurvey() {
			t.Fatalf("player %d still demands a survey", c.Player)
		}
	})

	for turn := Turn(2); turn <= 101; turn++ {
		w.turn = turn
		m.ProcessTurn()
	}
	if w.surveys != 1 {
		t.Fatalf("expected no survey within the interval, got %d", w.surveys)
	}
	w.turn = 102
	m.ProcessTurn()
	if w.surveys != 2 {
		t.Fatalf("expected a second survey after the interval, got %d", w.surveys)
	}
	if last, ok := m.LastSurvey(); !ok || last != 102 {
		t.Fatalf("expected last survey 102, got %d (%v)", last, ok)
	}
}

func TestRemoveTearsDownInstance(t *testing.T) {
	w := newFakeWorld(2)
	cat := &fakeCatalog{archetypes: map[int]Archetype{1: sampleArchetype()}}
	m := NewManager(w, cat, WithLogger(quietLogger()))
	if err := m.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	m.Remove(1)
	if _, ok := m.Computer(1); ok {
		t.Fatalf("expected player 1 removed")
	}
	if len(w.tasks.removed) != 1 || w.tasks.removed[0] != 1 {
		t.Fatalf("expected player 1 tasks removed, got %v", w.tasks.removed)
	}
	n := 0
	m.Each(func(*Computer) { n++ })
	if n != 1 {
		t.Fatalf("expected 1 remaining instance, got %d", n)
	}
}

func TestCreatureSweepIsCapped(t *testing.T) {
	w := newFakeWorld(1)
	w.dungeons[0].creatures = []Creature{{ID: 1}, {ID: 2, Digger: true}}
	w.dungeons[0].cyclic = true
	c := newTestComputer(w, Archetype{ID: 1}, nil)

	st := c.creatureStats()
	if st.total != MaxCreatures {
		t.Fatalf("expected traversal to stop at %d, got %d", MaxCreatures, st.total)
	}
}

func TestTaskSubsystemPassFollowsClickRate(t *testing.T) {
	w := newFakeWorld(1)
	arch := Archetype{ID: 1, Values: defaultValues()}
	arch.Values.ClickRate = 4
	cat := &fakeCatalog{archetypes: map[int]Archetype{1: arch}}
	m := NewManager(w, cat, WithLogger(quietLogger()))
	if err := m.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	for turn := Turn(1); turn <= 20; turn++ {
		w.turn = turn
		m.ProcessTurn()
	}
	if w.tasks.passes != 5 {
		t.Fatalf("expected 5 task passes, got %d", w.tasks.passes)
	}
}

func TestSampleArchetypeBuildsRooms(t *testing.T) {
	w := scriptedWorld(1)
	cat := &fakeCatalog{archetypes: map[int]Archetype{1: sampleArchetype()}}
	m := NewManager(w, cat, WithLogger(quietLogger()))
	if err := m.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	for turn := Turn(1); turn <= 120; turn++ {
		advance(w, turn)
		m.ProcessTurn()
	}
	kinds := map[RoomKind]int{}
	for _, r := range w.dungeons[0].rooms {
		kinds[r.Kind]++
	}
	if kinds[RoomTreasury] == 0 || kinds[RoomLair] == 0 {
		t.Fatalf("expected a treasury and a lair, got %v", kinds)
	}
}
