package computer

// Check callbacks.

// checkForMoney sells traps and doors and hauls loose gold when the treasury
// drops under Params[0].
func checkForMoney(c *Computer, chk *Check) Result {
	if c.dungeon == nil || c.dungeon.Gold() >= chk.Params[0] {
		return Fail
	}
	if c.CountTasks(TaskMoveGoldToTreasury) == 0 {
		if _, err := c.CreateTask(TaskRequest{Kind: TaskMoveGoldToTreasury, Process: -1}); err != nil {
			return Fail
		}
	}
	if chk.Params[1] != 0 && c.CountTasks(TaskSellTraps) == 0 {
		if _, err := c.CreateTask(TaskRequest{Kind: TaskSellTraps, Process: -1, Amount: chk.Params[0] - c.dungeon.Gold()}); err != nil {
			return Fail
		}
	}
	return Continue
}

// checkNoImps summons diggers while there are fewer than Params[0] and the
// treasury holds at least Params[1].
func checkNoImps(c *Computer, chk *Check) Result {
	if c.dungeon == nil || c.dungeon.Gold() < chk.Params[1] {
		return Fail
	}
	if c.creatureStats().diggers >= chk.Params[0] {
		return Fail
	}
	if c.CountTasks(TaskSummonDigger) > 0 {
		return Wait
	}
	if _, err := c.CreateTask(TaskRequest{Kind: TaskSummonDigger, Process: -1, Amount: chk.Params[1]}); err != nil {
		return Fail
	}
	return Continue
}

// checkSlapImps speeds up diggers, with a Params[0] percent chance per firing.
func checkSlapImps(c *Computer, chk *Check) Result {
	if c.creatureStats().diggers == 0 {
		return Fail
	}
	if c.Rand().IntN(100) >= chk.Params[0] {
		return Fail
	}
	if _, err := c.CreateTask(TaskRequest{Kind: TaskSlapDiggers, Process: -1, Amount: chk.Params[1]}); err != nil {
		return Fail
	}
	return Continue
}

// checkForExpandRoom re-enables room processes whose rooms reached Params[0]
// percent of their capacity.
func checkForExpandRoom(c *Computer, chk *Check) Result {
	pct := chk.Params[0]
	if pct <= 0 {
		pct = 90
	}
	n := 0
	for _, kind := range BuildableRooms {
		if c.roomStats(kind).full(pct) {
			n += c.ReactivateProcesses(int(kind))
		}
	}
	if n == 0 {
		return Fail
	}
	return Continue
}

// checkNeutralPlaces digs toward unclaimed areas, at most Params[0] at once.
func checkNeutralPlaces(c *Computer, chk *Check) Result {
	if c.CountTasks(TaskDigToNeutral) >= max(1, chk.Params[0]) {
		return Fail
	}
	if _, err := c.CreateTask(TaskRequest{Kind: TaskDigToNeutral, Process: -1}); err != nil {
		return Fail
	}
	return Continue
}

// Event handlers and tests.

// eventBattle sends Params[0] percent of the fighters to the fight. Periodic
// tests leave the location in Params[2] and Params[3].
func eventBattle(c *Computer, ev *Event, gev *GameEvent) Result {
	x, y := ev.Params[2], ev.Params[3]
	if gev != nil {
		x, y = gev.X, gev.Y
	}
	st := c.creatureStats()
	fighters := st.total - st.diggers
	if fighters <= 0 {
		return Fail
	}
	amount := fighters * ev.Params[0] / 100
	if amount <= 0 {
		amount = 1
	}
	if c.CountTasks(TaskDefend) > 0 {
		return Wait
	}
	if _, err := c.CreateTask(TaskRequest{Kind: TaskDefend, Process: -1, X: x, Y: y, Amount: amount}); err != nil {
		return Fail
	}
	return Continue
}

// eventFindLink re-enables the processes copied from the linked template.
func eventFindLink(c *Computer, ev *Event, _ *GameEvent) Result {
	if ev.Process == "" {
		return Fail
	}
	if c.EnableLinked(ev.Process) == 0 {
		return Fail
	}
	return Continue
}

// eventCheckPayday forces the linked process when gold is under Params[0].
func eventCheckPayday(c *Computer, ev *Event, _ *GameEvent) Result {
	if c.dungeon == nil || c.dungeon.Gold() >= ev.Params[0] {
		return Fail
	}
	return eventForceProcess(c, ev, nil)
}

// eventForceProcess pre-empts selection with the linked process.
func eventForceProcess(c *Computer, ev *Event, _ *GameEvent) Result {
	if ev.Process == "" {
		return Fail
	}
	if err := c.ForceProcess(ev.Process); err != nil {
		c.log.Warn("event could not force process", "event", ev.Name, "err", err)
		return Fail
	}
	return Continue
}

// eventRebuildRoom re-enables the processes building the lost room kind.
func eventRebuildRoom(c *Computer, ev *Event, gev *GameEvent) Result {
	kind := ev.Params[3]
	if gev != nil {
		kind = gev.Target
	}
	if kind <= 0 || c.ReactivateProcesses(kind) == 0 {
		return Fail
	}
	return Continue
}

func eventBattleTest(c *Computer, ev *Event) bool {
	found := false
	c.EachCreature(func(cr Creature) bool {
		if cr.Fighting && !cr.Digger {
			ev.Params[2], ev.Params[3] = cr.X, cr.Y
			found = true
			return false
		}
		return true
	})
	return found
}

func eventCheckRoomsFull(c *Computer, ev *Event) bool {
	pct := ev.Params[1]
	if pct <= 0 {
		pct = 100
	}
	for _, kind := range BuildableRooms {
		if c.roomStats(kind).full(pct) {
			ev.Params[3] = int(kind)
			return true
		}
	}
	return false
}

// eventCheckImpsDanger reports diggers that are fighting or under Params[1]
// percent health.
func eventCheckImpsDanger(c *Computer, ev *Event) bool {
	pct := ev.Params[1]
	found := false
	c.EachCreature(func(cr Creature) bool {
		if !cr.Digger {
			return true
		}
		hurt := cr.MaxHealth > 0 && cr.Health*100 < cr.MaxHealth*pct
		if cr.Fighting || hurt {
			ev.Params[2], ev.Params[3] = cr.X, cr.Y
			found = true
			return false
		}
		return true
	})
	return found
}

func eventCheckGoldRunning(c *Computer, ev *Event) bool {
	return c.dungeon != nil && c.dungeon.Gold() < ev.Params[0]
}
