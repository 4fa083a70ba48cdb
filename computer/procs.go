package computer

// SightGrid is the side of the grid scouted by sight of evil.
const SightGrid = 8

type roomStats struct {
	count    int
	capacity int
	used     int
}

func (c *Computer) roomStats(kind RoomKind) roomStats {
	var st roomStats
	c.EachRoom(func(r Room) bool {
		if r.Kind == kind {
			st.count++
			st.capacity += r.Capacity
			st.used += r.Used
		}
		return true
	})
	return st
}

type creatureStats struct {
	total    int
	diggers  int
	fighting int
}

func (c *Computer) creatureStats() creatureStats {
	var st creatureStats
	c.EachCreature(func(cr Creature) bool {
		st.total++
		if cr.Digger {
			st.diggers++
		}
		if cr.Fighting {
			st.fighting++
		}
		return true
	})
	return st
}

func (c *Computer) hasHeart() bool {
	return c.dungeon != nil && c.dungeon.HasHeart()
}

// full reports whether the used capacity reached pct percent.
func (st roomStats) full(pct int) bool {
	if st.count == 0 {
		return false
	}
	return st.used*100 >= st.capacity*pct
}

func checkAnyRoom(c *Computer, p *Process) Result {
	if !c.hasHeart() {
		return Fail
	}
	switch c.dungeon.RoomAvailable(RoomKind(p.Target)) {
	case AvailNever:
		p.Flags |= ProcDisabled
		return Fail
	case AvailLater:
		return Wait
	}
	if c.CountTasks(TaskDigRoom) >= c.Values.MaxRoomBuildTasks {
		return Wait
	}
	st := c.roomStats(RoomKind(p.Target))
	if st.count == 0 || st.full(75) {
		return Continue
	}
	return Fail
}

func checkBuildAllRooms(c *Computer, p *Process) Result {
	if !c.hasHeart() {
		return Fail
	}
	if c.CountTasks(TaskDigRoom) >= c.Values.MaxRoomBuildTasks {
		return Wait
	}
	for _, kind := range BuildableRooms {
		if c.dungeon.RoomAvailable(kind) != AvailNow {
			continue
		}
		if c.roomStats(kind).count == 0 {
			p.Target = int(kind)
			return Continue
		}
	}
	return Fail
}

func setupAnyRoom(c *Computer, p *Process) Result {
	idx := c.indexOf(p)
	id, err := c.CreateTask(TaskRequest{
		Kind:    TaskDigRoom,
		Process: idx,
		Target:  p.Target,
		Width:   p.Width,
		Height:  p.Height,
		Amount:  p.Cap,
	})
	if err != nil {
		return Wait
	}
	p.Params[0] = int(id)
	c.log.Debug("created room task", "process", p.Name, "width", p.Width, "height", p.Height)
	return Continue
}

func checkDigToEntrance(c *Computer, p *Process) Result {
	if !c.hasHeart() || p.Flags&ProcDone != 0 {
		return Fail
	}
	if c.roomStats(RoomEntrance).count > 0 {
		p.Flags |= ProcDone
		return Fail
	}
	if c.CountTasks(TaskDigToEntrance) > 0 {
		return Fail
	}
	return Continue
}

func setupDigToEntrance(c *Computer, p *Process) Result {
	if _, err := c.CreateTask(TaskRequest{Kind: TaskDigToEntrance, Process: c.indexOf(p), Amount: p.Cap}); err != nil {
		return Fail
	}
	return Continue
}

func checkDigToGold(c *Computer, p *Process) Result {
	if !c.hasHeart() {
		return Fail
	}
	if c.dungeon.Gold() >= p.Cap {
		return Fail
	}
	if c.CountTasks(TaskDigToGold) >= max(1, p.Width) {
		return Fail
	}
	return Continue
}

func setupDigToGold(c *Computer, p *Process) Result {
	if c.dungeon.KnownGold() == 0 {
		p.Flags |= ProcNeedsSurvey
		c.log.Debug("no known gold; will refresh gold map", "process", p.Name)
		return Fail
	}
	if _, err := c.CreateTask(TaskRequest{Kind: TaskDigToGold, Process: c.indexOf(p), Amount: p.Height}); err != nil {
		return Fail
	}
	return Continue
}

func checkSightOfEvil(c *Computer, p *Process) Result {
	if !c.hasHeart() || c.dungeon.Gold() < p.Cap {
		return Fail
	}
	if c.turn-p.Completed < Turn(p.Priority)*10 && p.Completed > 0 {
		return Fail
	}
	return Continue
}

func setupSightOfEvil(c *Computer, p *Process) Result {
	p.Params[3]++
	if p.Params[3] <= p.Height {
		return Continue
	}
	p.Flags |= ProcDisabled
	return Fail
}

func processSightOfEvil(c *Computer, p *Process) Result {
	n := c.Rand().IntN(SightGrid * SightGrid)
	for i := 0; i < SightGrid*SightGrid; i++ {
		gx, gy := n%SightGrid, n/SightGrid
		if c.SightTargets[gy]&(1<<gx) == 0 {
			c.SightTargets[gy] |= 1 << gx
			_, err := c.CreateTask(TaskRequest{Kind: TaskSightOfEvil, Process: -1, X: gx, Y: gy, Amount: p.Width})
			if err != nil {
				return Fail
			}
			return Finish
		}
		n = (n + 1) % (SightGrid * SightGrid)
	}
	p.Flags |= ProcDisabled
	return Fail
}

func (c *Computer) pickOpponent(safe bool) (PlayerID, bool) {
	if c.world == nil {
		return 0, false
	}
	own := c.creatureStats()
	for _, opp := range c.world.Opponents(c.Player) {
		if !safe {
			return opp, true
		}
		d := c.world.Dungeon(opp)
		if d == nil {
			continue
		}
		n := 0
		d.EachCreature(func(Creature) bool {
			n++
			return n <= MaxCreatures
		})
		if n < own.total-own.diggers {
			return opp, true
		}
	}
	return 0, false
}

func checkAttackWith(c *Computer, p *Process, safe bool) Result {
	if !c.hasHeart() {
		return Fail
	}
	st := c.creatureStats()
	if st.total-st.diggers < p.Width || c.dungeon.Gold() < p.Cap {
		return Fail
	}
	opp, ok := c.pickOpponent(safe)
	if !ok {
		return Fail
	}
	p.Params[0] = int(opp) + 1
	return Continue
}

func checkAttack1(c *Computer, p *Process) Result {
	return checkAttackWith(c, p, false)
}

func checkSafeAttack(c *Computer, p *Process) Result {
	return checkAttackWith(c, p, true)
}

func setupAttack1(c *Computer, p *Process) Result {
	if p.Params[0] <= 0 {
		return Fail
	}
	_, err := c.CreateTask(TaskRequest{
		Kind:    TaskPickupForAttack,
		Process: c.indexOf(p),
		Target:  p.Params[0] - 1,
		Amount:  p.Height,
	})
	if err != nil {
		return Fail
	}
	return Continue
}

func completedAttack1(c *Computer, p *Process) Result {
	p.Params[1]++
	p.Params[0] = 0
	return Continue
}

// processTask keeps the process running while the task subsystem still
// holds tasks created for it.
func processTask(c *Computer, p *Process) Result {
	tasks := c.tasks()
	if tasks == nil {
		return Finish
	}
	if tasks.HasTasksFor(c.Player, c.indexOf(p)) {
		return Continue
	}
	return Finish
}

func completedTask(c *Computer, p *Process) Result {
	c.log.Debug("completed process", "process", p.Name)
	return Continue
}

func completedBuildARoom(c *Computer, p *Process) Result {
	p.Flags &^= ProcDone
	c.log.Debug("room built", "process", p.Name, "kind", p.Target)
	return Continue
}

func pausedTask(c *Computer, p *Process) Result {
	c.log.Debug("paused process", "process", p.Name)
	return Continue
}
