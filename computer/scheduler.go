package computer

import "fmt"

// MinExtent is the smallest value a process extent is shrunk to.
const MinExtent = 2

// advanceScheduler runs the current task, then advances the goal state.
func (c *Computer) advanceScheduler(turn Turn) {
	if c.Current >= 0 && c.validProcess(c.Current) {
		c.runTask(turn)
	}

	if rate := Turn(c.Values.ClickRate); rate > 0 && turn%rate == 0 {
		if tasks := c.tasks(); tasks != nil {
			tasks.ProcessTasks(c.Player)
		}
	}

	switch c.State {
	case Resting:
		c.Countdown--
		if c.Countdown <= 0 {
			c.Countdown = c.Values.RestTurns
			c.setState(NeedsSelection)
			c.selectStep(turn)
		}
	case NeedsSelection:
		c.selectStep(turn)
	case Running:
		if !c.validProcess(c.Current) || c.Processes[c.Current].Flags&ProcRunning == 0 {
			c.log.Error("no process for a computer player", "process", c.Current)
			c.Current = -1
			c.setState(Resting)
		}
	default:
		c.log.Error("invalid scheduler state", "state", int(c.State))
		c.Current = -1
		c.setState(Resting)
	}
}

func (c *Computer) runTask(turn Turn) {
	idx := c.Current
	p := &c.Processes[idx]
	if p.Flags&ProcRunning == 0 {
		return
	}
	res := Continue
	if p.Task.Fn != nil {
		res = p.Task.Fn(c, p)
		c.record(TraceProcessTask, p.Mnemonic, idx, res.String())
	}
	// The task may have completed or suspended itself.
	if c.Current != idx || p.Flags&ProcRunning == 0 {
		return
	}
	switch res {
	case Finish:
		c.completeProcess(idx, turn)
	case Fail:
		c.suspendProcess(idx, turn)
	default:
		p.LastRun = turn
	}
}

// selectStep spends one budget unit on process selection.
func (c *Computer) selectStep(turn Turn) {
	if c.Budget <= 0 {
		return
	}
	c.Budget--
	if !c.selectProcess(turn) {
		c.setState(Resting)
	}
}

// selectProcess walks the processes in order and adopts the first eligible
// one. It reports whether selection made progress.
func (c *Computer) selectProcess(turn Turn) bool {
	for i := range c.Processes {
		p := &c.Processes[i]
		if p.terminal() {
			break
		}
		if p.Flags&(ProcDisabled|ProcRunning) != 0 {
			continue
		}
		if p.Check.Fn == nil {
			continue
		}
		res := p.Check.Fn(c, p)
		c.record(TraceProcessCheck, p.Mnemonic, i, res.String())
		if res != Continue {
			continue
		}
		return c.setupProcess(i, turn)
	}
	return false
}

// setupProcess runs setup for the chosen process, shrinking its extents and
// retrying while setup asks to try again later.
func (c *Computer) setupProcess(idx int, turn Turn) bool {
	p := &c.Processes[idx]
	for {
		res := Continue
		if p.Setup.Fn != nil {
			res = p.Setup.Fn(c, p)
			c.record(TraceProcessSetup, p.Mnemonic, idx, res.String())
		}
		switch res {
		case Continue:
			c.adopt(idx, turn)
			return true
		case Finish:
			c.completeProcess(idx, turn)
			return true
		case Wait:
			p.LastRun = turn
			if !shrinkExtents(p) {
				c.failProcess(idx, turn)
				return false
			}
			c.record(TraceProcessShrink, p.Mnemonic, idx, fmt.Sprintf("%dx%d", p.Width, p.Height))
		default:
			c.failProcess(idx, turn)
			return false
		}
	}
}

// shrinkExtents reduces the larger of the paired extents by one, the second
// one on a tie. It reports false once that extent is at the floor.
func shrinkExtents(p *Process) bool {
	if p.Width > p.Height {
		if p.Width <= MinExtent {
			return false
		}
		p.Width--
		return true
	}
	if p.Height <= MinExtent {
		return false
	}
	p.Height--
	return true
}

func (c *Computer) adopt(idx int, turn Turn) {
	if c.Current >= 0 && c.Current != idx && c.validProcess(c.Current) {
		c.suspendProcess(c.Current, turn)
	}
	p := &c.Processes[idx]
	p.Flags |= ProcRunning
	p.Started = turn
	p.LastRun = turn
	c.Current = idx
	c.setState(Running)
}

func (c *Computer) failProcess(idx int, turn Turn) {
	p := &c.Processes[idx]
	p.LastRun = 0
	p.Failed = turn
}

func (c *Computer) completeProcess(idx int, turn Turn) {
	p := &c.Processes[idx]
	p.Flags &^= ProcRunning
	p.Flags |= ProcDone
	p.Completed = turn
	p.LastRun = turn
	if c.Current == idx {
		c.Current = -1
	}
	if p.Complete.Fn != nil {
		res := p.Complete.Fn(c, p)
		c.record(TraceProcessDone, p.Mnemonic, idx, res.String())
	}
	c.setState(NeedsSelection)
}

func (c *Computer) suspendProcess(idx int, turn Turn) {
	p := &c.Processes[idx]
	p.Flags &^= ProcRunning
	p.Failed = turn
	p.LastRun = 0
	if c.Current == idx {
		c.Current = -1
	}
	if p.Pause.Fn != nil {
		res := p.Pause.Fn(c, p)
		c.record(TraceProcessPause, p.Mnemonic, idx, res.String())
	}
	c.setState(NeedsSelection)
}

func (c *Computer) setState(s State) {
	if c.State == s {
		return
	}
	c.State = s
	c.record(TraceSchedulerState, s.String(), c.Current, "")
}

// CompleteProcess marks the named process complete, as if its task had
// returned Finish.
func (c *Computer) CompleteProcess(mnemonic string) error {
	idx, ok := c.ProcessIndex(mnemonic)
	if !ok {
		return fmt.Errorf("computer: complete %q: %w", mnemonic, ErrNoSuchProcess)
	}
	c.completeProcess(idx, c.turn)
	return nil
}

// SuspendProcess stops the named process and runs its pause callback.
func (c *Computer) SuspendProcess(mnemonic string) error {
	idx, ok := c.ProcessIndex(mnemonic)
	if !ok {
		return fmt.Errorf("computer: suspend %q: %w", mnemonic, ErrNoSuchProcess)
	}
	if c.Processes[idx].Flags&ProcRunning == 0 {
		return nil
	}
	c.suspendProcess(idx, c.turn)
	return nil
}

// ResetProcess clears the named process' stamps and running state.
func (c *Computer) ResetProcess(mnemonic string) error {
	idx, ok := c.ProcessIndex(mnemonic)
	if !ok {
		return fmt.Errorf("computer: reset %q: %w", mnemonic, ErrNoSuchProcess)
	}
	c.resetProcess(idx)
	return nil
}

func (c *Computer) resetProcess(idx int) {
	p := &c.Processes[idx]
	p.LastRun = 0
	p.Failed = 0
	p.Completed = c.turn
	if p.Flags&ProcRunning != 0 {
		p.Flags &^= ProcRunning
		if c.Current == idx {
			c.Current = -1
			c.setState(NeedsSelection)
		}
	}
}

// ForceProcess pre-empts selection: the running process is suspended and
// the named one is set up and run. Disabled processes cannot be forced.
func (c *Computer) ForceProcess(mnemonic string) error {
	idx, ok := c.ProcessIndex(mnemonic)
	if !ok {
		return fmt.Errorf("computer: force %q: %w", mnemonic, ErrNoSuchProcess)
	}
	p := &c.Processes[idx]
	if p.Flags&ProcDisabled != 0 {
		return fmt.Errorf("computer: force %q: process disabled", mnemonic)
	}
	if c.Current == idx && p.Flags&ProcRunning != 0 {
		return nil
	}
	if c.Current >= 0 && c.validProcess(c.Current) {
		c.suspendProcess(c.Current, c.turn)
	}
	if !c.setupProcess(idx, c.turn) {
		return fmt.Errorf("computer: force %q: setup failed", mnemonic)
	}
	return nil
}

// ReactivateProcesses clears the disabled and done flags of every process
// targeting the given value and returns how many were touched.
func (c *Computer) ReactivateProcesses(target int) int {
	n := 0
	for i := range c.Processes {
		p := &c.Processes[i]
		if p.terminal() {
			break
		}
		if p.Target != target || p.Flags&ProcRunning != 0 {
			continue
		}
		p.Flags &^= ProcDisabled | ProcDone
		p.LastRun = 0
		n++
	}
	return n
}

// EnableLinked re-enables every process whose parent template is parent.
func (c *Computer) EnableLinked(parent string) int {
	n := 0
	for i := range c.Processes {
		p := &c.Processes[i]
		if p.terminal() {
			break
		}
		if p.Parent != parent || p.Flags&ProcRunning != 0 {
			continue
		}
		p.Flags &^= ProcDisabled | ProcDone
		c.resetProcess(i)
		n++
	}
	return n
}
