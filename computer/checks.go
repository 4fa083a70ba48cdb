package computer

// pollChecks fires every check whose interval has elapsed, in array order,
// until the sentinel or until the action budget is spent.
func (c *Computer) pollChecks(turn Turn) {
	for i := range c.Checks {
		if c.Budget <= 0 {
			return
		}
		chk := &c.Checks[i]
		if chk.Flags&CheckTerminal != 0 {
			return
		}
		if chk.Flags&CheckDisabled != 0 {
			continue
		}
		if chk.Fn.Fn == nil || turn-chk.LastRun <= chk.Interval {
			continue
		}
		chk.LastRun = turn
		c.Budget--
		res := chk.Fn.Fn(c, chk)
		c.record(TraceCheck, chk.Mnemonic, i, res.String())
	}
}

// EnableCheck sets or clears the disabled flag of the named check.
func (c *Computer) EnableCheck(mnemonic string, enabled bool) bool {
	for i := range c.Checks {
		chk := &c.Checks[i]
		if chk.Flags&CheckTerminal != 0 {
			return false
		}
		if chk.Mnemonic != mnemonic {
			continue
		}
		if enabled {
			chk.Flags &^= CheckDisabled
		} else {
			chk.Flags |= CheckDisabled
		}
		return true
	}
	return false
}
