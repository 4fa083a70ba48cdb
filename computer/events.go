package computer

// dispatchEvents matches pending game events against the instance's events,
// then polls periodic events. Events do not spend the action budget.
func (c *Computer) dispatchEvents(turn Turn, pending []GameEvent) {
	for gi := range pending {
		gev := pending[gi]
		for i := range c.Events {
			ev := &c.Events[i]
			if ev.Flags&EventTerminal != 0 {
				break
			}
			if ev.Kind != EventOnGameEvent || ev.GameEvent != gev.Kind {
				continue
			}
			if ev.LastTest > 0 && turn-ev.LastTest < ev.TestInterval {
				continue
			}
			if !c.runEventTest(ev, i) {
				continue
			}
			if ev.Handler.Fn == nil {
				continue
			}
			res := ev.Handler.Fn(c, ev, &gev)
			c.record(TraceEvent, ev.Mnemonic, i, res.String())
			if res != Fail {
				ev.LastTest = turn
			}
		}
	}

	for i := range c.Events {
		ev := &c.Events[i]
		if ev.Flags&EventTerminal != 0 {
			break
		}
		if ev.Kind != EventPeriodic {
			continue
		}
		if turn-ev.LastTest < ev.TestInterval {
			continue
		}
		ev.LastTest = turn
		if !c.runEventTest(ev, i) || ev.Handler.Fn == nil {
			continue
		}
		res := ev.Handler.Fn(c, ev, nil)
		c.record(TraceEvent, ev.Mnemonic, i, res.String())
	}
}

func (c *Computer) runEventTest(ev *Event, idx int) bool {
	if ev.Test.Fn == nil {
		return true
	}
	ok := ev.Test.Fn(c, ev)
	result := "false"
	if ok {
		result = "true"
	}
	c.record(TraceEventTest, ev.Mnemonic, idx, result)
	return ok
}
