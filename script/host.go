package script

import (
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/milk9111/keeperai/computer"
)

// hostAPI exposes the instance to a script as the `ai` argument.
func hostAPI(c *computer.Computer) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}
	d := c.Dungeon()

	intFn := func(name string, fn func() int) {
		values[name] = &tengo.UserFunction{Name: name, Value: func(args ...tengo.Object) (tengo.Object, error) {
			return &tengo.Int{Value: int64(fn())}, nil
		}}
	}

	intFn("turn", func() int { return int(c.Turn()) })
	intFn("player", func() int { return int(c.Player) })
	intFn("gold", func() int {
		if d == nil {
			return 0
		}
		return d.Gold()
	})
	intFn("known_gold", func() int {
		if d == nil {
			return 0
		}
		return d.KnownGold()
	})
	intFn("creatures", func() int { return countCreatures(c, func(computer.Creature) bool { return true }) })
	intFn("diggers", func() int { return countCreatures(c, func(cr computer.Creature) bool { return cr.Digger }) })
	intFn("fighters", func() int {
		return countCreatures(c, func(cr computer.Creature) bool { return !cr.Digger })
	})

	values["has_heart"] = &tengo.UserFunction{Name: "has_heart", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return boolObject(d != nil && d.HasHeart()), nil
	}}

	values["rand"] = &tengo.UserFunction{Name: "rand", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		n, ok := tengo.ToInt(args[0])
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "n", Expected: "int", Found: args[0].TypeName()}
		}
		if n <= 0 {
			return &tengo.Int{Value: 0}, nil
		}
		return &tengo.Int{Value: int64(c.Rand().IntN(n))}, nil
	}}

	values["rooms"] = &tengo.UserFunction{Name: "rooms", Value: func(args ...tengo.Object) (tengo.Object, error) {
		kind, err := roomArg(args)
		if err != nil {
			return nil, err
		}
		n := 0
		c.EachRoom(func(r computer.Room) bool {
			if r.Kind == kind {
				n++
			}
			return true
		})
		return &tengo.Int{Value: int64(n)}, nil
	}}

	values["room_used_pct"] = &tengo.UserFunction{Name: "room_used_pct", Value: func(args ...tengo.Object) (tengo.Object, error) {
		kind, err := roomArg(args)
		if err != nil {
			return nil, err
		}
		capacity, used := 0, 0
		c.EachRoom(func(r computer.Room) bool {
			if r.Kind == kind {
				capacity += r.Capacity
				used += r.Used
			}
			return true
		})
		if capacity == 0 {
			return &tengo.Int{Value: 0}, nil
		}
		return &tengo.Int{Value: int64(used * 100 / capacity)}, nil
	}}

	values["available"] = &tengo.UserFunction{Name: "available", Value: func(args ...tengo.Object) (tengo.Object, error) {
		kind, err := roomArg(args)
		if err != nil {
			return nil, err
		}
		if d == nil {
			return &tengo.String{Value: "never"}, nil
		}
		switch d.RoomAvailable(kind) {
		case computer.AvailNow:
			return &tengo.String{Value: "now"}, nil
		case computer.AvailLater:
			return &tengo.String{Value: "later"}, nil
		}
		return &tengo.String{Value: "never"}, nil
	}}

	values["count_tasks"] = &tengo.UserFunction{Name: "count_tasks", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		kind, ok := computer.ParseTaskKind(objectAsString(args[0]))
		if !ok {
			return &tengo.Int{Value: 0}, nil
		}
		return &tengo.Int{Value: int64(c.CountTasks(kind))}, nil
	}}

	values["has_tasks"] = &tengo.UserFunction{Name: "has_tasks", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		idx, ok := c.ProcessIndex(objectAsString(args[0]))
		if !ok || c.World() == nil {
			return tengo.FalseValue, nil
		}
		return boolObject(c.World().Tasks().HasTasksFor(c.Player, idx)), nil
	}}

	values["create_task"] = &tengo.UserFunction{Name: "create_task", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 || len(args) > 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		kind, ok := computer.ParseTaskKind(objectAsString(args[0]))
		if !ok {
			return tengo.FalseValue, nil
		}
		req := computer.TaskRequest{Kind: kind, Process: -1}
		if len(args) == 2 {
			opts, ok := args[1].(*tengo.Map)
			if !ok {
				return nil, tengo.ErrInvalidArgumentType{Name: "options", Expected: "map", Found: args[1].TypeName()}
			}
			applyTaskOptions(c, &req, opts)
		}
		id, err := c.CreateTask(req)
		if err != nil {
			return tengo.FalseValue, nil
		}
		return &tengo.Int{Value: int64(id)}, nil
	}}

	values["force"] = &tengo.UserFunction{Name: "force", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		return boolObject(c.ForceProcess(objectAsString(args[0])) == nil), nil
	}}

	values["enable_check"] = &tengo.UserFunction{Name: "enable_check", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		return boolObject(c.EnableCheck(objectAsString(args[0]), !args[1].IsFalsy())), nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		c.Logger().Debug("script: " + strings.Join(parts, " "))
		return tengo.UndefinedValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func countCreatures(c *computer.Computer, match func(computer.Creature) bool) int {
	n := 0
	c.EachCreature(func(cr computer.Creature) bool {
		if match(cr) {
			n++
		}
		return true
	})
	return n
}

func roomArg(args []tengo.Object) (computer.RoomKind, error) {
	if len(args) != 1 {
		return computer.RoomNone, tengo.ErrWrongNumArguments
	}
	if n, ok := args[0].(*tengo.Int); ok {
		return computer.RoomKind(n.Value), nil
	}
	kind, _ := computer.ParseRoomKind(objectAsString(args[0]))
	return kind, nil
}

func applyTaskOptions(c *computer.Computer, req *computer.TaskRequest, opts *tengo.Map) {
	for k, v := range opts.Value {
		if k == "process" {
			if idx, ok := c.ProcessIndex(objectAsString(v)); ok {
				req.Process = idx
			}
			continue
		}
		n, ok := tengo.ToInt(v)
		if !ok {
			continue
		}
		switch k {
		case "target":
			req.Target = n
		case "subject":
			req.Subject = n
		case "x":
			req.X = n
		case "y":
			req.Y = n
		case "width":
			req.Width = n
		case "height":
			req.Height = n
		case "amount":
			req.Amount = n
		}
	}
}

func boolObject(b bool) tengo.Object {
	if b {
		return tengo.TrueValue
	}
	return tengo.FalseValue
}

func paramsArray(params [4]int) *tengo.Array {
	arr := &tengo.Array{Value: make([]tengo.Object, len(params))}
	for i, v := range params {
		arr.Value[i] = &tengo.Int{Value: int64(v)}
	}
	return arr
}

func processItem(p *computer.Process) *tengo.Map {
	return &tengo.Map{Value: map[string]tengo.Object{
		"name":     &tengo.String{Value: p.Name},
		"mnemonic": &tengo.String{Value: p.Mnemonic},
		"priority": &tengo.Int{Value: int64(p.Priority)},
		"width":    &tengo.Int{Value: int64(p.Width)},
		"height":   &tengo.Int{Value: int64(p.Height)},
		"target":   &tengo.Int{Value: int64(p.Target)},
		"cap":      &tengo.Int{Value: int64(p.Cap)},
		"params":   paramsArray(p.Params),
	}}
}

func checkItem(chk *computer.Check) *tengo.Map {
	return &tengo.Map{Value: map[string]tengo.Object{
		"name":     &tengo.String{Value: chk.Name},
		"mnemonic": &tengo.String{Value: chk.Mnemonic},
		"interval": &tengo.Int{Value: int64(chk.Interval)},
		"params":   paramsArray(chk.Params),
	}}
}

func eventItem(ev *computer.Event, gev *computer.GameEvent) *tengo.Map {
	item := &tengo.Map{Value: map[string]tengo.Object{
		"name":     &tengo.String{Value: ev.Name},
		"mnemonic": &tengo.String{Value: ev.Mnemonic},
		"process":  &tengo.String{Value: ev.Process},
		"params":   paramsArray(ev.Params),
		"event":    tengo.UndefinedValue,
	}}
	if gev != nil {
		item.Value["event"] = &tengo.ImmutableMap{Value: map[string]tengo.Object{
			"kind":   &tengo.Int{Value: int64(gev.Kind)},
			"target": &tengo.Int{Value: int64(gev.Target)},
			"x":      &tengo.Int{Value: int64(gev.X)},
			"y":      &tengo.Int{Value: int64(gev.Y)},
		}}
	}
	return item
}

// readParams copies the scratch counters back from the item map.
func readParams(item *tengo.Map, params *[4]int) {
	arr, ok := item.Value["params"].(*tengo.Array)
	if !ok {
		return
	}
	for i := range params {
		if i >= len(arr.Value) {
			break
		}
		if n, ok := tengo.ToInt(arr.Value[i]); ok {
			params[i] = n
		}
	}
}

// readProcess copies the fields a script may tune back into the process.
func readProcess(item *tengo.Map, p *computer.Process) {
	readParams(item, &p.Params)
	if n, ok := tengo.ToInt(item.Value["width"]); ok {
		p.Width = n
	}
	if n, ok := tengo.ToInt(item.Value["height"]); ok {
		p.Height = n
	}
	if n, ok := tengo.ToInt(item.Value["target"]); ok {
		p.Target = n
	}
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}
