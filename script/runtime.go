package script

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/keeperai/computer"
)

// Prefix marks callback names served by scripts: "script:<file>.<function>".
const Prefix = "script:"

// Modules whose output does not depend on wall time, the OS or global state.
var deterministicModules = []string{"math", "text", "enum", "base64", "hex", "json"}

const maxAllocs = 50000

var ErrBadName = errors.New("malformed script callback name")

// IsScript reports whether a callback name refers to a script.
func IsScript(name string) bool {
	return strings.HasPrefix(name, Prefix)
}

// Runtime compiles script callbacks on demand and caches them per name.
type Runtime struct {
	dir      string
	log      *slog.Logger
	compiled map[string]*tengo.Compiled
}

// NewRuntime returns a runtime reading scripts from dir (disk override) and
// the embedded set.
func NewRuntime(dir string, log *slog.Logger) *Runtime {
	if log == nil {
		log = slog.Default()
	}
	return &Runtime{
		dir:      dir,
		log:      log,
		compiled: map[string]*tengo.Compiled{},
	}
}

// Reset drops every compiled script so the next lookup reads the sources again.
func (r *Runtime) Reset() {
	clear(r.compiled)
}

// splitName parses "script:<file>.<function>".
func splitName(name string) (file, fn string, err error) {
	rest, ok := strings.CutPrefix(name, Prefix)
	if !ok {
		return "", "", fmt.Errorf("script: %q: %w", name, ErrBadName)
	}
	i := strings.LastIndexByte(rest, '.')
	if i <= 0 || i == len(rest)-1 {
		return "", "", fmt.Errorf("script: %q: %w", name, ErrBadName)
	}
	file, fn = rest[:i], rest[i+1:]
	if !isIdent(fn) {
		return "", "", fmt.Errorf("script: %q: %w", name, ErrBadName)
	}
	return file, fn, nil
}

func isIdent(s string) bool {
	for i, ch := range s {
		switch {
		case ch == '_', ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z':
		case i > 0 && ch >= '0' && ch <= '9':
		default:
			return false
		}
	}
	return s != ""
}

func (r *Runtime) compile(name string) (*tengo.Compiled, error) {
	if c, ok := r.compiled[name]; ok {
		return c, nil
	}
	file, fn, err := splitName(name)
	if err != nil {
		return nil, err
	}
	src, err := Load(r.dir, file)
	if err != nil {
		return nil, fmt.Errorf("script: load %s: %w", file, err)
	}

	// The callback is invoked by a dispatch line appended to the source.
	full := string(src) + "\n__result = " + fn + "(__ai, __item)\n"
	s := tengo.NewScript([]byte(full))
	_ = s.Add("__ai", map[string]any{})
	_ = s.Add("__item", map[string]any{})
	_ = s.Add("__result", nil)
	s.SetImports(stdlib.GetModuleMap(deterministicModules...))
	s.SetMaxAllocs(maxAllocs)

	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("script: compile %s: %w", name, err)
	}
	r.compiled[name] = compiled
	return compiled, nil
}

// run invokes the compiled callback with the host API and item map.
func run(compiled *tengo.Compiled, api *tengo.ImmutableMap, item *tengo.Map) (tengo.Object, error) {
	if err := compiled.Set("__ai", api); err != nil {
		return nil, err
	}
	if err := compiled.Set("__item", item); err != nil {
		return nil, err
	}
	if err := compiled.Set("__result", nil); err != nil {
		return nil, err
	}
	if err := compiled.Run(); err != nil {
		return nil, err
	}
	return compiled.Get("__result").Object(), nil
}

// Process resolves a process callback.
func (r *Runtime) Process(name string) (computer.ProcessBehavior, error) {
	compiled, err := r.compile(name)
	if err != nil {
		return computer.ProcessBehavior{ID: name}, err
	}
	return computer.ProcessBehavior{ID: name, Fn: func(c *computer.Computer, p *computer.Process) computer.Result {
		item := processItem(p)
		out, err := run(compiled, hostAPI(c), item)
		if err != nil {
			c.Logger().Error("script callback failed", "script", name, "process", p.Mnemonic, "err", err)
			return computer.Fail
		}
		readProcess(item, p)
		return toResult(out)
	}}, nil
}

// Check resolves a check callback.
func (r *Runtime) Check(name string) (computer.CheckBehavior, error) {
	compiled, err := r.compile(name)
	if err != nil {
		return computer.CheckBehavior{ID: name}, err
	}
	return computer.CheckBehavior{ID: name, Fn: func(c *computer.Computer, chk *computer.Check) computer.Result {
		item := checkItem(chk)
		out, err := run(compiled, hostAPI(c), item)
		if err != nil {
			c.Logger().Error("script callback failed", "script", name, "check", chk.Mnemonic, "err", err)
			return computer.Fail
		}
		readParams(item, &chk.Params)
		return toResult(out)
	}}, nil
}

// Event resolves an event handler.
func (r *Runtime) Event(name string) (computer.EventBehavior, error) {
	compiled, err := r.compile(name)
	if err != nil {
		return computer.EventBehavior{ID: name}, err
	}
	return computer.EventBehavior{ID: name, Fn: func(c *computer.Computer, ev *computer.Event, gev *computer.GameEvent) computer.Result {
		item := eventItem(ev, gev)
		out, err := run(compiled, hostAPI(c), item)
		if err != nil {
			c.Logger().Error("script callback failed", "script", name, "event", ev.Mnemonic, "err", err)
			return computer.Fail
		}
		readParams(item, &ev.Params)
		return toResult(out)
	}}, nil
}

// EventTest resolves an event test. Any truthy return value passes.
func (r *Runtime) EventTest(name string) (computer.EventTestBehavior, error) {
	compiled, err := r.compile(name)
	if err != nil {
		return computer.EventTestBehavior{ID: name}, err
	}
	return computer.EventTestBehavior{ID: name, Fn: func(c *computer.Computer, ev *computer.Event) bool {
		item := eventItem(ev, nil)
		out, err := run(compiled, hostAPI(c), item)
		if err != nil {
			c.Logger().Error("script callback failed", "script", name, "event", ev.Mnemonic, "err", err)
			return false
		}
		readParams(item, &ev.Params)
		return out != nil && !out.IsFalsy()
	}}, nil
}

// toResult maps a script return value to a Result. Scripts return one of
// "fail", "continue", "finish", "wait", the matching integer, or a bool.
// Returning nothing counts as continue.
func toResult(obj tengo.Object) computer.Result {
	switch v := obj.(type) {
	case nil, *tengo.Undefined:
		return computer.Continue
	case *tengo.Int:
		if r := computer.Result(v.Value); r >= computer.Fail && r <= computer.Wait {
			return r
		}
		return computer.Fail
	case *tengo.String:
		switch strings.ToLower(v.Value) {
		case "continue", "ok":
			return computer.Continue
		case "finish", "done":
			return computer.Finish
		case "wait":
			return computer.Wait
		}
		return computer.Fail
	case *tengo.Bool:
		if v.IsFalsy() {
			return computer.Fail
		}
		return computer.Continue
	default:
		return computer.Fail
	}
}
