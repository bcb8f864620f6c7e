// Package scripting runs JavaScript autoplay strategies against the casino
// controllers. A strategy defines dobet(), called after every settled bet,
// and may define round(), called before every mines reveal.
package scripting

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
)

const (
	scriptInitTimeout = 2 * time.Second
	scriptCallTimeout = time.Second
	defaultMaxLogs    = 500
)

// LogEntry is one line written by log() or console.log().
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// VM is a sandboxed goja runtime. goja runtimes are not goroutine safe, so
// every call into the runtime holds mu.
type VM struct {
	mu      sync.Mutex
	runtime *goja.Runtime

	stopRequested  bool
	resetRequested bool
	sleepMs        int

	logsMu  sync.Mutex
	logs    []LogEntry
	unsent  int
	maxLogs int
}

// NewVM creates a runtime with the strategy globals installed.
func NewVM() *VM {
	vm := &VM{
		runtime: goja.New(),
		maxLogs: defaultMaxLogs,
	}
	vm.installGlobals()
	installConstants(vm.runtime)
	return vm
}

func (vm *VM) installGlobals() {
	rt := vm.runtime

	logFn := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		vm.appendLog(strings.Join(parts, " "))
		return goja.Undefined()
	}
	_ = rt.Set("log", logFn)
	console := rt.NewObject()
	_ = console.Set("log", logFn)
	_ = rt.Set("console", console)

	// These run inside a call that already holds vm.mu.
	_ = rt.Set("stop", func(goja.FunctionCall) goja.Value {
		vm.stopRequested = true
		_ = rt.Set("running", false)
		return goja.Undefined()
	})
	_ = rt.Set("sleep", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 {
			vm.sleepMs = int(call.Arguments[0].ToInteger())
		}
		return goja.Undefined()
	})
	_ = rt.Set("resetstats", func(goja.FunctionCall) goja.Value {
		vm.resetRequested = true
		return goja.Undefined()
	})
	_ = rt.Set("cashout", func(goja.FunctionCall) goja.Value {
		_ = rt.Set("cashout_done", true)
		return goja.Undefined()
	})

	for _, name := range []string{"require", "fetch", "XMLHttpRequest", "eval", "Function"} {
		_ = rt.Set(name, goja.Undefined())
	}
}

func (vm *VM) appendLog(msg string) {
	vm.logsMu.Lock()
	defer vm.logsMu.Unlock()
	if len(vm.logs) >= vm.maxLogs {
		vm.logs = vm.logs[1:]
	}
	vm.logs = append(vm.logs, LogEntry{Time: time.Now(), Message: msg})
	if vm.unsent < len(vm.logs) {
		vm.unsent++
	}
}

// Execute runs the strategy source once so it can declare its globals.
func (vm *VM) Execute(source string) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.guarded(scriptInitTimeout, func() error {
		if _, err := vm.runtime.RunString(source); err != nil {
			return fmt.Errorf("script execution error: %w", err)
		}
		return nil
	})
}

// HasFunc reports whether the strategy defined a global function name.
func (vm *VM) HasFunc(name string) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	_, ok := goja.AssertFunction(vm.runtime.Get(name))
	return ok
}

// CallDobet invokes dobet().
func (vm *VM) CallDobet() error {
	_, err := vm.call("dobet")
	return err
}

// CallRound invokes round() and returns its result, which may be undefined.
func (vm *VM) CallRound() (goja.Value, error) {
	return vm.call("round")
}

func (vm *VM) call(name string) (goja.Value, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	fn, ok := goja.AssertFunction(vm.runtime.Get(name))
	if !ok {
		return nil, fmt.Errorf("%s() is not defined", name)
	}
	var out goja.Value
	err := vm.guarded(scriptCallTimeout, func() error {
		v, err := fn(goja.Undefined())
		if err != nil {
			return fmt.Errorf("%s() error: %w", name, err)
		}
		out = v
		return nil
	})
	return out, err
}

// guarded runs fn and interrupts the runtime if it outlives timeout.
func (vm *VM) guarded(timeout time.Duration, fn func() error) error {
	timer := time.AfterFunc(timeout, func() {
		vm.runtime.Interrupt("script execution timeout")
	})
	defer timer.Stop()

	err := fn()
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		vm.runtime.ClearInterrupt()
		return fmt.Errorf("script timed out after %s", timeout)
	}
	return err
}

// StopRequested reports whether the strategy called stop().
func (vm *VM) StopRequested() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.stopRequested
}

// TakeResetStats reports and clears a pending resetstats() call.
func (vm *VM) TakeResetStats() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	req := vm.resetRequested
	vm.resetRequested = false
	return req
}

// TakeSleep returns and clears the delay requested with sleep(ms). A
// sleeptime variable set directly by the strategy is honoured as well.
func (vm *VM) TakeSleep() time.Duration {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	ms := vm.sleepMs
	vm.sleepMs = 0
	if v := vm.runtime.Get("sleeptime"); ms == 0 && !isUndefinedOrNull(v) {
		ms = int(v.ToInteger())
	}
	_ = vm.runtime.Set("sleeptime", 0)
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// SetVariables pushes vars into the runtime.
func (vm *VM) SetVariables(vars *Variables) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	injectVariables(vm.runtime, vars)
}

// SyncVariables copies the strategy-writable globals back into vars.
func (vm *VM) SyncVariables(vars *Variables) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	syncFromVM(vm.runtime, vars)
}

// Logs returns a copy of the log buffer.
func (vm *VM) Logs() []LogEntry {
	vm.logsMu.Lock()
	defer vm.logsMu.Unlock()
	return append([]LogEntry(nil), vm.logs...)
}

// DrainNew returns the entries logged since the last drain.
func (vm *VM) DrainNew() []LogEntry {
	vm.logsMu.Lock()
	defer vm.logsMu.Unlock()
	if vm.unsent == 0 {
		return nil
	}
	out := append([]LogEntry(nil), vm.logs[len(vm.logs)-vm.unsent:]...)
	vm.unsent = 0
	return out
}

func isUndefinedOrNull(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}
