// Package interp provides the worker context: a persistent goja runtime whose
// globals form the live namespace shared across submissions, with stdin and
// stdout bridged onto console streams.
package interp

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/dop251/goja"

	"github.com/itsmostafa/goconsole/internal/stream"
)

// Interpreter executes JavaScript source against a live namespace. It is not
// safe for concurrent use; an execution controller owns it and serializes
// submissions. Interrupt is the one exception and may be called from any
// goroutine.
type Interpreter struct {
	vm     *goja.Runtime
	stdin  *stream.Stream
	stdout *stream.Stream
}

// New creates a worker context reading from stdin and printing to stdout.
func New(stdin, stdout *stream.Stream) *Interpreter {
	it := &Interpreter{
		vm:     goja.New(),
		stdin:  stdin,
		stdout: stdout,
	}
	it.setupGlobals()
	return it
}

// Incomplete reports whether source is a syntactically unfinished statement
// that should be continued on the next line rather than executed.
func Incomplete(source string) bool {
	if _, err := goja.Parse("<console>", source); err != nil {
		return strings.Contains(err.Error(), "Unexpected end of input")
	}
	return false
}

// RunSource compiles and runs source against the live namespace. Errors
// thrown by the code are rendered to stdout as ordinary output and still count
// as executed; only an interrupt makes executed false. Printed text goes
// exclusively through stdout, never through the return value.
func (it *Interpreter) RunSource(source string) (executed bool, value string, hasValue bool) {
	val, err := it.vm.RunString(source)
	if err != nil {
		if interrupted(err) {
			it.stdout.Write("\nExecution interrupted\n")
			return false, "", false
		}
		it.stdout.Write(formatError(err) + "\n")
		return true, "", false
	}
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return true, "", false
	}
	return true, FormatValue(val), true
}

// Interrupt delivers a best-effort asynchronous interrupt to running code. It
// takes effect at the next safe point inside the runtime; code blocked in a
// stream read must additionally be woken through the stream itself.
func (it *Interpreter) Interrupt(reason string) {
	it.vm.Interrupt(reason)
}

// ClearInterrupt removes a pending interrupt so the next submission starts
// clean.
func (it *Interpreter) ClearInterrupt() {
	it.vm.ClearInterrupt()
}

// PushLocal injects a value into the live namespace.
func (it *Interpreter) PushLocal(name string, value any) error {
	return it.vm.Set(name, value)
}

// Completions returns names in the live namespace matching the trailing
// identifier of line, sorted.
func (it *Interpreter) Completions(line string) []string {
	prefix := line
	if i := strings.LastIndexFunc(line, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$'
	}); i >= 0 {
		prefix = line[i+1:]
	}
	var names []string
	for _, key := range it.vm.GlobalObject().Keys() {
		if strings.HasPrefix(key, prefix) {
			names = append(names, key)
		}
	}
	sort.Strings(names)
	return names
}

// setupGlobals wires the builtins that bridge the runtime onto the streams.
func (it *Interpreter) setupGlobals() {
	vm := it.vm

	printFunc := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		it.stdout.Write(strings.Join(parts, " ") + "\n")
		return goja.Undefined()
	}
	_ = vm.Set("print", printFunc)

	console := vm.NewObject()
	_ = console.Set("log", printFunc)
	_ = vm.Set("console", console)

	// input([prompt]) blocks until a full line arrives on stdin. On EOF it
	// returns the empty string. When the wait is broken by a cancellation the
	// runtime already carries a pending interrupt, so an interrupted read also
	// surfaces as a thrown error rather than a value.
	_ = vm.Set("input", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 {
			it.stdout.Write(call.Arguments[0].String())
		}
		line, err := it.stdin.ReadLine(true, 0)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return vm.ToValue("")
			}
			panic(vm.NewGoError(err))
		}
		return vm.ToValue(line)
	})
}

// interrupted reports whether err is the result of an asynchronous interrupt,
// either goja's own interrupt error or a stream read broken by cancellation.
func interrupted(err error) bool {
	if _, ok := err.(*goja.InterruptedError); ok {
		return true
	}
	return strings.Contains(err.Error(), stream.ErrInterrupted.Error())
}

// formatError renders a runtime or compile error as transcript output text.
func formatError(err error) string {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return ex.String()
	}
	return err.Error()
}

// FormatValue formats a result value for display in the transcript.
func FormatValue(val goja.Value) string {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return ""
	}
	exported := val.Export()
	switch v := exported.(type) {
	case string:
		if len(v) > 1000 {
			return fmt.Sprintf("%q... (truncated, total %d chars)", v[:1000], len(v))
		}
		return fmt.Sprintf("%q", v)
	case []any:
		if len(v) == 0 {
			return "[]"
		}
		if len(v) > 20 {
			items := make([]string, 21)
			for i := 0; i < 20; i++ {
				items[i] = fmt.Sprintf("%v", v[i])
			}
			items[20] = fmt.Sprintf("... (%d more items)", len(v)-20)
			return "[" + strings.Join(items, ", ") + "]"
		}
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = fmt.Sprintf("%v", item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}
