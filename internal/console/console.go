// Package console glues an editable input region onto an append-mostly
// transcript and drives the submit/cancel/exit protocol of the execution
// controller. Rendering, key routing and history navigation are external
// collaborators; they consume the transcript through Log lookups and the
// OnAppend callback and edit only through the clamped input-buffer operations.
package console

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/itsmostafa/goconsole/internal/interp"
	"github.com/itsmostafa/goconsole/internal/stream"
	"github.com/itsmostafa/goconsole/internal/transcript"
)

// Completer resolves name completions for a partial input line. Optional
// capability: a console without one reports that completion is unsupported.
type Completer interface {
	Completions(line string) []string
}

// Config controls console construction.
type Config struct {
	Mode       Mode
	TabWidth   int // spaces per indent level, default 4
	CtrlDExits bool

	// PS1, PS2 and PSOut override the input, continuation and output prompts.
	PS1   string
	PS2   string
	PSOut string

	// Executor, when set, replaces the mode-selected backend with an
	// externally driven one.
	Executor ExecutorFactory
}

// Console owns the transcript document, the editable tail region and the
// execution controller state. All methods except those documented otherwise
// must be called from the foreground.
type Console struct {
	log *transcript.Log
	doc []rune

	promptPos int // start of the editable region; history before it is append-only
	promptEnd int // end of the not-yet-submitted text
	cursor    int
	anchor    int

	tabChars    string
	ctrlDExits  bool
	ps1         string
	ps2         string
	psOut       string
	currentLine int
	more        bool // a statement is incomplete and awaiting continuation
	pending     string
	lastInput   string
	running     bool
	exited      bool

	mode   Mode
	interp *interp.Interpreter
	exec   Executor
	queue  *taskQueue

	// Stdin and Stdout are the worker-facing stream surrogates.
	Stdin  *stream.Stream
	Stdout *stream.Stream

	// Completer resolves completions; defaults to the worker namespace.
	Completer Completer

	// OnAppend is invoked for every appended transcript record. The rendering
	// collaborator hook.
	OnAppend func(transcript.Record)

	// OnExit is invoked once when the console shuts down.
	OnExit func()
}

// New constructs a console, wires its streams and executor, and shows the
// first prompt.
func New(cfg Config) *Console {
	if cfg.Mode == "" {
		cfg.Mode = ModeForeground
	}
	if cfg.TabWidth <= 0 {
		cfg.TabWidth = 4
	}
	if cfg.PS1 == "" {
		cfg.PS1 = "IN [%d]: "
	}
	if cfg.PS2 == "" {
		cfg.PS2 = "...: "
	}
	if cfg.PSOut == "" {
		cfg.PSOut = "OUT[%d]: "
	}

	c := &Console{
		log:        transcript.NewLog(),
		tabChars:   strings.Repeat(" ", cfg.TabWidth),
		ctrlDExits: cfg.CtrlDExits,
		ps1:        cfg.PS1,
		ps2:        cfg.PS2,
		psOut:      cfg.PSOut,
		mode:       cfg.Mode,
		queue:      newTaskQueue(),
		Stdin:      stream.New(),
		Stdout:     stream.New(),
	}
	c.interp = interp.New(c.Stdin, c.Stdout)
	c.Completer = c.interp

	if cfg.Mode == ModeThreaded {
		// The worker goroutine writes from its own thread of control; its
		// output must be marshaled onto the foreground queue.
		c.Stdout.OnWrite = func(data string) {
			c.queue.post(func() { c.handleStdoutData(data) })
		}
	} else {
		c.Stdout.OnWrite = c.handleStdoutData
		// Cooperative models: a blocking stdin read re-enters the foreground
		// loop until a writer supplies a line.
		c.Stdin.Yield = func() { c.queue.waitDrain(10 * time.Millisecond) }
	}

	switch {
	case cfg.Executor != nil:
		c.exec = cfg.Executor(c.interp, c.Stdin, c.queue.post, c.finishCommand)
	case cfg.Mode == ModeThreaded:
		c.exec = newThreadedExecutor(c.interp, c.Stdin, c.queue.post, c.finishCommand)
	case cfg.Mode == ModeQueued:
		c.exec = newQueuedExecutor(c.interp, c.queue.post, c.finishCommand)
	default:
		c.exec = newForegroundExecutor(c.interp, c.finishCommand)
	}

	c.showPrompt()
	return c
}

// Log exposes the transcript for read-only collaborators.
func (c *Console) Log() *transcript.Log {
	return c.log
}

// Text returns the full transcript document.
func (c *Console) Text() string {
	return string(c.doc)
}

// PromptForLine returns the margin prompt fragment for one rendered row.
func (c *Console) PromptForLine(line int) string {
	return c.log.PromptForLine(line)
}

// Executing reports whether a submission is in flight.
func (c *Console) Executing() bool {
	return c.running
}

// Append adds a record to the transcript, growing the document and advancing
// the editable region past the new content. Always legal.
func (c *Console) Append(domain transcript.Domain, prompt, text string) {
	insNewline := ""
	if last, ok := c.log.Last(); ok && !strings.HasSuffix(last.Text, "\n") {
		insNewline = "\n"
	}
	rec := transcript.Record{Domain: domain, Prompt: prompt, Text: text}
	c.log.Append(rec)
	c.doc = append(c.doc, []rune(insNewline+text)...)
	c.promptPos = len(c.doc)
	c.promptEnd = len(c.doc)
	c.cursor = c.promptPos
	c.anchor = c.promptPos
	if c.OnAppend != nil {
		c.OnAppend(rec)
	}
}

// InputBuffer returns the not-yet-submitted text after the prompt.
func (c *Console) InputBuffer() string {
	return string(c.doc[c.promptPos:])
}

// CursorOffset returns the cursor index within the input buffer.
func (c *Console) CursorOffset() int {
	return c.cursor - c.promptPos
}

// SetSelection places anchor and cursor, clamped into the editable region.
func (c *Console) SetSelection(anchor, cursor int) {
	c.anchor = c.clampPos(anchor)
	c.cursor = c.clampPos(cursor)
}

// Selection returns the current anchor and cursor positions.
func (c *Console) Selection() (anchor, cursor int) {
	return c.anchor, c.cursor
}

// InsertInputText inserts text at the cursor, replacing any selection. Edits
// outside the editable region are clamped back into it; finalized history is
// never touched.
func (c *Console) InsertInputText(text string) {
	c.keepCursorInBuffer()
	c.removeSelectedInput()
	r := []rune(text)
	c.doc = slices.Insert(c.doc, c.cursor, r...)
	c.cursor += len(r)
	c.anchor = c.cursor
	c.promptEnd = len(c.doc)
}

// ClearInputBuffer removes all not-yet-submitted text.
func (c *Console) ClearInputBuffer() {
	c.anchor = c.promptPos
	c.cursor = c.promptEnd
	c.removeSelectedInput()
}

// Backspace deletes the selection, or one character, or a full tab block when
// the text before the cursor ends exactly on a tab stop.
func (c *Console) Backspace() {
	c.keepCursorInBuffer()
	if c.cursor != c.anchor {
		c.removeSelectedInput()
		return
	}
	if c.CursorOffset() < 1 {
		return
	}
	left := c.lineUntilCursor()
	n := 1
	// column arithmetic is in runes, not bytes
	if len([]rune(left))%len(c.tabChars) == 0 && strings.HasSuffix(left, c.tabChars) {
		n = len(c.tabChars)
	}
	c.anchor = c.clampPos(c.cursor - n)
	c.removeSelectedInput()
}

// Delete deletes the selection, or one character after the cursor, or a full
// tab block when the cursor sits exactly on a tab stop before one.
func (c *Console) Delete() {
	c.keepCursorInBuffer()
	if c.cursor != c.anchor {
		c.removeSelectedInput()
		return
	}
	buf := c.InputBuffer()
	off := c.CursorOffset()
	if off >= len([]rune(buf)) {
		return
	}
	left := c.lineUntilCursor()
	right := c.lineAfterCursor()
	n := 1
	if len([]rune(left))%len(c.tabChars) == 0 && strings.HasPrefix(right, c.tabChars) {
		n = len(c.tabChars)
	}
	c.anchor = c.clampPos(c.cursor + n)
	c.removeSelectedInput()
}

// Indent shifts every line touched by the selection by exactly one tab block,
// preserving relative intra-line indentation, and moves the selection
// endpoints with the shifted text. With indent false it removes at most one
// tab block per line.
func (c *Console) Indent(indent bool) {
	buf := []rune(c.InputBuffer())
	tab := c.tabChars
	pos0 := min(c.anchor, c.cursor) - c.promptPos
	pos1 := max(c.anchor, c.cursor) - c.promptPos
	line0 := countRune(buf[:pos0], '\n')
	line1 := countRune(buf[:pos1], '\n')
	lines := strings.Split(string(buf), "\n")
	for i := line0; i <= line1 && i < len(lines); i++ {
		line := lines[i]
		if indent {
			// Indenting to the next tab boundary would lose relative sub-tab
			// indentation, so always shift by a full tab.
			lines[i] = tab + line
		} else if len(line) >= len(tab) {
			lines[i] = strings.TrimLeft(line[:len(tab)], " ") + line[len(tab):]
		} else {
			lines[i] = strings.TrimLeft(line, " ")
		}
		num := len(lines[i]) - len(line)
		if i == line0 {
			pos0 += num
		}
		pos1 += num
	}
	c.ClearInputBuffer()
	c.InsertInputText(strings.Join(lines, "\n"))
	c.SetSelection(c.promptPos+pos0, c.promptPos+pos1)
}

// ProcessInput handles a source snippet confirmed by the user: an incomplete
// statement buffers the line and re-prompts for a continuation; a complete one
// is dispatched to the executor.
func (c *Console) ProcessInput(buffer string) {
	if c.running || c.exited {
		return
	}
	c.finalizeInput(buffer)
	source := c.pending + buffer
	c.lastInput = source
	if interp.Incomplete(source) {
		c.pending = source + "\n"
		c.more = true
		c.showPrompt()
		return
	}
	c.pending = ""
	c.more = false
	c.running = true
	c.exec.RunSource(source)
}

// HandleInterrupt implements the interactive interrupt. While a submission is
// running it delivers a best-effort cancel to the worker; while idle it
// discards any buffered continuation and returns to a fresh prompt.
func (c *Console) HandleInterrupt() {
	if c.running {
		c.exec.Cancel()
		return
	}
	c.lastInput = ""
	c.pending = ""
	c.more = false
	c.Stdout.Write("^C\n")
	c.Pump()
	c.showPrompt()
}

// HandleEOF implements the ctrl-d behavior on an empty input buffer: exit when
// configured to, otherwise print the refusal notice.
func (c *Console) HandleEOF() {
	if c.InputBuffer() != "" {
		return
	}
	if c.ctrlDExits {
		c.Exit()
		return
	}
	c.insertOutputText("\nCan't use CTRL-D to exit, you have to exit the application!\n")
	c.more = false
	c.pending = ""
	c.showPrompt()
}

// Exit tears down the executor and closes the streams. Idempotent.
func (c *Console) Exit() {
	if c.exited {
		return
	}
	c.exited = true
	c.exec.Exit()
	c.Stdin.Close()
	c.Stdout.Close()
	if c.OnExit != nil {
		c.OnExit()
	}
}

// Completions resolves completions for a partial line through the configured
// capability.
func (c *Console) Completions(line string) []string {
	if c.Completer == nil {
		return []string{"No completion support available"}
	}
	return c.Completer.Completions(line)
}

// PushLocal injects a value into the worker namespace. Only valid while no
// submission is running.
func (c *Console) PushLocal(name string, value any) error {
	return c.interp.PushLocal(name, value)
}

// Post schedules fn on the foreground task queue. Safe from any goroutine.
func (c *Console) Post(fn func()) {
	c.queue.post(fn)
}

// Pump runs all queued foreground tasks. It is the single consumer for worker
// results and stream notifications and must be called from the embedding
// host's own loop.
func (c *Console) Pump() int {
	return c.queue.drain()
}

// WaitIdle pumps foreground tasks until no submission is executing. A timeout
// of 0 waits indefinitely. Returns false when the timeout elapses first.
func (c *Console) WaitIdle(timeout time.Duration) bool {
	var deadline <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		deadline = t.C
	}
	for {
		c.Pump()
		if !c.running {
			return true
		}
		select {
		case <-c.queue.wake:
		case <-deadline:
			return false
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// finishCommand is the completion path for every executor: show the result
// record if there is one, advance the line counter, and re-prompt.
func (c *Console) finishCommand(res Result) {
	c.running = false
	if c.exited {
		return
	}
	if res.HasValue {
		c.Append(transcript.DomainOutput, fmt.Sprintf(c.psOut, c.currentLine), res.Value)
	}
	if res.Executed && c.lastInput != "" {
		c.currentLine++
	}
	c.showPrompt()
}

// showPrompt appends the next input prompt record: the continuation prompt
// while a statement is incomplete, otherwise the numbered input prompt with a
// blank separator after non-input output.
func (c *Console) showPrompt() {
	var ps string
	if c.more {
		ps = c.ps2
	} else {
		if last, ok := c.log.Last(); ok && last.Domain != transcript.DomainInput {
			c.Append(transcript.DomainControl, "\n", "\n")
		}
		ps = fmt.Sprintf(c.ps1, c.currentLine)
	}
	c.Append(transcript.DomainInput, ps+"\n", "")
}

// finalizeInput turns the typed buffer into the transcript text of the prompt
// record it was typed behind, and moves the editable region past it.
func (c *Console) finalizeInput(buffer string) {
	if n := c.log.Len(); n > 0 {
		if rec, err := c.log.At(n - 1); err == nil && rec.Domain == transcript.DomainInput {
			rec.Text = buffer + "\n"
			if err := c.log.Set(n-1, rec); err != nil {
				panic(fmt.Sprintf("console: input record vanished: %v", err))
			}
		}
	}
	c.doc = append(c.doc, '\n')
	c.promptPos = len(c.doc)
	c.promptEnd = len(c.doc)
	c.cursor = c.promptPos
	c.anchor = c.promptPos
}

// handleStdoutData appends printed worker output to the transcript. Runs on
// the foreground.
func (c *Console) handleStdoutData(data string) {
	num := strings.Count(data, "\n")
	if !strings.HasSuffix(data, "\n") {
		num++
	}
	c.Append(transcript.DomainStdout, strings.Repeat("\n", num), data)
}

// insertOutputText appends host-generated output such as control notices.
func (c *Console) insertOutputText(text string) {
	c.Append(transcript.DomainOutput, strings.Repeat("\n", strings.Count(text, "\n")), text)
}

func (c *Console) clampPos(p int) int {
	if p < c.promptPos {
		return c.promptPos
	}
	if p > c.promptEnd {
		return c.promptEnd
	}
	return p
}

// keepCursorInBuffer clamps cursor and anchor into the editable region.
func (c *Console) keepCursorInBuffer() {
	c.anchor = c.clampPos(c.anchor)
	c.cursor = c.clampPos(c.cursor)
}

// removeSelectedInput deletes the selected range from the input buffer.
func (c *Console) removeSelectedInput() {
	if c.cursor == c.anchor {
		return
	}
	lo := min(c.anchor, c.cursor)
	hi := max(c.anchor, c.cursor)
	c.doc = append(c.doc[:lo], c.doc[hi:]...)
	c.cursor = lo
	c.anchor = lo
	c.promptEnd = len(c.doc)
}

// lineUntilCursor returns the current buffer line up to the cursor.
func (c *Console) lineUntilCursor() string {
	buf := []rune(c.InputBuffer())
	left := string(buf[:c.CursorOffset()])
	if i := strings.LastIndexByte(left, '\n'); i >= 0 {
		return left[i+1:]
	}
	return left
}

// lineAfterCursor returns the current buffer line after the cursor.
func (c *Console) lineAfterCursor() string {
	buf := []rune(c.InputBuffer())
	right := string(buf[c.CursorOffset():])
	if i := strings.IndexByte(right, '\n'); i >= 0 {
		return right[:i]
	}
	return right
}

func countRune(rs []rune, r rune) int {
	n := 0
	for _, x := range rs {
		if x == r {
			n++
		}
	}
	return n
}
