package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/itsmostafa/goconsole/internal/console"
	"github.com/itsmostafa/goconsole/internal/transcript"
	"github.com/spf13/cobra"
)

var mode string
var tabWidth int
var ctrlDExits bool

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive console session",
	Long:  `Start an interactive JavaScript console session on the terminal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		execMode, err := console.ValidateMode(mode)
		if err != nil {
			return err
		}
		return runRepl(cmd, execMode)
	},
}

func init() {
	// Execution mode flag with env var fallback
	defaultMode := string(console.ModeThreaded)
	if envMode := os.Getenv("GOCONSOLE_MODE"); envMode != "" {
		defaultMode = envMode
	}
	replCmd.Flags().StringVar(&mode, "mode", defaultMode, "Execution mode (foreground, queued, threaded)")
	replCmd.Flags().IntVar(&tabWidth, "tab-width", 4, "Spaces per indent level")
	replCmd.Flags().BoolVar(&ctrlDExits, "ctrl-d-exits", false, "Let CTRL-D close the console")

	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, execMode console.Mode) error {
	out := cmd.OutOrStdout()

	c := console.New(console.Config{
		Mode:       execMode,
		TabWidth:   tabWidth,
		CtrlDExits: ctrlDExits,
	})
	done := make(chan struct{})
	c.OnExit = func() { close(done) }
	c.OnAppend = func(rec transcript.Record) { renderRecord(out, rec) }

	FormatBanner(out, string(execMode))
	// The first prompt was appended before the render hook was in place.
	if rec, err := c.Log().At(-1); err == nil {
		renderRecord(out, rec)
	}

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(cmd.InOrStdin())
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)
	defer signal.Stop(sigc)

	if execMode != console.ModeThreaded {
		// Cooperative modes: a blocked stdin read re-enters this loop, so feed
		// it terminal lines from inside the yield.
		c.Stdin.Yield = func() {
			select {
			case line, ok := <-lines:
				if ok {
					c.Stdin.Write(line + "\n")
				} else {
					c.Stdin.Close()
				}
			case <-time.After(10 * time.Millisecond):
			}
			c.Pump()
		}
	}

	for {
		select {
		case <-done:
			return nil
		case <-sigc:
			c.HandleInterrupt()
		case line, ok := <-lines:
			if !ok {
				c.HandleEOF()
				c.Exit()
				return nil
			}
			c.InsertInputText(line)
			c.ProcessInput(c.InputBuffer())
			for c.Executing() {
				select {
				case l, ok := <-lines:
					if ok {
						c.Stdin.Write(l + "\n")
					} else {
						c.Stdin.Close()
					}
				case <-sigc:
					c.HandleInterrupt()
				case <-time.After(20 * time.Millisecond):
				}
				c.Pump()
			}
		}
		c.Pump()
	}
}

// renderRecord prints one transcript record to the terminal.
func renderRecord(w io.Writer, rec transcript.Record) {
	switch rec.Domain {
	case transcript.DomainInput:
		prompt := strings.TrimSuffix(rec.Prompt, "\n")
		style := inPromptStyle
		if strings.HasPrefix(prompt, "...") {
			style = contPromptStyle
		}
		fmt.Fprint(w, style.Render(prompt))
	case transcript.DomainOutput:
		if prompt := strings.TrimSuffix(rec.Prompt, "\n"); prompt != "" && !strings.HasPrefix(rec.Prompt, "\n") {
			fmt.Fprint(w, outPromptStyle.Render(prompt))
		}
		fmt.Fprint(w, rec.Text)
		if !strings.HasSuffix(rec.Text, "\n") {
			fmt.Fprintln(w)
		}
	default:
		fmt.Fprint(w, rec.Text)
	}
}
