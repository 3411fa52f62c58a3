package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/chazu/treelox/manifest"
	"github.com/chazu/treelox/vm"
)

// session is one REPL run: every submitted line is an independent program
// sharing the interpreter's global frame.
type session struct {
	in     *vm.Interpreter
	stdout io.Writer
	stderr io.Writer
}

// handle runs one line of input and reports whether the session should end.
// Errors are printed and never end the session.
func (s *session) handle(line string) (quit bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, ":") {
		return s.command(line)
	}
	if err := s.in.Eval(line); err != nil {
		fmt.Fprintln(s.stderr, err)
	}
	return false
}

// command handles REPL meta-commands.
func (s *session) command(cmd string) (quit bool) {
	switch cmd {
	case ":quit", ":q":
		return true
	case ":help", ":h", ":?":
		fmt.Fprintln(s.stdout, "REPL Commands:")
		fmt.Fprintln(s.stdout, "  :help, :h, :?     Show this help")
		fmt.Fprintln(s.stdout, "  :globals          List names bound in the global frame")
		fmt.Fprintln(s.stdout, "  :quit, :q         Leave the REPL")
	case ":globals":
		for _, name := range s.in.Globals().Names() {
			v, _ := s.in.Globals().Lookup(name)
			fmt.Fprintf(s.stdout, "  %-12s %s\n", name, vm.Stringify(v))
		}
	default:
		fmt.Fprintf(s.stderr, "Unknown command %s. Type :help for commands.\n", cmd)
	}
	return false
}

// runREPL reads submissions through liner. The read native shares the same
// line editor, so no second reader buffers the terminal.
func runREPL(opts []vm.Option, m *manifest.Manifest, stdout, stderr io.Writer) error {
	fmt.Fprintf(stdout, "treelox %s (:help for commands, :quit to exit)\n", version)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	in := vm.New(append(opts, vm.WithLineReader(func() (string, error) {
		return ln.Prompt("")
	}))...)

	histPath := m.HistoryPath()
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			} else {
				log.Warningf("cannot save history: %s", err)
			}
		}()
	}

	s := &session{in: in, stdout: stdout, stderr: stderr}
	for {
		line, err := ln.Prompt(m.Repl.Prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(stdout)
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
		if s.handle(line) {
			return nil
		}
	}
}
