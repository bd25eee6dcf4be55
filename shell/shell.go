// Package shell composes the terminal, editor, history and runner into
// the interactive dispatch loop.
package shell

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/tishell/tish/config"
	"github.com/tishell/tish/editor"
	"github.com/tishell/tish/history"
	"github.com/tishell/tish/runner"
	"github.com/tishell/tish/terminal"
)

// Session owns the interactive state for the process's lifetime: one
// terminal, one editor, the history store and the runner.
type Session struct {
	cfg  config.Config
	term *terminal.Session
	ed   *editor.Editor
	hist *history.Store
	run  *runner.Runner
	log  *slog.Logger

	// Recall session state. The prefix is snapshotted from the pending
	// line when recall starts; any non-recall action ends the session.
	recalling bool
	saved     []byte
	prefix    []byte
	scratch   []byte
}

// New builds a session around an open terminal and history store.
func New(cfg config.Config, term *terminal.Session, hist *history.Store, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		cfg:     cfg,
		term:    term,
		ed:      editor.New(cfg.MaxLineBytes),
		hist:    hist,
		run:     runner.New(),
		log:     log,
		scratch: make([]byte, cfg.MaxScanBytes),
	}
}

// Run drives the steady cycle: render prompt, block for one byte, apply
// the editor state machine, act. It returns nil on ^D and the first
// unexpected failure otherwise. Terminal restoration is guaranteed on
// every exit path, including panics reaching the caller's crash handler.
func (s *Session) Run() error {
	defer s.term.Restore()

	for {
		if err := s.term.Prompt("\r%s(%d)> %s", s.cfg.Prompt, s.ed.Len(), s.ed.Raw()); err != nil {
			return fmt.Errorf("shell: prompt: %w", err)
		}

		b, err := s.term.ReadByte()
		if err != nil {
			return fmt.Errorf("shell: %w", err)
		}

		act := s.ed.Feed(b)
		switch act.Kind {
		case editor.ActionPending:
			// Mid escape sequence; nothing to render yet.
			continue

		case editor.ActionNone:
			s.endRecall()

		case editor.ActionSubmit:
			s.endRecall()
			if err := s.execute(); err != nil {
				return err
			}

		case editor.ActionQuit:
			s.term.Print("\r\n")
			return nil

		case editor.ActionClear, editor.ActionRedraw:
			s.endRecall()
			s.term.ResetAdjust()
			s.term.Print("\r\n")

		case editor.ActionMoveLeft:
			s.endRecall()
			s.term.AdjustLeft()

		case editor.ActionMoveRight:
			s.endRecall()
			s.term.AdjustRight()

		case editor.ActionRecallOlder:
			s.recallOlder()

		case editor.ActionRecallNewer:
			s.recallNewer()

		case editor.ActionReport:
			s.term.PrintBelow("tish: unhandled input 0x%02x", act.Byte)
			s.log.Debug("unhandled input byte", "byte", act.Byte)
		}
	}
}

// execute pushes the submitted line to history and runs the child. Exec
// failure is fatal only to the child; history write failure is fatal to
// the loop, surfaced after the deferred terminal restore.
func (s *Session) execute() error {
	defer func() {
		s.ed.Clear()
		s.term.ResetAdjust()
	}()

	argv := runner.Argv(s.ed.Tokens())
	line := append([]byte(nil), s.ed.Raw()...)

	s.term.Print("\r\n")
	if err := s.hist.Push(line); err != nil {
		return fmt.Errorf("shell: %w", err)
	}

	if err := s.run.Run(argv); err != nil {
		var startErr *runner.StartError
		if errors.As(err, &startErr) {
			s.term.Printf("tish: %s: %v\r\n", startErr.Name, startErr.Err)
			s.log.Warn("spawn failed", "argv0", startErr.Name, "error", startErr.Err)
			return nil
		}
		return fmt.Errorf("shell: %w", err)
	}

	if ws, ok := s.run.LastStatus(); ok {
		s.log.Info("child exited", "argv0", argv[0], "status", uint32(ws))
	}
	return nil
}

// recallOlder steps one entry deeper into history, filtered by the
// prefix captured when the recall session began.
func (s *Session) recallOlder() {
	if !s.recalling {
		s.saved = append(s.saved[:0], s.ed.Raw()...)
		s.prefix = append(s.prefix[:0], s.ed.Raw()...)
		s.recalling = true
	} else {
		s.hist.Advance()
	}

	n, err := s.hist.ReadAtFiltered(s.scratch, s.prefix)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			s.log.Error("history recall", "error", err)
		}
		s.hist.Retreat()
		return
	}
	s.ed.SetRaw(s.scratch[:n])
}

// recallNewer steps back toward the present; at depth zero the pending
// line saved at recall start comes back.
func (s *Session) recallNewer() {
	if !s.recalling {
		return
	}
	if s.hist.Depth() == 0 {
		s.ed.SetRaw(s.saved)
		s.endRecall()
		return
	}
	s.hist.Retreat()

	n, err := s.hist.ReadAtFiltered(s.scratch, s.prefix)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			s.log.Error("history recall", "error", err)
		}
		return
	}
	s.ed.SetRaw(s.scratch[:n])
}

func (s *Session) endRecall() {
	if !s.recalling {
		return
	}
	s.recalling = false
	s.hist.ResetDepth()
}
