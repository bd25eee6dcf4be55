package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tishell/tish/config"
	"github.com/tishell/tish/editor"
	"github.com/tishell/tish/runner"
)

// Script runs commands from a non-interactive byte stream: no raw mode,
// no prompt, no history recall. Lines beyond the configured scan bound
// fail the whole run.
type Script struct {
	cfg config.Config
	ed  *editor.Editor
	run *runner.Runner
	log *slog.Logger
}

// NewScript builds a non-interactive session.
func NewScript(cfg config.Config, log *slog.Logger) *Script {
	if log == nil {
		log = slog.Default()
	}
	return &Script{
		cfg: cfg,
		ed:  editor.New(cfg.MaxLineBytes),
		run: runner.New(),
		log: log,
	}
}

// Run consumes the stream line by line until EOF.
func (s *Script) Run(in io.Reader) error {
	br := bufio.NewReader(in)
	for {
		err := s.ed.ReadLine(br)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("shell: %w", err)
		}

		if len(s.ed.Parse()) == 0 {
			continue
		}
		argv := runner.Argv(s.ed.Tokens())
		if err := s.run.Run(argv); err != nil {
			var startErr *runner.StartError
			if errors.As(err, &startErr) {
				fmt.Fprintf(os.Stderr, "tish: %s: %v\n", startErr.Name, startErr.Err)
				s.log.Warn("spawn failed", "argv0", startErr.Name, "error", startErr.Err)
				continue
			}
			return fmt.Errorf("shell: %w", err)
		}
	}
}
