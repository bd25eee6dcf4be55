// Package runner executes one foreground child process at a time.
package runner

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/tishell/tish/editor"
)

// ErrEmptyArgv reports a run with nothing to execute.
var ErrEmptyArgv = errors.New("runner: empty argv")

// StartError reports a child that could not be spawned. It is fatal only
// to that child, never to the shell.
type StartError struct {
	Name string
	Err  error
}

func (e *StartError) Error() string { return fmt.Sprintf("runner: %s: %v", e.Name, e.Err) }

func (e *StartError) Unwrap() error { return e.Err }

// Runner spawns and waits on foreground children, keeping the raw wait
// status of the most recent one. Exactly one child is outstanding at a
// time; there is no job tracking.
type Runner struct {
	lastStatus syscall.WaitStatus
	ran        bool
}

// New returns a Runner.
func New() *Runner { return &Runner{} }

// Argv copies a token sequence into a fresh argument vector. The copies
// outlive the editor buffer the tokens view.
func Argv(tokens []editor.Token) []string {
	argv := make([]string, 0, len(tokens))
	for _, t := range tokens {
		argv = append(argv, t.String())
	}
	return argv
}

// Run spawns argv[0], located via PATH search, with the parent's
// environment and standard streams, and waits on that child. The raw OS
// wait status is recorded undecoded. A child exiting nonzero is not an
// error; only spawn or wait failures are.
func (r *Runner) Run(argv []string) error {
	if len(argv) == 0 {
		return ErrEmptyArgv
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	if err := cmd.Start(); err != nil {
		return &StartError{Name: argv[0], Err: err}
	}

	err := cmd.Wait()
	if ps := cmd.ProcessState; ps != nil {
		if ws, ok := ps.Sys().(syscall.WaitStatus); ok {
			r.lastStatus = ws
			r.ran = true
		}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil
		}
		return fmt.Errorf("runner: wait %s: %w", argv[0], err)
	}
	return nil
}

// LastStatus returns the raw wait status of the most recent child and
// whether any child has run.
func (r *Runner) LastStatus() (syscall.WaitStatus, bool) {
	return r.lastStatus, r.ran
}
