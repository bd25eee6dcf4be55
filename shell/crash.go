package shell

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/tishell/tish/terminal"
)

// HandleCrash is the unified panic handler: the terminal leaves raw mode
// before the stack trace reaches the screen. Deferred at the top of main
// so no fault path can strand the user's terminal.
func HandleCrash(term *terminal.Session, r any) {
	if r == nil {
		return
	}

	if term != nil {
		term.Restore()
	} else {
		terminal.EmergencyRestore()
	}

	os.Stdout.Sync()
	os.Stderr.Sync()

	fmt.Fprintf(os.Stderr, "\r\ntish: fatal: %v\r\n", r)
	fmt.Fprintf(os.Stderr, "%s\r\n", debug.Stack())
	os.Stderr.Sync()

	os.Exit(1)
}
