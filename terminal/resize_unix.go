//go:build unix

package terminal

import (
	"os"
	"os/signal"
	"syscall"
)

// watchResize subscribes to SIGWINCH and keeps the geometry cell current.
// The runtime delivers the signal onto a buffered channel, so the update
// runs on an ordinary goroutine and the only state shared with the main
// loop is the single packed geometry word.
func (s *Session) watchResize() {
	s.winchStop = make(chan struct{})
	s.winchDone = make(chan struct{})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)

	go func() {
		defer close(s.winchDone)
		for {
			select {
			case <-s.winchStop:
				signal.Stop(sigCh)
				return
			case <-sigCh:
				if rows, cols, err := winSize(s.fd); err == nil && rows > 0 && cols > 0 {
					s.storeGeom(rows, cols)
				}
			}
		}
	}()
}

// stopResize tears down the watcher and waits for it to exit.
func (s *Session) stopResize() {
	if s.winchStop == nil {
		return
	}
	close(s.winchStop)
	<-s.winchDone
	s.winchStop = nil
}
