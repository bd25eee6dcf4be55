//go:build unix

package terminal

import (
	"os"

	"golang.org/x/sys/unix"
)

// termState holds saved terminal attributes.
type termState struct {
	termios unix.Termios
}

// makeRaw captures the current attributes and installs raw mode.
func makeRaw(fd int) (*termState, error) {
	orig, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, err
	}

	raw := *orig
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.ISIG | unix.IEXTEN
	raw.Iflag &^= unix.IXON | unix.ICRNL | unix.BRKINT | unix.INPCK | unix.ISTRIP
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return nil, err
	}
	return &termState{termios: *orig}, nil
}

// restoreState reinstalls saved attributes, flushing pending input so no
// raw-mode bytes leak into the cooked session.
func restoreState(fd int, st *termState) error {
	return unix.IoctlSetTermios(fd, unix.TCSETSF, &st.termios)
}

// winSize reads the window geometry ioctl.
func winSize(fd int) (rows, cols int, err error) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, err
	}
	return int(ws.Row), int(ws.Col), nil
}

// EmergencyRestore forces the controlling terminal back toward cooked
// mode. For crash paths where no Session is reachable; errors ignored.
func EmergencyRestore() {
	tty, err := os.OpenFile(DefaultPath, os.O_RDWR, 0)
	if err != nil {
		return
	}
	defer tty.Close()

	fd := int(tty.Fd())
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return
	}
	t.Lflag |= unix.ECHO | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Iflag |= unix.ICRNL
	unix.IoctlSetTermios(fd, unix.TCSETSF, t)
}
