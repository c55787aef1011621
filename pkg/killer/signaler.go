package killer

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Signaler delivers signals to processes.
type Signaler interface {
	Signal(pid int, sig unix.Signal) error
}

// UnixSignaler sends signals with kill(2).
type UnixSignaler struct{}

var _ Signaler = UnixSignaler{}

func (UnixSignaler) Signal(pid int, sig unix.Signal) error {
	return unix.Kill(pid, sig)
}

// alive probes pid with the null signal. A process we may not signal still exists.
func alive(s Signaler, pid int) bool {
	err := s.Signal(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
