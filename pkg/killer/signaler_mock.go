package killer

import (
	"golang.org/x/sys/unix"
)

// SignalerMock records signals and answers with preset errors.
type SignalerMock struct {
	Errors map[int]error
	// Exits lists pids that disappear once they received a non null signal.
	Exits map[int]bool
	Sent  []SentSignal
	gone  map[int]bool
}

type SentSignal struct {
	Pid    int
	Signal unix.Signal
}

var _ Signaler = (*SignalerMock)(nil)

func NewSignalerMock() *SignalerMock {
	return &SignalerMock{
		Errors: map[int]error{},
		Exits:  map[int]bool{},
		gone:   map[int]bool{},
	}
}

func (m *SignalerMock) Signal(pid int, sig unix.Signal) error {
	if sig == 0 {
		if m.gone[pid] {
			return unix.ESRCH
		}
		return nil
	}
	m.Sent = append(m.Sent, SentSignal{Pid: pid, Signal: sig})
	if err, ok := m.Errors[pid]; ok {
		return err
	}
	if m.Exits[pid] {
		m.gone[pid] = true
	}
	return nil
}
