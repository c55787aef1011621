package exporters

import "time"

// SignalResult classifies the outcome of one signal attempt.
type SignalResult string

const (
	SignalSent    SignalResult = "sent"
	SignalGone    SignalResult = "gone"
	SignalDenied  SignalResult = "denied"
	SignalFailed  SignalResult = "failed"
	SignalSkipped SignalResult = "skipped"
)

// KillEvent describes a signal sent, or not, to one selected process.
type KillEvent struct {
	RunID     string       `json:"runID"`
	Pid       string       `json:"pid"`
	Ppid      string       `json:"ppid"`
	User      string       `json:"user"`
	Comm      string       `json:"comm"`
	Args      string       `json:"args"`
	Signal    int          `json:"signal"`
	Result    SignalResult `json:"result"`
	Error     string       `json:"error,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// generic exporter interface
type Exporter interface {
	// SendKillEvent records a signal attempt
	SendKillEvent(event KillEvent)
}

var _ Exporter = (*ExporterMock)(nil)

type ExporterMock struct {
	Events []KillEvent
}

func (e *ExporterMock) SendKillEvent(event KillEvent) {
	e.Events = append(e.Events, event)
}
