package app

import "github.com/jwulff/sentiscribe/internal/listener"

// LoopEventMsg wraps an event reported by the listening loop.
type LoopEventMsg struct {
	Event listener.Event
}

// StartResultMsg carries the result of starting the loop.
type StartResultMsg struct {
	Err error
}

// ExportDoneMsg is sent when an export finishes.
type ExportDoneMsg struct {
	Path string
	Err  error
}

// ClearTransientErrorMsg clears a transient error or info message after a
// timeout.
type ClearTransientErrorMsg struct{}
