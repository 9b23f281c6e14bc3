package core

import "errors"

var (
	// ErrGraph reports malformed region or adjacency data. Construction is
	// rejected.
	ErrGraph = errors.New("invalid region graph")
	// ErrUnknownRegion reports a lookup for a region the graph does not
	// contain. It signals a caller defect, not a user-facing condition.
	ErrUnknownRegion = errors.New("unknown region")
	// ErrTraceValidation reports a malformed or inconsistent solver trace.
	// The trace is never made active.
	ErrTraceValidation = errors.New("invalid trace")
	// ErrIndexOutOfRange reports a step index outside [0, total_steps).
	ErrIndexOutOfRange = errors.New("step index out of range")
	// ErrSolveRequestFailed reports a transport or collaborator failure while
	// requesting a trace. It is surfaced, never retried.
	ErrSolveRequestFailed = errors.New("solve request failed")
	// ErrClosed reports an operation on a playback controller after Close.
	ErrClosed = errors.New("playback controller is closed")
)
