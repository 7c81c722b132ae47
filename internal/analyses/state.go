package analyses

import (
	"encoding/json"
	"time"

	"blog-analyzer-backend/internal/report"
)

// Status is the tag of an analysis state.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusInFlight  Status = "in_flight"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// State is the externally observable lifecycle state. Its payload depends on
// the status: in_flight carries the request, succeeded adds the result and
// failed adds an error kind. Other combinations cannot be constructed outside
// this package.
type State struct {
	status    Status
	id        string
	request   Request
	result    *report.Result
	kind      ErrorKind
	message   string
	updatedAt time.Time
}

func idleState(at time.Time) State {
	return State{status: StatusIdle, updatedAt: at}
}

func inFlightState(id string, req Request, at time.Time) State {
	return State{status: StatusInFlight, id: id, request: req, updatedAt: at}
}

func succeededState(from State, res report.Result, at time.Time) State {
	return State{status: StatusSucceeded, id: from.id, request: from.request, result: &res, updatedAt: at}
}

func failedState(from State, kind ErrorKind, message string, at time.Time) State {
	return State{status: StatusFailed, id: from.id, request: from.request, kind: kind, message: message, updatedAt: at}
}

// Status returns the state tag. The zero State is idle.
func (s State) Status() Status {
	if s.status == "" {
		return StatusIdle
	}
	return s.status
}

// ID identifies the submission the state belongs to; empty when idle.
func (s State) ID() string { return s.id }

// Request returns the submission for every non-idle state.
func (s State) Request() (Request, bool) {
	if s.Status() == StatusIdle {
		return Request{}, false
	}
	return s.request, true
}

// Result returns a copy of the report when the state is succeeded.
func (s State) Result() (report.Result, bool) {
	if s.status != StatusSucceeded || s.result == nil {
		return report.Result{}, false
	}
	return s.result.Clone(), true
}

// Failure returns the error kind and message when the state is failed.
func (s State) Failure() (ErrorKind, string, bool) {
	if s.status != StatusFailed {
		return "", "", false
	}
	return s.kind, s.message, true
}

// UpdatedAt is the time of the transition into this state.
func (s State) UpdatedAt() time.Time { return s.updatedAt }

type stateError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

type stateJSON struct {
	Status    Status         `json:"status"`
	ID        string         `json:"analysisId,omitempty"`
	URL       string         `json:"blogUrl,omitempty"`
	Result    *report.Result `json:"result,omitempty"`
	Error     *stateError    `json:"error,omitempty"`
	UpdatedAt *time.Time     `json:"updatedAt,omitempty"`
}

// MarshalJSON renders the state for the HTTP and SSE surfaces.
func (s State) MarshalJSON() ([]byte, error) {
	out := stateJSON{Status: s.Status(), ID: s.id}
	if req, ok := s.Request(); ok {
		out.URL = req.URL
	}
	if res, ok := s.Result(); ok {
		out.Result = &res
	}
	if kind, msg, ok := s.Failure(); ok {
		out.Error = &stateError{Kind: kind, Message: msg}
	}
	if !s.updatedAt.IsZero() {
		at := s.updatedAt
		out.UpdatedAt = &at
	}
	return json.Marshal(out)
}
