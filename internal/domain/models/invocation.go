package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies a worker computation.
type Kind string

const (
	KindSignal   Kind = "signal"
	KindOHLC     Kind = "ohlc"
	KindBacktest Kind = "backtest"
)

// Kinds lists every computation the worker understands.
func Kinds() []Kind { return []Kind{KindSignal, KindOHLC, KindBacktest} }

// Param is one ordered worker parameter. Values are opaque scalars kept as text.
type Param struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// InvocationSpec is a request to run one worker computation.
type InvocationSpec struct {
	Kind     Kind          `json:"kind"`
	Params   []Param       `json:"params"`
	Deadline time.Duration `json:"deadline"`
}

// Values returns parameter values in order.
func (s InvocationSpec) Values() []string {
	out := make([]string, len(s.Params))
	for i, p := range s.Params {
		out[i] = p.Value
	}
	return out
}

// Key returns a stable identity for the computation (kind plus params).
func (s InvocationSpec) Key() string {
	key := string(s.Kind)
	for _, p := range s.Params {
		key += ":" + p.Name + "=" + p.Value
	}
	return key
}

// FailureKind classifies a failed invocation.
type FailureKind string

const (
	FailureWorker     FailureKind = "worker_error"
	FailureParse      FailureKind = "parse_error"
	FailureTimeout    FailureKind = "timeout"
	FailureValidation FailureKind = "validation_error"
	FailureCanceled   FailureKind = "canceled"
)

// Failure describes why an invocation produced no payload.
type Failure struct {
	Kind     FailureKind `json:"kind"`
	Detail   string      `json:"detail"`
	Raw      string      `json:"raw,omitempty"`
	ExitCode int         `json:"exit_code,omitempty"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Detail)
}

// InvocationOutcome holds exactly one of Payload or Failure.
type InvocationOutcome struct {
	Payload  json.RawMessage `json:"payload,omitempty"`
	Failure  *Failure        `json:"failure,omitempty"`
	Duration time.Duration   `json:"duration"`
}

// Succeeded builds a success outcome.
func Succeeded(payload json.RawMessage, d time.Duration) InvocationOutcome {
	return InvocationOutcome{Payload: payload, Duration: d}
}

// Failed builds a failure outcome.
func Failed(f Failure, d time.Duration) InvocationOutcome {
	return InvocationOutcome{Failure: &f, Duration: d}
}

// OK reports whether the outcome carries a payload.
func (o InvocationOutcome) OK() bool { return o.Failure == nil }

// Label is the low-cardinality outcome name used for metrics and events.
func (o InvocationOutcome) Label() string {
	if o.Failure == nil {
		return "success"
	}
	return string(o.Failure.Kind)
}
