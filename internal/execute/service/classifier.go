package service

import (
	"errors"
	"strings"

	"coderelay/internal/execute/remote"
)

// OutcomeKind tags the result of one execution request.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeCompilationFailure
	OutcomeRuntimeFailure
	OutcomeTransportFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeCompilationFailure:
		return "compilation_failure"
	case OutcomeRuntimeFailure:
		return "runtime_failure"
	case OutcomeTransportFailure:
		return "transport_failure"
	default:
		return "unknown"
	}
}

// Outcome is the normalized result of one execution request.
//
//   - Success: Payload holds the executor body, Output its output field.
//   - CompilationFailure: Detail holds the executor output or a generic message.
//   - RuntimeFailure: Output holds "Runtime Error: " plus the executor output.
//   - TransportFailure: StatusCode is the upstream status (0 if none), Detail the diagnostic.
type Outcome struct {
	Kind             OutcomeKind
	Output           string
	Payload          []byte
	Detail           string
	StatusCode       int
	CompilationError bool
}

const (
	runtimeErrorPrefix       = "Runtime Error: "
	defaultCompilationDetail = "Compilation failed"
)

// runtimeSignatures are matched case-sensitively against executor output.
var runtimeSignatures = []string{
	"segmentation fault",
	"Segmentation fault",
	"runtime error",
	"abort",
}

// Classify maps an executor response to an outcome. It is a pure function of
// the reported status code and output text.
func Classify(resp remote.Response) Outcome {
	if resp.StatusCode >= 400 {
		detail := resp.Output
		if detail == "" {
			detail = defaultCompilationDetail
		}
		return Outcome{
			Kind:             OutcomeCompilationFailure,
			Detail:           detail,
			StatusCode:       resp.StatusCode,
			CompilationError: true,
		}
	}

	if hasRuntimeSignature(resp.Output) {
		return Outcome{
			Kind:   OutcomeRuntimeFailure,
			Output: runtimeErrorPrefix + resp.Output,
		}
	}

	return Outcome{
		Kind:    OutcomeSuccess,
		Output:  resp.Output,
		Payload: resp.Body,
	}
}

// TransportOutcome converts a failed dispatch into an outcome.
func TransportOutcome(err error) Outcome {
	outcome := Outcome{Kind: OutcomeTransportFailure, Detail: err.Error()}
	var transportErr *remote.TransportError
	if !errors.As(err, &transportErr) {
		return outcome
	}
	outcome.StatusCode = transportErr.StatusCode
	outcome.CompilationError = transportErr.CompilationError
	switch {
	case transportErr.Output != "":
		outcome.Detail = transportErr.Output
	case transportErr.Timeout():
		outcome.Detail = "remote execution timed out"
	}
	return outcome
}

func hasRuntimeSignature(output string) bool {
	for _, signature := range runtimeSignatures {
		if strings.Contains(output, signature) {
			return true
		}
	}
	return false
}
