package interp

import (
	"context"
	"strings"
	"sync"
)

// Result is the completed output of one submission plus any fatal-pattern
// lines captured along the way.
type Result struct {
	Output         string
	ExceptionLines []string
}

// Fault returns a RemoteExecutionFault naming every captured line, or nil
// when none were seen.
func (r Result) Fault() error {
	if len(r.ExceptionLines) == 0 {
		return nil
	}
	lines := make([]string, len(r.ExceptionLines))
	copy(lines, r.ExceptionLines)
	return &RemoteExecutionFault{Lines: lines}
}

// Execution is the single-assignment future for one in-flight submission.
// The accumulation fields are written only by the dispatcher goroutine until
// complete closes done; waiters observe them through the channel close.
type Execution struct {
	id string

	output     strings.Builder
	exceptions []string

	once   sync.Once
	done   chan struct{}
	result Result
	err    error
}

func newExecution(id string) *Execution {
	return &Execution{
		id:   id,
		done: make(chan struct{}),
	}
}

// ID returns the submission's correlation id.
func (e *Execution) ID() string {
	return e.id
}

// Running reports whether the submission is still being drained.
func (e *Execution) Running() bool {
	select {
	case <-e.done:
		return false
	default:
		return true
	}
}

// Done returns a channel closed when the result is available.
func (e *Execution) Done() <-chan struct{} {
	return e.done
}

// Wait blocks until the submission completes or ctx is cancelled.
func (e *Execution) Wait(ctx context.Context) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-e.done:
		return e.result, e.err
	}
}

func (e *Execution) appendOutput(chunk string) {
	e.output.WriteString(chunk)
}

func (e *Execution) captureFatal(chunk string) {
	e.exceptions = append(e.exceptions, fatalLines(chunk)...)
}

func (e *Execution) complete(err error) {
	e.once.Do(func() {
		e.err = err
		e.result = Result{
			Output:         e.output.String(),
			ExceptionLines: e.exceptions,
		}
		close(e.done)
	})
}
