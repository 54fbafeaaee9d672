package interp

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRefused       = errors.New("interp: connection refused")
	ErrClosed        = errors.New("interp: client closed")
	ErrCommunication = errors.New("interp: communication problem with socket")
)

// RemoteExecutionFault reports fatal-pattern lines captured while draining
// one submission. The bridge never raises it on its own; callers decide
// whether captured lines mean failure.
type RemoteExecutionFault struct {
	Lines []string
}

func (e *RemoteExecutionFault) Error() string {
	return fmt.Sprintf("interp: remote execution reported %d fatal line(s): %s",
		len(e.Lines), strings.Join(e.Lines, "; "))
}
