package scripting

import (
	"context"
	"fmt"
	"strings"

	"github.com/obsrig/ccsbridge/internal/interp"
)

// BridgeSubsystem drives a subsystem through the interpreter bridge. The
// target is the remote-side variable already bound to the attached
// subsystem by the session's setup commands.
type BridgeSubsystem struct {
	client *interp.Client
	target string
}

func NewBridgeSubsystem(client *interp.Client, target string) *BridgeSubsystem {
	return &BridgeSubsystem{client: client, target: target}
}

func (s *BridgeSubsystem) SyncCommand(ctx context.Context, args ...string) (string, error) {
	return s.send(ctx, "sendSynchCommand", args)
}

func (s *BridgeSubsystem) AsyncCommand(ctx context.Context, args ...string) (string, error) {
	return s.send(ctx, "sendAsynchCommand", args)
}

func (s *BridgeSubsystem) send(ctx context.Context, method string, args []string) (string, error) {
	command := strings.Join(args, " ")
	code := fmt.Sprintf("print(%s.%s(%q).getResult())", s.target, method, command)
	result, err := s.client.SubmitSync(ctx, code)
	if err != nil {
		return "", err
	}
	if fault := result.Fault(); fault != nil {
		return "", fault
	}
	return strings.TrimRight(result.Output, "\n"), nil
}
