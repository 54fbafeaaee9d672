package scripting

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Subsystem is one worker subsystem on the CCS bus. Implementations are
// chosen by dependency injection; callers never fall back between them.
type Subsystem interface {
	// SyncCommand executes a command and returns its result text.
	SyncCommand(ctx context.Context, args ...string) (string, error)
	// AsyncCommand dispatches a command without waiting for its effect;
	// the returned text is whatever acknowledgment the bus gives.
	AsyncCommand(ctx context.Context, args ...string) (string, error)
}

// LoggedSubsystem overlays command logging on another Subsystem.
type LoggedSubsystem struct {
	next Subsystem
	log  zerolog.Logger
}

func NewLoggedSubsystem(next Subsystem, name string) *LoggedSubsystem {
	return &LoggedSubsystem{
		next: next,
		log:  log.With().Str("subsystem", name).Logger(),
	}
}

func (s *LoggedSubsystem) SyncCommand(ctx context.Context, args ...string) (string, error) {
	s.log.Info().Strs("command", args).Msg("sync command")
	return s.next.SyncCommand(ctx, args...)
}

func (s *LoggedSubsystem) AsyncCommand(ctx context.Context, args ...string) (string, error) {
	s.log.Info().Strs("command", args).Msg("async command")
	return s.next.AsyncCommand(ctx, args...)
}
