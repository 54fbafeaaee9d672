package harness

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/obsrig/ccsbridge/internal/interp"
)

// RunJob executes the job script under the remote interpreter with the
// setup prologue drained first, writes the transcript to <jobName>.log,
// and surfaces any captured fatal lines as the returned error.
func RunJob(ctx context.Context, client *interp.Client, jobName, scriptPath string, setup *Setup, verbose bool) (interp.Result, error) {
	var commands []string
	if setup != nil {
		commands = setup.Commands()
	}
	result, err := client.RunScriptSync(ctx, scriptPath, commands, verbose)
	if err != nil {
		return interp.Result{}, err
	}

	logPath := jobName + ".log"
	if err := os.WriteFile(logPath, []byte(result.Output), 0o644); err != nil {
		return result, fmt.Errorf("harness: write job log: %w", err)
	}
	log.Info().Str("job", jobName).Str("log", logPath).Msg("job script finished")

	return result, result.Fault()
}
