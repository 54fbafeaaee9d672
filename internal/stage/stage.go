// Package stage sequences the motorized XYZ platform in the test-stand
// dark box through a CCS worker subsystem.
package stage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/obsrig/ccsbridge/internal/scripting"
)

// Axis is one of the three valid stage axes: travel range in mm and the
// speed ceiling in mm/sec.
type Axis struct {
	Name      string
	Index     int
	MaxTravel float64
	MaxSpeed  float64
}

var (
	// X is the bottom horizontal axis, traveling across the aperture.
	X = Axis{Name: "X", Index: 0, MaxTravel: 480.0, MaxSpeed: 20.0}
	// Y is the vertical axis.
	Y = Axis{Name: "Y", Index: 1, MaxTravel: 378.0, MaxSpeed: 20.0}
	// Z is the depth axis, moving toward or away from the aperture.
	Z = Axis{Name: "Z", Index: 2, MaxTravel: 56.5, MaxSpeed: 10.0}
)

var (
	ErrInvalidAxis = errors.New("stage: invalid axis")
	ErrTimeout     = errors.New("stage: operation timed out")
)

const (
	defaultPollInterval = 100 * time.Millisecond
	defaultTolerance    = 0.01 // mm
)

// Stage drives the motor platform through an injected subsystem; tests
// substitute a canned proxy.
type Stage struct {
	sub scripting.Subsystem

	// PollInterval and Tolerance govern WaitForStop's settle detection.
	PollInterval time.Duration
	Tolerance    float64
}

func New(sub scripting.Subsystem) *Stage {
	return &Stage{
		sub:          sub,
		PollInterval: defaultPollInterval,
		Tolerance:    defaultTolerance,
	}
}

// Enable allows motion on the given axis.
func (s *Stage) Enable(ctx context.Context, axis Axis) error {
	if err := checkAxis(axis); err != nil {
		return err
	}
	_, err := s.sub.SyncCommand(ctx, "changeAxisEnable", axis.Name, "true")
	return err
}

// Disable inhibits motion on the given axis.
func (s *Stage) Disable(ctx context.Context, axis Axis) error {
	if err := checkAxis(axis); err != nil {
		return err
	}
	_, err := s.sub.SyncCommand(ctx, "changeAxisEnable", axis.Name, "false")
	return err
}

// ClearFaults clears all axis and controller fault flags.
func (s *Stage) ClearFaults(ctx context.Context) error {
	_, err := s.sub.SyncCommand(ctx, "clearAllFaults")
	return err
}

// Stop immediately halts motion on every axis and discards queued commands.
func (s *Stage) Stop(ctx context.Context) error {
	_, err := s.sub.SyncCommand(ctx, "stopAllMotion")
	return err
}

// Position reads the axis coordinate in mm.
func (s *Stage) Position(ctx context.Context, axis Axis) (float64, error) {
	if err := checkAxis(axis); err != nil {
		return 0, err
	}
	reply, err := s.sub.SyncCommand(ctx, "getAxisPosition", axis.Name)
	if err != nil {
		return 0, err
	}
	pos, err := strconv.ParseFloat(reply, 64)
	if err != nil {
		return 0, fmt.Errorf("stage: parse %s position %q: %w", axis.Name, reply, err)
	}
	return pos, nil
}

// MoveTo moves the axis until it sits at the given coordinate. The speed is
// clamped to the axis ceiling and the wait bound is derived from the full
// travel range at that speed.
func (s *Stage) MoveTo(ctx context.Context, axis Axis, position, speed float64) error {
	if err := checkAxis(axis); err != nil {
		return err
	}
	speed = clampSpeed(axis, speed)
	_, err := s.sub.SyncCommand(ctx, "moveAxisAbsolute",
		axis.Name, formatMM(position), formatMM(speed))
	if err != nil {
		return err
	}
	return s.WaitForStop(ctx, axis, position, moveTimeout(axis, speed))
}

// MoveBy changes the axis coordinate by the given amount from wherever it
// is when the command starts executing.
func (s *Stage) MoveBy(ctx context.Context, axis Axis, change, speed float64) error {
	if err := checkAxis(axis); err != nil {
		return err
	}
	start, err := s.Position(ctx, axis)
	if err != nil {
		return err
	}
	speed = clampSpeed(axis, speed)
	_, err = s.sub.SyncCommand(ctx, "moveAxisRelative",
		axis.Name, formatMM(change), formatMM(speed))
	if err != nil {
		return err
	}
	return s.WaitForStop(ctx, axis, start+change, moveTimeout(axis, speed))
}

// Home moves the axis to its home position and zeroes the coordinate.
func (s *Stage) Home(ctx context.Context, axis Axis, speed float64) error {
	if err := checkAxis(axis); err != nil {
		return err
	}
	speed = clampSpeed(axis, speed)
	_, err := s.sub.SyncCommand(ctx, "homeAxis", axis.Name, formatMM(speed))
	if err != nil {
		return err
	}
	return s.WaitForStop(ctx, axis, 0, moveTimeout(axis, speed))
}

// WaitForStop polls the axis position until it settles within tolerance of
// target or the wait bound passes.
func (s *Stage) WaitForStop(ctx context.Context, axis Axis, target float64, timeout time.Duration) error {
	if err := checkAxis(axis); err != nil {
		return err
	}
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()
	for {
		pos, err := s.Position(ctx, axis)
		if err != nil {
			return err
		}
		if diff := pos - target; -s.Tolerance <= diff && diff <= s.Tolerance {
			log.Debug().Str("axis", axis.Name).Float64("position", pos).Msg("axis settled")
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: axis %s did not reach %.3f (at %.3f)",
				ErrTimeout, axis.Name, target, pos)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// moveTimeout is the travel-based wait bound: full range at the commanded
// speed plus a one-second margin.
func moveTimeout(axis Axis, speed float64) time.Duration {
	return time.Duration((axis.MaxTravel/speed + 1.0) * float64(time.Second))
}

func clampSpeed(axis Axis, speed float64) float64 {
	if speed <= 0 || speed > axis.MaxSpeed {
		return axis.MaxSpeed
	}
	return speed
}

func checkAxis(axis Axis) error {
	for _, valid := range []Axis{X, Y, Z} {
		if axis == valid {
			return nil
		}
	}
	return fmt.Errorf("%w: %+v", ErrInvalidAxis, axis)
}

func formatMM(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
