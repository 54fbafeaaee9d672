package stage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/obsrig/ccsbridge/internal/testutil/testlog"
)

// motorSim plays the stage's worker subsystem: it records every command
// and walks the reported position toward the last commanded target one
// step per poll.
type motorSim struct {
	mu       sync.Mutex
	commands []string
	position float64
	target   float64
	step     float64
	frozen   bool // when set, the position never changes
}

func (m *motorSim) SyncCommand(_ context.Context, args ...string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	command := strings.Join(args, " ")
	m.commands = append(m.commands, command)
	switch args[0] {
	case "getAxisPosition":
		if !m.frozen {
			diff := m.target - m.position
			switch {
			case diff > m.step:
				m.position += m.step
			case diff < -m.step:
				m.position -= m.step
			default:
				m.position = m.target
			}
		}
		return fmt.Sprintf("%g", m.position), nil
	case "moveAxisAbsolute", "homeAxis":
		if !m.frozen {
			m.target = parseTarget(args)
		}
		return "1", nil
	case "moveAxisRelative":
		if !m.frozen {
			m.target = m.position + parseTarget(args)
		}
		return "1", nil
	}
	return "1", nil
}

func (m *motorSim) AsyncCommand(ctx context.Context, args ...string) (string, error) {
	return m.SyncCommand(ctx, args...)
}

func (m *motorSim) commandList() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.commands...)
}

func parseTarget(args []string) float64 {
	if args[0] == "homeAxis" {
		return 0
	}
	var v float64
	_, _ = fmt.Sscanf(args[2], "%g", &v)
	return v
}

func fastStage(sim *motorSim) *Stage {
	s := New(sim)
	s.PollInterval = time.Millisecond
	return s
}

func TestMoveToReachesTarget(t *testing.T) {
	testlog.Start(t)
	sim := &motorSim{step: 40}
	s := fastStage(sim)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.MoveTo(ctx, X, 120, 10); err != nil {
		t.Fatalf("move to: %v", err)
	}
	pos, err := s.Position(ctx, X)
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if pos != 120 {
		t.Fatalf("position after move: %g", pos)
	}

	first := sim.commandList()[0]
	if first != "moveAxisAbsolute X 120 10" {
		t.Fatalf("move command: %q", first)
	}
}

func TestMoveToClampsSpeed(t *testing.T) {
	testlog.Start(t)
	sim := &motorSim{step: 100}
	s := fastStage(sim)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.MoveTo(ctx, Z, 10, 50); err != nil {
		t.Fatalf("move to: %v", err)
	}
	if first := sim.commandList()[0]; first != "moveAxisAbsolute Z 10 10" {
		t.Fatalf("speed not clamped to Z ceiling: %q", first)
	}
}

func TestMoveByTargetsRelativeChange(t *testing.T) {
	testlog.Start(t)
	sim := &motorSim{position: 50, target: 50, step: 25}
	s := fastStage(sim)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.MoveBy(ctx, Y, -30, 20); err != nil {
		t.Fatalf("move by: %v", err)
	}
	pos, err := s.Position(ctx, Y)
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if pos != 20 {
		t.Fatalf("position after relative move: %g", pos)
	}
}

func TestHomeZeroesAxis(t *testing.T) {
	testlog.Start(t)
	sim := &motorSim{position: 200, target: 200, step: 80}
	s := fastStage(sim)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Home(ctx, X, 20); err != nil {
		t.Fatalf("home: %v", err)
	}
	pos, err := s.Position(ctx, X)
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if pos != 0 {
		t.Fatalf("position after home: %g", pos)
	}
}

func TestWaitForStopTimeout(t *testing.T) {
	testlog.Start(t)
	sim := &motorSim{position: 5, frozen: true}
	s := fastStage(sim)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := s.WaitForStop(ctx, X, 100, 30*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestEnableDisableCommands(t *testing.T) {
	testlog.Start(t)
	sim := &motorSim{}
	s := fastStage(sim)
	ctx := context.Background()

	if err := s.Enable(ctx, Y); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if err := s.Disable(ctx, Y); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if err := s.ClearFaults(ctx); err != nil {
		t.Fatalf("clear faults: %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	want := []string{
		"changeAxisEnable Y true",
		"changeAxisEnable Y false",
		"clearAllFaults",
		"stopAllMotion",
	}
	got := sim.commandList()
	if len(got) != len(want) {
		t.Fatalf("commands: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("command %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestInvalidAxisRejected(t *testing.T) {
	testlog.Start(t)
	s := fastStage(&motorSim{})

	bogus := Axis{Name: "W", Index: 7, MaxTravel: 1, MaxSpeed: 1}
	if err := s.Enable(context.Background(), bogus); !errors.Is(err, ErrInvalidAxis) {
		t.Fatalf("expected ErrInvalidAxis, got %v", err)
	}
}
