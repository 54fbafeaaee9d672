package scripting

import (
	"context"
	"strings"
)

// nullResult is the generic reply for commands a proxy has no canned
// response for.
const nullResult = "1"

// ProxySubsystem is a do-nothing subsystem with canned responses, for
// tests and offline runs where no CCS bus is reachable.
type ProxySubsystem struct {
	responses map[string]string
}

func NewProxySubsystem(responses map[string]string) *ProxySubsystem {
	if responses == nil {
		responses = map[string]string{}
	}
	return &ProxySubsystem{responses: responses}
}

// NewTS8Proxy returns a fake ts8 subsystem preloaded with the ETU1 raft's
// canned responses.
func NewTS8Proxy() *ProxySubsystem {
	return NewProxySubsystem(map[string]string{
		"getREBDeviceNames":                   "R00.Reb0 R00.Reb1 R00.Reb2",
		"getREBDevices":                       "R00.Reb0 R00.Reb1 R00.Reb2",
		"getREBHwVersions":                    "808599560 808599560 808599560",
		"getREBSerialNumbers":                 "412165857 412223738 412160431",
		"getREBIds":                           "0 1 2",
		"getSequencerParameter CleaningNumber": "0 0 0",
		"getSequencerParameter ClearCount":     "1 1 1",
		"printGeometry 3": `--> R00
---> R00.Reb2
----> R00.Reb2.S20
----> R00.Reb2.S21
----> R00.Reb2.S22
---> R00.Reb1
----> R00.Reb1.S10
----> R00.Reb1.S11
----> R00.Reb1.S12
---> R00.Reb0
----> R00.Reb0.S00
----> R00.Reb0.S01
----> R00.Reb0.S02`,
	})
}

func (s *ProxySubsystem) SyncCommand(_ context.Context, args ...string) (string, error) {
	return s.lookup(args), nil
}

func (s *ProxySubsystem) AsyncCommand(_ context.Context, args ...string) (string, error) {
	return s.lookup(args), nil
}

func (s *ProxySubsystem) lookup(args []string) string {
	if r, ok := s.responses[strings.Join(args, " ")]; ok {
		return r
	}
	return nullResult
}
