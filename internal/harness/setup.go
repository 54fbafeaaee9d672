package harness

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Setup is the ordered prologue of interpreter commands run before a job
// script: sys.path inserts, variable assignments for values known on the
// host side, and the subsystem-mapping object.
type Setup struct {
	keys       []string
	values     map[string]string
	sysPaths   []string
	pythonDir  string
	subsystems map[string]string
	hasMapping bool
}

func NewSetup() *Setup {
	return &Setup{values: make(map[string]string)}
}

// Set records a quoted assignment; most host-side values are handed to the
// interpreter as strings.
func (s *Setup) Set(key, value string) {
	s.SetRaw(key, fmt.Sprintf("'%s'", value))
}

// SetRaw records an assignment whose value needs no quoting.
func (s *Setup) SetRaw(key, value string) {
	if _, seen := s.values[key]; !seen {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

func (s *Setup) AddSysPath(path string) {
	s.sysPaths = append(s.sysPaths, path)
}

func (s *Setup) SetPythonDir(path string) {
	s.pythonDir = path
}

// SetSubsystems installs the abstract-to-concrete subsystem name mapping.
func (s *Setup) SetSubsystems(mapping map[string]string) {
	s.subsystems = mapping
	s.hasMapping = mapping != nil
}

// ReadConfig loads "key = value" lines; values name site configuration
// files and are resolved against configDir.
func (s *Setup) ReadConfig(path, configDir string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("harness: setup config: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			return fmt.Errorf("harness: setup config %s: bad line %q", path, line)
		}
		resolved := filepath.Join(configDir, strings.TrimSpace(value))
		if abs, err := filepath.Abs(resolved); err == nil {
			resolved = abs
		}
		s.Set(strings.TrimSpace(key), resolved)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("harness: setup config %s: %w", path, err)
	}
	return nil
}

// Commands renders the prologue in execution order.
func (s *Setup) Commands() []string {
	var out []string
	out = append(out, "import sys")
	if s.pythonDir != "" {
		out = append(out, fmt.Sprintf("sys.path.append(%q)", s.pythonDir))
	}
	for _, p := range s.sysPaths {
		out = append(out, fmt.Sprintf("sys.path.append(%q)", p))
	}
	for _, key := range s.keys {
		out = append(out, fmt.Sprintf("%s = %s", key, s.values[key]))
	}
	out = append(out, s.subsystemCommands()...)
	return out
}

func (s *Setup) subsystemCommands() []string {
	if !s.hasMapping {
		return []string{"subsystems = None"}
	}
	out := []string{
		"from collections import OrderedDict",
		"subsystems = OrderedDict()",
	}
	keys := make([]string, 0, len(s.subsystems))
	for k := range s.subsystems {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, fmt.Sprintf("subsystems['%s'] = '%s'", k, s.subsystems[k]))
	}
	return out
}

// FromEnvironment seeds a Setup the way harnessed jobs expect: working
// directory, site and job identity, unit ids, the CCS subsystem names, and
// any outlet assignments present, then the entries of configFile resolved
// against the site config dir.
func FromEnvironment(configFile string) (*Setup, error) {
	s := NewSetup()

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("harness: working directory: %w", err)
	}
	s.Set("tsCWD", cwd)

	site, err := SiteName()
	if err != nil {
		return nil, err
	}
	s.Set("labname", site)

	job, err := JobName()
	if err != nil {
		return nil, err
	}
	s.Set("jobname", job)

	unitID, err := UnitID()
	if err != nil {
		return nil, err
	}
	s.Set("CCDID", unitID)
	s.Set("UNITID", unitID)
	s.Set("LSSTID", unitID)

	if run, err := RunNumber(); err == nil {
		s.Set("RUNNUM", run)
	} else {
		s.Set("RUNNUM", "no_lcatr_run_number")
	}

	s.Set("ts", envDefault("CCS_TS", "ts"))
	s.Set("archon", envDefault("CCS_ARCHON", "archon"))

	// Outlet assignments only exist in certain contexts.
	outlets := []struct{ env, key string }{
		{"CCS_VAC_OUTLET", "vac_outlet"},
		{"CCS_CRYO_OUTLET", "cryo_outlet"},
		{"CCS_PUMP_OUTLET", "pump_outlet"},
	}
	for _, outlet := range outlets {
		if v, ok := os.LookupEnv(outlet.env); ok {
			s.Set(outlet.key, v)
		}
	}

	mapping, err := SubsystemMapping("")
	if err != nil {
		return nil, err
	}
	s.SetSubsystems(mapping)

	if configFile != "" {
		configDir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		if err := s.ReadConfig(filepath.Join(configDir, configFile), configDir); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func envDefault(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return fallback
}
