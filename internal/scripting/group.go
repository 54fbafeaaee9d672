package scripting

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
)

// VersionInfo is the distribution info reported by a real subsystem.
type VersionInfo struct {
	Project string
	Version string
	Rev     string
}

// Attacher binds a bus name to a Subsystem implementation. Injecting it
// keeps the choice between bridge-backed and proxy subsystems with the
// caller.
type Attacher func(busName string) Subsystem

// Group is a named collection of CCS subsystems, each wrapped with command
// logging, plus the version info collected from the underlying "real"
// subsystems (the part of the bus name before any '/').
type Group struct {
	subs     map[string]Subsystem
	versions map[string]VersionInfo
}

// NewGroup attaches every named subsystem and collects version info. The
// names map is keyed by the caller's handle (e.g. "ts8") with the bus name
// as value (e.g. "ts8-bench/Monochromator").
func NewGroup(ctx context.Context, names map[string]string, attach Attacher) (*Group, error) {
	g := &Group{
		subs:     make(map[string]Subsystem, len(names)),
		versions: make(map[string]VersionInfo),
	}
	real := make(map[string]bool)
	for key, busName := range names {
		g.subs[key] = NewLoggedSubsystem(attach(busName), busName)
		real[strings.SplitN(busName, "/", 2)[0]] = true
	}
	for busName := range real {
		reply, err := attach(busName).SyncCommand(ctx, "getDistributionInfo")
		if err != nil {
			return nil, fmt.Errorf("scripting: distribution info for %s: %w", busName, err)
		}
		info, err := parseVersionInfo(reply)
		if err != nil {
			// Proxy subsystems answer with the null result; they simply
			// have no version info to record.
			continue
		}
		g.versions[busName] = info
	}
	return g, nil
}

// Subsystem returns the subsystem registered under the caller's handle.
func (g *Group) Subsystem(key string) (Subsystem, bool) {
	sub, ok := g.subs[key]
	return sub, ok
}

// Versions returns the collected version info keyed by real subsystem name.
func (g *Group) Versions() map[string]VersionInfo {
	out := make(map[string]VersionInfo, len(g.versions))
	for k, v := range g.versions {
		out[k] = v
	}
	return out
}

// WriteVersions persists "project = version" lines for every subsystem
// with known version info.
func (g *Group) WriteVersions(w io.Writer) error {
	keys := make([]string, 0, len(g.versions))
	for k := range g.versions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		info := g.versions[k]
		if _, err := fmt.Fprintf(w, "%s = %s\n", info.Project, info.Version); err != nil {
			return err
		}
	}
	return nil
}

// parseVersionInfo reads the "key : value" lines of a getDistributionInfo
// reply.
func parseVersionInfo(reply string) (VersionInfo, error) {
	info := make(map[string]string)
	for _, line := range strings.Split(reply, "\n") {
		tokens := strings.SplitN(line, ":", 2)
		if len(tokens) < 2 {
			continue
		}
		info[strings.TrimSpace(tokens[0])] = strings.TrimSpace(tokens[1])
	}
	project, ok := info["Project"]
	if !ok {
		return VersionInfo{}, fmt.Errorf("scripting: no Project in distribution info")
	}
	version, ok := info["Project Version"]
	if !ok {
		return VersionInfo{}, fmt.Errorf("scripting: no Project Version in distribution info")
	}
	return VersionInfo{
		Project: project,
		Version: version,
		Rev:     info["Source Code Rev"],
	}, nil
}
