// Package version reports what build of the monitor is running
package version

import (
	"fmt"
	"runtime/debug"
)

// Set with -ldflags "-X rollcall/internal/core/version.version=v0.3.0" and
// friends. commit falls back to the vcs stamp the go tool embeds
var (
	version = "dev"
	commit  = ""
	date    = ""
)

// BuildInfo is served on /version and printed by -version
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Dirty   bool   `json:"dirty,omitempty"`
}

// Info returns the build identity of this binary
func Info() BuildInfo {
	bi := BuildInfo{Service: "rollcall-monitor", Version: version, Commit: commit, Date: date}
	if bi.Commit != "" {
		return bi
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		fromVCS(&bi, info.Settings)
	}
	if bi.Commit == "" {
		bi.Commit = "none"
	}
	if bi.Date == "" {
		bi.Date = "unknown"
	}
	return bi
}

func fromVCS(bi *BuildInfo, settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if len(s.Value) > 12 {
				s.Value = s.Value[:12]
			}
			bi.Commit = s.Value
		case "vcs.time":
			if bi.Date == "" {
				bi.Date = s.Value
			}
		case "vcs.modified":
			bi.Dirty = s.Value == "true"
		}
	}
}

// String is the one-line form, e.g. "rollcall-monitor v0.3.0 (3f2a9c1d0b7e, 2026-10-01T08:00:00Z)"
func (b BuildInfo) String() string {
	c := b.Commit
	if b.Dirty {
		c += "+dirty"
	}
	return fmt.Sprintf("%s %s (%s, %s)", b.Service, b.Version, c, b.Date)
}
