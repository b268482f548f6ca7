package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestInfo_Defaults(t *testing.T) {
	bi := Info()
	if bi.Service != "rollcall-monitor" || bi.Version != "dev" {
		t.Fatalf("unexpected %+v", bi)
	}
	if bi.Commit == "" || bi.Date == "" {
		t.Fatalf("commit and date must be filled: %+v", bi)
	}
}

func TestFromVCS(t *testing.T) {
	var bi BuildInfo
	fromVCS(&bi, []debug.BuildSetting{
		{Key: "vcs.revision", Value: "3f2a9c1d0b7e55aa99"},
		{Key: "vcs.time", Value: "2026-10-01T08:00:00Z"},
		{Key: "vcs.modified", Value: "true"},
	})
	if bi.Commit != "3f2a9c1d0b7e" || bi.Date != "2026-10-01T08:00:00Z" || !bi.Dirty {
		t.Fatalf("fromVCS = %+v", bi)
	}
}

func TestString(t *testing.T) {
	bi := BuildInfo{Service: "rollcall-monitor", Version: "v0.3.0", Commit: "abc", Date: "today", Dirty: true}
	if got := bi.String(); !strings.Contains(got, "v0.3.0 (abc+dirty, today)") {
		t.Fatalf("String = %q", got)
	}
}
