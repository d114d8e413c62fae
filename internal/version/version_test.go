package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestShorten(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"0123456789abcdef", "01234567"},
		{"abc", "abc"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := shorten(tt.in); got != tt.want {
			t.Errorf("shorten(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func withBuildInfo(t *testing.T, bi *debug.BuildInfo, ok bool) {
	t.Helper()
	orig := readBuildInfo
	origV, origC, origD := Version, Commit, Date
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, ok }
	t.Cleanup(func() {
		readBuildInfo = orig
		Version, Commit, Date = origV, origC, origD
	})
}

func TestResolveFromBuildInfo(t *testing.T) {
	withBuildInfo(t, &debug.BuildInfo{
		Main: debug.Module{Version: "v1.2.3"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-01-01T00:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}, true)

	i := resolve()
	if i.Version != "v1.2.3" || i.Commit != "0123456789abcdef" || i.Date != "2026-01-01T00:00:00Z" || !i.Modified {
		t.Errorf("resolve() = %+v", i)
	}
}

func TestResolveLdflagsWin(t *testing.T) {
	withBuildInfo(t, &debug.BuildInfo{
		Main:     debug.Module{Version: "v9.9.9"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "ffff"}},
	}, true)
	Version, Commit, Date = "1.0.0", "abc", "2025-06-01T00:00:00Z"

	i := resolve()
	if i.Version != "1.0.0" || i.Commit != "abc" || i.Date != "2025-06-01T00:00:00Z" {
		t.Errorf("resolve() = %+v, want ldflags values", i)
	}
}

func TestResolveDevelBuild(t *testing.T) {
	withBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, true)

	i := resolve()
	if i.Version != "dev" || i.Commit != unknown {
		t.Errorf("resolve() = %+v, want dev/unknown", i)
	}
}

func TestResolveNoBuildInfo(t *testing.T) {
	withBuildInfo(t, nil, false)
	if i := resolve(); i.Version != "dev" {
		t.Errorf("resolve() = %+v", i)
	}
}

func TestString(t *testing.T) {
	if got := String(); !strings.HasPrefix(got, "contrastlens version ") {
		t.Errorf("String() = %q, want contrastlens version prefix", got)
	}
	if Short() == "" {
		t.Error("Short() should not be empty")
	}
}
