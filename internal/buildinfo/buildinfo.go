// Package buildinfo resolves the commit and build date stamped into the
// binaries. Values set with -ldflags win over VCS metadata.
package buildinfo

import (
	"os/exec"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

var (
	Commit = "dev"
	Date   = ""
)

var once sync.Once

// Resolve fills Commit and Date from the embedded build info, falling back to
// git and then to today's date. It is safe to call more than once.
func Resolve() (commit, date string) {
	once.Do(func() {
		if info, ok := debug.ReadBuildInfo(); ok {
			fromSettings(info.Settings)
		}
		if Commit == "dev" {
			if c, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output(); err == nil {
				if s := strings.TrimSpace(string(c)); s != "" {
					Commit = s
				}
			}
		}
		if Date == "" {
			Date = time.Now().Format("2006-01-02")
		}
	})
	return Commit, Date
}

func fromSettings(settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if Commit == "dev" && s.Value != "" {
				Commit = short(s.Value)
			}
		case "vcs.time":
			if Date == "" && s.Value != "" {
				if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
					Date = t.Format("2006-01-02")
				}
			}
		}
	}
}

func short(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// String formats the resolved version for -version output.
func String(name string) string {
	c, d := Resolve()
	return name + " " + c + " (" + d + ")"
}
