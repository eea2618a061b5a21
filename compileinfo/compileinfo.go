// Package compileinfo reads the VCS stamp that the Go toolchain embeds in
// binaries built from a checkout.
package compileinfo

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog"
)

var _ zerolog.LogObjectMarshaler = CompileInfo{}

type CompileInfo struct {
	Package    string
	Version    string
	GoVersion  string
	Commit     string
	CommitTime string
	Modified   bool
}

func (c CompileInfo) String() string {
	if c.Package == "" {
		return "This binary carries no build information."
	}

	mod := ""
	if c.Modified {
		mod = " Files in the repo were modified after that commit."
	}

	commit := c.Commit
	if commit == "" {
		commit = "(unknown)"
	}

	return fmt.Sprintf("This %s %s binary was built with %s at commit %v at time %v.%s", c.Package, c.Version, c.GoVersion, commit, c.CommitTime, mod)
}

// MarshalZerologObject lets the build stamp be attached to log events with
// Object("build", info).
func (c CompileInfo) MarshalZerologObject(e *zerolog.Event) {
	e.Str("package", c.Package).
		Str("version", c.Version).
		Str("go", c.GoVersion).
		Str("commit", c.Commit).
		Str("commit_time", c.CommitTime).
		Bool("modified", c.Modified)
}

func Get() CompileInfo {
	out := CompileInfo{}

	z, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}

	out.GoVersion = z.GoVersion
	out.Package = z.Path
	out.Version = z.Main.Version
	for _, s := range z.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}

	return out
}

func PrintToStdErr() {
	fmt.Fprintf(os.Stderr, "%s\n", Get())
}
