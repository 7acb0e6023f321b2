// Package compileinfo reports which commit a binary was built from, so that
// merged matrices and served annotations can be traced to a build.
package compileinfo

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
)

type CompileInfo struct {
	Binary     string `json:"binary"`
	Module     string `json:"module"`
	Version    string `json:"version"`
	GoVersion  string `json:"go_version"`
	Commit     string `json:"commit,omitempty"`
	CommitTime string `json:"commit_time,omitempty"`
	Modified   bool   `json:"modified"`
}

func (c CompileInfo) String() string {
	commit := c.Commit
	if commit == "" {
		commit = "unknown"
	}

	out := fmt.Sprintf("%s (%s %s) built with %s from commit %s", c.Binary, c.Module, c.Version, c.GoVersion, commit)
	if c.CommitTime != "" {
		out += " of " + c.CommitTime
	}
	if c.Modified {
		out += ", with uncommitted changes"
	}

	return out
}

// Get reads the build information embedded by the Go toolchain. Outside of a
// module-aware build, only the binary name is filled in.
func Get() CompileInfo {
	out := CompileInfo{Binary: "unknown"}
	if len(os.Args) > 0 {
		out.Binary = os.Args[0]
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}

	out.GoVersion = bi.GoVersion
	out.Binary = bi.Path
	out.Module = bi.Main.Path
	out.Version = bi.Main.Version
	for _, s := range bi.Settings {
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

// Fprint writes the build information as one line.
func Fprint(w io.Writer) error {
	_, err := fmt.Fprintln(w, Get())
	return err
}

func PrintToStdErr() {
	Fprint(os.Stderr)
}
