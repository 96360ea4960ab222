package posexit

import (
	"fmt"
	"io"
	"runtime"
)

// Populated during build, don't touch!
var (
	Version   = "v0.1.0"
	GitRev    = "undefined"
	GitBranch = "undefined"
	BuildDate = "undefined"
)

// FullVersion describes the running binary
type FullVersion struct {
	Version   string `json:"version"`
	GitRev    string `json:"gitRevision"`
	GitBranch string `json:"gitBranch"`
	BuildDate string `json:"built"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

func GetVersion() FullVersion {
	return FullVersion{
		Version:   Version,
		GitRev:    GitRev,
		GitBranch: GitBranch,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// PrintVersion prints version info into the provided io.Writer.
func PrintVersion(w io.Writer) {
	fmt.Fprint(w, GetVersion().String())
}

// KeyValues returns the version as key value pairs for structured logs
func (f FullVersion) KeyValues() []interface{} {
	return []interface{}{
		"version", f.Version,
		"gitRevision", f.GitRev,
		"gitBranch", f.GitBranch,
		"goVersion", f.GoVersion,
		"built", f.BuildDate,
		"os/arch", fmt.Sprintf("%s/%s", f.OS, f.Arch),
	}
}

func (f FullVersion) String() string {
	return fmt.Sprintf("Version:      %s\n"+
		"Git revision: %s\n"+
		"Git branch:   %s\n"+
		"Go version:   %s\n"+
		"Built:        %s\n"+
		"OS/Arch:      %s/%s\n",
		f.Version, f.GitRev, f.GitBranch,
		f.GoVersion, f.BuildDate, f.OS, f.Arch)
}
