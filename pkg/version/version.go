package version

import (
	"fmt"
	"runtime"
)

// Base version information, overridden via ldflags at build time.
var (
	gitVersion = "v0.0.0-unknown"
	gitCommit  = ""
	buildDate  = "1970-01-01T00:00:00Z"
)

// Info holds the version details of this build.
type Info struct {
	GitVersion string `json:"gitVersion"`
	GitCommit  string `json:"gitCommit"`
	BuildDate  string `json:"buildDate"`
	GoVersion  string `json:"goVersion"`
	Compiler   string `json:"compiler"`
	Platform   string `json:"platform"`
}

// Get returns the version details of the running binary.
func Get() Info {
	return Info{
		GitVersion: gitVersion,
		GitCommit:  gitCommit,
		BuildDate:  buildDate,
		GoVersion:  runtime.Version(),
		Compiler:   runtime.Compiler,
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

func (info Info) String() string {
	return info.GitVersion
}
