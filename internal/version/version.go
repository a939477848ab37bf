package version

import (
	"fmt"
	"runtime"
)

// Set via -ldflags at build time
var (
	App       string = "BasicGate"
	Version   string
	GitCommit string
	BuildTime string
	GoVersion string
	BuildOS   string
	BuildArch string
)

// PrintVersion prints the version information
func PrintVersion() {
	fmt.Printf("%s version %s\n", App, getVersion())
	if GitCommit != "" {
		fmt.Printf("Git commit: %s\n", getShortCommit())
	}
	if BuildTime != "" {
		fmt.Printf("Build time: %s\n", BuildTime)
	}
	fmt.Printf("Go version: %s\n", goVersion())
	fmt.Printf("Built for: %s/%s\n", buildOS(), buildArch())
}

// String returns a one-line version such as "v1.2.0 (abc1234)".
func String() string {
	if GitCommit == "" {
		return getVersion()
	}
	return fmt.Sprintf("%s (%s)", getVersion(), getShortCommit())
}

func getShortCommit() string {
	if len(GitCommit) > 7 {
		return GitCommit[:7]
	}
	return GitCommit
}

func getVersion() string {
	if Version != "" {
		return Version
	}
	return "dev"
}

func goVersion() string {
	if GoVersion != "" {
		return GoVersion
	}
	return runtime.Version()
}

func buildOS() string {
	if BuildOS != "" {
		return BuildOS
	}
	return runtime.GOOS
}

func buildArch() string {
	if BuildArch != "" {
		return BuildArch
	}
	return runtime.GOARCH
}
