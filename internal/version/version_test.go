package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	oldVersion, oldCommit := Version, GitCommit
	t.Cleanup(func() { Version, GitCommit = oldVersion, oldCommit })

	Version, GitCommit = "", ""
	assert.Equal(t, "dev", String())

	Version, GitCommit = "v1.2.0", "abc1234def5678"
	assert.Equal(t, "v1.2.0 (abc1234)", String())

	GitCommit = "abc"
	assert.Equal(t, "v1.2.0 (abc)", String())
}

func TestBuildDefaults(t *testing.T) {
	oldOS, oldArch, oldGo := BuildOS, BuildArch, GoVersion
	t.Cleanup(func() { BuildOS, BuildArch, GoVersion = oldOS, oldArch, oldGo })

	BuildOS, BuildArch, GoVersion = "", "", ""
	assert.Equal(t, runtime.GOOS, buildOS())
	assert.Equal(t, runtime.GOARCH, buildArch())
	assert.Equal(t, runtime.Version(), goVersion())

	BuildOS = "plan9"
	assert.Equal(t, "plan9", buildOS())
}
