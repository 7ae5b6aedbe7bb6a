package shard

import (
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// minMergeTreeVersion is the lowest source-tree tool version whose
// three-argument merge-tree reliably reports conflicts (§4.7.9).
var minMergeTreeVersion = toolVersion{major: 2, minor: 38}

type toolVersion struct {
	major, minor int
}

func (v toolVersion) atLeast(other toolVersion) bool {
	if v.major != other.major {
		return v.major > other.major
	}
	return v.minor >= other.minor
}

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)`)

var (
	cachedVersionOnce sync.Once
	cachedVersion     toolVersion
	cachedVersionErr  error
)

// detectedVersion runs and parses "git --version" once per process,
// caching the result (§4.7.9's "cached per process").
func detectedVersion() (toolVersion, error) {
	cachedVersionOnce.Do(func() {
		out, err := exec.Command("git", "--version").CombinedOutput()
		if err != nil {
			cachedVersionErr = fmt.Errorf("failed to detect git version: %w", err)
			return
		}
		m := versionPattern.FindStringSubmatch(string(out))
		if m == nil {
			cachedVersionErr = fmt.Errorf("could not parse git version from %q", strings.TrimSpace(string(out)))
			return
		}
		major, _ := strconv.Atoi(m[1])
		minor, _ := strconv.Atoi(m[2])
		cachedVersion = toolVersion{major: major, minor: minor}
	})
	return cachedVersion, cachedVersionErr
}

// SupportsThreeWayMergeTree reports whether the installed git is new
// enough for reliable three-argument merge-tree conflict detection.
func SupportsThreeWayMergeTree() bool {
	v, err := detectedVersion()
	if err != nil {
		return false
	}
	return v.atLeast(minMergeTreeVersion)
}
