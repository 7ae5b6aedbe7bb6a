// Package idutil generates SKEIN's artifact identifiers and parses the
// small inline grammars (@-mentions, relative time windows) that the
// artifact service and derived-state engine depend on.
package idutil

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = idAlphabet[rand.Intn(len(idAlphabet))]
	}
	return string(b)
}

// NewFolioID returns a folio identifier of the form
// "<type>-YYYYMMDD-<4 lowercase alnum>" (§3.1).
func NewFolioID(folioType string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s", folioType, now.UTC().Format("20060102"), randomSuffix(4))
}

// NewThreadID returns a thread identifier of the form
// "thread-YYYYMMDD-<4 lowercase alnum>" (§3.1).
func NewThreadID(now time.Time) string {
	return fmt.Sprintf("thread-%s-%s", now.UTC().Format("20060102"), randomSuffix(4))
}

// NewYieldID returns a yield identifier of the form
// "yield-YYYYMMDD-<4 lowercase alnum>" (§4.6).
func NewYieldID(now time.Time) string {
	return fmt.Sprintf("yield-%s-%s", now.UTC().Format("20060102"), randomSuffix(4))
}

// NewScreenshotID returns a screenshot identifier of the form
// "screenshot-YYYYMMDD-<4 lowercase alnum>" (§6.1).
func NewScreenshotID(now time.Time) string {
	return fmt.Sprintf("screenshot-%s-%s", now.UTC().Format("20060102"), randomSuffix(4))
}

// mentionPattern matches an @-mention: an at-sign followed by a
// lowercase-alnum token containing at least one hyphen. Content is
// lowercased before matching, mirroring skein/utils.py's parse_mentions.
var mentionPattern = regexp.MustCompile(`@([a-z0-9][a-z0-9\-]+)`)

// ParseMentions extracts the distinct set of @-mentioned identifiers
// from content. Only tokens containing a hyphen are treated as
// mentions; "@here" and similar bare words are not identifiers in
// SKEIN's naming scheme and are ignored.
func ParseMentions(content string) []string {
	lower := strings.ToLower(content)
	matches := mentionPattern.FindAllStringSubmatch(lower, -1)

	seen := make(map[string]bool)
	var out []string
	for _, m := range matches {
		token := m[1]
		if !strings.Contains(token, "-") {
			continue
		}
		if seen[token] {
			continue
		}
		seen[token] = true
		out = append(out, token)
	}
	return out
}

var relativeTimePattern = regexp.MustCompile(`^(\d+)\s*(day|hour|min|minute)s?$`)

// ParseRelativeTime parses a timestamp that is either RFC 3339 or one of
// SKEIN's relative windows ("2hours", "30min", "1day") and returns the
// absolute instant it denotes relative to now. Naive RFC 3339 timestamps
// (no offset) are treated as UTC, matching skein/utils.py's
// parse_relative_time.
func ParseRelativeTime(s string, now time.Time) (time.Time, error) {
	trimmed := strings.TrimSpace(s)

	if t, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", trimmed); err == nil {
		return t.UTC(), nil
	}

	lower := strings.ToLower(trimmed)
	m := relativeTimePattern.FindStringSubmatch(lower)
	if m == nil {
		return time.Time{}, fmt.Errorf("invalid relative time %q: expected RFC3339 or NNday/NNhour/NNmin", s)
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid relative time %q: %w", s, err)
	}

	var d time.Duration
	switch m[2] {
	case "day":
		d = time.Duration(n) * 24 * time.Hour
	case "hour":
		d = time.Duration(n) * time.Hour
	case "min", "minute":
		d = time.Duration(n) * time.Minute
	}

	return now.UTC().Add(-d), nil
}
