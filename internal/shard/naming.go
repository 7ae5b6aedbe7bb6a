package shard

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// reservedNames are source-tree tool identifiers a shard name must not
// collide with (§4.7.2), compared case-insensitively.
var reservedNames = map[string]bool{
	"head": true, "master": true, "main": true, "refs": true,
	"objects": true, "hooks": true, "info": true, "logs": true,
	"worktrees": true,
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateName enforces §4.7.2's rejection rules for a raw shard name
// (before any date/sequence suffix is appended).
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("shard name must not be empty")
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("shard name must not be whitespace-only")
	}
	if len(name) > 63 {
		return fmt.Errorf("shard name must not exceed 63 characters")
	}
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "-") {
		return fmt.Errorf("shard name must not start with '.' or '-'")
	}
	if strings.HasSuffix(name, ".lock") {
		return fmt.Errorf("shard name must not end with '.lock'")
	}
	if strings.Contains(name, "..") || strings.Contains(name, "@{") {
		return fmt.Errorf("shard name must not contain '..' or '@{'")
	}
	if reservedNames[strings.ToLower(name)] {
		return fmt.Errorf("shard name %q is a reserved source-tree identifier", name)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("shard name %q must match ^[A-Za-z0-9][A-Za-z0-9_-]*$", name)
	}
	return nil
}

// worktreeNamePattern parses "<name>-YYYYMMDD-<3 digits>", optionally
// suffixed with "-graft", matching §4.7.1/§4.7.4's naming grammar.
var worktreeNamePattern = regexp.MustCompile(`^(.+)-(\d{8})-(\d{3})(-graft)?$`)

// ParsedWorktreeName is a worktree directory name broken into its
// components, with any trailing "-graft" suffix noted separately.
type ParsedWorktreeName struct {
	Name       string
	Date       string
	Sequence   int
	IsGraft    bool
	FullName   string
}

// ParseWorktreeName parses a worktree directory name, returning ok=false
// if it does not match the expected grammar.
func ParseWorktreeName(dirName string) (ParsedWorktreeName, bool) {
	m := worktreeNamePattern.FindStringSubmatch(dirName)
	if m == nil {
		return ParsedWorktreeName{}, false
	}
	seq, err := strconv.Atoi(m[3])
	if err != nil {
		return ParsedWorktreeName{}, false
	}
	return ParsedWorktreeName{
		Name:     m[1],
		Date:     m[2],
		Sequence: seq,
		IsGraft:  m[4] != "",
		FullName: dirName,
	}, true
}

// BranchName returns the branch a shard's worktree is created on,
// "shard-<worktree-name>" per §4.7.1.
func BranchName(worktreeName string) string {
	return fmt.Sprintf("shard-%s", worktreeName)
}

// ShardID returns the caller-facing identifier for a worktree name.
func ShardID(worktreeName string) string {
	return fmt.Sprintf("shard-%s", worktreeName)
}

// GraftWorktreeName returns the worktree name for a graft of source.
func GraftWorktreeName(source string) string {
	return source + "-graft"
}

// StripGraftSuffix removes a trailing "-graft" suffix, used for
// legacy-record suffix-stripping fallbacks in chain walks (§4.7.7).
func StripGraftSuffix(name string) string {
	return strings.TrimSuffix(name, "-graft")
}
