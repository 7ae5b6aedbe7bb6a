package shard

import (
	"fmt"
	"os/exec"
	"strings"
)

// gitRunner is a thin wrapper around the git CLI scoped to one
// repository directory, grounded on teacher internal/git/git.go's
// `Git` struct (`exec.Command` + `CombinedOutput`, repo-scoped `Dir`),
// extended with the worktree/merge-tree/cherry-pick operations §4.7
// needs.
type gitRunner struct {
	dir string
}

func newGitRunner(dir string) *gitRunner {
	return &gitRunner{dir: dir}
}

func (g *gitRunner) run(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = g.dir

	output, err := cmd.CombinedOutput()
	if err != nil {
		return strings.TrimSpace(string(output)), fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, output)
	}
	return strings.TrimSpace(string(output)), nil
}

// runAllowFail runs args and returns output regardless of exit code,
// for commands (merge-tree, merge --no-ff) whose non-zero exit is a
// meaningful result rather than a failure.
func (g *gitRunner) runAllowFail(args ...string) (output string, exitErr error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = g.dir
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// RevParse resolves ref to a commit hash.
func (g *gitRunner) RevParse(ref string) (string, error) {
	return g.run("rev-parse", ref)
}

// CurrentRef returns the symbolic branch name if HEAD is attached, or
// the bare commit hash if detached — the "original reference" a merge
// must be able to restore on failure (§4.7.5).
func (g *gitRunner) CurrentRef() (string, error) {
	branch, err := g.run("symbolic-ref", "--short", "HEAD")
	if err == nil {
		return branch, nil
	}
	return g.RevParse("HEAD")
}

// Checkout switches the working tree to ref.
func (g *gitRunner) Checkout(ref string) error {
	_, err := g.run("checkout", ref)
	return err
}

// WorktreeAdd creates a new worktree at path on a new branch created
// from baseRef.
func (g *gitRunner) WorktreeAdd(path, branch, baseRef string) error {
	_, err := g.run("worktree", "add", "-b", branch, path, baseRef)
	return err
}

// WorktreeEntry is one entry from `git worktree list --porcelain`.
type WorktreeEntry struct {
	Path   string
	Branch string // short branch name, empty when detached
	Head   string
}

// WorktreeList returns every worktree registered against the
// repository, parsed from `git worktree list --porcelain`.
func (g *gitRunner) WorktreeList() ([]WorktreeEntry, error) {
	out, err := g.run("worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}

	var entries []WorktreeEntry
	var current WorktreeEntry
	flush := func() {
		if current.Path != "" {
			entries = append(entries, current)
		}
		current = WorktreeEntry{}
	}

	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "worktree "):
			flush()
			current.Path = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "HEAD "):
			current.Head = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch "):
			ref := strings.TrimPrefix(line, "branch ")
			current.Branch = strings.TrimPrefix(ref, "refs/heads/")
		}
	}
	flush()

	return entries, nil
}

// WorktreeRemove removes a worktree, retrying with --force on failure
// (§4.7.6 step 5).
func (g *gitRunner) WorktreeRemove(path string) error {
	if _, err := g.run("worktree", "remove", path); err != nil {
		_, forceErr := g.run("worktree", "remove", "--force", path)
		return forceErr
	}
	return nil
}

// WorktreePrune removes stale worktree administrative files.
func (g *gitRunner) WorktreePrune() error {
	_, err := g.run("worktree", "prune")
	return err
}

// DeleteBranch force-deletes a local branch.
func (g *gitRunner) DeleteBranch(name string) error {
	_, err := g.run("branch", "-D", name)
	return err
}

// StatusPorcelain returns the porcelain-format status lines for the
// worktree's current state.
func (g *gitRunner) StatusPorcelain() (string, error) {
	return g.run("status", "--porcelain")
}

// UncommittedFiles lists the paths reported dirty by status.
func (g *gitRunner) UncommittedFiles() ([]string, error) {
	out, err := g.StatusPorcelain()
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		if len(line) > 3 {
			files = append(files, strings.TrimSpace(line[3:]))
		}
	}
	return files, nil
}

// IsClean reports whether the working tree has no uncommitted changes.
func (g *gitRunner) IsClean() (bool, error) {
	out, err := g.StatusPorcelain()
	if err != nil {
		return false, err
	}
	return out == "", nil
}

// CommitsAhead returns the number of commits reachable from branch but
// not from base.
func (g *gitRunner) CommitsAhead(base, branch string) (int, error) {
	out, err := g.run("rev-list", "--count", base+".."+branch)
	if err != nil {
		return 0, err
	}
	var n int
	if _, err := fmt.Sscanf(out, "%d", &n); err != nil {
		return 0, fmt.Errorf("failed to parse commit count %q: %w", out, err)
	}
	return n, nil
}

// MergeBase returns the merge base of a and b.
func (g *gitRunner) MergeBase(a, b string) (string, error) {
	return g.run("merge-base", a, b)
}

// Log returns the oneline log of commits reachable from ref but not
// from notRef, oldest first, capped at limit entries.
func (g *gitRunner) Log(notRef, ref string, limit int) ([]string, error) {
	out, err := g.run("log", "--reverse", "--oneline", fmt.Sprintf("-%d", limit), notRef+".."+ref)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// CommitHashes returns the full commit hashes reachable from ref but
// not from notRef, oldest first — the set a graft cherry-picks.
func (g *gitRunner) CommitHashes(notRef, ref string) ([]string, error) {
	out, err := g.run("log", "--reverse", "--format=%H", notRef+".."+ref)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// DiffStat returns the `--stat` summary between two refs (three-dot
// range when threeDot is true, matching work/integration diffs per
// §4.7.4).
func (g *gitRunner) DiffStat(from, to string, threeDot bool) (string, error) {
	rangeArg := from + ".." + to
	if threeDot {
		rangeArg = from + "..." + to
	}
	return g.run("diff", "--stat", rangeArg)
}

// Diff returns the full diff between two refs.
func (g *gitRunner) Diff(from, to string, threeDot bool) (string, error) {
	rangeArg := from + ".." + to
	if threeDot {
		rangeArg = from + "..." + to
	}
	return g.run("diff", rangeArg)
}

// CherryPick cherry-picks a single commit into the current worktree.
func (g *gitRunner) CherryPick(commit string) error {
	_, err := g.run("cherry-pick", commit)
	return err
}

// CherryPickAbort aborts an in-progress cherry-pick.
func (g *gitRunner) CherryPickAbort() error {
	_, err := g.run("cherry-pick", "--abort")
	return err
}

// MergeNoFF performs a non-fast-forward merge of branch with message,
// returning the raw output for diagnostics on failure.
func (g *gitRunner) MergeNoFF(branch, message string) (string, error) {
	return g.runAllowFail("merge", "--no-ff", "-m", message, branch)
}

// MergeAbort aborts an in-progress merge.
func (g *gitRunner) MergeAbort() error {
	_, err := g.run("merge", "--abort")
	return err
}

// MergeTreeResult is the outcome of a three-argument merge-tree probe.
type MergeTreeResult struct {
	Status          MergeStatus
	ConflictedPaths []string
	Output          string
}

// MergeStatus is the three-valued outcome of a merge-tree probe
// (§4.7.4).
type MergeStatus string

const (
	MergeClean   MergeStatus = "clean"
	MergeConflict MergeStatus = "conflict"
	MergeUnknown  MergeStatus = "unknown"
)

// MergeTreeThreeWay probes whether merging branch into base would
// conflict, using the three-argument merge-tree form. Callers must
// gate this on the tool-version guard (toolversion.go); calling it
// against a source-tree tool older than 2.38 produces unreliable
// conflict signal.
func (g *gitRunner) MergeTreeThreeWay(base, ours, theirs string) (MergeTreeResult, error) {
	out, err := g.runAllowFail("merge-tree", "--write-tree", "--merge-base="+base, ours, theirs)
	if err != nil {
		if strings.Contains(out, "<<<<<<<") || strings.Contains(strings.ToLower(out), "conflict") {
			return MergeTreeResult{Status: MergeConflict, ConflictedPaths: parseConflictedPaths(out), Output: out}, nil
		}
		return MergeTreeResult{Status: MergeUnknown, Output: out}, nil
	}
	return MergeTreeResult{Status: MergeClean, Output: out}, nil
}

// parseConflictedPaths extracts file paths from merge-tree's conflict
// report. merge-tree --write-tree lists conflicted paths one per
// line after a blank-line-separated "Auto-merging"/"CONFLICT" block;
// we take the paths named in "CONFLICT (content): Merge conflict in
// <path>" lines, the stable substring across tool versions.
func parseConflictedPaths(output string) []string {
	var paths []string
	for _, line := range strings.Split(output, "\n") {
		const marker = "Merge conflict in "
		if idx := strings.Index(line, marker); idx >= 0 {
			paths = append(paths, strings.TrimSpace(line[idx+len(marker):]))
		}
	}
	return paths
}
