package shard

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spiritengine/skein/internal/types"
)

// pathEscapesWorktree reports whether cwd lies inside worktreePath,
// resolving both sides through symlinks so a symlink cannot be used to
// bypass the check. Any resolution error fails closed (returns true —
// "assume inside, refuse the operation"), per §4.7.5 step 2.
func pathEscapesWorktree(cwd, worktreePath string) bool {
	resolvedCwd, err := filepath.EvalSymlinks(cwd)
	if err != nil {
		return true
	}
	resolvedWorktree, err := filepath.EvalSymlinks(worktreePath)
	if err != nil {
		return true
	}

	rel, err := filepath.Rel(resolvedWorktree, resolvedCwd)
	if err != nil {
		return true
	}
	if rel == "." {
		return true
	}
	return !strings.HasPrefix(rel, "..")
}

// ErrMergePrecondition reports which §4.7.5 precondition blocked a
// merge.
type ErrMergePrecondition struct {
	Reason           string
	UncommittedFiles []string
	ConflictedPaths  []string
}

func (e *ErrMergePrecondition) Error() string {
	return fmt.Sprintf("merge precondition failed: %s", e.Reason)
}

// Merge merges a shard's branch into main with a no-fast-forward merge
// commit, enforcing every precondition in §4.7.5. cwd is the caller's
// current working directory, checked against the worktree path to
// refuse a merge issued from inside the very worktree being merged.
func (s *Service) Merge(worktreeName, cwd string) error {
	info, ok, err := s.GetShardStatus(worktreeName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("shard %q does not exist", worktreeName)
	}

	if pathEscapesWorktree(cwd, info.Path) {
		return &ErrMergePrecondition{Reason: "caller is inside the shard worktree"}
	}

	gitInfo, err := s.GetShardGitInfo(worktreeName)
	if err != nil {
		return err
	}
	if !gitInfo.Clean {
		return &ErrMergePrecondition{Reason: "working tree has uncommitted changes", UncommittedFiles: gitInfo.UncommittedFiles}
	}
	if gitInfo.MergeStatus != MergeClean {
		return &ErrMergePrecondition{Reason: fmt.Sprintf("merge status is %s, not clean", gitInfo.MergeStatus), ConflictedPaths: gitInfo.ConflictedPaths}
	}

	mg := s.mainGit()
	branch := BranchName(worktreeName)

	originalRef, err := mg.CurrentRef()
	if err != nil {
		return fmt.Errorf("failed to record current ref before merge: %w", err)
	}

	if err := mg.Checkout(mainBranch); err != nil {
		return fmt.Errorf("failed to check out %s before merge: %w", mainBranch, err)
	}

	if out, mergeErr := mg.MergeNoFF(branch, "Merge "+branch); mergeErr != nil {
		mg.MergeAbort()
		if checkoutErr := mg.Checkout(originalRef); checkoutErr != nil {
			return fmt.Errorf("merge of %s failed (%s) and restoring %s also failed: %w", branch, out, originalRef, checkoutErr)
		}
		return fmt.Errorf("merge of %s failed, aborted and restored %s: %s", branch, originalRef, out)
	}

	return s.Cleanup(worktreeName, cwd, false)
}

// ErrCleanupPrecondition reports which §4.7.6 precondition blocked a
// cleanup.
type ErrCleanupPrecondition struct {
	Reason string
}

func (e *ErrCleanupPrecondition) Error() string {
	return fmt.Sprintf("cleanup precondition failed: %s", e.Reason)
}

// Cleanup removes a shard's worktree and (unless keepBranch is set)
// its branch, pruning stale metadata afterward (§4.7.6).
func (s *Service) Cleanup(worktreeName, cwd string, keepBranch bool) error {
	name := filepath.Base(worktreeName)
	if name == "" || name == "." || name == filepath.Base(s.worktreesDir) {
		return &ErrCleanupPrecondition{Reason: "empty or equals the worktrees directory name"}
	}

	worktreePath := s.worktreePath(name)
	resolvedWorktree, err := filepath.Abs(worktreePath)
	if err != nil {
		return &ErrCleanupPrecondition{Reason: "could not resolve worktree path"}
	}
	resolvedBase, err := filepath.Abs(s.worktreesDir)
	if err != nil {
		return &ErrCleanupPrecondition{Reason: "could not resolve worktrees directory"}
	}
	rel, err := filepath.Rel(resolvedBase, resolvedWorktree)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return &ErrCleanupPrecondition{Reason: "resolved path escapes the worktrees directory"}
	}

	if cwd != "" && pathEscapesWorktree(cwd, worktreePath) {
		return &ErrCleanupPrecondition{Reason: "caller is inside the shard worktree"}
	}

	mg := s.mainGit()
	if err := mg.WorktreeRemove(worktreePath); err != nil {
		return fmt.Errorf("failed to remove worktree %s: %w", name, err)
	}

	if !keepBranch {
		if err := mg.DeleteBranch(BranchName(name)); err != nil {
			log.Printf("[SHARD] failed to delete branch for %s (soft failure): %v", name, err)
		}
	}

	if err := mg.WorktreePrune(); err != nil {
		log.Printf("[SHARD] worktree prune failed after cleaning up %s: %v", name, err)
	}

	if err := s.meta.Delete(name); err != nil {
		return fmt.Errorf("failed to prune shard metadata for %s: %w", name, err)
	}
	return nil
}

// GraftResult is the outcome of a graft attempt (§4.7.7).
type GraftResult struct {
	Success         bool
	WorktreeName    string
	ConflictedPaths []string
	ConflictCommit  string
}

// Graft resolves a conflicting shard by replaying its commits, one at
// a time, onto a fresh worktree branched from main's current tip,
// stopping at the first cherry-pick conflict (§4.7.7).
func (s *Service) Graft(source string, now time.Time) (GraftResult, error) {
	sourceRecord, ok, err := s.meta.Get(source)
	if err != nil {
		return GraftResult{}, err
	}
	if !ok {
		return GraftResult{}, fmt.Errorf("source shard %q does not exist", source)
	}

	graftName := GraftWorktreeName(source)
	if _, exists, err := s.meta.Get(graftName); err != nil {
		return GraftResult{}, err
	} else if exists {
		return GraftResult{}, fmt.Errorf("a graft of %q already exists", source)
	}

	mg := s.mainGit()
	base := sourceRecord.BaseCommit
	if base == "" {
		base, err = mg.MergeBase(mainBranch, BranchName(source))
		if err != nil {
			return GraftResult{}, fmt.Errorf("failed to compute merge-base fallback for legacy shard %s: %w", source, err)
		}
	}

	commits, err := mg.CommitHashes(base, BranchName(source))
	if err != nil {
		return GraftResult{}, fmt.Errorf("failed to enumerate commits to graft: %w", err)
	}

	mainTip, err := mg.RevParse(mainBranch)
	if err != nil {
		return GraftResult{}, fmt.Errorf("failed to resolve %s tip for graft: %w", mainBranch, err)
	}

	graftPath := s.worktreePath(graftName)
	if err := mg.WorktreeAdd(graftPath, BranchName(graftName), mainBranch); err != nil {
		return GraftResult{}, fmt.Errorf("failed to create graft worktree: %w", err)
	}

	record := types.ShardRecord{
		WorktreeName:   graftName,
		ParentWorktree: source,
		BaseCommit:     mainTip,
		CreatedAt:      now.UTC(),
		SpawningName:   sourceRecord.SpawningName,
		BriefID:        sourceRecord.BriefID,
		Description:    "graft of " + source,
		Status:         types.ShardActive,
	}
	if err := s.meta.Save(record); err != nil {
		return GraftResult{}, fmt.Errorf("failed to persist graft metadata: %w", err)
	}

	graftGit := s.worktreeGit(graftName)
	for _, commit := range commits {
		if err := graftGit.CherryPick(commit); err != nil {
			conflicted, _ := graftGit.UncommittedFiles()
			graftGit.CherryPickAbort()
			return GraftResult{Success: false, WorktreeName: graftName, ConflictedPaths: conflicted, ConflictCommit: commit}, nil
		}
	}

	return GraftResult{Success: true, WorktreeName: graftName}, nil
}

// GetGraftChainRoot walks parent links back to the original,
// non-grafted shard, falling back to suffix-stripping for legacy
// records with no parent_worktree metadata (§4.7.7).
func (s *Service) GetGraftChainRoot(name string) (string, error) {
	current := name
	for {
		record, ok, err := s.meta.Get(current)
		if err != nil {
			return "", err
		}
		if ok && record.ParentWorktree != "" {
			current = record.ParentWorktree
			continue
		}
		if stripped := StripGraftSuffix(current); stripped != current {
			current = stripped
			continue
		}
		return current, nil
	}
}

// GetGraftChain walks children down from name via metadata, again
// falling back to suffix-stripping for legacy records.
func (s *Service) GetGraftChain(name string) ([]string, error) {
	chain := []string{name}
	current := name
	for {
		children, err := s.meta.ByParent(current)
		if err != nil {
			return nil, err
		}
		if len(children) == 0 {
			if _, exists, err := s.meta.Get(GraftWorktreeName(current)); err == nil && exists {
				current = GraftWorktreeName(current)
				chain = append(chain, current)
				continue
			}
			break
		}
		current = children[0].WorktreeName
		chain = append(chain, current)
	}
	return chain, nil
}

// CleanupGraftChain removes every worktree in a graft chain in reverse
// order — grafts before the original — per §4.7.7.
func (s *Service) CleanupGraftChain(root, cwd string) error {
	chain, err := s.GetGraftChain(root)
	if err != nil {
		return err
	}
	for i := len(chain) - 1; i >= 0; i-- {
		if err := s.Cleanup(chain[i], cwd, false); err != nil {
			return fmt.Errorf("failed to clean up graft chain member %s: %w", chain[i], err)
		}
	}
	return nil
}

// ReviewQueueEntry is a shard plus its human-readable age, the form
// a review-queue listing actually renders (§4.7.8).
type ReviewQueueEntry struct {
	ShardInfo
	Age string
}

// ReviewQueue buckets active shards by what a reviewer should do next
// (§4.7.8), each bucket sorted oldest-first.
type ReviewQueue struct {
	NeedsCommit []ReviewQueueEntry
	Conflicts   []ReviewQueueEntry
	Ready       []ReviewQueueEntry
	Stale       []ReviewQueueEntry
}

// BuildReviewQueue categorizes every active shard into needs_commit
// (dirty, highest priority), conflicts (clean but unmergeable), ready
// (mergeable), or stale (no progress in staleDays), mirroring the
// count-and-branch categorization idiom of teacher
// internal/memory/review_board.go's CalculateConsensus.
func (s *Service) BuildReviewQueue(now time.Time, staleDays int) (ReviewQueue, error) {
	if staleDays <= 0 {
		staleDays = defaultStaleDays
	}

	shards, err := s.ListShards()
	if err != nil {
		return ReviewQueue{}, err
	}

	var needsCommit, conflicts, ready, stale []ShardInfo
	for _, sh := range shards {
		if sh.HasRecord && sh.Record.Status != types.ShardActive {
			continue
		}

		gitInfo, err := s.GetShardGitInfo(sh.WorktreeName)
		if err != nil {
			return ReviewQueue{}, fmt.Errorf("failed to inspect shard %s for review queue: %w", sh.WorktreeName, err)
		}

		switch {
		case !gitInfo.Clean:
			needsCommit = append(needsCommit, sh)
		case gitInfo.MergeStatus == MergeConflict:
			conflicts = append(conflicts, sh)
		case gitInfo.CommitsAhead > 0 && gitInfo.Clean && gitInfo.MergeStatus == MergeClean:
			ready = append(ready, sh)
		case gitInfo.CommitsAhead == 0 && sh.HasRecord && now.Sub(sh.Record.CreatedAt) >= time.Duration(staleDays)*24*time.Hour:
			stale = append(stale, sh)
		}
	}

	sortByAgeDescending(needsCommit)
	sortByAgeDescending(conflicts)
	sortByAgeDescending(ready)
	sortByAgeDescending(stale)

	return ReviewQueue{
		NeedsCommit: withHumanizedAge(needsCommit, now),
		Conflicts:   withHumanizedAge(conflicts, now),
		Ready:       withHumanizedAge(ready, now),
		Stale:       withHumanizedAge(stale, now),
	}, nil
}

// withHumanizedAge renders each shard's age relative to now as a
// short human phrase ("3 days ago"), the form a review-queue listing
// actually shows a reviewer rather than a raw timestamp.
func withHumanizedAge(shards []ShardInfo, now time.Time) []ReviewQueueEntry {
	entries := make([]ReviewQueueEntry, len(shards))
	for i, sh := range shards {
		age := "unknown"
		if sh.HasRecord {
			age = humanize.RelTime(sh.Record.CreatedAt, now, "ago", "from now")
		}
		entries[i] = ReviewQueueEntry{ShardInfo: sh, Age: age}
	}
	return entries
}
