// Package shard implements the git-worktree-based isolated workspace
// subsystem (§4.7): spawn, status/diff/drift inspection, merge,
// cleanup, and conflict-resolution grafts.
package shard

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spiritengine/skein/internal/types"
)

const (
	mainBranch          = "main"
	defaultStaleDays    = 7
	driftNotableCommits = 10
)

// Service coordinates shard operations against one project's source
// tree. Grounded on teacher internal/git/git.go's repo-scoped wrapper,
// extended to manage a population of worktrees rather than a single
// repository checkout.
type Service struct {
	projectRoot  string
	worktreesDir string
	meta         *MetadataStore
}

// New returns a Service rooted at projectRoot, the source-tree root
// the shard worktrees directory lives inside (§6.5).
func New(projectRoot string, meta *MetadataStore) *Service {
	return &Service{
		projectRoot:  projectRoot,
		worktreesDir: filepath.Join(projectRoot, "worktrees"),
		meta:         meta,
	}
}

func (s *Service) mainGit() *gitRunner {
	return newGitRunner(s.projectRoot)
}

func (s *Service) worktreeGit(worktreeName string) *gitRunner {
	return newGitRunner(filepath.Join(s.worktreesDir, worktreeName))
}

func (s *Service) worktreePath(worktreeName string) string {
	return filepath.Join(s.worktreesDir, worktreeName)
}

// Spawn validates name, computes the next daily sequence, creates a
// new worktree and branch from main, and persists shard metadata
// (§4.7.3).
func (s *Service) Spawn(name, briefID, description string, now time.Time) (types.ShardRecord, error) {
	if err := ValidateName(name); err != nil {
		return types.ShardRecord{}, err
	}

	if err := os.MkdirAll(s.worktreesDir, 0755); err != nil {
		return types.ShardRecord{}, fmt.Errorf("failed to create worktrees directory: %w", err)
	}

	date := now.UTC().Format("20060102")
	seq, err := s.nextSequence(name, date)
	if err != nil {
		return types.ShardRecord{}, err
	}

	worktreeName := fmt.Sprintf("%s-%s-%03d", name, date, seq)
	branch := BranchName(worktreeName)

	baseCommit, err := s.mainGit().RevParse(mainBranch)
	if err != nil {
		return types.ShardRecord{}, fmt.Errorf("failed to resolve %s before spawning shard: %w", mainBranch, err)
	}

	if err := s.mainGit().WorktreeAdd(s.worktreePath(worktreeName), branch, mainBranch); err != nil {
		return types.ShardRecord{}, fmt.Errorf("failed to create shard worktree: %w", err)
	}

	record := types.ShardRecord{
		WorktreeName: worktreeName,
		BaseCommit:   baseCommit,
		CreatedAt:    now.UTC(),
		SpawningName: name,
		BriefID:      briefID,
		Description:  description,
		Status:       types.ShardActive,
	}
	if err := s.meta.Save(record); err != nil {
		return types.ShardRecord{}, fmt.Errorf("failed to persist shard metadata: %w", err)
	}
	return record, nil
}

// nextSequence scans the worktrees directory for entries matching
// "<name>-<date>-<3 digits>" and returns max+1, erroring if that would
// exceed 999 (§4.7.1, §4.7.3 step 3).
func (s *Service) nextSequence(name, date string) (int, error) {
	entries, err := os.ReadDir(s.worktreesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 1, nil
		}
		return 0, fmt.Errorf("failed to scan worktrees directory: %w", err)
	}

	max := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		parsed, ok := ParseWorktreeName(e.Name())
		if !ok || parsed.IsGraft || parsed.Name != name || parsed.Date != date {
			continue
		}
		if parsed.Sequence > max {
			max = parsed.Sequence
		}
	}

	next := max + 1
	if next > 999 {
		return 0, fmt.Errorf("shard %q has exhausted its daily sequence (999) for %s", name, date)
	}
	return next, nil
}

// ShardInfo is a worktree entry joined with its persisted metadata.
type ShardInfo struct {
	WorktreeName string
	ShardID      string
	Branch       string
	Path         string
	Parsed       ParsedWorktreeName
	Record       types.ShardRecord
	HasRecord    bool
}

// ListShards asks the source tool for every worktree, filters to those
// under the project's worktrees directory, and joins each with its
// persisted metadata (§4.7.4).
func (s *Service) ListShards() ([]ShardInfo, error) {
	entries, err := s.mainGit().WorktreeList()
	if err != nil {
		return nil, fmt.Errorf("failed to list worktrees: %w", err)
	}

	var out []ShardInfo
	for _, e := range entries {
		rel, err := filepath.Rel(s.worktreesDir, e.Path)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		worktreeName := filepath.Base(e.Path)
		parsed, ok := ParseWorktreeName(worktreeName)
		if !ok {
			continue
		}

		record, hasRecord, err := s.meta.Get(worktreeName)
		if err != nil {
			return nil, err
		}

		out = append(out, ShardInfo{
			WorktreeName: worktreeName,
			ShardID:      ShardID(worktreeName),
			Branch:       e.Branch,
			Path:         e.Path,
			Parsed:       parsed,
			Record:       record,
			HasRecord:    hasRecord,
		})
	}
	return out, nil
}

// GetShardStatus returns the ShardInfo for worktreeName. ok is false
// when no such worktree is registered.
func (s *Service) GetShardStatus(worktreeName string) (info ShardInfo, ok bool, err error) {
	shards, err := s.ListShards()
	if err != nil {
		return ShardInfo{}, false, err
	}
	for _, sh := range shards {
		if sh.WorktreeName == worktreeName {
			return sh, true, nil
		}
	}
	return ShardInfo{}, false, nil
}

// GitInfo is the drift/conflict snapshot reported by
// GetShardGitInfo (§4.7.4).
type GitInfo struct {
	CommitsAhead     int
	Clean            bool
	UncommittedFiles []string
	MergeStatus      MergeStatus
	ConflictedPaths  []string
	Log              []string
	DiffStat         string
}

// GetShardGitInfo reports commits-ahead-of-main, working-tree
// cleanliness, merge status, log, and diff-stat. Working-tree state is
// observed from inside the worktree itself, per §9's "from inside the
// worktree" rule — main's `git status` cannot see a sibling worktree's
// changes.
func (s *Service) GetShardGitInfo(worktreeName string) (GitInfo, error) {
	branch := BranchName(worktreeName)
	wg := s.worktreeGit(worktreeName)
	mg := s.mainGit()

	ahead, err := mg.CommitsAhead(mainBranch, branch)
	if err != nil {
		return GitInfo{}, fmt.Errorf("failed to count commits ahead for %s: %w", worktreeName, err)
	}

	clean, err := wg.IsClean()
	if err != nil {
		return GitInfo{}, fmt.Errorf("failed to read working tree state for %s: %w", worktreeName, err)
	}

	var uncommitted []string
	if !clean {
		uncommitted, err = wg.UncommittedFiles()
		if err != nil {
			return GitInfo{}, fmt.Errorf("failed to list uncommitted files for %s: %w", worktreeName, err)
		}
	}

	mergeStatus, conflicted, err := s.probeMergeStatus(branch)
	if err != nil {
		return GitInfo{}, err
	}

	logLines, err := mg.Log(mainBranch, branch, 100)
	if err != nil {
		return GitInfo{}, fmt.Errorf("failed to read log for %s: %w", worktreeName, err)
	}

	diffStat, err := mg.DiffStat(mainBranch, branch, false)
	if err != nil {
		return GitInfo{}, fmt.Errorf("failed to compute diff stat for %s: %w", worktreeName, err)
	}

	return GitInfo{
		CommitsAhead:     ahead,
		Clean:            clean,
		UncommittedFiles: uncommitted,
		MergeStatus:      mergeStatus,
		ConflictedPaths:  conflicted,
		Log:              logLines,
		DiffStat:         diffStat,
	}, nil
}

// probeMergeStatus gates the three-argument merge-tree probe on the
// tool-version guard (§4.7.9): older tools cannot reliably report
// conflicts and must report "unknown".
func (s *Service) probeMergeStatus(branch string) (MergeStatus, []string, error) {
	if !SupportsThreeWayMergeTree() {
		return MergeUnknown, nil, nil
	}

	mg := s.mainGit()
	base, err := mg.MergeBase(mainBranch, branch)
	if err != nil {
		return MergeUnknown, nil, nil
	}

	result, err := mg.MergeTreeThreeWay(base, mainBranch, branch)
	if err != nil {
		return MergeUnknown, nil, nil
	}
	return result.Status, result.ConflictedPaths, nil
}

// GetShardWorkDiff returns the three-dot diff stat from base_commit to
// the shard branch — the agent's own changes, unaffected by main's
// later evolution (§4.7.4).
func (s *Service) GetShardWorkDiff(worktreeName string) (string, error) {
	record, ok, err := s.meta.Get(worktreeName)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("shard %q has no recorded metadata", worktreeName)
	}
	return s.mainGit().Diff(record.BaseCommit, BranchName(worktreeName), true)
}

// GetShardDiff returns the integration diff, main...branch, matching
// what a merge would introduce (§4.7.4).
func (s *Service) GetShardDiff(worktreeName string) (string, error) {
	return s.mainGit().Diff(mainBranch, BranchName(worktreeName), true)
}

// DriftInfo combines base commit drift, notable main commits since
// base, and both diff stats (§4.7.4's get_shard_drift_info).
type DriftInfo struct {
	BaseCommit          string
	BaseAge             string
	MainCommitsAhead    int
	NotableMainCommits  []string
	WorkDiffStat        string
	IntegrationDiffStat string
	MergeStatus         MergeStatus
}

// GetShardDriftInfo reports how far main has moved since the shard's
// base commit and whether the shard would still merge cleanly. now is
// used only to render BaseAge as a human-readable relative duration.
func (s *Service) GetShardDriftInfo(worktreeName string, now time.Time) (DriftInfo, error) {
	record, ok, err := s.meta.Get(worktreeName)
	if err != nil {
		return DriftInfo{}, err
	}
	if !ok {
		return DriftInfo{}, fmt.Errorf("shard %q has no recorded metadata", worktreeName)
	}

	mg := s.mainGit()
	branch := BranchName(worktreeName)

	mainAhead, err := mg.CommitsAhead(record.BaseCommit, mainBranch)
	if err != nil {
		return DriftInfo{}, fmt.Errorf("failed to count main's commits since shard base: %w", err)
	}

	notable, err := mg.Log(record.BaseCommit, mainBranch, driftNotableCommits)
	if err != nil {
		return DriftInfo{}, fmt.Errorf("failed to read main's log since shard base: %w", err)
	}

	workDiff, err := mg.DiffStat(record.BaseCommit, branch, true)
	if err != nil {
		return DriftInfo{}, fmt.Errorf("failed to compute work diff stat: %w", err)
	}
	integrationDiff, err := mg.DiffStat(mainBranch, branch, true)
	if err != nil {
		return DriftInfo{}, fmt.Errorf("failed to compute integration diff stat: %w", err)
	}

	mergeStatus, _, err := s.probeMergeStatus(branch)
	if err != nil {
		return DriftInfo{}, err
	}

	return DriftInfo{
		BaseCommit:          record.BaseCommit,
		BaseAge:             humanize.RelTime(record.CreatedAt, now, "ago", "from now"),
		MainCommitsAhead:    mainAhead,
		NotableMainCommits:  notable,
		WorkDiffStat:        workDiff,
		IntegrationDiffStat: integrationDiff,
		MergeStatus:         mergeStatus,
	}, nil
}

// sortByAgeDescending sorts shards oldest-first by created_at, the
// order §4.7.8 requires within each review-queue bucket.
func sortByAgeDescending(shards []ShardInfo) {
	sort.Slice(shards, func(i, j int) bool {
		return shards[i].Record.CreatedAt.Before(shards[j].Record.CreatedAt)
	})
}
