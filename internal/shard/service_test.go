package shard

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

// newTestProject initializes a bare main-branch repo with one commit
// and returns its root.
func newTestProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = root
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v failed: %v\n%s", args, err, out)
		}
	}

	run("init", "-b", "main")
	run("config", "user.email", "test@test.com")
	run("config", "user.name", "Test")

	if err := os.WriteFile(filepath.Join(root, "README.md"), []byte("hello\n"), 0644); err != nil {
		t.Fatal(err)
	}
	run("add", ".")
	run("commit", "-m", "initial")

	return root
}

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	root := newTestProject(t)
	meta, err := OpenMetadataStore(filepath.Join(root, ".skein", "shards.db"))
	if err != nil {
		t.Fatalf("OpenMetadataStore: %v", err)
	}
	t.Cleanup(func() { meta.Close() })
	return New(root, meta), root
}

func TestSpawnCreatesWorktreeAndMetadata(t *testing.T) {
	requireGit(t)
	svc, root := newTestService(t)

	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	record, err := svc.Spawn("bright-otter", "", "try something", now)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if record.WorktreeName != "bright-otter-20260730-001" {
		t.Errorf("unexpected worktree name %q", record.WorktreeName)
	}
	if _, err := os.Stat(filepath.Join(root, "worktrees", record.WorktreeName)); err != nil {
		t.Errorf("expected worktree directory to exist: %v", err)
	}

	stored, ok, err := svc.meta.Get(record.WorktreeName)
	if err != nil || !ok {
		t.Fatalf("expected persisted metadata, ok=%v err=%v", ok, err)
	}
	if stored.Status != record.Status {
		t.Errorf("persisted status mismatch: %v vs %v", stored.Status, record.Status)
	}
}

func TestSpawnIncrementsSequenceWithinSameDay(t *testing.T) {
	requireGit(t)
	svc, _ := newTestService(t)
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)

	first, err := svc.Spawn("bright-otter", "", "", now)
	if err != nil {
		t.Fatalf("first Spawn: %v", err)
	}
	second, err := svc.Spawn("bright-otter", "", "", now)
	if err != nil {
		t.Fatalf("second Spawn: %v", err)
	}
	if first.WorktreeName == second.WorktreeName {
		t.Error("expected distinct worktree names for same-day spawns")
	}
}

func TestListShardsReturnsSpawnedShard(t *testing.T) {
	requireGit(t)
	svc, _ := newTestService(t)
	now := time.Now().UTC()

	record, err := svc.Spawn("quiet-fox", "", "", now)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	shards, err := svc.ListShards()
	if err != nil {
		t.Fatalf("ListShards: %v", err)
	}
	var found bool
	for _, sh := range shards {
		if sh.WorktreeName == record.WorktreeName {
			found = true
			if !sh.HasRecord {
				t.Error("expected shard to have persisted metadata")
			}
		}
	}
	if !found {
		t.Error("expected spawned shard to appear in ListShards")
	}
}

func TestGetShardGitInfoReportsCleanAndAhead(t *testing.T) {
	requireGit(t)
	svc, root := newTestService(t)
	now := time.Now().UTC()

	record, err := svc.Spawn("river-hawk", "", "", now)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	worktreePath := filepath.Join(root, "worktrees", record.WorktreeName)
	if err := os.WriteFile(filepath.Join(worktreePath, "change.txt"), []byte("work\n"), 0644); err != nil {
		t.Fatal(err)
	}
	wg := newGitRunner(worktreePath)
	if _, err := wg.run("add", "."); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := wg.run("commit", "-m", "do work"); err != nil {
		t.Fatalf("commit: %v", err)
	}

	info, err := svc.GetShardGitInfo(record.WorktreeName)
	if err != nil {
		t.Fatalf("GetShardGitInfo: %v", err)
	}
	if info.CommitsAhead != 1 {
		t.Errorf("expected 1 commit ahead, got %d", info.CommitsAhead)
	}
	if !info.Clean {
		t.Error("expected clean working tree after commit")
	}
}

func TestMergeRequiresCleanWorkingTree(t *testing.T) {
	requireGit(t)
	svc, root := newTestService(t)
	now := time.Now().UTC()

	record, err := svc.Spawn("slow-heron", "", "", now)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	worktreePath := filepath.Join(root, "worktrees", record.WorktreeName)
	if err := os.WriteFile(filepath.Join(worktreePath, "dirty.txt"), []byte("uncommitted\n"), 0644); err != nil {
		t.Fatal(err)
	}

	err = svc.Merge(record.WorktreeName, t.TempDir())
	if err == nil {
		t.Fatal("expected Merge to fail on a dirty working tree")
	}
	if _, ok := err.(*ErrMergePrecondition); !ok {
		t.Errorf("expected ErrMergePrecondition, got %T: %v", err, err)
	}
}

func TestMergeRefusesWhenCallerInsideWorktree(t *testing.T) {
	requireGit(t)
	svc, root := newTestService(t)
	now := time.Now().UTC()

	record, err := svc.Spawn("calm-wren", "", "", now)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	worktreePath := filepath.Join(root, "worktrees", record.WorktreeName)

	err = svc.Merge(record.WorktreeName, worktreePath)
	if err == nil {
		t.Fatal("expected Merge to refuse when caller cwd is inside the worktree")
	}
	if _, ok := err.(*ErrMergePrecondition); !ok {
		t.Errorf("expected ErrMergePrecondition, got %T: %v", err, err)
	}
}

func TestMergeIntegratesCommittedWork(t *testing.T) {
	requireGit(t)
	svc, root := newTestService(t)
	now := time.Now().UTC()

	record, err := svc.Spawn("tall-pine", "", "", now)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	worktreePath := filepath.Join(root, "worktrees", record.WorktreeName)
	if err := os.WriteFile(filepath.Join(worktreePath, "feature.txt"), []byte("feature\n"), 0644); err != nil {
		t.Fatal(err)
	}
	wg := newGitRunner(worktreePath)
	if _, err := wg.run("add", "."); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := wg.run("commit", "-m", "add feature"); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if !SupportsThreeWayMergeTree() {
		t.Skip("installed git predates three-way merge-tree support")
	}

	if err := svc.Merge(record.WorktreeName, t.TempDir()); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if _, err := os.Stat(worktreePath); !os.IsNotExist(err) {
		t.Errorf("expected worktree to be removed after merge, stat err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "feature.txt")); err != nil {
		t.Errorf("expected merged file on main: %v", err)
	}
}

func TestCleanupRejectsEscapingName(t *testing.T) {
	requireGit(t)
	svc, _ := newTestService(t)

	if err := svc.Cleanup("../../etc", "", false); err == nil {
		t.Fatal("expected Cleanup to reject a path-escaping worktree name")
	}
}

func TestReviewQueueBucketsDirtyShardAsNeedsCommit(t *testing.T) {
	requireGit(t)
	svc, root := newTestService(t)
	now := time.Now().UTC()

	record, err := svc.Spawn("broad-elm", "", "", now)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	worktreePath := filepath.Join(root, "worktrees", record.WorktreeName)
	if err := os.WriteFile(filepath.Join(worktreePath, "scratch.txt"), []byte("wip\n"), 0644); err != nil {
		t.Fatal(err)
	}

	queue, err := svc.BuildReviewQueue(now, 0)
	if err != nil {
		t.Fatalf("BuildReviewQueue: %v", err)
	}
	if len(queue.NeedsCommit) != 1 || queue.NeedsCommit[0].WorktreeName != record.WorktreeName {
		t.Errorf("expected shard in needs_commit bucket, got %+v", queue)
	}
}

func TestGraftReplaysCommitsOntoFreshWorktree(t *testing.T) {
	requireGit(t)
	svc, root := newTestService(t)
	now := time.Now().UTC()

	record, err := svc.Spawn("pale-sparrow", "", "", now)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	worktreePath := filepath.Join(root, "worktrees", record.WorktreeName)
	if err := os.WriteFile(filepath.Join(worktreePath, "notes.txt"), []byte("notes\n"), 0644); err != nil {
		t.Fatal(err)
	}
	wg := newGitRunner(worktreePath)
	if _, err := wg.run("add", "."); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := wg.run("commit", "-m", "add notes"); err != nil {
		t.Fatalf("commit: %v", err)
	}

	result, err := svc.Graft(record.WorktreeName, now)
	if err != nil {
		t.Fatalf("Graft: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected graft to succeed cleanly, got %+v", result)
	}

	graftName := GraftWorktreeName(record.WorktreeName)
	if result.WorktreeName != graftName {
		t.Errorf("unexpected graft worktree name %q", result.WorktreeName)
	}
	if _, err := os.Stat(filepath.Join(root, "worktrees", graftName, "notes.txt")); err != nil {
		t.Errorf("expected grafted file to be present: %v", err)
	}

	stored, ok, err := svc.meta.Get(graftName)
	if err != nil || !ok {
		t.Fatalf("expected graft metadata, ok=%v err=%v", ok, err)
	}
	if stored.ParentWorktree != record.WorktreeName {
		t.Errorf("expected parent_worktree %q, got %q", record.WorktreeName, stored.ParentWorktree)
	}

	root2, err := svc.GetGraftChainRoot(graftName)
	if err != nil {
		t.Fatalf("GetGraftChainRoot: %v", err)
	}
	if root2 != record.WorktreeName {
		t.Errorf("GetGraftChainRoot = %q, want %q", root2, record.WorktreeName)
	}
}

func TestReviewQueueBucketsStaleShard(t *testing.T) {
	requireGit(t)
	svc, _ := newTestService(t)
	spawnedAt := time.Now().UTC().Add(-30 * 24 * time.Hour)

	record, err := svc.Spawn("old-cedar", "", "", spawnedAt)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	queue, err := svc.BuildReviewQueue(time.Now().UTC(), 7)
	if err != nil {
		t.Fatalf("BuildReviewQueue: %v", err)
	}
	if len(queue.Stale) != 1 || queue.Stale[0].WorktreeName != record.WorktreeName {
		t.Errorf("expected shard in stale bucket, got %+v", queue)
	}
}
