package shard

import "testing"

func TestValidateNameAcceptsOrdinaryNames(t *testing.T) {
	for _, name := range []string{"fix-auth", "bright_otter", "a", "Thing123"} {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) = %v, want nil", name, err)
		}
	}
}

func TestValidateNameRejectsBadNames(t *testing.T) {
	tests := []string{
		"",
		"   ",
		".hidden",
		"-leading-dash",
		"foo.lock",
		"has..dots",
		"weird@{1}",
		"HEAD",
		"Main",
		"worktrees",
		"_underscore-start",
		"name with space",
	}
	for _, name := range tests {
		if err := ValidateName(name); err == nil {
			t.Errorf("ValidateName(%q) = nil, want error", name)
		}
	}
}

func TestValidateNameRejectsTooLong(t *testing.T) {
	long := ""
	for i := 0; i < 64; i++ {
		long += "a"
	}
	if err := ValidateName(long); err == nil {
		t.Error("ValidateName of a 64-char name should fail")
	}
}

func TestParseWorktreeName(t *testing.T) {
	parsed, ok := ParseWorktreeName("bright-otter-20260730-002")
	if !ok {
		t.Fatal("expected to parse")
	}
	if parsed.Name != "bright-otter" || parsed.Date != "20260730" || parsed.Sequence != 2 || parsed.IsGraft {
		t.Errorf("unexpected parse result: %+v", parsed)
	}

	graft, ok := ParseWorktreeName("bright-otter-20260730-002-graft")
	if !ok || !graft.IsGraft {
		t.Fatalf("expected graft parse, got %+v ok=%v", graft, ok)
	}
}

func TestBranchAndShardID(t *testing.T) {
	if BranchName("bright-otter-20260730-001") != "shard-bright-otter-20260730-001" {
		t.Error("unexpected branch name")
	}
	if ShardID("bright-otter-20260730-001") != "shard-bright-otter-20260730-001" {
		t.Error("unexpected shard id")
	}
}

func TestGraftWorktreeNameAndStrip(t *testing.T) {
	source := "bright-otter-20260730-001"
	graft := GraftWorktreeName(source)
	if graft != source+"-graft" {
		t.Errorf("unexpected graft name %q", graft)
	}
	if StripGraftSuffix(graft) != source {
		t.Errorf("StripGraftSuffix(%q) = %q, want %q", graft, StripGraftSuffix(graft), source)
	}
	if StripGraftSuffix(source) != source {
		t.Error("StripGraftSuffix should be a no-op on a non-graft name")
	}
}
