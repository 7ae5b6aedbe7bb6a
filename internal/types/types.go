// Package types defines the core SKEIN domain model: agents, sites,
// folios, threads, and the supporting records kept by the log store
// and shard subsystem.
package types

import (
	"fmt"
	"time"
)

// AgentStatus is the lifecycle state of a roster entry (§4.6).
type AgentStatus string

const (
	AgentOrienting AgentStatus = "orienting"
	AgentActive    AgentStatus = "active"
	AgentRetiring  AgentStatus = "retiring"
	AgentRetired   AgentStatus = "retired"
)

// AgentKind describes the runtime origin of an agent. The set is
// closed but permissive: unknown values round-trip without error.
type AgentKind string

const (
	KindClaudeCode AgentKind = "claude-code"
	KindScripted   AgentKind = "scripted"
	KindHuman      AgentKind = "human"
	KindUnknown    AgentKind = "unknown"
)

// Agent is a roster entry (§3.1).
type Agent struct {
	ID           string                 `json:"agent_id"`
	Name         string                 `json:"name,omitempty"`
	Kind         AgentKind              `json:"kind,omitempty"`
	Description  string                 `json:"description,omitempty"`
	Capabilities []string               `json:"capabilities,omitempty"`
	RegisteredAt time.Time              `json:"registered_at"`
	Status       AgentStatus            `json:"status"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// SiteStatus is the lifecycle state of a site.
type SiteStatus string

const (
	SiteActive   SiteStatus = "active"
	SiteArchived SiteStatus = "archived"
)

// Site is a named workspace grouping folios (§3.1).
type Site struct {
	ID        string                 `json:"site_id"`
	Purpose   string                 `json:"purpose"`
	CreatedAt time.Time              `json:"created_at"`
	CreatedBy string                 `json:"created_by,omitempty"`
	Status    SiteStatus             `json:"status"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Tags returns the site's metadata tag list, if any.
func (s *Site) Tags() []string {
	if s.Metadata == nil {
		return nil
	}
	raw, ok := s.Metadata["tags"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// FolioType is the closed set of document types (§3.1).
type FolioType string

const (
	FolioIssue    FolioType = "issue"
	FolioFriction FolioType = "friction"
	FolioBrief    FolioType = "brief"
	FolioSummary  FolioType = "summary"
	FolioFinding  FolioType = "finding"
	FolioNotion   FolioType = "notion"
	FolioTender   FolioType = "tender"
	FolioPlaybook FolioType = "playbook"
	FolioMantle   FolioType = "mantle"
	FolioPlan     FolioType = "plan"
	FolioWrit     FolioType = "writ"
)

// ValidFolioTypes lists every recognized folio type.
var ValidFolioTypes = []FolioType{
	FolioIssue, FolioFriction, FolioBrief, FolioSummary, FolioFinding,
	FolioNotion, FolioTender, FolioPlaybook, FolioMantle, FolioPlan, FolioWrit,
}

// IsValidFolioType reports whether t is a recognized folio type.
func IsValidFolioType(t FolioType) bool {
	for _, v := range ValidFolioTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Folio is a typed document (§3.1). Status and AssignedTo are stored
// shadow fields only; the derived-state engine (internal/derived) is
// the source of truth (§9 design note).
type Folio struct {
	ID             string                 `json:"folio_id"`
	Type           FolioType              `json:"type"`
	SiteID         string                 `json:"site_id"`
	CreatedAt      time.Time              `json:"created_at"`
	CreatedBy      string                 `json:"created_by,omitempty"`
	Title          string                 `json:"title"`
	Content        string                 `json:"content,omitempty"`
	TargetAgent    string                 `json:"target_agent,omitempty"`
	SuccessorHint  string                 `json:"successor_hint,omitempty"`
	TraceRef       string                 `json:"trace_ref,omitempty"`
	Archived       bool                   `json:"archived"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	ContentHash    string                 `json:"content_hash,omitempty"`
	Status         string                 `json:"status,omitempty"`       // shadow only
	AssignedTo     string                 `json:"assigned_to,omitempty"`  // shadow only
}

// ThreadType is the closed set of edge types (§3.1).
type ThreadType string

const (
	ThreadMessage    ThreadType = "message"
	ThreadMention    ThreadType = "mention"
	ThreadReference  ThreadType = "reference"
	ThreadAssignment ThreadType = "assignment"
	ThreadSuccession ThreadType = "succession"
	ThreadReply      ThreadType = "reply"
	ThreadTag        ThreadType = "tag"
	ThreadStatus     ThreadType = "status"
)

// Thread is a typed directed edge between two arbitrary resource
// identifiers (§3.1, §9 "dynamic polymorphic resources").
type Thread struct {
	ID        string     `json:"thread_id"`
	FromID    string     `json:"from_id"`
	ToID      string     `json:"to_id"`
	Type      ThreadType `json:"type"`
	Content   string     `json:"content,omitempty"`
	Weaver    string     `json:"weaver,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}

// LogLine is one append-only structured-log entry (§3.1).
type LogLine struct {
	StreamID  string                 `json:"stream_id"`
	RowID     int64                  `json:"row_id"`
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Source    string                 `json:"source"`
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Screenshot is an immutable upload record (§3.1). The image bytes
// live on disk; SKEIN persists only the path and metadata.
type Screenshot struct {
	ID        string                 `json:"screenshot_id"`
	StrandID  string                 `json:"strand_id"`
	Timestamp time.Time              `json:"timestamp"`
	Turn      *int                   `json:"turn,omitempty"`
	Label     string                 `json:"label,omitempty"`
	Path      string                 `json:"path"`
	Size      int64                  `json:"size"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// YieldStatus is the outcome status of a chain-yield record.
type YieldStatus string

const (
	YieldComplete YieldStatus = "complete"
	YieldPartial  YieldStatus = "partial"
	YieldBlocked  YieldStatus = "blocked"
)

// YieldEnrichment carries optional execution telemetry for a yield.
type YieldEnrichment struct {
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	TokensConsumed  int64   `json:"tokens_consumed,omitempty"`
	ShardPath       string  `json:"shard_path,omitempty"`
	TenderID        string  `json:"tender_id,omitempty"`
}

// Yield is a chain-sack entry handing outcomes to the next agent in
// a pipeline (§3.1, §4.6).
type Yield struct {
	ID          string                 `json:"sack_id"`
	ChainID     string                 `json:"chain_id"`
	TaskID      string                 `json:"task_id"`
	AgentID     string                 `json:"agent_id,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	Status      YieldStatus            `json:"status"`
	Outcome     string                 `json:"outcome"`
	Artifacts   []string               `json:"artifacts,omitempty"`
	Notes       string                 `json:"notes,omitempty"`
	Enrichment  *YieldEnrichment       `json:"enrichment,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// ShardStatus is the lifecycle state of a shard (§3.1).
type ShardStatus string

const (
	ShardActive   ShardStatus = "active"
	ShardTendered ShardStatus = "tendered"
	ShardMerged   ShardStatus = "merged"
)

// ShardRecord is persisted shard metadata (§3.1, §4.7).
type ShardRecord struct {
	WorktreeName    string      `json:"worktree_name"`
	ParentWorktree  string      `json:"parent_worktree,omitempty"`
	BaseCommit      string      `json:"base_commit"`
	CreatedAt       time.Time   `json:"created_at"`
	SpawningName    string      `json:"spawning_name"`
	BriefID         string      `json:"brief_id,omitempty"`
	Description     string      `json:"description,omitempty"`
	Status          ShardStatus `json:"status"`
	TenderedAt      *time.Time  `json:"tendered_at,omitempty"`
	MergedAt        *time.Time  `json:"merged_at,omitempty"`
	Confidence      *int        `json:"confidence,omitempty"`
}

// ShardID returns the caller-facing shard identifier for this record.
func (r *ShardRecord) ShardID() string {
	return fmt.Sprintf("shard-%s", r.WorktreeName)
}

// SetConfidence validates and assigns a 1-10 confidence score.
func (r *ShardRecord) SetConfidence(c int) error {
	if c < 1 || c > 10 {
		return fmt.Errorf("confidence must be between 1 and 10, got %d", c)
	}
	r.Confidence = &c
	return nil
}
