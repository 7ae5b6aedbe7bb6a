package nats

import "time"

// Subject constants for SKEIN's fan-out notifications. Every subject
// carries a project id so a process subscribed across many projects
// can filter without decoding the payload first.
const (
	// SubjectThreadAppended fires whenever a thread (message or task)
	// is created, the pattern is "thread.<project_id>.appended".
	SubjectThreadAppended = "thread.%s.appended"

	// SubjectYieldCreated fires whenever an agent yields a chain.
	SubjectYieldCreated = "yield.%s.created"

	// SubjectFolioUpdated fires on folio create and patch.
	SubjectFolioUpdated = "folio.%s.updated"

	// SubjectScreenshotAdded fires when a screenshot is attached to a
	// strand.
	SubjectScreenshotAdded = "screenshot.%s.added"

	// SubjectAllThreads subscribes across every project.
	SubjectAllThreads = "thread.*.appended"

	// SubjectAllYields subscribes across every project.
	SubjectAllYields = "yield.*.created"

	// SubjectAllFolios subscribes across every project.
	SubjectAllFolios = "folio.*.updated"
)

// ThreadAppendedMessage is the fan-out payload published alongside a
// `POST /threads` or `POST /yields`-triggered thread (§4.9's /ws
// live-feed, generalized to a cross-process NATS subject so an agent
// process on another host can subscribe without polling).
type ThreadAppendedMessage struct {
	ProjectID string    `json:"project_id"`
	ThreadID  string    `json:"thread_id"`
	FromID    string    `json:"from_id"`
	ToID      string    `json:"to_id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// YieldCreatedMessage is the fan-out payload published when an agent
// yields a chain.
type YieldCreatedMessage struct {
	ProjectID string    `json:"project_id"`
	SackID    string    `json:"sack_id"`
	ChainID   string    `json:"chain_id"`
	AgentID   string    `json:"agent_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// FolioUpdatedMessage is the fan-out payload published on folio
// create/patch.
type FolioUpdatedMessage struct {
	ProjectID string    `json:"project_id"`
	FolioID   string    `json:"folio_id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientInfo represents a connected NATS client.
type ClientInfo struct {
	ClientID    string    `json:"client_id"`
	ConnectedAt time.Time `json:"connected_at"`
}
