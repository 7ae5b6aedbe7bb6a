package httpapi

import (
	"fmt"
	"time"

	natsbus "github.com/spiritengine/skein/internal/nats"
	"github.com/spiritengine/skein/internal/types"
)

// publishThread fans a thread append out to the local websocket hub
// and, when a NATS client is attached, to every other process
// subscribed to the same project's subject.
func (s *Server) publishThread(projectID string, t types.Thread) {
	s.hub.broadcastThread(t)
	if s.nats == nil {
		return
	}
	msg := natsbus.ThreadAppendedMessage{
		ProjectID: projectID, ThreadID: t.ID, FromID: t.FromID, ToID: t.ToID,
		Type: string(t.Type), Timestamp: time.Now(),
	}
	s.nats.PublishJSON(fmt.Sprintf(natsbus.SubjectThreadAppended, projectID), msg)
}

func (s *Server) publishYield(projectID string, y types.Yield) {
	s.hub.broadcastYield(y)
	if s.nats == nil {
		return
	}
	msg := natsbus.YieldCreatedMessage{
		ProjectID: projectID, SackID: y.ID, ChainID: y.ChainID, AgentID: y.AgentID,
		Status: string(y.Status), Timestamp: time.Now(),
	}
	s.nats.PublishJSON(fmt.Sprintf(natsbus.SubjectYieldCreated, projectID), msg)
}

func (s *Server) publishFolio(projectID string, f types.Folio) {
	s.hub.broadcastFolio(f)
	if s.nats == nil {
		return
	}
	msg := natsbus.FolioUpdatedMessage{
		ProjectID: projectID, FolioID: f.ID, Type: string(f.Type), Status: f.Status,
		Timestamp: time.Now(),
	}
	s.nats.PublishJSON(fmt.Sprintf(natsbus.SubjectFolioUpdated, projectID), msg)
}
