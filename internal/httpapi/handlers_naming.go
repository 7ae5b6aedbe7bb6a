package httpapi

import (
	"net/http"
	"time"

	"github.com/spiritengine/skein/internal/idutil"
)

// handleGenerateName implements `POST /naming/generate?role=&brief_content=&project=`
// (§6.1): a standalone call into the same name generator ignition uses,
// for callers that want a name before committing to a roster
// registration. Uniqueness is only enforced at registration time, so
// an empty existing-names set is used here.
func (s *Server) handleGenerateName(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := idutil.GenerateAgentName(r.Context(), nil, map[string]bool{}, q.Get("project"), q.Get("role"), q.Get("brief_content"), time.Now())
	writeJSON(w, http.StatusOK, map[string]string{"name": name})
}
