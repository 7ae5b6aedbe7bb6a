package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/spiritengine/skein/internal/artifacts"
	"github.com/spiritengine/skein/internal/idutil"
	"github.com/spiritengine/skein/internal/logstore"
	"github.com/spiritengine/skein/internal/types"
)

const maxScreenshotBytes = 20 << 20 // 20MiB, generous for a terminal-pane PNG

// handleAddScreenshot accepts a multipart form (`image` file part plus
// optional strand_id/turn/label/metadata fields), writes the PNG under
// the project's `.skein/screenshots/` directory, and indexes it
// (§6.1's "image bytes written by the caller" contract).
func (s *Server) handleAddScreenshot(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(maxScreenshotBytes); err != nil {
		writeError(w, r, &artifacts.ValidationError{Reason: "expected a multipart form with an image part: " + err.Error()})
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, r, &artifacts.ValidationError{Reason: "missing image file part: " + err.Error()})
		return
	}
	defer file.Close()

	now := time.Now()
	id := idutil.NewScreenshotID(now)
	dir := filepath.Join(proj.root, ".skein", "screenshots")
	if err := os.MkdirAll(dir, 0755); err != nil {
		writeError(w, r, &artifacts.Internal{Cause: err})
		return
	}
	path := filepath.Join(dir, id+".png")

	out, err := os.Create(path)
	if err != nil {
		writeError(w, r, &artifacts.Internal{Cause: err})
		return
	}
	size, err := io.Copy(out, file)
	out.Close()
	if err != nil {
		writeError(w, r, &artifacts.Internal{Cause: err})
		return
	}

	var turn *int
	if v := r.FormValue("turn"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, &artifacts.ValidationError{Reason: "turn must be an integer"})
			return
		}
		turn = &n
	}
	var metadata map[string]interface{}
	if v := r.FormValue("metadata"); v != "" {
		if err := json.Unmarshal([]byte(v), &metadata); err != nil {
			writeError(w, r, &artifacts.ValidationError{Reason: "metadata must be a JSON object: " + err.Error()})
			return
		}
	}

	shot := types.Screenshot{
		ID: id, StrandID: r.FormValue("strand_id"), Timestamp: now.UTC(),
		Turn: turn, Label: r.FormValue("label"), Path: path, Size: size, Metadata: metadata,
	}
	if err := proj.logs.AddScreenshot(shot); err != nil {
		writeError(w, r, &artifacts.Internal{Cause: err})
		return
	}
	writeJSON(w, http.StatusCreated, shot)
}

func (s *Server) handleListScreenshots(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	query := logstore.ScreenshotQuery{StrandID: q.Get("strand_id")}
	if v := q.Get("since"); v != "" {
		t, err := idutil.ParseRelativeTime(v, time.Now())
		if err != nil {
			writeError(w, r, &artifacts.ValidationError{Reason: err.Error()})
			return
		}
		query.Since = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, &artifacts.ValidationError{Reason: "limit must be an integer"})
			return
		}
		query.Limit = n
	}

	shots, err := proj.logs.GetScreenshots(query)
	if err != nil {
		writeError(w, r, &artifacts.Internal{Cause: err})
		return
	}
	writeJSON(w, http.StatusOK, shots)
}

func (s *Server) handleGetScreenshot(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	shot, ok, err := proj.logs.GetScreenshot(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, &artifacts.Internal{Cause: err})
		return
	}
	if !ok {
		writeError(w, r, &notFoundError{reason: "screenshot not found"})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, shot.Path)
}

func (s *Server) handleGetScreenshotMetadata(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	shot, ok, err := proj.logs.GetScreenshot(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, &artifacts.Internal{Cause: err})
		return
	}
	if !ok {
		writeError(w, r, &notFoundError{reason: "screenshot not found"})
		return
	}
	writeJSON(w, http.StatusOK, shot)
}
