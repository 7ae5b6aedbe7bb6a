package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spiritengine/skein/internal/registry"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	reg := registry.New(filepath.Join(dir, "projects.json"))
	return NewServer(Config{Registry: reg, BaseDir: filepath.Join(dir, "projects")})
}

func TestHealthEndpointRequiresNoProjectHeader(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
}

func TestAPIRoutesRejectMissingProjectHeader(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/roster", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing project header, got %d", rec.Code)
	}
}

func TestCreateAndListFolio(t *testing.T) {
	s := newTestServer(t)

	siteReq := httptest.NewRequest(http.MethodPost, "/sites", strings.NewReader(`{"site_id":"site-a","purpose":"testing"}`))
	siteReq.Header.Set("X-Skein-Project", "demo")
	siteRec := httptest.NewRecorder()
	s.router.ServeHTTP(siteRec, siteReq)
	if siteRec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating site, got %d: %s", siteRec.Code, siteRec.Body.String())
	}

	createBody := strings.NewReader(`{"site_id":"site-a","type":"notion","title":"investigate the flaky retry loop","content":"world","created_by":"agent-a"}`)
	req := httptest.NewRequest(http.MethodPost, "/folios", createBody)
	req.Header.Set("X-Skein-Project", "demo")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating folio, got %d: %s", rec.Code, rec.Body.String())
	}

	listReq := httptest.NewRequest(http.MethodGet, "/folios", nil)
	listReq.Header.Set("X-Skein-Project", "demo")
	listRec := httptest.NewRecorder()
	s.router.ServeHTTP(listRec, listReq)

	if listRec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing folios, got %d", listRec.Code)
	}
	var folios []map[string]interface{}
	if err := json.Unmarshal(listRec.Body.Bytes(), &folios); err != nil {
		t.Fatalf("failed to decode folio list: %v", err)
	}
	if len(folios) != 1 {
		t.Fatalf("expected 1 folio, got %d", len(folios))
	}
}

func TestShutdownSignalsChannel(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/shutdown", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	select {
	case <-s.ShutdownRequested():
	default:
		t.Error("expected a shutdown signal on the channel")
	}
}
