// Package objectstore is the durable, file-per-record store for
// roster, sites, folios, and threads (§4.2, §6.3). It is the system of
// record; internal/derived layers a process-scoped cache on top of the
// thread history it persists here.
package objectstore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spiritengine/skein/internal/types"
)

// Store is a file-per-record object store rooted at a project's data
// directory. Grounded on internal/persistence/store.go's Store shape
// (sync.RWMutex-guarded JSON read/write, lazy-default-on-missing-file
// semantics) but laid out as many small records instead of one
// dashboard-state blob, per §6.3's layout.
type Store struct {
	mu      sync.RWMutex
	baseDir string
}

// New returns a Store rooted at baseDir, the project's resolved data
// directory (see internal/registry).
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) rosterFile() string {
	return filepath.Join(s.baseDir, "roster", "agents.json")
}

func (s *Store) siteDir(siteID string) string {
	return filepath.Join(s.baseDir, "sites", siteID)
}

func (s *Store) siteMetadataFile(siteID string) string {
	return filepath.Join(s.siteDir(siteID), "metadata.json")
}

func (s *Store) folioFile(siteID, folioID string) string {
	return filepath.Join(s.siteDir(siteID), "folios", folioID+".json")
}

func (s *Store) sitesDir() string {
	return filepath.Join(s.baseDir, "sites")
}

func (s *Store) threadsDir() string {
	return filepath.Join(s.baseDir, "threads")
}

func (s *Store) threadFile(threadID string) string {
	return filepath.Join(s.threadsDir(), threadID+".json")
}

// loadJSON reads and decodes a JSON file, returning def if it does not
// exist.
func loadJSON(path string, out interface{}) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return true, nil
}

func saveJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// normalizeTime coerces a possibly-naive time to UTC, mirroring
// skein/storage.py's _normalize_datetime_fields — legacy records
// without a zone offset are assumed UTC so comparisons never panic on
// mismatched locations.
func normalizeTime(t time.Time) time.Time {
	if t.Location() == time.UTC {
		return t
	}
	return t.UTC()
}

// --- Roster ---

// SaveAgent upserts a roster entry by agent id.
func (s *Store) SaveAgent(agent types.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var agents []types.Agent
	if _, err := loadJSON(s.rosterFile(), &agents); err != nil {
		return err
	}

	replaced := false
	for i, a := range agents {
		if a.ID == agent.ID {
			agents[i] = agent
			replaced = true
			break
		}
	}
	if !replaced {
		agents = append(agents, agent)
	}

	return saveJSON(s.rosterFile(), agents)
}

// GetAgents returns the roster, optionally filtered by status.
func (s *Store) GetAgents(status *types.AgentStatus) ([]types.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var agents []types.Agent
	if _, err := loadJSON(s.rosterFile(), &agents); err != nil {
		return nil, err
	}

	for i := range agents {
		agents[i].RegisteredAt = normalizeTime(agents[i].RegisteredAt)
	}

	if status == nil {
		return agents, nil
	}

	var filtered []types.Agent
	for _, a := range agents {
		if a.Status == *status {
			filtered = append(filtered, a)
		}
	}
	return filtered, nil
}

// GetAgent returns a single roster entry. ok is false when not found.
func (s *Store) GetAgent(agentID string) (agent types.Agent, ok bool, err error) {
	agents, err := s.GetAgents(nil)
	if err != nil {
		return types.Agent{}, false, err
	}
	for _, a := range agents {
		if a.ID == agentID {
			return a, true, nil
		}
	}
	return types.Agent{}, false, nil
}

// --- Sites ---

// SaveSite writes a site's metadata record, creating its directory
// layout (including the folios subdirectory) if new.
func (s *Store) SaveSite(site types.Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Join(s.siteDir(site.ID), "folios"), 0755); err != nil {
		return fmt.Errorf("failed to create site directory: %w", err)
	}
	return saveJSON(s.siteMetadataFile(site.ID), site)
}

// GetSites returns every site.
func (s *Store) GetSites() ([]types.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.sitesDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}

	var sites []types.Site
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		var site types.Site
		found, err := loadJSON(s.siteMetadataFile(e.Name()), &site)
		if err != nil {
			return nil, err
		}
		if found {
			site.CreatedAt = normalizeTime(site.CreatedAt)
			sites = append(sites, site)
		}
	}
	return sites, nil
}

// GetSite returns a single site. ok is false when not found.
func (s *Store) GetSite(siteID string) (site types.Site, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found, err := loadJSON(s.siteMetadataFile(siteID), &site)
	if err != nil {
		return types.Site{}, false, err
	}
	if !found {
		return types.Site{}, false, nil
	}
	site.CreatedAt = normalizeTime(site.CreatedAt)
	return site, true, nil
}

// --- Folios ---

// computeFolioHash hashes the folio's immutable identity fields (type,
// title, content, created_at, created_by) over SHA-256 of their
// canonical concatenation. A Go-native stand-in for the original
// implementation's external canon/hash library, which has no
// equivalent in this corpus.
func computeFolioHash(f types.Folio) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%s",
		f.Type, f.Title, f.Content, f.CreatedAt.UTC().Format(time.RFC3339Nano), f.CreatedBy)
	return hex.EncodeToString(h.Sum(nil))
}

// ErrSiteNotFound is returned by SaveFolio and MoveFolio when the
// named site does not exist.
type ErrSiteNotFound struct{ SiteID string }

func (e *ErrSiteNotFound) Error() string {
	return fmt.Sprintf("site %q does not exist", e.SiteID)
}

// SaveFolio writes a folio record under its site. The site must
// already exist. The content hash is computed on first write if not
// already set.
func (s *Store) SaveFolio(folio types.Folio) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.siteDir(folio.SiteID)); err != nil {
		if os.IsNotExist(err) {
			return &ErrSiteNotFound{SiteID: folio.SiteID}
		}
		return fmt.Errorf("failed to stat site directory: %w", err)
	}

	if folio.ContentHash == "" {
		folio.ContentHash = computeFolioHash(folio)
	}

	return saveJSON(s.folioFile(folio.SiteID, folio.ID), folio)
}

// GetFolios returns folios, optionally scoped to one site.
func (s *Store) GetFolios(siteID string) ([]types.Folio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var siteDirs []string
	if siteID != "" {
		siteDirs = []string{s.siteDir(siteID)}
	} else {
		entries, err := os.ReadDir(s.sitesDir())
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to list sites: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() {
				siteDirs = append(siteDirs, filepath.Join(s.sitesDir(), e.Name()))
			}
		}
	}

	var folios []types.Folio
	for _, dir := range siteDirs {
		folioFiles, err := filepath.Glob(filepath.Join(dir, "folios", "*.json"))
		if err != nil {
			return nil, fmt.Errorf("failed to list folios in %s: %w", dir, err)
		}
		for _, ff := range folioFiles {
			var folio types.Folio
			found, err := loadJSON(ff, &folio)
			if err != nil {
				return nil, err
			}
			if !found {
				continue
			}
			folio.CreatedAt = normalizeTime(folio.CreatedAt)
			changed := false
			if folio.ContentHash == "" {
				folio.ContentHash = computeFolioHash(folio)
				changed = true
			}
			if changed {
				if err := saveJSON(ff, folio); err != nil {
					return nil, err
				}
			}
			folios = append(folios, folio)
		}
	}
	return folios, nil
}

// GetFolio searches every site for a folio by id, lazily backfilling
// its content hash if missing.
func (s *Store) GetFolio(folioID string) (folio types.Folio, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.sitesDir())
	if err != nil {
		if os.IsNotExist(err) {
			return types.Folio{}, false, nil
		}
		return types.Folio{}, false, fmt.Errorf("failed to list sites: %w", err)
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := s.folioFile(e.Name(), folioID)
		found, err := loadJSON(path, &folio)
		if err != nil {
			return types.Folio{}, false, err
		}
		if !found {
			continue
		}
		folio.CreatedAt = normalizeTime(folio.CreatedAt)
		if folio.ContentHash == "" {
			folio.ContentHash = computeFolioHash(folio)
			if err := saveJSON(path, folio); err != nil {
				return types.Folio{}, false, err
			}
		}
		return folio, true, nil
	}
	return types.Folio{}, false, nil
}

// MoveFolio relocates a folio's record between site directories and
// updates its site reference. Fails if the folio or the destination
// site do not exist.
func (s *Store) MoveFolio(folioID, destSiteID string) (types.Folio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.siteDir(destSiteID)); err != nil {
		if os.IsNotExist(err) {
			return types.Folio{}, &ErrSiteNotFound{SiteID: destSiteID}
		}
		return types.Folio{}, fmt.Errorf("failed to stat destination site: %w", err)
	}

	entries, err := os.ReadDir(s.sitesDir())
	if err != nil {
		return types.Folio{}, fmt.Errorf("failed to list sites: %w", err)
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		srcPath := s.folioFile(e.Name(), folioID)
		var folio types.Folio
		found, err := loadJSON(srcPath, &folio)
		if err != nil {
			return types.Folio{}, err
		}
		if !found {
			continue
		}

		folio.SiteID = destSiteID
		destPath := s.folioFile(destSiteID, folioID)
		if err := saveJSON(destPath, folio); err != nil {
			return types.Folio{}, err
		}
		if err := os.Remove(srcPath); err != nil {
			return types.Folio{}, fmt.Errorf("failed to remove source folio record: %w", err)
		}
		return folio, nil
	}

	return types.Folio{}, fmt.Errorf("folio %q not found", folioID)
}

// --- Threads ---

// SaveThread appends (or overwrites, for idempotent retries) a thread
// record.
func (s *Store) SaveThread(thread types.Thread) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveJSON(s.threadFile(thread.ID), thread)
}

// ThreadFilter narrows GetThreads results. Zero-value fields are
// unfiltered.
type ThreadFilter struct {
	FromID string
	ToID   string
	Type   types.ThreadType
	Weaver string
}

func (f ThreadFilter) matches(t types.Thread) bool {
	if f.FromID != "" && t.FromID != f.FromID {
		return false
	}
	if f.ToID != "" && t.ToID != f.ToID {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Weaver != "" && t.Weaver != f.Weaver {
		return false
	}
	return true
}

// GetThreads returns every thread matching filter.
func (s *Store) GetThreads(filter ThreadFilter) ([]types.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadThreadsLocked(filter)
}

func (s *Store) loadThreadsLocked(filter ThreadFilter) ([]types.Thread, error) {
	files, err := filepath.Glob(filepath.Join(s.threadsDir(), "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	var threads []types.Thread
	for _, f := range files {
		var t types.Thread
		found, err := loadJSON(f, &t)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		t.CreatedAt = normalizeTime(t.CreatedAt)
		if filter.matches(t) {
			threads = append(threads, t)
		}
	}
	return threads, nil
}

// MarkThreadRead sets a thread's read_at to now. ok is false when the
// thread does not exist.
func (s *Store) MarkThreadRead(threadID string, now time.Time) (ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.threadFile(threadID)
	var t types.Thread
	found, err := loadJSON(path, &t)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	t.ReadAt = &now
	if err := saveJSON(path, t); err != nil {
		return false, err
	}
	return true, nil
}
