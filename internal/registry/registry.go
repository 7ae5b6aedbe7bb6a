// Package registry manages the user-scoped project registry: the
// mapping from a project identifier to its on-disk data directory
// (§4.1). Every SKEIN request must carry a project identifier; there is
// no "default project" fallback (original_source/skein/storage.py's
// get_data_dir_for_project raises when none is given).
package registry

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spiritengine/skein/internal/types"
)

// DefaultPath returns the conventional registry file location,
// "~/.skein/projects.json", matching the original implementation.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".skein", "projects.json"), nil
}

// Registry resolves project ids to data directories and persists the
// mapping to a JSON file. Grounded on internal/bootstrap/state.go's
// load-on-demand pattern: a missing file is an empty registry, not an
// error, and on-disk updates are guarded by both an in-process mutex
// and a cross-process advisory file lock.
type Registry struct {
	mu   sync.RWMutex
	path string
}

// New returns a Registry backed by the file at path.
func New(path string) *Registry {
	return &Registry{path: path}
}

// load reads the registry file, treating a missing file as empty
// (mirrors load_project_registry's "warn and return {}" behavior).
func (r *Registry) load() (types.RegistryFile, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("[REGISTRY] no registry file at %s, starting empty", r.path)
			return types.RegistryFile{}, nil
		}
		return types.RegistryFile{}, fmt.Errorf("failed to read project registry: %w", err)
	}

	var rf types.RegistryFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return types.RegistryFile{}, fmt.Errorf("failed to parse project registry: %w", err)
	}
	return rf, nil
}

// save writes the registry file atomically enough for single-writer
// use: write to a temp file in the same directory, then rename.
func (r *Registry) save(rf types.RegistryFile) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}

	data, err := json.MarshalIndent(rf, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal project registry: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write project registry: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to commit project registry: %w", err)
	}
	return nil
}

// DataDir resolves a project id to its data directory, creating the
// directory if it does not yet exist. An empty projectID is always a
// request error: SKEIN's storage model has no default project (§3.2).
func (r *Registry) DataDir(projectID string) (string, error) {
	if projectID == "" {
		return "", fmt.Errorf("project id is required")
	}

	r.mu.RLock()
	rf, err := r.load()
	r.mu.RUnlock()
	if err != nil {
		return "", err
	}

	for _, p := range rf.Projects {
		if p.ID == projectID {
			if err := os.MkdirAll(p.DataDir, 0755); err != nil {
				return "", fmt.Errorf("failed to create data directory for project %s: %w", projectID, err)
			}
			return p.DataDir, nil
		}
	}

	return "", fmt.Errorf("unknown project %q: not found in registry", projectID)
}

// Register adds or updates a project's data directory mapping.
// Cross-process writers are serialized via an advisory flock on
// <path>.lock, matching the SPEC_FULL.md ambient-stack note that the
// registry file itself may be touched by more than one SKEIN process.
func (r *Registry) Register(projectID, dataDir string) error {
	if projectID == "" {
		return fmt.Errorf("project id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lock, err := acquireLock(r.path)
	if err != nil {
		return err
	}
	defer lock.release()

	rf, err := r.load()
	if err != nil {
		return err
	}

	found := false
	for i, p := range rf.Projects {
		if p.ID == projectID {
			rf.Projects[i].DataDir = dataDir
			found = true
			break
		}
	}
	if !found {
		rf.Projects = append(rf.Projects, types.ProjectEntry{ID: projectID, DataDir: dataDir})
	}

	return r.save(rf)
}

// Remove deletes a project's mapping. Removing an unknown project id
// is a no-op, not an error.
func (r *Registry) Remove(projectID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, err := acquireLock(r.path)
	if err != nil {
		return err
	}
	defer lock.release()

	rf, err := r.load()
	if err != nil {
		return err
	}

	kept := rf.Projects[:0]
	for _, p := range rf.Projects {
		if p.ID != projectID {
			kept = append(kept, p)
		}
	}
	rf.Projects = kept

	return r.save(rf)
}

// List returns every registered project entry.
func (r *Registry) List() ([]types.ProjectEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rf, err := r.load()
	if err != nil {
		return nil, err
	}
	return rf.Projects, nil
}
