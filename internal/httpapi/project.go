// Package httpapi is the wire protocol (§4.9, §6.1): a gorilla/mux
// router, a per-request middleware chain, and one handler per
// endpoint, each delegating to the internal/artifacts, internal/shard,
// and internal/ignition services scoped to the requesting project.
// Grounded on teacher internal/server/server.go and
// internal/server/handlers.go's router-construction and handler
// shape, generalized from a single dashboard's state to a
// project-keyed registry of independent SKEIN datasets.
package httpapi

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spiritengine/skein/internal/artifacts"
	"github.com/spiritengine/skein/internal/derived"
	"github.com/spiritengine/skein/internal/idutil"
	"github.com/spiritengine/skein/internal/ignition"
	"github.com/spiritengine/skein/internal/logstore"
	"github.com/spiritengine/skein/internal/objectstore"
	"github.com/spiritengine/skein/internal/registry"
	"github.com/spiritengine/skein/internal/shard"
)

// project bundles every service scoped to one project's data, opened
// lazily on first use and cached for the life of the server process.
type project struct {
	root      string
	store     *objectstore.Store
	derived   *derived.Engine
	artifacts *artifacts.Service
	logs      *logstore.DB
	shards    *shard.Service
	ignition  *ignition.Service
}

// projects resolves project identifiers to their service bundle.
// Grounded on teacher internal/instance/resolver.go's
// resolve-or-create-on-first-use pattern: an unregistered project id
// is auto-registered against baseDir rather than rejected, since
// SPEC_FULL.md's HTTP surface has no separate project-creation
// endpoint.
type projects struct {
	mu       sync.Mutex
	registry *registry.Registry
	baseDir  string
	open     map[string]*project
}

func newProjects(reg *registry.Registry, baseDir string) *projects {
	return &projects{registry: reg, baseDir: baseDir, open: make(map[string]*project)}
}

func (p *projects) resolve(projectID string) (*project, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.open[projectID]; ok {
		return existing, nil
	}

	root, err := p.registry.DataDir(projectID)
	if err != nil {
		root = filepath.Join(p.baseDir, projectID)
		if regErr := p.registry.Register(projectID, root); regErr != nil {
			return nil, fmt.Errorf("failed to auto-register project %q: %w", projectID, regErr)
		}
	}

	dataDir := filepath.Join(root, ".skein")
	store := objectstore.New(filepath.Join(dataDir, "store"))
	derivedEngine := derived.New(store)

	logs, err := logstore.Open(filepath.Join(dataDir, "skein.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open log store for project %q: %w", projectID, err)
	}

	shardMeta, err := shard.OpenMetadataStore(filepath.Join(dataDir, "shards.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open shard metadata store for project %q: %w", projectID, err)
	}

	proj := &project{
		root:      root,
		store:     store,
		derived:   derivedEngine,
		artifacts: artifacts.New(store, derivedEngine),
		logs:      logs,
		shards:    shard.New(root, shardMeta),
		ignition:  ignition.New(store, logs, (*idutil.CustomGenerator)(nil)),
	}
	p.open[projectID] = proj
	return proj, nil
}
