package artifacts

import (
	"fmt"
	"time"

	"github.com/spiritengine/skein/internal/derived"
	"github.com/spiritengine/skein/internal/idutil"
	"github.com/spiritengine/skein/internal/objectstore"
	"github.com/spiritengine/skein/internal/types"
)

const maxActiveSitesInError = 50

// Service is the artifact API's implementation, grounded on teacher
// internal/handlers/coordination.go's CRUD-handler shape (validate,
// delegate to a store, shape the response/error).
type Service struct {
	store   *objectstore.Store
	derived *derived.Engine
}

// New returns a Service backed by store and derived.
func New(store *objectstore.Store, derivedEngine *derived.Engine) *Service {
	return &Service{store: store, derived: derivedEngine}
}

// CreateSiteRequest is the input to CreateSite.
type CreateSiteRequest struct {
	ID        string
	Purpose   string
	CreatedBy string
	Metadata  map[string]interface{}
}

// CreateSite registers a new site (§3.1).
func (s *Service) CreateSite(req CreateSiteRequest, now time.Time) (types.Site, error) {
	if req.ID == "" {
		return types.Site{}, &ValidationError{Reason: "site id must not be empty"}
	}
	site := types.Site{
		ID:        req.ID,
		Purpose:   req.Purpose,
		CreatedAt: now.UTC(),
		CreatedBy: req.CreatedBy,
		Status:    types.SiteActive,
		Metadata:  req.Metadata,
	}
	if err := s.store.SaveSite(site); err != nil {
		return types.Site{}, &Internal{Cause: err}
	}
	return site, nil
}

// CreateFolioRequest is the input to CreateFolio.
type CreateFolioRequest struct {
	SiteID        string
	Type          types.FolioType
	Title         string
	Content       string
	CreatedBy     string
	TargetAgent   string
	SuccessorHint string
	TraceRef      string
	AssignedTo    string
	Metadata      map[string]interface{}
}

// CreateFolio validates and cleans the title, verifies the site
// exists, persists the folio, then expands @-mentions and the sugar
// status/assignment/message threads described in §4.4.1.
func (s *Service) CreateFolio(req CreateFolioRequest, now time.Time) (types.Folio, error) {
	if !types.IsValidFolioType(req.Type) {
		return types.Folio{}, &ValidationError{Reason: fmt.Sprintf("unknown folio type %q", req.Type)}
	}

	cleanedTitle, err := ValidateTitle(req.Title, string(req.Type))
	if err != nil {
		return types.Folio{}, err
	}

	if _, ok, err := s.store.GetSite(req.SiteID); err != nil {
		return types.Folio{}, &Internal{Cause: err}
	} else if !ok {
		return types.Folio{}, s.siteNotFoundError(req.SiteID)
	}

	folioID := idutil.NewFolioID(string(req.Type), now)
	folio := types.Folio{
		ID:            folioID,
		Type:          req.Type,
		SiteID:        req.SiteID,
		CreatedAt:     now.UTC(),
		CreatedBy:     req.CreatedBy,
		Title:         cleanedTitle,
		Content:       req.Content,
		TargetAgent:   req.TargetAgent,
		SuccessorHint: req.SuccessorHint,
		TraceRef:      req.TraceRef,
		Archived:      false,
		Metadata:      req.Metadata,
	}

	if err := s.store.SaveFolio(folio); err != nil {
		return types.Folio{}, &Internal{Cause: err}
	}

	for _, mention := range idutil.ParseMentions(req.Content) {
		thread := types.Thread{
			ID:        idutil.NewThreadID(now),
			FromID:    folioID,
			ToID:      mention,
			Type:      types.ThreadMention,
			Content:   fmt.Sprintf("Mentioned in %s: %s", req.Type, cleanedTitle),
			Weaver:    req.CreatedBy,
			CreatedAt: now.UTC(),
		}
		if err := s.store.SaveThread(thread); err != nil {
			return types.Folio{}, &Internal{Cause: err}
		}
	}

	if metaStatus, _ := req.Metadata["status"].(string); metaStatus != "" && metaStatus != "open" {
		if err := s.appendThread(types.Thread{
			ID: idutil.NewThreadID(now), FromID: folioID, ToID: folioID,
			Type: types.ThreadStatus, Content: metaStatus, Weaver: req.CreatedBy, CreatedAt: now.UTC(),
		}); err != nil {
			return types.Folio{}, err
		}
	}

	if req.AssignedTo != "" {
		if err := s.appendThread(types.Thread{
			ID: idutil.NewThreadID(now), FromID: folioID, ToID: req.AssignedTo,
			Type: types.ThreadAssignment, Content: fmt.Sprintf("Assigned %s: %s", req.Type, cleanedTitle),
			Weaver: req.CreatedBy, CreatedAt: now.UTC(),
		}); err != nil {
			return types.Folio{}, err
		}
	}

	if req.TargetAgent != "" {
		if err := s.appendThread(types.Thread{
			ID: idutil.NewThreadID(now), FromID: folioID, ToID: req.TargetAgent,
			Type: types.ThreadMessage, Content: fmt.Sprintf("New %s: %s", req.Type, cleanedTitle),
			Weaver: req.CreatedBy, CreatedAt: now.UTC(),
		}); err != nil {
			return types.Folio{}, err
		}
	}

	return folio, nil
}

// appendThread saves a thread and invalidates whatever derived-state
// cache entry it affects, per §4.3's append-then-invalidate invariant.
func (s *Service) appendThread(t types.Thread) error {
	if err := s.store.SaveThread(t); err != nil {
		return &Internal{Cause: err}
	}
	s.derived.AutoInvalidate(t)
	return nil
}

func (s *Service) siteNotFoundError(siteID string) error {
	sites, err := s.store.GetSites()
	if err != nil {
		return &Internal{Cause: err}
	}
	var active []string
	for _, site := range sites {
		if site.Status == types.SiteActive {
			active = append(active, site.ID)
		}
	}
	more := 0
	if len(active) > maxActiveSitesInError {
		more = len(active) - maxActiveSitesInError
		active = active[:maxActiveSitesInError]
	}
	return &SiteNotFound{SiteID: siteID, ActiveSites: active, MoreCount: more}
}

// FolioPatch carries the optional fields a folio update may change
// (§4.4.3). A nil pointer leaves the field untouched.
type FolioPatch struct {
	Title      *string
	Content    *string
	Archived   *bool
	Status     *string
	AssignedTo *string
	Weaver     string
}

// UpdateFolio applies patch to folio per §4.4.3's semantics: title,
// content, and archived are mutated in place; status and assigned_to
// instead append status/assignment threads and invalidate the
// relevant derived-state cache entry. No other fields may be mutated.
func (s *Service) UpdateFolio(folioID string, patch FolioPatch, now time.Time) (types.Folio, error) {
	folio, ok, err := s.store.GetFolio(folioID)
	if err != nil {
		return types.Folio{}, &Internal{Cause: err}
	}
	if !ok {
		return types.Folio{}, &FolioNotFound{FolioID: folioID}
	}

	if patch.Title != nil {
		cleaned, err := ValidateTitle(*patch.Title, string(folio.Type))
		if err != nil {
			return types.Folio{}, err
		}
		folio.Title = cleaned
	}
	if patch.Content != nil {
		folio.Content = *patch.Content
	}
	if patch.Archived != nil {
		folio.Archived = *patch.Archived
	}

	if err := s.store.SaveFolio(folio); err != nil {
		return types.Folio{}, &Internal{Cause: err}
	}

	if patch.Status != nil {
		if err := s.appendThread(types.Thread{
			ID: idutil.NewThreadID(now), FromID: folioID, ToID: folioID,
			Type: types.ThreadStatus, Content: *patch.Status, Weaver: patch.Weaver, CreatedAt: now.UTC(),
		}); err != nil {
			return types.Folio{}, err
		}
	}
	if patch.AssignedTo != nil {
		if err := s.appendThread(types.Thread{
			ID: idutil.NewThreadID(now), FromID: folioID, ToID: *patch.AssignedTo,
			Type: types.ThreadAssignment, Content: fmt.Sprintf("Reassigned to %s", *patch.AssignedTo),
			Weaver: patch.Weaver, CreatedAt: now.UTC(),
		}); err != nil {
			return types.Folio{}, err
		}
	}

	return s.hydrateFolio(folio)
}

// GetFolio fetches folioID and overlays its derived status/assignment,
// the read path behind `GET /folios/{id}` (§6.1). Unlike UpdateFolio
// with an empty patch, it never re-persists the record.
func (s *Service) GetFolio(folioID string) (types.Folio, error) {
	folio, ok, err := s.store.GetFolio(folioID)
	if err != nil {
		return types.Folio{}, &Internal{Cause: err}
	}
	if !ok {
		return types.Folio{}, &FolioNotFound{FolioID: folioID}
	}
	return s.hydrateFolio(folio)
}

// hydrateFolio overlays a folio's derived status/assignment, the
// "pure threads" view §4.3 requires everywhere a folio is returned.
func (s *Service) hydrateFolio(folio types.Folio) (types.Folio, error) {
	if status, ok, err := s.derived.CurrentStatus(folio.ID); err != nil {
		return types.Folio{}, &Internal{Cause: err}
	} else if ok {
		folio.Status = status
	} else if folio.Status == "" {
		folio.Status = "open"
	}

	if assignee, ok, err := s.derived.CurrentAssignment(folio.ID); err != nil {
		return types.Folio{}, &Internal{Cause: err}
	} else if ok {
		folio.AssignedTo = assignee
	}

	return folio, nil
}
