// Package artifacts implements the bulk of the API surface: site and
// folio creation, title validation, folio patching, inbox assembly,
// unified search, and roster updates (§4.4, §4.8).
package artifacts

import "fmt"

// SiteNotFound is returned when a folio references a site that does
// not exist. ActiveSites carries up to 50 active site ids so the
// caller can offer a helpful recovery hint.
type SiteNotFound struct {
	SiteID      string
	ActiveSites []string
	MoreCount   int
}

func (e *SiteNotFound) Error() string {
	if len(e.ActiveSites) == 0 {
		return fmt.Sprintf("site %q not found; no active sites exist", e.SiteID)
	}
	suffix := ""
	if e.MoreCount > 0 {
		suffix = fmt.Sprintf(" (+%d more)", e.MoreCount)
	}
	return fmt.Sprintf("site %q not found; active sites: %v%s", e.SiteID, e.ActiveSites, suffix)
}

// FolioNotFound is returned when a folio id does not resolve.
type FolioNotFound struct{ FolioID string }

func (e *FolioNotFound) Error() string { return fmt.Sprintf("folio %q not found", e.FolioID) }

// ThreadNotFound is returned when a thread id does not resolve.
type ThreadNotFound struct{ ThreadID string }

func (e *ThreadNotFound) Error() string { return fmt.Sprintf("thread %q not found", e.ThreadID) }

// TitleInvalid is returned when a folio title fails cleaning or
// rejection rules (§4.4.2). Example carries a type-specific example
// title to guide the caller toward a fix.
type TitleInvalid struct {
	Reason  string
	Example string
}

func (e *TitleInvalid) Error() string {
	return fmt.Sprintf("%s\n\n%s", e.Reason, e.Example)
}

// ValidationError reports any other request-shape problem (bad filter
// value, invalid resource name, malformed relative time, ...).
type ValidationError struct{ Reason string }

func (e *ValidationError) Error() string { return e.Reason }

// Internal wraps an unexpected lower-layer failure.
type Internal struct{ Cause error }

func (e *Internal) Error() string  { return fmt.Sprintf("internal error: %v", e.Cause) }
func (e *Internal) Unwrap() error  { return e.Cause }
