package artifacts

import (
	"regexp"
	"strings"
)

// genericTitles are lazy titles rejected regardless of folio type,
// ported from original_source/skein/routes.py's GENERIC_TITLES.
var genericTitles = map[string]bool{
	"handoff": true, "handoff brief": true, "brief": true, "untitled": true,
	"test": true, "title": true, "issue": true, "friction": true,
	"finding": true, "notion": true, "summary": true, "tender": true,
	"writ": true, "new folio": true, "folio": true, "update": true,
	"fix": true, "change": true, "todo": true, "task": true,
}

// titleExamples gives a type-specific example for the rejection
// message; types without an entry fall back to a generic example.
var titleExamples = map[string]string{
	"brief":    `e.g., "Implement OAuth for API endpoints" or "Fix race condition in websocket handler"`,
	"issue":    `e.g., "Agents crash when site_id contains spaces" or "Memory leak in long-running sessions"`,
	"friction": `e.g., "Must restart server after config changes" or "Error messages don't show line numbers"`,
	"finding":  `e.g., "Redis caching reduces latency by 40%" or "Users prefer dark mode 3:1"`,
	"tender":   `e.g., "Auth refactor ready for review" or "New dashboard component complete"`,
	"notion":   `e.g., "Could use websockets for real-time updates" or "Consider caching user preferences"`,
	"summary":  `e.g., "Completed OAuth integration" or "Session retrospective: agent coordination"`,
}

const defaultTitleExample = `e.g., "Clear description of what this folio is about"`

func exampleFor(folioType string) string {
	if ex, ok := titleExamples[folioType]; ok {
		return ex
	}
	return defaultTitleExample
}

var (
	leadingHeaderPattern = regexp.MustCompile(`^#+\s*`)
	boldWrapperPattern   = regexp.MustCompile(`^\*\*(.+?)\*\*`)
	underscoreWrapPattern = regexp.MustCompile(`^__(.+?)__`)
	statusMarkerPattern  = regexp.MustCompile(`(?i)(\*\*)?Status:(\*\*)?\s*\w+\.?\s*`)

	// shardIDPattern matches the two worktree-id shapes folio titles
	// sometimes get copy-pasted with: an 8-char hex prefix
	// ("65af2039-20251205-001: ") or a name-based prefix
	// ("bucket-1210-20251210-001: ").
	shardIDPattern = regexp.MustCompile(`(?i)^[a-f0-9]{8}-\d{8}-\d{3,6}:\s*|^[a-z]+-\d{4}-\d{8}-\d{3}:\s*`)

	typePrefixPattern = regexp.MustCompile(`(?i)^(tender|brief|issue|finding|friction|notion|summary|writ|playbook|mantle|plan):\s*`)
)

// cleanTitle applies §4.4.2's cleaning rules in order: strip leading
// markdown headers, bold wrappers, status markers, redundant type
// prefixes, any bold wrapper the type prefix hid, shard-id prefixes,
// then re-strip any type prefix the previous steps exposed.
func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	title = leadingHeaderPattern.ReplaceAllString(title, "")
	title = boldWrapperPattern.ReplaceAllString(title, "$1")
	title = underscoreWrapPattern.ReplaceAllString(title, "$1")
	title = strings.TrimSpace(title)

	title = statusMarkerPattern.ReplaceAllString(title, "")
	title = typePrefixPattern.ReplaceAllString(title, "")
	title = boldWrapperPattern.ReplaceAllString(title, "$1")
	title = shardIDPattern.ReplaceAllString(title, "")
	title = typePrefixPattern.ReplaceAllString(title, "")

	return strings.TrimSpace(title)
}

const maxTitleLength = 100

// ValidateTitle cleans title per §4.4.2 and rejects it if empty,
// generic, or under 10 characters; titles over 100 characters are
// truncated rather than rejected.
func ValidateTitle(title, folioType string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", &TitleInvalid{
			Reason:  capitalize(folioType) + " needs a title that describes what it's about.",
			Example: exampleFor(folioType),
		}
	}

	cleaned := cleanTitle(title)

	if genericTitles[strings.ToLower(cleaned)] {
		return "", &TitleInvalid{
			Reason:  `"` + cleaned + `" is too generic - what's this ` + folioType + ` actually about?`,
			Example: exampleFor(folioType),
		}
	}

	if len(cleaned) < 10 {
		return "", &TitleInvalid{
			Reason:  `"` + cleaned + `" is too brief - give a bit more detail so others know what this covers.`,
			Example: exampleFor(folioType),
		}
	}

	if len(cleaned) > maxTitleLength {
		cleaned = cleaned[:maxTitleLength-3] + "..."
	}

	return cleaned, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
