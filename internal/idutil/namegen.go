package idutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os/exec"
	"strings"
	"time"
)

// maxCollisionAttempts bounds how many "{adj}-{noun}-{MMDD}-{n}" variants
// the default generator tries before falling back to a random suffix,
// matching skein/utils.py's _generate_default_name.
const maxCollisionAttempts = 10

// ensureUniqueAttempts bounds how many "{name}-{i}" variants
// _ensure_unique tries before giving up and appending a random suffix.
const ensureUniqueAttempts = 99

// NameRequest carries the context handed to a custom name generator
// subprocess on stdin, as JSON (§4.6).
type NameRequest struct {
	Project      string `json:"project"`
	Role         string `json:"role"`
	Timestamp    string `json:"timestamp"`
	BriefContent string `json:"brief_content,omitempty"`
}

// CustomGenerator invokes an external program to produce a candidate
// agent name. It must write a single name to stdout and exit 0 within
// the timeout; anything else falls back to the default generator.
type CustomGenerator struct {
	// Path to the executable. Empty means no custom generator is
	// configured.
	Path string
	// Timeout bounds the subprocess call. Defaults to 5 seconds,
	// mirroring the original implementation's hardcoded timeout.
	Timeout time.Duration
}

// Generate runs the configured executable, feeding it req as JSON on
// stdin and reading a single candidate name from its first line of
// stdout. Grounded on internal/captain/captain.go's exec.CommandContext
// + CombinedOutput subprocess idiom, adapted to a stdin/stdout JSON
// contract with a bounded timeout instead of a shelled-out CLI prompt.
func (g CustomGenerator) Generate(ctx context.Context, req NameRequest) (string, error) {
	if g.Path == "" {
		return "", fmt.Errorf("no custom name generator configured")
	}

	timeout := g.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal name request: %w", err)
	}

	cmd := exec.CommandContext(ctx, g.Path)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("custom name generator failed: %w", err)
	}

	lines := strings.SplitN(strings.TrimSpace(stdout.String()), "\n", 2)
	name := strings.TrimSpace(lines[0])
	if name == "" {
		return "", fmt.Errorf("custom name generator produced no output")
	}
	return name, nil
}

// GenerateAgentName produces a memorable agent name. If gen is non-nil
// and configured, its candidate is preferred (deduplicated against
// existing); otherwise the default adjective-noun-MMDD generator runs.
// Mirrors skein/utils.py's generate_agent_name dispatch.
func GenerateAgentName(ctx context.Context, gen *CustomGenerator, existing map[string]bool, project, role, briefContent string, now time.Time) string {
	if gen != nil && gen.Path != "" {
		req := NameRequest{
			Project:      project,
			Role:         role,
			Timestamp:    now.UTC().Format(time.RFC3339),
			BriefContent: briefContent,
		}
		if name, err := gen.Generate(ctx, req); err == nil {
			return ensureUnique(name, existing)
		}
	}
	return defaultName(existing, now)
}

// defaultName generates "{adjective}-{noun}-{MMDD}", retrying with a
// numeric suffix on collision and finally falling back to a random
// 4-letter suffix, matching _generate_default_name.
func defaultName(existing map[string]bool, now time.Time) string {
	suffix := now.UTC().Format("0102")

	for attempt := 0; attempt < maxCollisionAttempts; attempt++ {
		adj := adjectives[rand.Intn(len(adjectives))]
		noun := nouns[rand.Intn(len(nouns))]

		var candidate string
		if attempt == 0 {
			candidate = fmt.Sprintf("%s-%s-%s", adj, noun, suffix)
		} else {
			candidate = fmt.Sprintf("%s-%s-%s-%d", adj, noun, suffix, attempt)
		}

		if !existing[candidate] {
			return candidate
		}
	}

	adj := adjectives[rand.Intn(len(adjectives))]
	noun := nouns[rand.Intn(len(nouns))]
	return fmt.Sprintf("%s-%s-%s-%s", adj, noun, suffix, randomAlpha(4))
}

// ensureUnique appends a numeric or random suffix to name if it
// collides with an existing name, matching _ensure_unique.
func ensureUnique(name string, existing map[string]bool) string {
	if !existing[name] {
		return name
	}
	for i := 1; i <= ensureUniqueAttempts; i++ {
		candidate := fmt.Sprintf("%s-%d", name, i)
		if !existing[candidate] {
			return candidate
		}
	}
	return fmt.Sprintf("%s-%s", name, randomAlpha(4))
}

const alphaAlphabet = "abcdefghijklmnopqrstuvwxyz"

func randomAlpha(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphaAlphabet[rand.Intn(len(alphaAlphabet))]
	}
	return string(b)
}
