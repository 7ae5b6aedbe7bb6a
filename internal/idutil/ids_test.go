package idutil

import (
	"testing"
	"time"
)

func TestNewFolioIDFormat(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	id := NewFolioID("issue", now)

	want := "issue-20260730-"
	if len(id) != len(want)+4 {
		t.Errorf("unexpected folio id length: %q", id)
	}
	if id[:len(want)] != want {
		t.Errorf("expected prefix %q, got %q", want, id)
	}
}

func TestNewThreadIDFormat(t *testing.T) {
	now := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	id := NewThreadID(now)
	want := "thread-20260105-"
	if id[:len(want)] != want {
		t.Errorf("expected prefix %q, got %q", want, id)
	}
}

func TestParseMentionsRequiresHyphen(t *testing.T) {
	mentions := ParseMentions("cc @amber-fox and also @here, see @blue-wren-002")
	if len(mentions) != 2 {
		t.Fatalf("expected 2 mentions, got %d: %v", len(mentions), mentions)
	}
	found := map[string]bool{}
	for _, m := range mentions {
		found[m] = true
	}
	if !found["amber-fox"] || !found["blue-wren-002"] {
		t.Errorf("unexpected mention set: %v", mentions)
	}
}

func TestParseMentionsDeduplicates(t *testing.T) {
	mentions := ParseMentions("@amber-fox please review, cc @amber-fox again")
	if len(mentions) != 1 {
		t.Errorf("expected deduplication to 1 mention, got %d", len(mentions))
	}
}

func TestParseRelativeTimeUnits(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)

	cases := map[string]time.Duration{
		"2hours": 2 * time.Hour,
		"2hour":  2 * time.Hour,
		"30min":  30 * time.Minute,
		"1day":   24 * time.Hour,
	}

	for input, delta := range cases {
		got, err := ParseRelativeTime(input, now)
		if err != nil {
			t.Fatalf("ParseRelativeTime(%q) unexpected error: %v", input, err)
		}
		want := now.Add(-delta)
		if !got.Equal(want) {
			t.Errorf("ParseRelativeTime(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestParseRelativeTimeRFC3339(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	got, err := ParseRelativeTime("2026-01-01T00:00:00Z", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseRelativeTimeRejectsGarbage(t *testing.T) {
	if _, err := ParseRelativeTime("whenever", time.Now()); err == nil {
		t.Error("expected error for unparseable relative time")
	}
}
