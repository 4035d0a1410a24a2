package history

import (
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestPlanChronology(t *testing.T) {
	ordered := &Plan{Events: []HistoryEvent{
		{ID: "e1", Date: day(1), Kind: KindCommit},
		{ID: "e2", Date: day(1), Kind: KindBranch},
		{ID: "e3", Date: day(5), Kind: KindMerge},
	}}
	if !ordered.IsChronological() {
		t.Error("expected ordered plan to be chronological")
	}

	shuffled := &Plan{Events: []HistoryEvent{
		{ID: "e3", Date: day(5), Kind: KindMerge},
		{ID: "e1", Date: day(1), Kind: KindCommit},
		{ID: "e2", Date: day(3), Kind: KindIssue},
	}}
	if shuffled.IsChronological() {
		t.Error("expected shuffled plan to report out of order")
	}

	sorted := shuffled.Sorted()
	if !sorted.IsChronological() {
		t.Fatal("Sorted must produce a chronological plan")
	}
	if sorted.Events[0].ID != "e1" || sorted.Events[2].ID != "e3" {
		t.Errorf("unexpected sort result: %+v", sorted.Events)
	}
	// The original must be untouched.
	if shuffled.Events[0].ID != "e3" {
		t.Error("Sorted mutated the source plan")
	}
}

func TestSortedIsStableForEqualDates(t *testing.T) {
	p := &Plan{Events: []HistoryEvent{
		{ID: "a", Date: day(2)},
		{ID: "b", Date: day(2)},
		{ID: "c", Date: day(2)},
	}}
	sorted := p.Sorted()
	for i, want := range []string{"a", "b", "c"} {
		if sorted.Events[i].ID != want {
			t.Fatalf("expected stable order, got %+v", sorted.Events)
		}
	}
}

func TestValidKind(t *testing.T) {
	for _, k := range Kinds() {
		if !ValidKind(k) {
			t.Errorf("kind %q should be valid", k)
		}
	}
	if ValidKind("release") {
		t.Error("kind release should be invalid")
	}
}

func TestCollectStats(t *testing.T) {
	p := &Plan{Events: []HistoryEvent{
		{Kind: KindCommit, FilesChanged: 3},
		{Kind: KindCommit, FilesChanged: 2},
		{Kind: KindPR},
		{Kind: KindIssue, FilesChanged: -1},
		{Kind: KindBranch},
		{Kind: KindTag},
	}}
	stats := CollectStats(p)
	if stats.Commits != 2 || stats.PullRequests != 1 || stats.Issues != 1 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if stats.FilesChanged != 5 {
		t.Errorf("expected 5 files changed, got %d", stats.FilesChanged)
	}

	empty := CollectStats(nil)
	if empty != (RunStats{}) {
		t.Errorf("expected zero stats for nil plan, got %+v", empty)
	}
}
