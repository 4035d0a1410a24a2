package history

import (
	"sort"
	"time"
)

type EventKind string

const (
	KindCommit EventKind = "commit"
	KindBranch EventKind = "branch"
	KindMerge  EventKind = "merge"
	KindIssue  EventKind = "issue"
	KindPR     EventKind = "pr"
	KindTag    EventKind = "tag"
)

// Kinds lists every valid event kind in a stable order.
func Kinds() []EventKind {
	return []EventKind{KindCommit, KindBranch, KindMerge, KindIssue, KindPR, KindTag}
}

// ValidKind reports whether k is one of the six event kinds.
func ValidKind(k EventKind) bool {
	switch k {
	case KindCommit, KindBranch, KindMerge, KindIssue, KindPR, KindTag:
		return true
	}
	return false
}

// HistoryEvent is one entry of a compiled plan. The executor treats
// events as read-only once the plan is handed over.
type HistoryEvent struct {
	ID           string    `json:"id" yaml:"id"`
	Date         time.Time `json:"date" yaml:"date"`
	Kind         EventKind `json:"kind" yaml:"kind"`
	Title        string    `json:"title" yaml:"title"`
	Description  string    `json:"description,omitempty" yaml:"description,omitempty"`
	Branch       string    `json:"branch,omitempty" yaml:"branch,omitempty"`
	FilesChanged int       `json:"files_changed" yaml:"files_changed"`
	Author       string    `json:"author" yaml:"author"`
	Tags         []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Plan is an ordered sequence of history events. Ordering is
// non-decreasing in date; the executor replays the sequence as given.
type Plan struct {
	Events []HistoryEvent `json:"events" yaml:"events"`
}

func (p *Plan) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Events)
}

// IsChronological reports whether events are in non-decreasing date order.
func (p *Plan) IsChronological() bool {
	for i := 1; i < len(p.Events); i++ {
		if p.Events[i].Date.Before(p.Events[i-1].Date) {
			return false
		}
	}
	return true
}

// Sorted returns a copy of the plan with events ordered by date.
// Events with equal dates keep their relative order.
func (p *Plan) Sorted() *Plan {
	events := make([]HistoryEvent, len(p.Events))
	copy(events, p.Events)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
	return &Plan{Events: events}
}
