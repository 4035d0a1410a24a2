package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/weaver/pkg/domain/history"
)

// fakeAPI records the GitHub API paths hit during a test.
type fakeAPI struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeAPI) record(r *http.Request) {
	f.mu.Lock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	f.mu.Unlock()
}

func (f *fakeAPI) called(prefix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func newFakeServer(t *testing.T) (*fakeAPI, *Client) {
	t.Helper()
	api := &fakeAPI{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/alice/demo-repo", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		_ = json.NewEncoder(w).Encode(map[string]any{"default_branch": "trunk"})
	})
	mux.HandleFunc("GET /repos/alice/demo-repo/git/ref/", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ref":    "refs/heads/trunk",
			"object": map[string]string{"sha": "abc123", "type": "commit"},
		})
	})
	mux.HandleFunc("POST /repos/alice/demo-repo/git/refs", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"ref": "created"})
	})
	mux.HandleFunc("PUT /repos/alice/demo-repo/contents/", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, "{}")
	})
	mux.HandleFunc("POST /repos/alice/demo-repo/merges", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, "{}")
	})
	mux.HandleFunc("POST /repos/alice/demo-repo/issues", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"number": 7})
	})
	mux.HandleFunc("PATCH /repos/alice/demo-repo/issues/7", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		fmt.Fprint(w, "{}")
	})
	mux.HandleFunc("POST /repos/alice/demo-repo/pulls", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"number": 12})
	})
	mux.HandleFunc("POST /repos/alice/demo-repo/issues/12/comments", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, "{}")
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := NewClientWithBaseURL(server.URL+"/", server.Client())
	return api, client
}

func testConfig() history.WeaveConfig {
	return history.WeaveConfig{
		Username:   "alice",
		Repository: "demo-repo",
		StartDate:  "2024-01-01",
		EndDate:    "2024-01-31",
	}
}

func testEvent(kind history.EventKind) history.HistoryEvent {
	return history.HistoryEvent{
		ID:     "e1",
		Date:   time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Kind:   kind,
		Title:  "Add login flow",
		Branch: "feature/login",
		Author: "alice",
	}
}

func TestVerifyAccessLearnsDefaultBranch(t *testing.T) {
	api, client := newFakeServer(t)
	if err := client.VerifyAccess(context.Background(), "", "alice", "demo-repo"); err != nil {
		t.Fatal(err)
	}
	if !api.called("GET /repos/alice/demo-repo") {
		t.Error("expected repository lookup")
	}
	if got := client.currentDefaultBranch(); got != "trunk" {
		t.Errorf("expected default branch trunk, got %q", got)
	}
}

func TestVerifyAccessFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL+"/", server.Client())
	if err := client.VerifyAccess(context.Background(), "", "alice", "demo-repo"); err == nil {
		t.Fatal("expected error for inaccessible repository")
	}
}

func TestExecuteEventKindMapping(t *testing.T) {
	cases := []struct {
		kind     history.EventKind
		endpoint string
	}{
		{history.KindCommit, "PUT /repos/alice/demo-repo/contents/"},
		{history.KindBranch, "POST /repos/alice/demo-repo/git/refs"},
		{history.KindMerge, "POST /repos/alice/demo-repo/merges"},
		{history.KindIssue, "POST /repos/alice/demo-repo/issues"},
		{history.KindPR, "POST /repos/alice/demo-repo/pulls"},
		{history.KindTag, "POST /repos/alice/demo-repo/git/refs"},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			api, client := newFakeServer(t)
			msg, err := client.ExecuteEvent(context.Background(), testEvent(tc.kind), testConfig())
			if err != nil {
				t.Fatal(err)
			}
			if msg == "" {
				t.Error("expected a human-readable result message")
			}
			if !api.called(tc.endpoint) {
				t.Errorf("kind %s: expected call to %s, got %v", tc.kind, tc.endpoint, api.calls)
			}
		})
	}
}

func TestExecuteEventUnknownKind(t *testing.T) {
	_, client := newFakeServer(t)
	if _, err := client.ExecuteEvent(context.Background(), testEvent("release"), testConfig()); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestIssueWithClosedTag(t *testing.T) {
	api, client := newFakeServer(t)
	ev := testEvent(history.KindIssue)
	ev.Tags = []string{"bug", "closed"}

	msg, err := client.ExecuteEvent(context.Background(), ev, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !api.called("PATCH /repos/alice/demo-repo/issues/7") {
		t.Error("expected the issue to be closed after creation")
	}
	if !strings.Contains(msg, "closed") {
		t.Errorf("unexpected message: %q", msg)
	}
}

type staticReviewer struct{ comment string }

func (s staticReviewer) DraftReviewComment(context.Context, string, string) string {
	return s.comment
}

func TestPullRequestPostsReviewComment(t *testing.T) {
	api, client := newFakeServer(t)
	client.SetReviewer(staticReviewer{comment: "Looks solid."})

	if _, err := client.ExecuteEvent(context.Background(), testEvent(history.KindPR), testConfig()); err != nil {
		t.Fatal(err)
	}
	if !api.called("POST /repos/alice/demo-repo/issues/12/comments") {
		t.Errorf("expected review comment, calls: %v", api.calls)
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Add Login Flow", "add-login-flow"},
		{"v1.2.0 — release!", "v1-2-0-release"},
		{"  spaced  ", "spaced"},
	}
	for _, tc := range cases {
		if got := slugify(tc.in); got != tc.want {
			t.Errorf("slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
