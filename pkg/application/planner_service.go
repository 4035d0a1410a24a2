package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/felixgeelhaar/weaver/pkg/domain/ai"
	"github.com/felixgeelhaar/weaver/pkg/domain/history"
)

// eventSchemaJSON is the strict output contract handed to the
// generator and enforced at the trust boundary before anything
// downstream sees the plan.
const eventSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "date", "kind", "title", "branch", "author"],
    "properties": {
      "id": { "type": "string" },
      "date": { "type": "string" },
      "kind": { "type": "string", "enum": ["commit", "branch", "merge", "issue", "pr", "tag"] },
      "title": { "type": "string" },
      "branch": { "type": "string" },
      "author": { "type": "string" },
      "description": { "type": "string" },
      "filesChanged": { "type": "integer", "minimum": 0 },
      "tags": { "type": "array", "items": { "type": "string" } }
    }
  }
}`

var eventSchemaLoader = gojsonschema.NewStringLoader(eventSchemaJSON)

const genericReviewComment = "Looks good overall. Consider adding test coverage for the edge cases before merging."

// DiagnosticFunc receives operator-visible notes about degraded
// behavior, e.g. generation failures that were substituted with the
// fallback plan. It must not be used for the run log itself.
type DiagnosticFunc func(format string, args ...any)

// PlannerService turns a weave configuration into an ordered event
// plan by prompting the generation collaborator. CompilePlan never
// fails outwardly: any generation fault degrades to a fixed minimal
// plan so the executor always has something well-formed to run.
type PlannerService struct {
	provider ai.Provider
	diag     DiagnosticFunc
}

func NewPlannerService(provider ai.Provider, diag DiagnosticFunc) *PlannerService {
	if diag == nil {
		diag = func(string, ...any) {}
	}
	return &PlannerService{provider: provider, diag: diag}
}

// CompilePlan generates a plan for cfg. The generator's ordering is
// returned as-is; malformed entries are dropped at the boundary.
func (s *PlannerService) CompilePlan(ctx context.Context, cfg *history.WeaveConfig) *history.Plan {
	resp, err := s.provider.Complete(ctx, ai.CompletionRequest{
		Prompt:      s.renderPrompt(cfg),
		System:      "You are a release historian. You return ONLY a JSON array of repository history events matching the requested schema, with no surrounding text, no markdown, and no code fences.",
		Temperature: 0.7,
		MaxTokens:   4000,
	})
	if err != nil {
		s.diag("plan generation failed (%s), using fallback plan: %v", s.provider.ID(), err)
		return FallbackPlan(cfg)
	}

	plan, err := s.parsePlan(resp.Text, cfg)
	if err != nil {
		s.diag("plan response unusable, using fallback plan: %v", err)
		return FallbackPlan(cfg)
	}
	return plan
}

// DraftReviewComment asks the generator for a short review comment for
// a PR. On any failure it returns a fixed generic comment.
func (s *PlannerService) DraftReviewComment(ctx context.Context, prTitle, snippet string) string {
	prompt := fmt.Sprintf("Write a brief, constructive code review comment (2 sentences max) for a pull request titled %q.", prTitle)
	if snippet != "" {
		prompt += fmt.Sprintf("\n\nThe change includes:\n%s", snippet)
	}

	resp, err := s.provider.Complete(ctx, ai.CompletionRequest{
		Prompt:      prompt,
		System:      "You are a pragmatic senior engineer reviewing a pull request. Reply with the comment text only.",
		Temperature: 0.8,
		MaxTokens:   150,
	})
	if err != nil || strings.TrimSpace(resp.Text) == "" {
		return genericReviewComment
	}

	comment := strings.TrimSpace(resp.Text)
	if len(comment) > 400 {
		comment = comment[:400]
	}
	return comment
}

func (s *PlannerService) renderPrompt(cfg *history.WeaveConfig) string {
	var b strings.Builder
	b.WriteString("Task: Invent a plausible history of repository activity and return it as a JSON array of events.\n\n")
	fmt.Fprintf(&b, "Repository: %s/%s\n", cfg.Username, cfg.Repository)
	fmt.Fprintf(&b, "Author username: %s\n", cfg.Username)
	fmt.Fprintf(&b, "Date window: %s to %s (inclusive). Every event date MUST fall inside this window.\n", cfg.StartDate, cfg.EndDate)
	fmt.Fprintf(&b, "Technology stack: %s\n", cfg.Stack)
	fmt.Fprintf(&b, "Branching strategy: %s\n", cfg.Strategy)
	fmt.Fprintf(&b, "Activity intensity: %d of 10 (events per week weighting)\n", cfg.Intensity)
	if cfg.IncludeLFS {
		b.WriteString("Include occasional large-file-storage related commits.\n")
	}

	if len(cfg.Achievements) > 0 {
		b.WriteString("\nThe history should plausibly demonstrate these patterns:\n")
		for _, id := range cfg.Achievements {
			if a, ok := history.LookupAchievement(id); ok {
				fmt.Fprintf(&b, "- %s: %s\n", a.Name, a.Description)
			} else {
				fmt.Fprintf(&b, "- %s\n", id)
			}
		}
	}

	b.WriteString("\nRULES:\n")
	b.WriteString("1. Produce between 20 and 30 events of mixed kinds.\n")
	b.WriteString("2. Order events chronologically, non-decreasing by date.\n")
	b.WriteString("3. Weight dates toward weekdays; weekend activity should be sparse.\n")
	fmt.Fprintf(&b, "4. Dates use the %s format.\n", history.DateLayout)
	b.WriteString("5. Return ONLY a JSON array conforming to this schema, with no surrounding text, no markdown, and no code fences:\n\n")
	b.WriteString(eventSchemaJSON)
	return b.String()
}

// eventPayload is the loose wire shape accepted from the generator.
type eventPayload struct {
	ID           string   `json:"id"`
	Date         string   `json:"date"`
	Kind         string   `json:"kind"`
	Title        string   `json:"title"`
	Branch       string   `json:"branch"`
	Author       string   `json:"author"`
	Description  string   `json:"description"`
	FilesChanged int      `json:"filesChanged"`
	Tags         []string `json:"tags"`
}

func (s *PlannerService) parsePlan(text string, cfg *history.WeaveConfig) (*history.Plan, error) {
	cleanJSON := extractJSONPayload(text)
	if cleanJSON == "" {
		return nil, fmt.Errorf("empty generator response")
	}

	result, err := gojsonschema.Validate(eventSchemaLoader, gojsonschema.NewStringLoader(cleanJSON))
	if err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}
	if !result.Valid() {
		// Malformed entries are dropped individually below; only an
		// unusable top-level shape is fatal here.
		for _, desc := range result.Errors() {
			s.diag("generator schema issue: %s", desc)
		}
	}

	var payloads []eventPayload
	if err := json.Unmarshal([]byte(cleanJSON), &payloads); err != nil {
		return nil, fmt.Errorf("response is not an event array: %w", err)
	}

	events := make([]history.HistoryEvent, 0, len(payloads))
	for _, p := range payloads {
		ev, ok := s.coerceEvent(p, cfg)
		if !ok {
			continue
		}
		events = append(events, ev)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("no valid events in generator response")
	}

	return &history.Plan{Events: events}, nil
}

// coerceEvent validates one generator entry. Entries missing required
// fields or dated outside the window are rejected, not repaired.
func (s *PlannerService) coerceEvent(p eventPayload, cfg *history.WeaveConfig) (history.HistoryEvent, bool) {
	if p.ID == "" || p.Title == "" || !history.ValidKind(history.EventKind(p.Kind)) {
		return history.HistoryEvent{}, false
	}

	date, err := parseEventDate(p.Date)
	if err != nil {
		s.diag("dropping event %s: %v", p.ID, err)
		return history.HistoryEvent{}, false
	}
	if start, end, werr := cfg.Window(); werr == nil {
		if date.Before(start) || date.After(end.Add(24*time.Hour-time.Nanosecond)) {
			s.diag("dropping event %s: date %s outside configured window", p.ID, p.Date)
			return history.HistoryEvent{}, false
		}
	}

	author := p.Author
	if author == "" {
		author = cfg.Username
	}
	files := p.FilesChanged
	if files < 0 {
		files = 0
	}

	return history.HistoryEvent{
		ID:           p.ID,
		Date:         date,
		Kind:         history.EventKind(p.Kind),
		Title:        p.Title,
		Description:  p.Description,
		Branch:       p.Branch,
		FilesChanged: files,
		Author:       author,
		Tags:         p.Tags,
	}, true
}

func parseEventDate(value string) (time.Time, error) {
	if t, err := time.Parse(history.DateLayout, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}

// FallbackPlan is the deterministic two-event plan substituted when
// generation fails: an initial commit on main at the start date and a
// feature branch one day later. Identical inputs yield identical plans.
func FallbackPlan(cfg *history.WeaveConfig) *history.Plan {
	start, err := time.Parse(history.DateLayout, cfg.StartDate)
	if err != nil {
		start = time.Now().UTC().Truncate(24 * time.Hour)
	}

	return &history.Plan{Events: []history.HistoryEvent{
		{
			ID:           "fallback-1",
			Date:         start,
			Kind:         history.KindCommit,
			Title:        "Initial commit",
			Description:  "Set up project scaffolding",
			Branch:       "main",
			FilesChanged: 1,
			Author:       cfg.Username,
			Tags:         []string{"chore"},
		},
		{
			ID:          "fallback-2",
			Date:        start.AddDate(0, 0, 1),
			Kind:        history.KindBranch,
			Title:       "Create feature branch",
			Description: "Branch off main for the first feature",
			Branch:      "feature/auth-system",
			Author:      cfg.Username,
			Tags:        []string{"feat"},
		},
	}}
}

// extractJSONPayload strips code fences and surrounding prose,
// returning the first JSON array or object found in text.
func extractJSONPayload(text string) string {
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	if clean == "" {
		return clean
	}

	startArray := strings.Index(clean, "[")
	startObject := strings.Index(clean, "{")
	start := -1
	switch {
	case startArray == -1:
		start = startObject
	case startObject == -1 || startArray < startObject:
		start = startArray
	default:
		start = startObject
	}
	if start == -1 {
		return clean
	}

	endArray := strings.LastIndex(clean, "]")
	endObject := strings.LastIndex(clean, "}")
	end := -1
	switch {
	case endArray == -1:
		end = endObject
	case endObject == -1 || endArray > endObject:
		end = endArray
	default:
		end = endObject
	}
	if end == -1 || end <= start {
		return clean
	}

	return strings.TrimSpace(clean[start : end+1])
}
