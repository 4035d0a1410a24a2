package history

import (
	"fmt"
	"time"
)

type BranchingStrategy string

const (
	StrategyGitflow    BranchingStrategy = "gitflow"
	StrategyGitHubFlow BranchingStrategy = "github-flow"
	StrategyTrunk      BranchingStrategy = "trunk"
)

// DateLayout is the calendar-date format used throughout configuration.
const DateLayout = "2006-01-02"

// StackSuggestions are offered during setup. Free text is accepted;
// the list is a hint, not a constraint.
var StackSuggestions = []string{
	"Go + PostgreSQL",
	"TypeScript + React",
	"Python + FastAPI",
	"Rust + Axum",
	"Java + Spring Boot",
}

// WeaveConfig is the immutable input to one run. The token is kept out
// of every serialized and logged representation.
type WeaveConfig struct {
	Username     string   `json:"username" yaml:"username"`
	Repository   string   `json:"repository" yaml:"repository"`
	Token        string   `json:"-" yaml:"-"`
	StartDate    string   `json:"start_date" yaml:"start_date"`
	EndDate      string   `json:"end_date" yaml:"end_date"`
	Stack        string   `json:"stack" yaml:"stack"`
	Strategy     string   `json:"strategy" yaml:"strategy"`
	Intensity    int      `json:"intensity" yaml:"intensity"`
	IncludeLFS   bool     `json:"include_lfs" yaml:"include_lfs"`
	Achievements []string `json:"achievements" yaml:"achievements"`
}

// Window returns the configured date range as times at midnight UTC.
func (c *WeaveConfig) Window() (start, end time.Time, err error) {
	start, err = time.Parse(DateLayout, c.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse start date: %w", err)
	}
	end, err = time.Parse(DateLayout, c.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse end date: %w", err)
	}
	return start, end, nil
}

// ValidationError identifies the configuration field that failed and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

// ValidateConfig checks the invariants of a weave configuration.
// Unknown achievement IDs are not an error: they are forwarded to the
// generator as descriptive hints.
func ValidateConfig(cfg *WeaveConfig) error {
	if cfg == nil {
		return &ValidationError{Field: "config", Reason: "is nil"}
	}
	if cfg.Username == "" {
		return &ValidationError{Field: "username", Reason: "cannot be empty"}
	}
	if cfg.Repository == "" {
		return &ValidationError{Field: "repository", Reason: "cannot be empty"}
	}
	start, err := time.Parse(DateLayout, cfg.StartDate)
	if err != nil {
		return &ValidationError{Field: "start_date", Reason: fmt.Sprintf("not a valid %s date", DateLayout)}
	}
	end, err := time.Parse(DateLayout, cfg.EndDate)
	if err != nil {
		return &ValidationError{Field: "end_date", Reason: fmt.Sprintf("not a valid %s date", DateLayout)}
	}
	if end.Before(start) {
		return &ValidationError{Field: "end_date", Reason: "must not be before start_date"}
	}
	switch BranchingStrategy(cfg.Strategy) {
	case StrategyGitflow, StrategyGitHubFlow, StrategyTrunk:
	default:
		return &ValidationError{Field: "strategy", Reason: "must be one of gitflow, github-flow, trunk"}
	}
	if cfg.Intensity < 1 || cfg.Intensity > 10 {
		return &ValidationError{Field: "intensity", Reason: "must be between 1 and 10"}
	}
	return nil
}

// UnknownAchievements returns the requested achievement IDs that are
// not part of the catalog. These are hints for the generator, never a
// validation failure.
func UnknownAchievements(cfg *WeaveConfig) []string {
	var unknown []string
	for _, id := range cfg.Achievements {
		if !KnownAchievement(id) {
			unknown = append(unknown, id)
		}
	}
	return unknown
}
