package history

import (
	"testing"
)

func validConfig() *WeaveConfig {
	return &WeaveConfig{
		Username:   "alice",
		Repository: "demo-repo",
		Token:      "ghp_secret",
		StartDate:  "2024-01-01",
		EndDate:    "2024-03-31",
		Stack:      "Go + PostgreSQL",
		Strategy:   "github-flow",
		Intensity:  5,
	}
}

func TestValidateConfig_Valid(t *testing.T) {
	if err := ValidateConfig(validConfig()); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateConfig_FieldErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*WeaveConfig)
		field  string
	}{
		{"missing username", func(c *WeaveConfig) { c.Username = "" }, "username"},
		{"missing repository", func(c *WeaveConfig) { c.Repository = "" }, "repository"},
		{"bad start date", func(c *WeaveConfig) { c.StartDate = "01/01/2024" }, "start_date"},
		{"bad end date", func(c *WeaveConfig) { c.EndDate = "not-a-date" }, "end_date"},
		{"inverted window", func(c *WeaveConfig) { c.StartDate = "2024-06-01"; c.EndDate = "2024-01-01" }, "end_date"},
		{"unknown strategy", func(c *WeaveConfig) { c.Strategy = "mainline" }, "strategy"},
		{"intensity too low", func(c *WeaveConfig) { c.Intensity = 0 }, "intensity"},
		{"intensity too high", func(c *WeaveConfig) { c.Intensity = 11 }, "intensity"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := ValidateConfig(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Field != tc.field {
				t.Errorf("expected field %q, got %q", tc.field, verr.Field)
			}
		})
	}
}

func TestValidateConfig_UnknownAchievementsAccepted(t *testing.T) {
	cfg := validConfig()
	cfg.Achievements = []string{"frequent-merges", "made-up-badge"}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("unknown achievements must not fail validation: %v", err)
	}

	unknown := UnknownAchievements(cfg)
	if len(unknown) != 1 || unknown[0] != "made-up-badge" {
		t.Errorf("expected [made-up-badge], got %v", unknown)
	}
}

func TestWindow(t *testing.T) {
	cfg := validConfig()
	start, end, err := cfg.Window()
	if err != nil {
		t.Fatal(err)
	}
	if !end.After(start) {
		t.Errorf("expected end after start, got %v / %v", start, end)
	}
}

func TestCatalogHasFiveEntries(t *testing.T) {
	entries := Catalog()
	if len(entries) != 5 {
		t.Fatalf("expected 5 catalog entries, got %d", len(entries))
	}
	for _, a := range entries {
		if !KnownAchievement(a.ID) {
			t.Errorf("catalog entry %q not resolvable via lookup", a.ID)
		}
	}
	if KnownAchievement("made-up-badge") {
		t.Error("unexpected catalog membership for made-up id")
	}
}
