package config_test

import (
	"strings"
	"testing"

	"docketline/internal/config"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := config.Default("firm-1")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Firm.ID != "firm-1" {
		t.Fatalf("firm id = %s", cfg.Firm.ID)
	}
	if cfg.Priorities.CriticalWithinDays != 3 || cfg.Priorities.HighWithinDays != 14 || cfg.Priorities.MediumWithinDays != 30 {
		t.Fatalf("unexpected default thresholds: %+v", cfg.Priorities)
	}
}

func TestDefaultConfigHasDefenceRule(t *testing.T) {
	cfg := config.Default("firm-1")
	found := false
	for _, r := range cfg.Rules {
		if r.EventType == "statement_of_claim" && r.Court == "ONSC" && r.DeadlineName == "Statement of Defence" {
			found = true
			if r.OffsetDays != 20 || r.OffsetUnit != "calendar_days" {
				t.Fatalf("defence rule offset = %d %s", r.OffsetDays, r.OffsetUnit)
			}
			if !strings.Contains(r.RuleReference, "18.01") {
				t.Fatalf("defence rule reference = %s", r.RuleReference)
			}
		}
	}
	if !found {
		t.Fatal("default config missing ONSC statement of defence rule")
	}
}

func TestValidateThresholdOrdering(t *testing.T) {
	cfg := config.Default("firm-1")
	cfg.Priorities.CriticalWithinDays = 20
	cfg.Priorities.HighWithinDays = 10
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected ordering error")
	}
}

func TestValidateRejectsUnknownEventType(t *testing.T) {
	cfg := config.Default("firm-1")
	cfg.Rules = append(cfg.Rules, config.RuleEntry{
		EventType:    "subpoena",
		Court:        "ONSC",
		DeadlineName: "Appearance",
		OffsetDays:   5,
		OffsetUnit:   "calendar_days",
	})
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unknown event_type error")
	}
}

func TestValidateRejectsBadOffsetUnit(t *testing.T) {
	cfg := config.Default("firm-1")
	cfg.Rules[0].OffsetUnit = "weeks"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected offset_unit error")
	}
}

func TestValidateRejectsBadHoliday(t *testing.T) {
	cfg := config.Default("firm-1")
	cfg.Calendar.Holidays = []string{"not-a-date"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected holiday parse error")
	}
}

func TestValidateRejectsCourtOutsideDirectory(t *testing.T) {
	cfg := config.Default("firm-1")
	cfg.Rules = append(cfg.Rules, config.RuleEntry{
		EventType:    "motion_filed",
		Court:        "BCSC",
		DeadlineName: "Response",
		OffsetDays:   5,
		OffsetUnit:   "calendar_days",
	})
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected court directory error")
	}
}

func TestFromYAMLRejectsMissingFirmID(t *testing.T) {
	if _, err := config.FromYAML([]byte("firm:\n  name: No ID\n")); err == nil {
		t.Fatal("expected firm.id error")
	}
}

func TestGenerateDefaultRoundTrips(t *testing.T) {
	raw := config.GenerateDefault("firm-9")
	cfg, err := config.FromYAML([]byte(raw))
	if err != nil {
		t.Fatalf("generated config does not parse: %v", err)
	}
	if cfg.Firm.ID != "firm-9" {
		t.Fatalf("firm id = %s", cfg.Firm.ID)
	}
	if len(cfg.Rules) == 0 {
		t.Fatal("generated config has no rules")
	}
}
