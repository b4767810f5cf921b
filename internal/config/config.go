package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"docketline/internal/dates"
	"docketline/internal/domain"
	"docketline/internal/rules"
)

// Config models docketline.yml: the firm identity plus the data that drives
// deadline calculation (rule table, priority thresholds, holiday calendar).
type Config struct {
	Firm struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"firm"`
	Priorities struct {
		CriticalWithinDays int `yaml:"critical_within_days"`
		HighWithinDays     int `yaml:"high_within_days"`
		MediumWithinDays   int `yaml:"medium_within_days"`
	} `yaml:"priorities"`
	Calendar struct {
		Holidays []string `yaml:"holidays"`
	} `yaml:"calendar"`
	Courts map[string]CourtInfo `yaml:"courts"`
	Rules  []RuleEntry          `yaml:"rules"`
}

type CourtInfo struct {
	Name string `yaml:"name"`
}

type RuleEntry struct {
	EventType     string `yaml:"event_type"`
	Court         string `yaml:"court"`
	DeadlineName  string `yaml:"deadline_name"`
	OffsetDays    int    `yaml:"offset_days"`
	OffsetUnit    string `yaml:"offset_unit"`
	RuleReference string `yaml:"rule_reference"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; import with dl firm config import --file <path>", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Firm.ID == "" {
		return fmt.Errorf("config.firm.id is required")
	}
	p := c.Priorities
	if p.CriticalWithinDays < 0 || p.HighWithinDays < 0 || p.MediumWithinDays < 0 {
		return fmt.Errorf("config.priorities thresholds must not be negative")
	}
	if p.CriticalWithinDays > p.HighWithinDays || p.HighWithinDays > p.MediumWithinDays {
		return fmt.Errorf("config.priorities thresholds must be ordered critical <= high <= medium")
	}
	if _, err := dates.NewHolidaySet(c.Calendar.Holidays); err != nil {
		return fmt.Errorf("config.calendar.holidays: %w", err)
	}
	for i, r := range c.Rules {
		if !rules.IsSupportedEventType(r.EventType) {
			return fmt.Errorf("rule %d: unknown event_type %q", i, r.EventType)
		}
		if r.Court == "" {
			return fmt.Errorf("rule %d: court is required", i)
		}
		if r.DeadlineName == "" {
			return fmt.Errorf("rule %d: deadline_name is required", i)
		}
		if r.OffsetDays < 0 {
			return fmt.Errorf("rule %d: offset_days must not be negative", i)
		}
		if r.OffsetUnit != dates.UnitCalendarDays && r.OffsetUnit != dates.UnitBusinessDays {
			return fmt.Errorf("rule %d: offset_unit must be calendar_days or business_days", i)
		}
		if len(c.Courts) > 0 {
			if _, ok := c.Courts[r.Court]; !ok {
				return fmt.Errorf("rule %d: court %s not in courts directory", i, r.Court)
			}
		}
	}
	return nil
}

// RuleDefinitions converts the configured rule table for the catalog.
func (c *Config) RuleDefinitions() []domain.RuleDefinition {
	out := make([]domain.RuleDefinition, 0, len(c.Rules))
	for _, r := range c.Rules {
		out = append(out, domain.RuleDefinition{
			EventType:     r.EventType,
			Court:         r.Court,
			DeadlineName:  r.DeadlineName,
			OffsetDays:    r.OffsetDays,
			OffsetUnit:    r.OffsetUnit,
			RuleReference: r.RuleReference,
		})
	}
	return out
}

// HolidaySet builds the business-day exclusion set. Config is validated at
// load time, so parse failures cannot occur here.
func (c *Config) HolidaySet() dates.HolidaySet {
	set, _ := dates.NewHolidaySet(c.Calendar.Holidays)
	return set
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "docketline.yml")
}

// Default returns the default Config struct for a firm.
func Default(firmID string) *Config {
	var cfg Config
	cfg.Firm.ID = firmID
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, firmID))).Decode(&cfg)
	return &cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault(firmID string) string {
	return fmt.Sprintf(defaultTemplate, firmID)
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `firm:
  id: %s
  name: Default Firm

priorities:
  critical_within_days: 3
  high_within_days: 14
  medium_within_days: 30

calendar:
  holidays: []

courts:
  ONSC:
    name: Ontario Superior Court of Justice
  ONCA:
    name: Court of Appeal for Ontario
  ABKB:
    name: Court of King's Bench of Alberta

rules:
  - event_type: statement_of_claim
    court: ONSC
    deadline_name: Notice of Intent to Defend
    offset_days: 10
    offset_unit: calendar_days
    rule_reference: "Rules of Civil Procedure, r. 18.02"

  - event_type: statement_of_claim
    court: ONSC
    deadline_name: Statement of Defence
    offset_days: 20
    offset_unit: calendar_days
    rule_reference: "Rules of Civil Procedure, r. 18.01"

  - event_type: statement_of_claim
    court: ONSC
    deadline_name: Jury Notice
    offset_days: 15
    offset_unit: business_days
    rule_reference: "Rules of Civil Procedure, r. 47.01"

  - event_type: notice_of_action
    court: ONSC
    deadline_name: Statement of Claim
    offset_days: 30
    offset_unit: calendar_days
    rule_reference: "Rules of Civil Procedure, r. 14.03(2)"

  - event_type: statement_of_defence
    court: ONSC
    deadline_name: Reply
    offset_days: 10
    offset_unit: calendar_days
    rule_reference: "Rules of Civil Procedure, r. 25.04(3)"

  - event_type: statement_of_defence
    court: ONSC
    deadline_name: Discovery Plan
    offset_days: 60
    offset_unit: calendar_days
    rule_reference: "Rules of Civil Procedure, r. 29.1.03"

  - event_type: counterclaim
    court: ONSC
    deadline_name: Defence to Counterclaim
    offset_days: 20
    offset_unit: calendar_days
    rule_reference: "Rules of Civil Procedure, r. 27.04"

  - event_type: motion_filed
    court: ONSC
    deadline_name: Responding Motion Record
    offset_days: 4
    offset_unit: business_days
    rule_reference: "Rules of Civil Procedure, r. 37.07(6)"

  - event_type: motion_filed
    court: ONSC
    deadline_name: Motion Confirmation Form
    offset_days: 3
    offset_unit: business_days
    rule_reference: "Rules of Civil Procedure, r. 37.10.1"

  - event_type: statement_of_claim
    court: ABKB
    deadline_name: Statement of Defence
    offset_days: 20
    offset_unit: calendar_days
    rule_reference: "Alberta Rules of Court, r. 3.31"
`
