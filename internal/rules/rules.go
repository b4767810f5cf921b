// Package rules is the procedural rule catalog: a data-driven table mapping
// (event type, court) to the deadlines the event triggers. New courts are
// added by inserting catalog rows, never by branching code.
package rules

import (
	"fmt"
	"strings"

	"docketline/internal/domain"
)

// EventTypes is the supported enumeration of procedural events. Courts are
// open-ended data; event types are not.
var EventTypes = []string{
	"statement_of_claim",
	"notice_of_action",
	"statement_of_defence",
	"counterclaim",
	"motion_filed",
}

// IsSupportedEventType reports whether the token is in EventTypes.
func IsSupportedEventType(eventType string) bool {
	for _, t := range EventTypes {
		if t == eventType {
			return true
		}
	}
	return false
}

// Catalog holds rule definitions in their configured order.
type Catalog struct {
	defs []domain.RuleDefinition
}

func NewCatalog(defs []domain.RuleDefinition) *Catalog {
	out := make([]domain.RuleDefinition, len(defs))
	copy(out, defs)
	return &Catalog{defs: out}
}

// RulesFor returns the ordered rule entries for an event in a court. A court
// with no configured rules yields an empty list; an event type outside the
// supported enumeration is a validation error naming the supported set.
func (c *Catalog) RulesFor(eventType, court string) ([]domain.RuleDefinition, error) {
	if !IsSupportedEventType(eventType) {
		return nil, domain.ValidationError{
			Field:   "event_type",
			Message: fmt.Sprintf("unsupported event type %q; supported: %s", eventType, strings.Join(EventTypes, ", ")),
		}
	}
	var out []domain.RuleDefinition
	for _, d := range c.defs {
		if d.EventType == eventType && strings.EqualFold(d.Court, court) {
			out = append(out, d)
		}
	}
	return out, nil
}

// All returns every catalog entry in configured order.
func (c *Catalog) All() []domain.RuleDefinition {
	out := make([]domain.RuleDefinition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Courts returns the distinct courts present in the catalog, in first-seen order.
func (c *Catalog) Courts() []string {
	seen := map[string]bool{}
	var out []string
	for _, d := range c.defs {
		key := strings.ToUpper(d.Court)
		if !seen[key] {
			seen[key] = true
			out = append(out, d.Court)
		}
	}
	return out
}
