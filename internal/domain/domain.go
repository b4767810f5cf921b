package domain

type Firm struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Matter struct {
	ID            string  `json:"id"`
	FirmID        string  `json:"firm_id"`
	ClientName    string  `json:"client_name"`
	Title         string  `json:"title"`
	PracticeArea  string  `json:"practice_area,omitempty"`
	Status        string  `json:"status" enum:"open,closed"`
	ReferenceCode string  `json:"reference_code"`
	OpenedAt      string  `json:"opened_at" format:"date"`
	ClosedAt      *string `json:"closed_at,omitempty" format:"date"`
	CreatedAt     string  `json:"created_at" format:"date-time"`
}

// RuleDefinition is one row of the procedural rule table: given an event in a
// court, a named deadline falls due a fixed offset after the filing date.
type RuleDefinition struct {
	EventType     string `json:"event_type"`
	Court         string `json:"court"`
	DeadlineName  string `json:"deadline_name"`
	OffsetDays    int    `json:"offset_days"`
	OffsetUnit    string `json:"offset_unit" enum:"calendar_days,business_days"`
	RuleReference string `json:"rule_reference"`
}

// ProposedDeadline is a calculation result that has not been persisted.
type ProposedDeadline struct {
	Title         string `json:"name"`
	DeadlineType  string `json:"deadline_type"`
	DueDate       string `json:"due_date" format:"date"`
	RuleReference string `json:"rule_reference"`
	Priority      string `json:"priority" enum:"low,medium,high,critical"`
}

type Deadline struct {
	ID            string  `json:"id"`
	MatterID      string  `json:"matter_id"`
	Title         string  `json:"title"`
	DeadlineType  string  `json:"deadline_type"`
	Description   string  `json:"description,omitempty"`
	DueDate       string  `json:"due_date" format:"date"`
	Priority      string  `json:"priority" enum:"low,medium,high,critical"`
	Status        string  `json:"status" enum:"pending,completed"`
	RuleReference string  `json:"rule_reference,omitempty"`
	Source        string  `json:"source" enum:"calculated,manual"`
	CreatedAt     string  `json:"created_at" format:"date-time"`
	UpdatedAt     string  `json:"updated_at" format:"date-time"`
	CompletedAt   *string `json:"completed_at,omitempty" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	FirmID     string `json:"firm_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// Deadline statuses. Overdue is not a stored status: it is derived at read
// time from a pending status and a due date before the query clock.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

const (
	SourceCalculated = "calculated"
	SourceManual     = "manual"
)

// Priorities from most to least urgent.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// PriorityRank maps a priority to its sort rank; lower sorts first.
func PriorityRank(p string) int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	default:
		return 3
	}
}
