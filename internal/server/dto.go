package server

import (
	"docketline/internal/domain"
	"docketline/internal/engine"
)

// Request payloads

type CreateMatterRequest struct {
	ClientName   string `json:"client_name"`
	Title        string `json:"title"`
	PracticeArea string `json:"practice_area,omitempty"`
	OpenedAt     string `json:"opened_at,omitempty" format:"date"`
}

type CalculateRequest struct {
	EventType     string `json:"event_type"`
	FilingDate    string `json:"filing_date" format:"date"`
	Court         string `json:"court"`
	MatterID      string `json:"matter_id,omitempty"`
	SaveDeadlines bool   `json:"save_deadlines,omitempty"`
}

type CreateDeadlineRequest struct {
	Title        string `json:"title"`
	DeadlineType string `json:"deadline_type,omitempty"`
	Description  string `json:"description,omitempty"`
	DueDate      string `json:"due_date" format:"date"`
	Priority     string `json:"priority,omitempty"`
}

// Response payloads

type MatterResponse struct {
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

type DeadlineResponse struct {
	ID            string  `json:"id"`
	MatterID      string  `json:"matter_id"`
	Title         string  `json:"title"`
	DeadlineType  string  `json:"deadline_type"`
	Description   string  `json:"description,omitempty"`
	DueDate       string  `json:"due_date" format:"date"`
	Priority      string  `json:"priority" enum:"low,medium,high,critical"`
	Status        string  `json:"status" enum:"pending,completed"`
	Overdue       bool    `json:"overdue"`
	RuleReference string  `json:"rule_reference,omitempty"`
	Source        string  `json:"source" enum:"calculated,manual"`
	CreatedAt     string  `json:"created_at" format:"date-time"`
	UpdatedAt     string  `json:"updated_at" format:"date-time"`
	CompletedAt   *string `json:"completed_at,omitempty" format:"date-time"`
}

type CalculateResponse struct {
	EventType  string                    `json:"event_type"`
	Court      string                    `json:"court"`
	FilingDate string                    `json:"filing_date" format:"date"`
	Deadlines  []domain.ProposedDeadline `json:"deadlines"`
	SavedIDs   []string                  `json:"saved_deadline_ids,omitempty"`
	Created    int                       `json:"created"`
	Duplicates int                       `json:"duplicates"`
}

type SummaryResponse struct {
	AsOf         string             `json:"as_of" format:"date"`
	WindowDays   int                `json:"window_days"`
	Upcoming     []DeadlineResponse `json:"upcoming"`
	OverdueCount int                `json:"overdue_count"`
}

type CalendarDayResponse struct {
	Date      string             `json:"date" format:"date"`
	Deadlines []DeadlineResponse `json:"deadlines"`
}

type RuleResponse struct {
	EventType     string `json:"event_type"`
	Court         string `json:"court"`
	DeadlineName  string `json:"deadline_name"`
	OffsetDays    int    `json:"offset_days"`
	OffsetUnit    string `json:"offset_unit" enum:"calendar_days,business_days"`
	RuleReference string `json:"rule_reference"`
}

type EventResponse struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

// Converters

func matterResponse(m domain.Matter) MatterResponse {
	return MatterResponse{
		ID:            m.ID,
		FirmID:        m.FirmID,
		ClientName:    m.ClientName,
		Title:         m.Title,
		PracticeArea:  m.PracticeArea,
		Status:        m.Status,
		ReferenceCode: m.ReferenceCode,
		OpenedAt:      m.OpenedAt,
		ClosedAt:      m.ClosedAt,
		CreatedAt:     m.CreatedAt,
	}
}

func mapMatters(items []domain.Matter) []MatterResponse {
	out := make([]MatterResponse, 0, len(items))
	for _, m := range items {
		out = append(out, matterResponse(m))
	}
	return out
}

// deadlineResponse derives the overdue flag against today's date: pending and
// past due. It is never read from storage.
func deadlineResponse(d domain.Deadline, today string) DeadlineResponse {
	return DeadlineResponse{
		ID:            d.ID,
		MatterID:      d.MatterID,
		Title:         d.Title,
		DeadlineType:  d.DeadlineType,
		Description:   d.Description,
		DueDate:       d.DueDate,
		Priority:      d.Priority,
		Status:        d.Status,
		Overdue:       d.Status == domain.StatusPending && d.DueDate < today,
		RuleReference: d.RuleReference,
		Source:        d.Source,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		CompletedAt:   d.CompletedAt,
	}
}

func mapDeadlines(items []domain.Deadline, today string) []DeadlineResponse {
	out := make([]DeadlineResponse, 0, len(items))
	for _, d := range items {
		out = append(out, deadlineResponse(d, today))
	}
	return out
}

func calculateResponse(res engine.CalculationResult) CalculateResponse {
	if res.Deadlines == nil {
		res.Deadlines = []domain.ProposedDeadline{}
	}
	return CalculateResponse{
		EventType:  res.EventType,
		Court:      res.Court,
		FilingDate: res.FilingDate,
		Deadlines:  res.Deadlines,
		SavedIDs:   res.SavedIDs,
		Created:    res.Created,
		Duplicates: res.Duplicates,
	}
}

func ruleResponse(r domain.RuleDefinition) RuleResponse {
	return RuleResponse{
		EventType:     r.EventType,
		Court:         r.Court,
		DeadlineName:  r.DeadlineName,
		OffsetDays:    r.OffsetDays,
		OffsetUnit:    r.OffsetUnit,
		RuleReference: r.RuleReference,
	}
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    e.Payload,
	}
}
