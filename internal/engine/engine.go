// Package engine orchestrates deadline calculation and lifecycle against the
// workspace database. All time-dependent behavior flows through the injected
// Now so callers and tests control the clock.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"docketline/internal/config"
	"docketline/internal/dates"
	"docketline/internal/domain"
	"docketline/internal/events"
	"docketline/internal/repo"
	"docketline/internal/rules"
)

type Engine struct {
	DB       *sql.DB
	Repo     repo.Repo
	Events   events.Writer
	Config   *config.Config
	Catalog  *rules.Catalog
	Holidays dates.HolidaySet
	Now      func() time.Time
}

func New(db *sql.DB, cfg *config.Config) *Engine {
	e := &Engine{
		DB:      db,
		Repo:    repo.Repo{DB: db},
		Events:  events.Writer{DB: db},
		Config:  cfg,
		Catalog: rules.NewCatalog(cfg.RuleDefinitions()),
		Now:     time.Now,
	}
	e.Holidays = cfg.HolidaySet()
	e.Events.Now = func() time.Time { return e.now() }
	return e
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Engine) nowRFC3339() string {
	return e.now().UTC().Format(time.RFC3339)
}

// today returns the civil date of the engine clock.
func (e *Engine) today() time.Time {
	return dates.Truncate(e.now())
}

// priorityFor classifies urgency from the gap between the due date and the
// engine clock, using the configured thresholds. Already-due dates classify
// as critical.
func (e *Engine) priorityFor(due time.Time) string {
	daysUntil := int(due.Sub(e.today()).Hours() / 24)
	p := e.Config.Priorities
	switch {
	case daysUntil <= p.CriticalWithinDays:
		return domain.PriorityCritical
	case daysUntil <= p.HighWithinDays:
		return domain.PriorityHigh
	case daysUntil <= p.MediumWithinDays:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

// EventTypes returns the supported procedural event tokens.
func (e *Engine) EventTypes() []string {
	out := make([]string, len(rules.EventTypes))
	copy(out, rules.EventTypes)
	return out
}

// --- firm ---

func (e *Engine) InitFirm(ctx context.Context, name, actorID string) (domain.Firm, error) {
	cfg := e.Config
	if cfg.Firm.ID == "" {
		cfg.Firm.ID = uuid.NewString()
	}
	if name == "" {
		name = cfg.Firm.Name
	}
	if name == "" {
		name = "Default Firm"
	}
	firm := domain.Firm{ID: cfg.Firm.ID, Name: name, CreatedAt: e.nowRFC3339()}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Firm{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertFirm(ctx, tx, firm); err != nil {
		return domain.Firm{}, err
	}
	if err := e.Repo.UpsertFirmConfigTx(ctx, tx, firm.ID, cfg); err != nil {
		return domain.Firm{}, err
	}
	if err := e.Events.Append(ctx, tx, "firm.created", firm.ID, "firm", firm.ID, actorID, events.EventPayload{"name": firm.Name}); err != nil {
		return domain.Firm{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Firm{}, err
	}
	return firm, nil
}

// --- matters ---

type CreateMatterOptions struct {
	ClientName   string
	Title        string
	PracticeArea string
	OpenedAt     string
	ActorID      string
}

func (e *Engine) CreateMatter(ctx context.Context, opts CreateMatterOptions) (domain.Matter, error) {
	if opts.ClientName == "" {
		return domain.Matter{}, domain.ValidationError{Field: "client_name", Message: "is required"}
	}
	if opts.Title == "" {
		return domain.Matter{}, domain.ValidationError{Field: "title", Message: "is required"}
	}
	openedAt := opts.OpenedAt
	if openedAt == "" {
		openedAt = dates.FormatDate(e.today())
	} else if _, err := dates.ParseDate(openedAt); err != nil {
		return domain.Matter{}, domain.ValidationError{Field: "opened_at", Message: "must be a valid YYYY-MM-DD date"}
	}
	count, err := e.Repo.CountMatters(ctx, e.Config.Firm.ID)
	if err != nil {
		return domain.Matter{}, err
	}
	m := domain.Matter{
		ID:            uuid.NewString(),
		FirmID:        e.Config.Firm.ID,
		ClientName:    opts.ClientName,
		Title:         opts.Title,
		PracticeArea:  opts.PracticeArea,
		Status:        "open",
		ReferenceCode: fmt.Sprintf("M-%d-%04d", e.today().Year(), count+1),
		OpenedAt:      openedAt,
		CreatedAt:     e.nowRFC3339(),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Matter{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertMatter(ctx, tx, m); err != nil {
		return domain.Matter{}, err
	}
	if err := e.Events.Append(ctx, tx, "matter.created", m.FirmID, "matter", m.ID, opts.ActorID, events.EventPayload{
		"reference_code": m.ReferenceCode,
		"client_name":    m.ClientName,
	}); err != nil {
		return domain.Matter{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Matter{}, err
	}
	return m, nil
}

// --- calculation ---

type CalculateOptions struct {
	EventType  string
	FilingDate string
	Court      string
	MatterID   string
	Save       bool
	ActorID    string
}

type CalculationResult struct {
	EventType  string                    `json:"event_type"`
	Court      string                    `json:"court"`
	FilingDate string                    `json:"filing_date" format:"date"`
	Deadlines  []domain.ProposedDeadline `json:"deadlines"`
	SavedIDs   []string                  `json:"saved_deadline_ids,omitempty"`
	Created    int                       `json:"created"`
	Duplicates int                       `json:"duplicates"`
}

// Calculate expands a procedural event into its rule-mandated deadlines.
// With Save set it also persists them against the matter; persistence is keyed
// by (matter, title, due date), so repeating the same calculation converges on
// the same stored rows and reports the existing ids.
func (e *Engine) Calculate(ctx context.Context, opts CalculateOptions) (CalculationResult, error) {
	res := CalculationResult{EventType: opts.EventType, Court: opts.Court, FilingDate: opts.FilingDate}
	base, err := dates.ParseDate(opts.FilingDate)
	if err != nil {
		return res, domain.ValidationError{Field: "filing_date", Message: "must be a valid YYYY-MM-DD date"}
	}
	defs, err := e.Catalog.RulesFor(opts.EventType, opts.Court)
	if err != nil {
		return res, err
	}
	res.Deadlines = make([]domain.ProposedDeadline, 0, len(defs))
	for _, def := range defs {
		due, err := dates.ComputeDueDate(base, dates.Offset{Days: def.OffsetDays, Unit: def.OffsetUnit}, e.Holidays)
		if err != nil {
			return res, err
		}
		res.Deadlines = append(res.Deadlines, domain.ProposedDeadline{
			Title:         def.DeadlineName,
			DeadlineType:  def.EventType,
			DueDate:       dates.FormatDate(due),
			RuleReference: def.RuleReference,
			Priority:      e.priorityFor(due),
		})
	}
	if !opts.Save {
		return res, nil
	}
	if opts.MatterID == "" {
		return res, domain.ValidationError{Field: "matter_id", Message: "is required when save_deadlines is true"}
	}
	if _, err := e.Repo.GetMatter(ctx, opts.MatterID); err != nil {
		return res, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer tx.Rollback()
	now := e.nowRFC3339()
	for _, p := range res.Deadlines {
		d := domain.Deadline{
			ID:            uuid.NewString(),
			MatterID:      opts.MatterID,
			Title:         p.Title,
			DeadlineType:  p.DeadlineType,
			DueDate:       p.DueDate,
			Priority:      p.Priority,
			Status:        domain.StatusPending,
			RuleReference: p.RuleReference,
			Source:        domain.SourceCalculated,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		id, inserted, err := e.Repo.InsertDeadlineDedup(ctx, tx, d)
		if err != nil {
			return res, err
		}
		res.SavedIDs = append(res.SavedIDs, id)
		if inserted {
			res.Created++
			if err := e.Events.Append(ctx, tx, "deadline.created", e.Config.Firm.ID, "deadline", id, opts.ActorID, events.EventPayload{
				"matter_id":      opts.MatterID,
				"title":          p.Title,
				"due_date":       p.DueDate,
				"rule_reference": p.RuleReference,
				"source":         domain.SourceCalculated,
			}); err != nil {
				return res, err
			}
		} else {
			res.Duplicates++
		}
	}
	if err := e.Events.Append(ctx, tx, "deadline.calculated", e.Config.Firm.ID, "matter", opts.MatterID, opts.ActorID, events.EventPayload{
		"event_type":  opts.EventType,
		"court":       opts.Court,
		"filing_date": opts.FilingDate,
		"created":     res.Created,
		"duplicates":  res.Duplicates,
	}); err != nil {
		return res, err
	}
	if err := tx.Commit(); err != nil {
		return res, err
	}
	return res, nil
}

// --- manual deadlines ---

type AddDeadlineOptions struct {
	MatterID     string
	Title        string
	DeadlineType string
	Description  string
	DueDate      string
	Priority     string
	ActorID      string
}

// AddDeadline records a manually entered deadline. The same dedup key applies
// as for calculated rows: re-adding an identical (title, due date) pair for a
// matter returns the existing row.
func (e *Engine) AddDeadline(ctx context.Context, opts AddDeadlineOptions) (domain.Deadline, error) {
	if opts.Title == "" {
		return domain.Deadline{}, domain.ValidationError{Field: "title", Message: "is required"}
	}
	due, err := dates.ParseDate(opts.DueDate)
	if err != nil {
		return domain.Deadline{}, domain.ValidationError{Field: "due_date", Message: "must be a valid YYYY-MM-DD date"}
	}
	priority := opts.Priority
	switch priority {
	case "":
		priority = e.priorityFor(due)
	case domain.PriorityCritical, domain.PriorityHigh, domain.PriorityMedium, domain.PriorityLow:
	default:
		return domain.Deadline{}, domain.ValidationError{Field: "priority", Message: "must be one of critical, high, medium, low"}
	}
	if _, err := e.Repo.GetMatter(ctx, opts.MatterID); err != nil {
		return domain.Deadline{}, err
	}
	deadlineType := opts.DeadlineType
	if deadlineType == "" {
		deadlineType = "manual"
	}
	now := e.nowRFC3339()
	d := domain.Deadline{
		ID:           uuid.NewString(),
		MatterID:     opts.MatterID,
		Title:        opts.Title,
		DeadlineType: deadlineType,
		Description:  opts.Description,
		DueDate:      dates.FormatDate(due),
		Priority:     priority,
		Status:       domain.StatusPending,
		Source:       domain.SourceManual,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Deadline{}, err
	}
	defer tx.Rollback()
	id, inserted, err := e.Repo.InsertDeadlineDedup(ctx, tx, d)
	if err != nil {
		return domain.Deadline{}, err
	}
	if inserted {
		if err := e.Events.Append(ctx, tx, "deadline.created", e.Config.Firm.ID, "deadline", id, opts.ActorID, events.EventPayload{
			"matter_id": opts.MatterID,
			"title":     d.Title,
			"due_date":  d.DueDate,
			"source":    domain.SourceManual,
		}); err != nil {
			return domain.Deadline{}, err
		}
	}
	stored, err := e.Repo.GetDeadlineTx(ctx, tx, id)
	if err != nil {
		return domain.Deadline{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Deadline{}, err
	}
	return stored, nil
}

// --- lifecycle ---

// MarkCompleted moves a pending deadline to completed. Completed is terminal:
// a second call returns the stored row unchanged rather than erroring, and an
// unknown id returns repo.ErrNotFound.
func (e *Engine) MarkCompleted(ctx context.Context, id, actorID string) (domain.Deadline, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Deadline{}, err
	}
	defer tx.Rollback()
	affected, err := e.Repo.CompletePending(ctx, tx, id, e.nowRFC3339())
	if err != nil {
		return domain.Deadline{}, err
	}
	if affected > 0 {
		if err := e.Events.Append(ctx, tx, "deadline.completed", e.Config.Firm.ID, "deadline", id, actorID, nil); err != nil {
			return domain.Deadline{}, err
		}
	}
	d, err := e.Repo.GetDeadlineTx(ctx, tx, id)
	if err != nil {
		return domain.Deadline{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Deadline{}, err
	}
	return d, nil
}

// --- aggregation ---

type SummaryOptions struct {
	MatterID   string
	WindowDays int
	Limit      int
}

type Summary struct {
	AsOf         string            `json:"as_of" format:"date"`
	WindowDays   int               `json:"window_days"`
	Upcoming     []domain.Deadline `json:"upcoming"`
	OverdueCount int               `json:"overdue_count"`
}

// Summary reports pending deadlines due within the window plus the count of
// pending rows already past due. Completed rows never appear in either.
func (e *Engine) Summary(ctx context.Context, opts SummaryOptions) (Summary, error) {
	if opts.WindowDays < 0 {
		return Summary{}, domain.ValidationError{Field: "window_days", Message: "must not be negative"}
	}
	window := opts.WindowDays
	if window == 0 {
		window = 30
	}
	today := e.today()
	from := dates.FormatDate(today)
	to := dates.FormatDate(today.AddDate(0, 0, window))
	upcoming, err := e.Repo.UpcomingDeadlines(ctx, e.Config.Firm.ID, opts.MatterID, from, to, opts.Limit)
	if err != nil {
		return Summary{}, err
	}
	overdue, err := e.Repo.OverdueCount(ctx, e.Config.Firm.ID, opts.MatterID, from)
	if err != nil {
		return Summary{}, err
	}
	if upcoming == nil {
		upcoming = []domain.Deadline{}
	}
	return Summary{AsOf: from, WindowDays: window, Upcoming: upcoming, OverdueCount: overdue}, nil
}

type CalendarDay struct {
	Date      string            `json:"date" format:"date"`
	Deadlines []domain.Deadline `json:"deadlines"`
}

// CalendarRange lists deadlines of every status due inside [start, end],
// grouped by day in ascending order across all of the firm's matters.
func (e *Engine) CalendarRange(ctx context.Context, start, end string) ([]CalendarDay, error) {
	s, err := dates.ParseDate(start)
	if err != nil {
		return nil, domain.ValidationError{Field: "start", Message: "must be a valid YYYY-MM-DD date"}
	}
	t, err := dates.ParseDate(end)
	if err != nil {
		return nil, domain.ValidationError{Field: "end", Message: "must be a valid YYYY-MM-DD date"}
	}
	if t.Before(s) {
		return nil, domain.ValidationError{Field: "end", Message: "must not be before start"}
	}
	rows, err := e.Repo.DeadlinesInRange(ctx, e.Config.Firm.ID, start, end)
	if err != nil {
		return nil, err
	}
	days := []CalendarDay{}
	for _, d := range rows {
		if len(days) == 0 || days[len(days)-1].Date != d.DueDate {
			days = append(days, CalendarDay{Date: d.DueDate})
		}
		last := &days[len(days)-1]
		last.Deadlines = append(last.Deadlines, d)
	}
	return days, nil
}
