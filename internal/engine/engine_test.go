package engine_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"docketline/internal/config"
	"docketline/internal/db"
	"docketline/internal/domain"
	"docketline/internal/engine"
	"docketline/internal/migrate"
	"docketline/internal/repo"
)

type testEnv struct {
	Engine *engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default("firm-1")
	eng := engine.New(conn, cfg)
	eng.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	if _, err := eng.InitFirm(ctx, "Test Firm", "tester"); err != nil {
		t.Fatalf("init firm: %v", err)
	}
	return testEnv{Engine: eng, Ctx: ctx}
}

func (env testEnv) newMatter(t *testing.T, client, title string) domain.Matter {
	t.Helper()
	m, err := env.Engine.CreateMatter(env.Ctx, engine.CreateMatterOptions{
		ClientName: client,
		Title:      title,
		ActorID:    "tester",
	})
	if err != nil {
		t.Fatalf("create matter: %v", err)
	}
	return m
}

func TestCalculateStatementOfClaimONSC(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.Engine.Calculate(env.Ctx, engine.CalculateOptions{
		EventType:  "statement_of_claim",
		FilingDate: "2024-01-15",
		Court:      "ONSC",
		ActorID:    "tester",
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	var defence *domain.ProposedDeadline
	for i := range res.Deadlines {
		if res.Deadlines[i].Title == "Statement of Defence" {
			defence = &res.Deadlines[i]
		}
	}
	if defence == nil {
		t.Fatalf("no Statement of Defence in %v", res.Deadlines)
	}
	if defence.DueDate != "2024-02-04" {
		t.Fatalf("due = %s, want 2024-02-04", defence.DueDate)
	}
	if defence.RuleReference != "Rules of Civil Procedure, r. 18.01" {
		t.Fatalf("rule reference = %s", defence.RuleReference)
	}
}

func TestCalculateIsDeterministic(t *testing.T) {
	env := newTestEnv(t)
	opts := engine.CalculateOptions{
		EventType:  "statement_of_claim",
		FilingDate: "2024-01-15",
		Court:      "ONSC",
		ActorID:    "tester",
	}
	first, err := env.Engine.Calculate(env.Ctx, opts)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	again, err := env.Engine.Calculate(env.Ctx, opts)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if !reflect.DeepEqual(first.Deadlines, again.Deadlines) {
		t.Fatalf("proposed lists differ:\n%v\n%v", first.Deadlines, again.Deadlines)
	}
}

func TestCalculateUnknownCourtReturnsEmpty(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.Engine.Calculate(env.Ctx, engine.CalculateOptions{
		EventType:  "statement_of_claim",
		FilingDate: "2024-01-15",
		Court:      "BCSC",
		ActorID:    "tester",
	})
	if err != nil {
		t.Fatalf("unknown court must not error: %v", err)
	}
	if len(res.Deadlines) != 0 {
		t.Fatalf("got %d deadlines for unconfigured court", len(res.Deadlines))
	}
}

func TestCalculateValidation(t *testing.T) {
	env := newTestEnv(t)
	var ve domain.ValidationError

	_, err := env.Engine.Calculate(env.Ctx, engine.CalculateOptions{
		EventType: "writ_of_summons", FilingDate: "2024-01-15", Court: "ONSC",
	})
	if !errors.As(err, &ve) || ve.Field != "event_type" {
		t.Fatalf("unknown event: got %v", err)
	}

	_, err = env.Engine.Calculate(env.Ctx, engine.CalculateOptions{
		EventType: "statement_of_claim", FilingDate: "15/01/2024", Court: "ONSC",
	})
	if !errors.As(err, &ve) || ve.Field != "filing_date" {
		t.Fatalf("bad date: got %v", err)
	}

	_, err = env.Engine.Calculate(env.Ctx, engine.CalculateOptions{
		EventType: "statement_of_claim", FilingDate: "2024-01-15", Court: "ONSC", Save: true,
	})
	if !errors.As(err, &ve) || ve.Field != "matter_id" {
		t.Fatalf("save without matter: got %v", err)
	}

	_, err = env.Engine.Calculate(env.Ctx, engine.CalculateOptions{
		EventType: "statement_of_claim", FilingDate: "2024-01-15", Court: "ONSC",
		Save: true, MatterID: "no-such-matter",
	})
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("unknown matter: got %v", err)
	}
}

func TestCalculatePersistIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	m := env.newMatter(t, "Acme Ltd", "Acme v. Doe")
	opts := engine.CalculateOptions{
		EventType:  "statement_of_claim",
		FilingDate: "2024-01-15",
		Court:      "ONSC",
		MatterID:   m.ID,
		Save:       true,
		ActorID:    "tester",
	}
	first, err := env.Engine.Calculate(env.Ctx, opts)
	if err != nil {
		t.Fatalf("first calculate: %v", err)
	}
	if first.Created != len(first.Deadlines) || first.Duplicates != 0 {
		t.Fatalf("first run created=%d duplicates=%d", first.Created, first.Duplicates)
	}
	second, err := env.Engine.Calculate(env.Ctx, opts)
	if err != nil {
		t.Fatalf("second calculate: %v", err)
	}
	if second.Created != 0 || second.Duplicates != len(first.Deadlines) {
		t.Fatalf("second run created=%d duplicates=%d", second.Created, second.Duplicates)
	}
	if !reflect.DeepEqual(first.SavedIDs, second.SavedIDs) {
		t.Fatalf("saved id sets differ:\n%v\n%v", first.SavedIDs, second.SavedIDs)
	}
	rows, err := env.Engine.Repo.ListDeadlines(env.Ctx, repo.DeadlineFilters{MatterID: m.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != len(first.Deadlines) {
		t.Fatalf("stored %d rows, want %d", len(rows), len(first.Deadlines))
	}
	for _, d := range rows {
		if d.Status != domain.StatusPending || d.Source != domain.SourceCalculated {
			t.Fatalf("row %s status=%s source=%s", d.ID, d.Status, d.Source)
		}
	}
}

func TestCalculatePersistConcurrent(t *testing.T) {
	env := newTestEnv(t)
	// One connection so the driver serializes the two transactions; the dedup
	// outcome must come from the unique key, not from scheduling luck.
	env.Engine.DB.SetMaxOpenConns(1)
	m := env.newMatter(t, "Acme Ltd", "Acme v. Doe")
	opts := engine.CalculateOptions{
		EventType:  "statement_of_claim",
		FilingDate: "2024-01-15",
		Court:      "ONSC",
		MatterID:   m.ID,
		Save:       true,
		ActorID:    "tester",
	}
	var wg sync.WaitGroup
	results := make([]engine.CalculationResult, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.Engine.Calculate(env.Ctx, opts)
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
	}
	if results[0].Created+results[1].Created != len(results[0].Deadlines) {
		t.Fatalf("created %d + %d, want %d total", results[0].Created, results[1].Created, len(results[0].Deadlines))
	}
	if !reflect.DeepEqual(results[0].SavedIDs, results[1].SavedIDs) {
		t.Fatalf("callers saw different id sets:\n%v\n%v", results[0].SavedIDs, results[1].SavedIDs)
	}
	rows, err := env.Engine.Repo.ListDeadlines(env.Ctx, repo.DeadlineFilters{MatterID: m.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != len(results[0].Deadlines) {
		t.Fatalf("stored %d rows, want %d", len(rows), len(results[0].Deadlines))
	}
}

func TestAddDeadlineDedup(t *testing.T) {
	env := newTestEnv(t)
	m := env.newMatter(t, "Acme Ltd", "Acme v. Doe")
	opts := engine.AddDeadlineOptions{
		MatterID: m.ID,
		Title:    "File affidavit",
		DueDate:  "2024-02-01",
		ActorID:  "tester",
	}
	first, err := env.Engine.AddDeadline(env.Ctx, opts)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if first.Source != domain.SourceManual {
		t.Fatalf("source = %s", first.Source)
	}
	again, err := env.Engine.AddDeadline(env.Ctx, opts)
	if err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("dedup returned new row %s, want %s", again.ID, first.ID)
	}
}

func TestAddDeadlineDerivesPriority(t *testing.T) {
	env := newTestEnv(t)
	m := env.newMatter(t, "Acme Ltd", "Acme v. Doe")
	cases := []struct {
		due  string
		want string
	}{
		{"2024-01-03", domain.PriorityCritical}, // 2 days out
		{"2024-01-11", domain.PriorityHigh},     // 10 days out
		{"2024-01-21", domain.PriorityMedium},   // 20 days out
		{"2024-03-01", domain.PriorityLow},      // 60 days out
	}
	for _, c := range cases {
		d, err := env.Engine.AddDeadline(env.Ctx, engine.AddDeadlineOptions{
			MatterID: m.ID,
			Title:    "Due " + c.due,
			DueDate:  c.due,
			ActorID:  "tester",
		})
		if err != nil {
			t.Fatalf("add %s: %v", c.due, err)
		}
		if d.Priority != c.want {
			t.Fatalf("due %s: priority = %s, want %s", c.due, d.Priority, c.want)
		}
	}
}

func TestMarkCompletedIdempotent(t *testing.T) {
	env := newTestEnv(t)
	m := env.newMatter(t, "Acme Ltd", "Acme v. Doe")
	d, err := env.Engine.AddDeadline(env.Ctx, engine.AddDeadlineOptions{
		MatterID: m.ID,
		Title:    "Serve claim",
		DueDate:  "2024-02-01",
		ActorID:  "tester",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	done, err := env.Engine.MarkCompleted(env.Ctx, d.ID, "tester")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != domain.StatusCompleted || done.CompletedAt == nil {
		t.Fatalf("status=%s completed_at=%v", done.Status, done.CompletedAt)
	}
	again, err := env.Engine.MarkCompleted(env.Ctx, d.ID, "tester")
	if err != nil {
		t.Fatalf("second complete must be a no-op: %v", err)
	}
	if again.Status != domain.StatusCompleted || again.DueDate != done.DueDate || again.Title != done.Title {
		t.Fatalf("second complete changed the row: %+v", again)
	}
	if *again.CompletedAt != *done.CompletedAt {
		t.Fatalf("completed_at changed on repeat: %s vs %s", *again.CompletedAt, *done.CompletedAt)
	}
}

func TestMarkCompletedUnknownID(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.MarkCompleted(env.Ctx, "no-such-deadline", "tester")
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestSummaryOverdueAndUpcoming(t *testing.T) {
	env := newTestEnv(t)
	m := env.newMatter(t, "Acme Ltd", "Acme v. Doe")
	env.Engine.Now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }

	add := func(title, due string) domain.Deadline {
		d, err := env.Engine.AddDeadline(env.Ctx, engine.AddDeadlineOptions{
			MatterID: m.ID, Title: title, DueDate: due, ActorID: "tester",
		})
		if err != nil {
			t.Fatalf("add %s: %v", title, err)
		}
		return d
	}
	add("Past due pending", "2024-02-20")
	add("Upcoming", "2024-03-10")
	add("Far out", "2024-06-01")
	completedPast := add("Past due completed", "2024-02-10")
	if _, err := env.Engine.MarkCompleted(env.Ctx, completedPast.ID, "tester"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	s, err := env.Engine.Summary(env.Ctx, engine.SummaryOptions{MatterID: m.ID})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.OverdueCount != 1 {
		t.Fatalf("overdue_count = %d, want 1 (completed rows never count)", s.OverdueCount)
	}
	if len(s.Upcoming) != 1 || s.Upcoming[0].Title != "Upcoming" {
		t.Fatalf("upcoming = %+v, want the 2024-03-10 row only", s.Upcoming)
	}
}

func TestSummaryOrdering(t *testing.T) {
	env := newTestEnv(t)
	m := env.newMatter(t, "Acme Ltd", "Acme v. Doe")
	// Same due date: priority rank breaks the tie.
	for _, c := range []struct{ title, due, priority string }{
		{"Low same day", "2024-01-10", domain.PriorityLow},
		{"Critical same day", "2024-01-10", domain.PriorityCritical},
		{"Earlier", "2024-01-05", domain.PriorityLow},
	} {
		if _, err := env.Engine.AddDeadline(env.Ctx, engine.AddDeadlineOptions{
			MatterID: m.ID, Title: c.title, DueDate: c.due, Priority: c.priority, ActorID: "tester",
		}); err != nil {
			t.Fatalf("add %s: %v", c.title, err)
		}
	}
	s, err := env.Engine.Summary(env.Ctx, engine.SummaryOptions{MatterID: m.ID})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	var titles []string
	for _, d := range s.Upcoming {
		titles = append(titles, d.Title)
	}
	want := []string{"Earlier", "Critical same day", "Low same day"}
	if !reflect.DeepEqual(titles, want) {
		t.Fatalf("order = %v, want %v", titles, want)
	}
}

func TestCalendarRangeGroupsByDay(t *testing.T) {
	env := newTestEnv(t)
	m1 := env.newMatter(t, "Acme Ltd", "Acme v. Doe")
	m2 := env.newMatter(t, "Borealis Inc", "Borealis v. Roe")
	add := func(matterID, title, due string) {
		if _, err := env.Engine.AddDeadline(env.Ctx, engine.AddDeadlineOptions{
			MatterID: matterID, Title: title, DueDate: due, ActorID: "tester",
		}); err != nil {
			t.Fatalf("add %s: %v", title, err)
		}
	}
	add(m1.ID, "Serve claim", "2024-01-10")
	add(m2.ID, "File defence", "2024-01-10")
	add(m1.ID, "Reply", "2024-01-20")
	add(m1.ID, "Outside range", "2024-02-05")

	days, err := env.Engine.CalendarRange(env.Ctx, "2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("got %d days, want 2", len(days))
	}
	if days[0].Date != "2024-01-10" || len(days[0].Deadlines) != 2 {
		t.Fatalf("day 0 = %s with %d deadlines", days[0].Date, len(days[0].Deadlines))
	}
	if days[1].Date != "2024-01-20" || len(days[1].Deadlines) != 1 {
		t.Fatalf("day 1 = %s with %d deadlines", days[1].Date, len(days[1].Deadlines))
	}
}

func TestCalendarRangeValidation(t *testing.T) {
	env := newTestEnv(t)
	var ve domain.ValidationError
	if _, err := env.Engine.CalendarRange(env.Ctx, "2024-02-01", "2024-01-01"); !errors.As(err, &ve) {
		t.Fatalf("end before start: got %v", err)
	}
	if _, err := env.Engine.CalendarRange(env.Ctx, "bad", "2024-01-01"); !errors.As(err, &ve) {
		t.Fatalf("bad start: got %v", err)
	}
}

func TestCalculateSaveWritesAuditEvents(t *testing.T) {
	env := newTestEnv(t)
	m := env.newMatter(t, "Acme Ltd", "Acme v. Doe")
	if _, err := env.Engine.Calculate(env.Ctx, engine.CalculateOptions{
		EventType:  "statement_of_claim",
		FilingDate: "2024-01-15",
		Court:      "ONSC",
		MatterID:   m.ID,
		Save:       true,
		ActorID:    "tester",
	}); err != nil {
		t.Fatalf("calculate: %v", err)
	}
	events, err := env.Engine.Repo.LatestEvents(env.Ctx, 50, "firm-1", "deadline.created", "", "")
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("no deadline.created events recorded")
	}
	for _, ev := range events {
		if ev.ActorID != "tester" {
			t.Fatalf("actor = %s", ev.ActorID)
		}
	}
}

func TestMatterReferenceCodes(t *testing.T) {
	env := newTestEnv(t)
	m1 := env.newMatter(t, "Acme Ltd", "First")
	m2 := env.newMatter(t, "Acme Ltd", "Second")
	if m1.ReferenceCode == m2.ReferenceCode {
		t.Fatalf("reference codes collide: %s", m1.ReferenceCode)
	}
	if m1.ReferenceCode != "M-2024-0001" {
		t.Fatalf("reference = %s, want M-2024-0001", m1.ReferenceCode)
	}
	if m1.Status != "open" {
		t.Fatalf("status = %s", m1.Status)
	}
}
