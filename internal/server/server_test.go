package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"docketline/internal/config"
	"docketline/internal/db"
	"docketline/internal/engine"
	"docketline/internal/migrate"
)

type testServer struct {
	URL    string
	Engine *engine.Engine
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	cfg := config.Default("firm-1")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, cfg)
	e.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	if _, err := e.InitFirm(context.Background(), "Test Firm", "tester"); err != nil {
		t.Fatalf("init firm: %v", err)
	}
	handler, err := New(Config{Engine: e, BasePath: "/v1"})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		Engine: e,
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func createMatter(t *testing.T, srv *testServer) MatterResponse {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/matters", map[string]any{
		"client_name": "Acme Ltd",
		"title":       "Acme v. Doe",
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create matter status %d: %s", res.StatusCode, string(data))
	}
	var m MatterResponse
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal matter: %v", err)
	}
	return m
}

func TestHealth(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d: %s", res.StatusCode, string(data))
	}
}

func TestCalculateAndSaveFlow(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	m := createMatter(t, srv)

	body := map[string]any{
		"event_type":     "statement_of_claim",
		"filing_date":    "2024-01-15",
		"court":          "ONSC",
		"matter_id":      m.ID,
		"save_deadlines": true,
	}
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/deadlines/calculate", body, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("calculate status %d: %s", res.StatusCode, string(data))
	}
	var calc CalculateResponse
	if err := json.Unmarshal(data, &calc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(calc.Deadlines) == 0 || len(calc.SavedIDs) != len(calc.Deadlines) {
		t.Fatalf("deadlines=%d saved=%d", len(calc.Deadlines), len(calc.SavedIDs))
	}
	found := false
	for _, d := range calc.Deadlines {
		if d.Title == "Statement of Defence" && d.DueDate == "2024-02-04" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing Statement of Defence 2024-02-04 in %s", string(data))
	}

	// Re-running the identical calculation must not create new rows.
	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/deadlines/calculate", body, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("recalculate status %d: %s", res.StatusCode, string(data))
	}
	var again CalculateResponse
	_ = json.Unmarshal(data, &again)
	if again.Created != 0 || again.Duplicates != len(calc.Deadlines) {
		t.Fatalf("recalculate created=%d duplicates=%d", again.Created, again.Duplicates)
	}

	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/deadlines?matter_id="+m.ID, nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list status %d: %s", res.StatusCode, string(data))
	}
	var listed []DeadlineResponse
	if err := json.Unmarshal(data, &listed); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(listed) != len(calc.Deadlines) {
		t.Fatalf("listed %d rows, want %d", len(listed), len(calc.Deadlines))
	}
}

func TestCompleteDeadlineIdempotent(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	m := createMatter(t, srv)

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/matters/"+m.ID+"/deadlines", map[string]any{
		"title":    "Serve claim",
		"due_date": "2024-02-01",
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("add deadline status %d: %s", res.StatusCode, string(data))
	}
	var d DeadlineResponse
	_ = json.Unmarshal(data, &d)

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/deadlines/"+d.ID+"/complete", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("complete status %d: %s", res.StatusCode, string(data))
	}
	var done DeadlineResponse
	_ = json.Unmarshal(data, &done)
	if done.Status != "completed" || done.CompletedAt == nil {
		t.Fatalf("complete returned %s", string(data))
	}

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/deadlines/"+d.ID+"/complete", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("second complete status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/deadlines/no-such-id/complete", nil, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown id status %d: %s", res.StatusCode, string(data))
	}
}

func TestCalculateValidationErrors(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/deadlines/calculate", map[string]any{
		"event_type":  "writ_of_summons",
		"filing_date": "2024-01-15",
		"court":       "ONSC",
	}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown event status %d: %s", res.StatusCode, string(data))
	}
	var envelope struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if envelope.Error.Code != "bad_request" {
		t.Fatalf("code = %s: %s", envelope.Error.Code, string(data))
	}

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/deadlines/calculate", map[string]any{
		"event_type":  "statement_of_claim",
		"filing_date": "not-a-date",
		"court":       "ONSC",
	}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad date status %d: %s", res.StatusCode, string(data))
	}
}

func TestSummaryEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	m := createMatter(t, srv)

	for _, row := range []struct{ title, due string }{
		{"Past due", "2023-12-20"},
		{"Soon", "2024-01-10"},
	} {
		res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/matters/"+m.ID+"/deadlines", map[string]any{
			"title":    row.title,
			"due_date": row.due,
		}, nil)
		if res.StatusCode != http.StatusCreated {
			t.Fatalf("add %s status %d: %s", row.title, res.StatusCode, string(data))
		}
	}

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/deadlines/summary?matter_id="+m.ID, nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("summary status %d: %s", res.StatusCode, string(data))
	}
	var s SummaryResponse
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("unmarshal summary: %v", err)
	}
	if s.OverdueCount != 1 {
		t.Fatalf("overdue_count = %d: %s", s.OverdueCount, string(data))
	}
	if len(s.Upcoming) != 1 || s.Upcoming[0].Title != "Soon" {
		t.Fatalf("upcoming = %s", string(data))
	}
}

func TestCalendarEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	m := createMatter(t, srv)

	for _, row := range []struct{ title, due string }{
		{"A", "2024-01-10"},
		{"B", "2024-01-10"},
		{"C", "2024-01-20"},
		{"Outside", "2024-02-05"},
	} {
		res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/matters/"+m.ID+"/deadlines", map[string]any{
			"title":    row.title,
			"due_date": row.due,
		}, nil)
		if res.StatusCode != http.StatusCreated {
			t.Fatalf("add %s status %d: %s", row.title, res.StatusCode, string(data))
		}
	}

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/deadlines/calendar?start=2024-01-01&end=2024-01-31", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("calendar status %d: %s", res.StatusCode, string(data))
	}
	var cal struct {
		Days []CalendarDayResponse `json:"days"`
	}
	if err := json.Unmarshal(data, &cal); err != nil {
		t.Fatalf("unmarshal calendar: %v", err)
	}
	if len(cal.Days) != 2 {
		t.Fatalf("days = %d: %s", len(cal.Days), string(data))
	}
	if cal.Days[0].Date != "2024-01-10" || len(cal.Days[0].Deadlines) != 2 {
		t.Fatalf("first day = %s", string(data))
	}
}

func TestRulesEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/rules?event_type=statement_of_claim&court=ONSC", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("rules status %d: %s", res.StatusCode, string(data))
	}
	var rules []RuleResponse
	if err := json.Unmarshal(data, &rules); err != nil {
		t.Fatalf("unmarshal rules: %v", err)
	}
	if len(rules) == 0 {
		t.Fatalf("no rules: %s", string(data))
	}
	for _, r := range rules {
		if r.EventType != "statement_of_claim" || r.Court != "ONSC" {
			t.Fatalf("unexpected rule %+v", r)
		}
	}

	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/rules/event-types", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("event-types status %d: %s", res.StatusCode, string(data))
	}
}

func TestEventsEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	m := createMatter(t, srv)
	_ = m

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/events?type=matter.created", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("events status %d: %s", res.StatusCode, string(data))
	}
	var events []EventResponse
	if err := json.Unmarshal(data, &events); err != nil {
		t.Fatalf("unmarshal events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d: %s", len(events), string(data))
	}
	if events[0].ActorID != "dev" {
		t.Fatalf("actor = %s, want the anonymous dev actor", events[0].ActorID)
	}
}

func TestUnknownMatter404(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/matters/nope", nil, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status %d: %s", res.StatusCode, string(data))
	}
}

func TestAuthRequiredWhenSecretSet(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	handler, err := New(Config{Engine: srv.Engine, BasePath: "/v1", Auth: AuthConfig{JWTSecret: "s3cret"}})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	authSrv := &http.Server{Handler: handler}
	go authSrv.Serve(ln)
	defer func() {
		authSrv.Shutdown(context.Background())
		ln.Close()
	}()
	url := fmt.Sprintf("http://%s/v1/matters", ln.Addr().String())
	res, data := doJSON(t, srv.Client(), http.MethodGet, url, nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401: %s", res.StatusCode, string(data))
	}
	healthURL := fmt.Sprintf("http://%s/v1/health", ln.Addr().String())
	res, data = doJSON(t, srv.Client(), http.MethodGet, healthURL, nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d: %s", res.StatusCode, string(data))
	}
}
