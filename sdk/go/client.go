package docketlinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Docketline HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Matter represents the API matter model.
type Matter struct {
	ID            string `json:"id"`
	ClientName    string `json:"client_name"`
	Title         string `json:"title"`
	Status        string `json:"status"`
	ReferenceCode string `json:"reference_code"`
	OpenedAt      string `json:"opened_at"`
}

// Deadline represents the API deadline model.
type Deadline struct {
	ID            string `json:"id"`
	MatterID      string `json:"matter_id"`
	Title         string `json:"title"`
	DeadlineType  string `json:"deadline_type"`
	DueDate       string `json:"due_date"`
	Priority      string `json:"priority"`
	Status        string `json:"status"`
	Overdue       bool   `json:"overdue"`
	RuleReference string `json:"rule_reference,omitempty"`
	Source        string `json:"source"`
}

// ProposedDeadline is one calculated deadline before persistence.
type ProposedDeadline struct {
	Name          string `json:"name"`
	DueDate       string `json:"due_date"`
	RuleReference string `json:"rule_reference"`
	Priority      string `json:"priority"`
}

// CalculationResult is the calculate endpoint response.
type CalculationResult struct {
	EventType  string             `json:"event_type"`
	Court      string             `json:"court"`
	FilingDate string             `json:"filing_date"`
	Deadlines  []ProposedDeadline `json:"deadlines"`
	SavedIDs   []string           `json:"saved_deadline_ids,omitempty"`
	Created    int                `json:"created"`
	Duplicates int                `json:"duplicates"`
}

// Summary is the upcoming/overdue report.
type Summary struct {
	AsOf         string     `json:"as_of"`
	WindowDays   int        `json:"window_days"`
	Upcoming     []Deadline `json:"upcoming"`
	OverdueCount int        `json:"overdue_count"`
}

// Event represents a log entry.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateMatter creates a matter.
func (c *Client) CreateMatter(ctx context.Context, clientName, title string) (Matter, error) {
	body := map[string]any{
		"client_name": clientName,
		"title":       title,
	}
	var resp Matter
	err := c.do(ctx, http.MethodPost, "v1/matters", body, &resp)
	return resp, err
}

// Calculate expands a procedural event into deadlines, optionally saving them
// against a matter.
func (c *Client) Calculate(ctx context.Context, eventType, filingDate, court, matterID string, save bool) (CalculationResult, error) {
	body := map[string]any{
		"event_type":  eventType,
		"filing_date": filingDate,
		"court":       court,
	}
	if matterID != "" {
		body["matter_id"] = matterID
	}
	if save {
		body["save_deadlines"] = true
	}
	var resp CalculationResult
	err := c.do(ctx, http.MethodPost, "v1/deadlines/calculate", body, &resp)
	return resp, err
}

// ListDeadlines returns deadlines, optionally filtered by matter and status.
func (c *Client) ListDeadlines(ctx context.Context, matterID, status string) ([]Deadline, error) {
	endpoint := "v1/deadlines"
	q := url.Values{}
	if matterID != "" {
		q.Set("matter_id", matterID)
	}
	if status != "" {
		q.Set("status", status)
	}
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp []Deadline
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// MarkCompleted marks a deadline completed. The call is idempotent.
func (c *Client) MarkCompleted(ctx context.Context, deadlineID string) (Deadline, error) {
	var resp Deadline
	endpoint := fmt.Sprintf("v1/deadlines/%s/complete", url.PathEscape(deadlineID))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// GetSummary returns upcoming deadlines and the overdue count.
func (c *Client) GetSummary(ctx context.Context, matterID string, windowDays int) (Summary, error) {
	endpoint := "v1/deadlines/summary"
	q := url.Values{}
	if matterID != "" {
		q.Set("matter_id", matterID)
	}
	if windowDays > 0 {
		q.Set("window_days", fmt.Sprintf("%d", windowDays))
	}
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp Summary
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Events returns recent audit events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	endpoint := "v1/events"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
