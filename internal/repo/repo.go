package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"docketline/internal/config"
	"docketline/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const priorityRankSQL = `CASE priority WHEN 'critical' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END`

// --- firms ---

func (r Repo) InsertFirm(ctx context.Context, tx *sql.Tx, f domain.Firm) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO firms(id,name,created_at) VALUES (?,?,?)`,
		f.ID, f.Name, f.CreatedAt)
	return err
}

func (r Repo) GetFirm(ctx context.Context, id string) (domain.Firm, error) {
	var f domain.Firm
	err := r.DB.QueryRowContext(ctx, `SELECT id,name,created_at FROM firms WHERE id=?`, id).
		Scan(&f.ID, &f.Name, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return f, ErrNotFound
	}
	return f, err
}

// SingleFirm returns the only firm in the workspace, or an error when there
// are none or several.
func (r Repo) SingleFirm(ctx context.Context) (domain.Firm, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,created_at FROM firms`)
	if err != nil {
		return domain.Firm{}, err
	}
	defer rows.Close()
	var firms []domain.Firm
	for rows.Next() {
		var f domain.Firm
		if err := rows.Scan(&f.ID, &f.Name, &f.CreatedAt); err != nil {
			return domain.Firm{}, err
		}
		firms = append(firms, f)
	}
	if len(firms) == 0 {
		return domain.Firm{}, ErrNotFound
	}
	if len(firms) > 1 {
		return domain.Firm{}, fmt.Errorf("multiple firms exist; specify --firm")
	}
	return firms[0], nil
}

func (r Repo) UpsertFirmConfig(ctx context.Context, firmID string, cfg *config.Config) error {
	return upsertFirmConfig(ctx, r.DB, nil, firmID, cfg)
}

func (r Repo) UpsertFirmConfigTx(ctx context.Context, tx *sql.Tx, firmID string, cfg *config.Config) error {
	return upsertFirmConfig(ctx, nil, tx, firmID, cfg)
}

func upsertFirmConfig(ctx context.Context, db *sql.DB, tx *sql.Tx, firmID string, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config nil")
	}
	cfg.Firm.ID = firmID
	if err := cfg.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	exec := func(query string, args ...any) (sql.Result, error) {
		if tx != nil {
			return tx.ExecContext(ctx, query, args...)
		}
		return db.ExecContext(ctx, query, args...)
	}
	_, err = exec(`INSERT INTO firm_configs(firm_id,config_json,created_at,updated_at) VALUES (?,?,?,?)
ON CONFLICT(firm_id) DO UPDATE SET config_json=excluded.config_json, updated_at=excluded.updated_at`, firmID, string(payload), now, now)
	return err
}

func (r Repo) GetFirmConfig(ctx context.Context, firmID string) (*config.Config, error) {
	var payload string
	err := r.DB.QueryRowContext(ctx, `SELECT config_json FROM firm_configs WHERE firm_id=?`, firmID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var cfg config.Config
	if err := json.Unmarshal([]byte(payload), &cfg); err != nil {
		return nil, err
	}
	if cfg.Firm.ID == "" {
		cfg.Firm.ID = firmID
	}
	return &cfg, cfg.Validate()
}

// --- matters ---

func (r Repo) InsertMatter(ctx context.Context, tx *sql.Tx, m domain.Matter) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO matters(id,firm_id,client_name,title,practice_area,status,reference_code,opened_at,closed_at,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?)`,
		m.ID, m.FirmID, m.ClientName, m.Title, nullable(m.PracticeArea), m.Status, m.ReferenceCode,
		m.OpenedAt, nullableStringPtr(m.ClosedAt), m.CreatedAt)
	return err
}

func scanMatter(scan func(dest ...any) error) (domain.Matter, error) {
	var m domain.Matter
	var practiceArea, closedAt sql.NullString
	err := scan(&m.ID, &m.FirmID, &m.ClientName, &m.Title, &practiceArea, &m.Status, &m.ReferenceCode, &m.OpenedAt, &closedAt, &m.CreatedAt)
	if err != nil {
		return m, err
	}
	if practiceArea.Valid {
		m.PracticeArea = practiceArea.String
	}
	if closedAt.Valid {
		m.ClosedAt = &closedAt.String
	}
	return m, nil
}

const matterColumns = `id,firm_id,client_name,title,practice_area,status,reference_code,opened_at,closed_at,created_at`

func (r Repo) GetMatter(ctx context.Context, id string) (domain.Matter, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+matterColumns+` FROM matters WHERE id=?`, id)
	m, err := scanMatter(row.Scan)
	if err == sql.ErrNoRows {
		return m, ErrNotFound
	}
	return m, err
}

type MatterFilters struct {
	FirmID          string
	Status          string
	Limit           int
	CursorCreatedAt string
	CursorID        string
}

func (r Repo) ListMatters(ctx context.Context, f MatterFilters) ([]domain.Matter, error) {
	var clauses []string
	var args []any
	if f.FirmID != "" {
		clauses = append(clauses, "firm_id=?")
		args = append(args, f.FirmID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.CursorCreatedAt != "" && f.CursorID != "" {
		clauses = append(clauses, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, f.CursorCreatedAt, f.CursorCreatedAt, f.CursorID)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + matterColumns + ` FROM matters ` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Matter
	for rows.Next() {
		m, err := scanMatter(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (r Repo) CountMatters(ctx context.Context, firmID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM matters WHERE firm_id=?`, firmID).Scan(&n)
	return n, err
}

// --- deadlines ---

const deadlineColumns = `id,matter_id,title,deadline_type,description,due_date,priority,status,rule_reference,source,created_at,updated_at,completed_at`

func scanDeadline(scan func(dest ...any) error) (domain.Deadline, error) {
	var d domain.Deadline
	var description, ruleRef, completedAt sql.NullString
	err := scan(&d.ID, &d.MatterID, &d.Title, &d.DeadlineType, &description, &d.DueDate, &d.Priority,
		&d.Status, &ruleRef, &d.Source, &d.CreatedAt, &d.UpdatedAt, &completedAt)
	if err != nil {
		return d, err
	}
	if description.Valid {
		d.Description = description.String
	}
	if ruleRef.Valid {
		d.RuleReference = ruleRef.String
	}
	if completedAt.Valid {
		d.CompletedAt = &completedAt.String
	}
	return d, nil
}

// InsertDeadlineDedup inserts a deadline unless a row with the same
// (matter_id, title, due_date) already exists, and returns the id of
// whichever row holds that key afterwards. The insert-or-ignore is a single
// atomic statement, so concurrent callers converge on one row.
func (r Repo) InsertDeadlineDedup(ctx context.Context, tx *sql.Tx, d domain.Deadline) (string, bool, error) {
	res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO deadlines(`+deadlineColumns+`)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		d.ID, d.MatterID, d.Title, d.DeadlineType, nullable(d.Description), d.DueDate, d.Priority,
		d.Status, nullable(d.RuleReference), d.Source, d.CreatedAt, d.UpdatedAt, nullableStringPtr(d.CompletedAt))
	if err != nil {
		return "", false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return "", false, err
	}
	if affected > 0 {
		return d.ID, true, nil
	}
	var existing string
	err = tx.QueryRowContext(ctx, `SELECT id FROM deadlines WHERE matter_id=? AND title=? AND due_date=?`,
		d.MatterID, d.Title, d.DueDate).Scan(&existing)
	if err != nil {
		return "", false, err
	}
	return existing, false, nil
}

func (r Repo) GetDeadline(ctx context.Context, id string) (domain.Deadline, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+deadlineColumns+` FROM deadlines WHERE id=?`, id)
	d, err := scanDeadline(row.Scan)
	if err == sql.ErrNoRows {
		return d, ErrNotFound
	}
	return d, err
}

func (r Repo) GetDeadlineTx(ctx context.Context, tx *sql.Tx, id string) (domain.Deadline, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+deadlineColumns+` FROM deadlines WHERE id=?`, id)
	d, err := scanDeadline(row.Scan)
	if err == sql.ErrNoRows {
		return d, ErrNotFound
	}
	return d, err
}

type DeadlineFilters struct {
	FirmID        string
	MatterID      string
	Status        string
	Priority      string
	DeadlineType  string
	Limit         int
	CursorDueDate string
	CursorID      string
}

// ListDeadlines returns deadlines ordered by due date ascending, then
// priority rank, then id for a stable order.
func (r Repo) ListDeadlines(ctx context.Context, f DeadlineFilters) ([]domain.Deadline, error) {
	var clauses []string
	var args []any
	if f.FirmID != "" {
		clauses = append(clauses, "matter_id IN (SELECT id FROM matters WHERE firm_id=?)")
		args = append(args, f.FirmID)
	}
	if f.MatterID != "" {
		clauses = append(clauses, "matter_id=?")
		args = append(args, f.MatterID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		clauses = append(clauses, "priority=?")
		args = append(args, f.Priority)
	}
	if f.DeadlineType != "" {
		clauses = append(clauses, "deadline_type=?")
		args = append(args, f.DeadlineType)
	}
	if f.CursorDueDate != "" && f.CursorID != "" {
		clauses = append(clauses, "(due_date > ? OR (due_date = ? AND id > ?))")
		args = append(args, f.CursorDueDate, f.CursorDueDate, f.CursorID)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + deadlineColumns + ` FROM deadlines ` + where +
		` ORDER BY due_date ASC, ` + priorityRankSQL + ` ASC, id ASC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	return r.queryDeadlines(ctx, query, args...)
}

// CompletePending moves a pending deadline to completed. It reports how many
// rows changed; zero means the row was absent or already completed. The
// status check rides in the UPDATE itself so racing callers cannot both
// observe pending.
func (r Repo) CompletePending(ctx context.Context, tx *sql.Tx, id, now string) (int64, error) {
	res, err := tx.ExecContext(ctx, `UPDATE deadlines SET status=?, completed_at=?, updated_at=? WHERE id=? AND status=?`,
		domain.StatusCompleted, now, now, id, domain.StatusPending)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpcomingDeadlines lists pending deadlines due in [from, to] inclusive.
func (r Repo) UpcomingDeadlines(ctx context.Context, firmID, matterID, from, to string, limit int) ([]domain.Deadline, error) {
	clauses := []string{"status=?", "due_date >= ?", "due_date <= ?"}
	args := []any{domain.StatusPending, from, to}
	if firmID != "" {
		clauses = append(clauses, "matter_id IN (SELECT id FROM matters WHERE firm_id=?)")
		args = append(args, firmID)
	}
	if matterID != "" {
		clauses = append(clauses, "matter_id=?")
		args = append(args, matterID)
	}
	query := `SELECT ` + deadlineColumns + ` FROM deadlines WHERE ` + strings.Join(clauses, " AND ") +
		` ORDER BY due_date ASC, ` + priorityRankSQL + ` ASC, id ASC`
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return r.queryDeadlines(ctx, query, args...)
}

// OverdueCount counts pending deadlines strictly before the given date.
func (r Repo) OverdueCount(ctx context.Context, firmID, matterID, before string) (int, error) {
	clauses := []string{"status=?", "due_date < ?"}
	args := []any{domain.StatusPending, before}
	if firmID != "" {
		clauses = append(clauses, "matter_id IN (SELECT id FROM matters WHERE firm_id=?)")
		args = append(args, firmID)
	}
	if matterID != "" {
		clauses = append(clauses, "matter_id=?")
		args = append(args, matterID)
	}
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM deadlines WHERE `+strings.Join(clauses, " AND "), args...).Scan(&n)
	return n, err
}

// DeadlinesInRange lists deadlines of any status due in [start, end]
// inclusive, across all of the firm's matters.
func (r Repo) DeadlinesInRange(ctx context.Context, firmID, start, end string) ([]domain.Deadline, error) {
	clauses := []string{"due_date >= ?", "due_date <= ?"}
	args := []any{start, end}
	if firmID != "" {
		clauses = append(clauses, "matter_id IN (SELECT id FROM matters WHERE firm_id=?)")
		args = append(args, firmID)
	}
	query := `SELECT ` + deadlineColumns + ` FROM deadlines WHERE ` + strings.Join(clauses, " AND ") +
		` ORDER BY due_date ASC, ` + priorityRankSQL + ` ASC, id ASC`
	return r.queryDeadlines(ctx, query, args...)
}

func (r Repo) queryDeadlines(ctx context.Context, query string, args ...any) ([]domain.Deadline, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Deadline
	for rows.Next() {
		d, err := scanDeadline(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

// --- events ---

func (r Repo) LatestEvents(ctx context.Context, limit int, firmID, evtType, entityKind, entityID string) ([]domain.Event, error) {
	return r.LatestEventsFrom(ctx, limit, 0, firmID, evtType, entityKind, entityID)
}

func (r Repo) LatestEventsFrom(ctx context.Context, limit int, cursor int64, firmID, evtType, entityKind, entityID string) ([]domain.Event, error) {
	clauses := []string{"1=1"}
	var args []any
	if firmID != "" {
		clauses = append(clauses, "firm_id=?")
		args = append(args, firmID)
	}
	if evtType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, evtType)
	}
	if entityKind != "" {
		clauses = append(clauses, "entity_kind=?")
		args = append(args, entityKind)
	}
	if entityID != "" {
		clauses = append(clauses, "entity_id=?")
		args = append(args, entityID)
	}
	if cursor > 0 {
		clauses = append(clauses, "id<?")
		args = append(args, cursor)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := fmt.Sprintf(`SELECT id,ts,type,firm_id,entity_kind,entity_id,actor_id,payload_json FROM events %s ORDER BY id DESC LIMIT ?`, where)
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		var firm, entity, payload sql.NullString
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &firm, &e.EntityKind, &entity, &e.ActorID, &payload); err != nil {
			return nil, err
		}
		if firm.Valid {
			e.FirmID = firm.String
		}
		if entity.Valid {
			e.EntityID = entity.String
		}
		if payload.Valid {
			e.Payload = payload.String
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	if *v == "" {
		return nil
	}
	return *v
}
