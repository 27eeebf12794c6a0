package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/rahul/agendabot/internal/agenda"
)

// SQLiteStore keeps agenda items in a single SQLite table.
type SQLiteStore struct {
	DB  *sql.DB
	loc *time.Location
}

const itemColumns = `id, created_at, occurs_at, category, priority, description, tag, status, note, external_event_id`

// NewSQLiteStore opens (and if needed creates) the database at dbPath.
// Times are returned in loc.
func NewSQLiteStore(dbPath string, loc *time.Location) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite db path is empty")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	if loc == nil {
		loc = time.Local
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serialises writers.
	db.SetMaxOpenConns(1)

	queries := []string{
		`PRAGMA busy_timeout=5000`,
		`CREATE TABLE IF NOT EXISTS agenda (
			id                TEXT PRIMARY KEY,
			created_at        TEXT NOT NULL,
			occurs_at         TEXT NOT NULL,
			occurs_date       TEXT NOT NULL,
			occurs_unix       INTEGER NOT NULL,
			category          TEXT NOT NULL,
			priority          TEXT NOT NULL,
			description       TEXT NOT NULL,
			tag               TEXT NOT NULL DEFAULT 'Tidak ada',
			status            TEXT NOT NULL DEFAULT 'Belum',
			note              TEXT,
			external_event_id TEXT,
			category_fold     TEXT NOT NULL DEFAULT '',
			priority_fold     TEXT NOT NULL DEFAULT '',
			description_fold  TEXT NOT NULL DEFAULT '',
			tag_fold          TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_agenda_occurs ON agenda(occurs_date, occurs_unix);`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}

	st := &SQLiteStore{DB: db, loc: loc}
	if err := st.migrateFold(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return st, nil
}

// searchable lists the columns Search matches. Each has a *_fold twin
// holding the Go-lowered text, since SQLite's lower() only folds ASCII.
var searchable = []string{"category", "priority", "description", "tag"}

func foldColumn(column string) (string, bool) {
	for _, c := range searchable {
		if c == column {
			return c + "_fold", true
		}
	}
	return "", false
}

// migrateFold adds and fills the fold columns on databases created before
// they existed.
func (s *SQLiteStore) migrateFold(ctx context.Context) error {
	rows, err := s.DB.QueryContext(ctx, `PRAGMA table_info(agenda)`)
	if err != nil {
		return err
	}
	have := map[string]bool{}
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			rows.Close()
			return err
		}
		have[name] = true
	}
	rows.Close()

	added := false
	for _, c := range searchable {
		if have[c+"_fold"] {
			continue
		}
		if _, err := s.DB.ExecContext(ctx, `ALTER TABLE agenda ADD COLUMN `+c+`_fold TEXT NOT NULL DEFAULT ''`); err != nil {
			return err
		}
		added = true
	}
	if !added {
		return nil
	}

	items, err := s.list(ctx, `SELECT `+itemColumns+` FROM agenda`)
	if err != nil {
		return err
	}
	for _, it := range items {
		_, err := s.DB.ExecContext(ctx, `UPDATE agenda SET
				category_fold = ?, priority_fold = ?, description_fold = ?, tag_fold = ?
			WHERE id = ?`,
			fold(it.Category), fold(it.Priority), fold(it.Description), fold(it.Tag), it.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

func (s *SQLiteStore) Put(ctx context.Context, it agenda.Item) (string, error) {
	query := `INSERT OR REPLACE INTO agenda (
		id, created_at, occurs_at, occurs_date, occurs_unix,
		category, priority, description, tag, status, note, external_event_id,
		category_fold, priority_fold, description_fold, tag_fold
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	at := it.OccursAt.In(s.loc)
	_, err := s.DB.ExecContext(ctx, query,
		it.ID, it.CreatedAt.In(s.loc).Format(time.RFC3339),
		at.Format(time.RFC3339), agenda.DateOf(at).String(), at.Unix(),
		it.Category, it.Priority, it.Description, it.Tag, string(it.Status),
		nullable(it.Note), nullable(it.ExternalEventID),
		fold(it.Category), fold(it.Priority), fold(it.Description), fold(it.Tag),
	)
	if err != nil {
		return "", fmt.Errorf("put item %s: %w", it.ID, err)
	}
	return it.ID, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (agenda.Item, bool, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM agenda WHERE id = ?`, id)
	it, err := s.scan(row)
	if err == sql.ErrNoRows {
		return agenda.Item{}, false, nil
	}
	if err != nil {
		return agenda.Item{}, false, fmt.Errorf("get item %s: %w", id, err)
	}
	return it, true, nil
}

func (s *SQLiteStore) Range(ctx context.Context, start, end agenda.Date) ([]agenda.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM agenda
		WHERE occurs_date >= ? AND occurs_date <= ?
		ORDER BY occurs_unix, id`
	return s.list(ctx, query, start.String(), end.String())
}

func (s *SQLiteStore) Search(ctx context.Context, q string) ([]agenda.Item, error) {
	// LIKE is case-insensitive for ASCII only; both sides are already folded.
	term := "%" + escapeLike(fold(q)) + "%"
	query := `SELECT ` + itemColumns + ` FROM agenda
		WHERE description_fold LIKE ? ESCAPE '\'
		   OR category_fold LIKE ? ESCAPE '\'
		   OR priority_fold LIKE ? ESCAPE '\'
		   OR tag_fold LIKE ? ESCAPE '\'
		ORDER BY occurs_unix, id`
	return s.list(ctx, query, term, term, term, term)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM agenda WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete item %s: %w", id, err)
	}
	return affected(res)
}

func (s *SQLiteStore) UpdateField(ctx context.Context, id string, u agenda.FieldUpdate) (bool, error) {
	var (
		res sql.Result
		err error
	)
	if u.Field().Temporal() {
		at := u.Time().In(s.loc)
		res, err = s.DB.ExecContext(ctx,
			`UPDATE agenda SET occurs_at = ?, occurs_date = ?, occurs_unix = ? WHERE id = ?`,
			at.Format(time.RFC3339), agenda.DateOf(at).String(), at.Unix(), id)
	} else {
		if !u.Field().Valid() {
			return false, fmt.Errorf("update item %s: invalid field", id)
		}
		// Column comes from the closed agenda.Field table, never from user input.
		col := u.Field().Column()
		if fc, ok := foldColumn(col); ok {
			res, err = s.DB.ExecContext(ctx,
				`UPDATE agenda SET `+col+` = ?, `+fc+` = ? WHERE id = ?`, u.Text(), fold(u.Text()), id)
		} else {
			res, err = s.DB.ExecContext(ctx,
				`UPDATE agenda SET `+col+` = ? WHERE id = ?`, u.Text(), id)
		}
	}
	if err != nil {
		return false, fmt.Errorf("update %s of item %s: %w", u.Field(), id, err)
	}
	return affected(res)
}

func (s *SQLiteStore) UpdateItem(ctx context.Context, it agenda.Item) (bool, error) {
	at := it.OccursAt.In(s.loc)
	res, err := s.DB.ExecContext(ctx, `UPDATE agenda SET
			occurs_at = ?, occurs_date = ?, occurs_unix = ?,
			category = ?, priority = ?, description = ?, tag = ?, status = ?,
			note = ?, external_event_id = ?,
			category_fold = ?, priority_fold = ?, description_fold = ?, tag_fold = ?
		WHERE id = ?`,
		at.Format(time.RFC3339), agenda.DateOf(at).String(), at.Unix(),
		it.Category, it.Priority, it.Description, it.Tag, string(it.Status),
		nullable(it.Note), nullable(it.ExternalEventID),
		fold(it.Category), fold(it.Priority), fold(it.Description), fold(it.Tag), it.ID)
	if err != nil {
		return false, fmt.Errorf("update item %s: %w", it.ID, err)
	}
	return affected(res)
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM agenda`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scan(row scanner) (agenda.Item, error) {
	var (
		it                  agenda.Item
		createdAt, occursAt string
		status              string
		note, externalID    sql.NullString
	)
	if err := row.Scan(&it.ID, &createdAt, &occursAt, &it.Category, &it.Priority,
		&it.Description, &it.Tag, &status, &note, &externalID); err != nil {
		return agenda.Item{}, err
	}
	var err error
	if it.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return agenda.Item{}, fmt.Errorf("created_at: %w", err)
	}
	if it.OccursAt, err = time.Parse(time.RFC3339, occursAt); err != nil {
		return agenda.Item{}, fmt.Errorf("occurs_at: %w", err)
	}
	it.CreatedAt = it.CreatedAt.In(s.loc)
	it.OccursAt = it.OccursAt.In(s.loc)
	it.Status = agenda.Status(status)
	it.Note = note.String
	it.ExternalEventID = externalID.String
	return it, nil
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...any) ([]agenda.Item, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []agenda.Item
	for rows.Next() {
		it, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
