// Package sqlite implements store.Store on SQLite via the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/chatpulse/pkg/chatpulse/internalerr"
	"github.com/cognicore/chatpulse/pkg/chatpulse/store"
)

const schemaVersion = 1

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db     *sql.DB
	closed atomic.Bool
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// schema when missing.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", withPragmas(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	// journal_mode is stored in the database file, so one connection is enough
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &sqliteStore{db: db}, nil
}

// withPragmas appends per-connection pragmas to the DSN so that every pooled
// connection gets them.
func withPragmas(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) check() error {
	if s.closed.Load() {
		return internalerr.ErrStoreUnavailable
	}
	return nil
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	external_id TEXT UNIQUE,
	server_id TEXT NOT NULL,
	channel_id TEXT NOT NULL DEFAULT '',
	author_id TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	reaction_count INTEGER NOT NULL DEFAULT 0,
	ts INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_server_ts ON messages(server_id, ts);
CREATE INDEX IF NOT EXISTS idx_messages_ts ON messages(ts);

CREATE TABLE IF NOT EXISTS server_stats (
	server_id TEXT NOT NULL,
	date TEXT NOT NULL,
	total_messages INTEGER NOT NULL,
	active_users INTEGER NOT NULL,
	PRIMARY KEY(server_id, date)
);

CREATE TABLE IF NOT EXISTS reports (
	id TEXT PRIMARY KEY,
	server_id TEXT NOT NULL,
	week_start INTEGER NOT NULL,
	generated_at INTEGER NOT NULL,
	format TEXT NOT NULL,
	payload BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_server ON reports(server_id, generated_at);
`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version=%d", schemaVersion))
	return err
}

// AddMessage inserts a message and returns its row id. A message whose
// ExternalID is already stored is rejected with ErrDuplicate.
func (s *sqliteStore) AddMessage(ctx context.Context, m store.Message) (int64, error) {
	if err := s.check(); err != nil {
		return 0, err
	}

	const stmt = `
INSERT INTO messages (external_id, server_id, channel_id, author_id, content, reaction_count, ts)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(external_id) DO NOTHING
RETURNING id;
`
	var externalID sql.NullString
	if m.ExternalID != "" {
		externalID = sql.NullString{String: m.ExternalID, Valid: true}
	}

	var id int64
	err := s.db.QueryRowContext(
		ctx,
		stmt,
		externalID,
		m.ServerID,
		m.ChannelID,
		m.AuthorID,
		m.Content,
		m.ReactionCount,
		m.Timestamp.UnixNano(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("message %s: %w", m.ExternalID, internalerr.ErrDuplicate)
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

const messageColumns = `id, COALESCE(external_id, ''), server_id, channel_id, author_id, content, reaction_count, ts`

// MessagesSince returns the server's messages at or after since, oldest first.
func (s *sqliteStore) MessagesSince(ctx context.Context, serverID string, since time.Time) ([]store.Message, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.queryMessages(ctx, `
SELECT `+messageColumns+`
FROM messages
WHERE server_id = ? AND ts >= ?
ORDER BY ts, id;
`, serverID, since.UnixNano())
}

// MessagesBetween returns the server's messages in [from, to), oldest first.
func (s *sqliteStore) MessagesBetween(ctx context.Context, serverID string, from, to time.Time) ([]store.Message, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.queryMessages(ctx, `
SELECT `+messageColumns+`
FROM messages
WHERE server_id = ? AND ts >= ? AND ts < ?
ORDER BY ts, id;
`, serverID, from.UnixNano(), to.UnixNano())
}

func (s *sqliteStore) queryMessages(ctx context.Context, query string, args ...any) ([]store.Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []store.Message
	for rows.Next() {
		var (
			m  store.Message
			ts int64
		)
		if err := rows.Scan(&m.ID, &m.ExternalID, &m.ServerID, &m.ChannelID, &m.AuthorID, &m.Content, &m.ReactionCount, &ts); err != nil {
			return nil, err
		}
		m.Timestamp = time.Unix(0, ts).UTC()
		results = append(results, m)
	}
	return results, rows.Err()
}

// DeleteMessagesBefore removes every message older than cutoff and reports
// how many rows went away.
func (s *sqliteStore) DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE ts < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Servers lists every server id seen in messages or stats, sorted.
func (s *sqliteStore) Servers(ctx context.Context) ([]string, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.loadStringColumn(ctx, `
SELECT server_id FROM messages
UNION
SELECT server_id FROM server_stats
ORDER BY 1;
`)
}

// UpsertServerStats inserts or replaces the stats row for (server, day).
func (s *sqliteStore) UpsertServerStats(ctx context.Context, st store.ServerStats) error {
	if err := s.check(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO server_stats (server_id, date, total_messages, active_users)
VALUES (?, ?, ?, ?)
ON CONFLICT(server_id, date) DO UPDATE SET
	total_messages=excluded.total_messages,
	active_users=excluded.active_users;
`, st.ServerID, dateKey(st.Date), st.TotalMessages, st.ActiveUsers)
	return err
}

// GetServerStats returns stats rows for days in [from, to), oldest first.
func (s *sqliteStore) GetServerStats(ctx context.Context, serverID string, from, to time.Time) ([]store.ServerStats, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT server_id, date, total_messages, active_users
FROM server_stats
WHERE server_id = ? AND date >= ? AND date < ?
ORDER BY date;
`, serverID, dateKey(from), dateKey(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []store.ServerStats
	for rows.Next() {
		var (
			st   store.ServerStats
			date string
		)
		if err := rows.Scan(&st.ServerID, &date, &st.TotalMessages, &st.ActiveUsers); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return nil, fmt.Errorf("parse stats date %q: %w", date, err)
		}
		st.Date = parsed
		results = append(results, st)
	}
	return results, rows.Err()
}

// SaveReport inserts or replaces a report by id.
func (s *sqliteStore) SaveReport(ctx context.Context, r store.Report) error {
	if err := s.check(); err != nil {
		return err
	}
	if r.ID == "" {
		return internalerr.InvalidInput("report id is empty")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO reports (id, server_id, week_start, generated_at, format, payload)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	server_id=excluded.server_id,
	week_start=excluded.week_start,
	generated_at=excluded.generated_at,
	format=excluded.format,
	payload=excluded.payload;
`, r.ID, r.ServerID, r.WeekStart.UnixNano(), r.GeneratedAt.UnixNano(), r.Format, r.Payload)
	return err
}

const reportColumns = `id, server_id, week_start, generated_at, format, payload`

// GetReport loads a report by id.
func (s *sqliteStore) GetReport(ctx context.Context, id string) (store.Report, error) {
	if err := s.check(); err != nil {
		return store.Report{}, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = ?`, id)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Report{}, fmt.Errorf("report %s: %w", id, internalerr.ErrNotFound)
	}
	return r, err
}

// ListReports returns the newest reports first. An empty serverID lists
// reports for every server.
func (s *sqliteStore) ListReports(ctx context.Context, serverID string, limit int) ([]store.Report, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = store.DefaultReportLimit
	}

	query := `SELECT ` + reportColumns + ` FROM reports`
	args := make([]any, 0, 2)
	if serverID != "" {
		query += ` WHERE server_id = ?`
		args = append(args, serverID)
	}
	query += ` ORDER BY generated_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []store.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (store.Report, error) {
	var (
		r                    store.Report
		weekStart, generated int64
	)
	if err := row.Scan(&r.ID, &r.ServerID, &weekStart, &generated, &r.Format, &r.Payload); err != nil {
		return store.Report{}, err
	}
	r.WeekStart = time.Unix(0, weekStart).UTC()
	r.GeneratedAt = time.Unix(0, generated).UTC()
	return r, nil
}

func (s *sqliteStore) loadStringColumn(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func dateKey(t time.Time) string {
	return store.DayOf(t).Format(time.DateOnly)
}
