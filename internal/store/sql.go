// ABOUTME: database/sql implementation of Client for SQLite (modernc) and Postgres (pgx)
// ABOUTME: All tables share one records table keyed by (tb, id) with JSON content

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	_ "modernc.org/sqlite"

	"github.com/2389/teamup/internal/entity"
)

// dialect captures the few places where SQLite and Postgres disagree.
type dialect struct {
	name     string
	numbered bool   // $1, $2 placeholders instead of ?
	field    string // expression reading a content field; %s is the path placeholder
	path     func(field string) string
	orderBy  string // byte-wise key order on both backends
	lockRow  string
}

var (
	sqliteDialect = dialect{
		name:    "sqlite",
		field:   "json_extract(content, %s)",
		path:    func(field string) string { return "$." + field },
		orderBy: "id",
	}
	postgresDialect = dialect{
		name:     "postgres",
		numbered: true,
		field:    "(content::jsonb ->> CAST(%s AS TEXT))",
		path:     func(field string) string { return field },
		orderBy:  `id COLLATE "C"`,
		lockRow:  " FOR UPDATE",
	}
)

// rebind rewrites ? placeholders for dialects that number them.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var fieldName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

const schema = `
	CREATE TABLE IF NOT EXISTS records (
		tb         TEXT NOT NULL,
		id         TEXT NOT NULL,
		in_tb      TEXT,
		in_id      TEXT,
		out_tb     TEXT,
		out_id     TEXT,
		content    TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (tb, id)
	);

	CREATE INDEX IF NOT EXISTS idx_records_in ON records(tb, in_tb, in_id, id);
	CREATE INDEX IF NOT EXISTS idx_records_out ON records(tb, out_tb, out_id, id);
`

const columns = "tb, id, in_tb, in_id, out_tb, out_id, content"

// SQLStore implements Client over database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	logger  *slog.Logger
}

var _ Client = (*SQLStore)(nil)

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLStore, error) {
	logger := slog.Default().With("component", "store", "driver", "sqlite")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	// Pragmas in the DSN apply to every pooled connection, not just the first.
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Each connection to :memory: would see its own empty database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s, err := newSQLStore(context.Background(), db, sqliteDialect, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// NewPostgresStore connects to Postgres through pgx's database/sql driver.
func NewPostgresStore(ctx context.Context, dsn string) (*SQLStore, error) {
	logger := slog.Default().With("component", "store", "driver", "postgres")

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", classify(err))
	}

	s, err := newSQLStore(ctx, db, postgresDialect, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Postgres store initialized")
	return s, nil
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect, logger *slog.Logger) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: d, logger: logger}
	if err := s.createSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating %s schema: %w", d.name, err)
	}
	return s, nil
}

// createSchema creates the records table if it doesn't exist. Statements run
// one at a time since pgx rejects multi-statement Exec with arguments.
func (s *SQLStore) createSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return classify(err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	return classify(s.db.PingContext(ctx))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var (
		doc          Document
		inTb, inID   sql.NullString
		outTb, outID sql.NullString
		content      []byte
	)
	if err := row.Scan(&doc.ID.Table, &doc.ID.Key, &inTb, &inID, &outTb, &outID, &content); err != nil {
		return nil, err
	}
	doc.In = entity.RecordID{Table: inTb.String, Key: inID.String}
	doc.Out = entity.RecordID{Table: outTb.String, Key: outID.String}
	doc.Content = content
	return &doc, nil
}

// nullString returns nil for empty strings so they're stored as NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Create inserts a record that must not exist yet.
func (s *SQLStore) Create(ctx context.Context, doc Document) (*Document, error) {
	ts := now()
	query := s.dialect.rebind(`
		INSERT INTO records (tb, id, in_tb, in_id, out_tb, out_id, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + columns)

	row := s.db.QueryRowContext(ctx, query,
		doc.ID.Table, doc.ID.Key,
		nullString(doc.In.Table), nullString(doc.In.Key),
		nullString(doc.Out.Table), nullString(doc.Out.Key),
		string(doc.Content), ts, ts,
	)
	created, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", doc.ID, classify(err))
	}

	s.logger.Debug("created record", "id", doc.ID.String())
	return created, nil
}

// Get returns a record by id, or nil if absent.
func (s *SQLStore) Get(ctx context.Context, id entity.RecordID) (*Document, error) {
	query := s.dialect.rebind(`SELECT ` + columns + ` FROM records WHERE tb = ? AND id = ?`)

	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, id.Table, id.Key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", id, classify(err))
	}
	return doc, nil
}

// Upsert inserts or fully replaces a record. created_at survives replacement.
func (s *SQLStore) Upsert(ctx context.Context, doc Document) (*Document, error) {
	ts := now()
	query := s.dialect.rebind(`
		INSERT INTO records (tb, id, in_tb, in_id, out_tb, out_id, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tb, id) DO UPDATE SET
			in_tb = excluded.in_tb,
			in_id = excluded.in_id,
			out_tb = excluded.out_tb,
			out_id = excluded.out_id,
			content = excluded.content,
			updated_at = excluded.updated_at
		RETURNING ` + columns)

	row := s.db.QueryRowContext(ctx, query,
		doc.ID.Table, doc.ID.Key,
		nullString(doc.In.Table), nullString(doc.In.Key),
		nullString(doc.Out.Table), nullString(doc.Out.Key),
		string(doc.Content), ts, ts,
	)
	saved, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("upserting %s: %w", doc.ID, classify(err))
	}

	s.logger.Debug("upserted record", "id", doc.ID.String())
	return saved, nil
}

// Merge runs read-modify-write in one transaction.
func (s *SQLStore) Merge(ctx context.Context, id entity.RecordID, fn MergeFunc) (*Document, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", classify(err))
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var current []byte
	query := s.dialect.rebind(`SELECT content FROM records WHERE tb = ? AND id = ?` + s.dialect.lockRow)
	err = tx.QueryRowContext(ctx, query, id.Table, id.Key).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", id, classify(err))
	}

	next, err := fn(current)
	if err != nil {
		return nil, err
	}

	query = s.dialect.rebind(`
		UPDATE records SET content = ?, updated_at = ?
		WHERE tb = ? AND id = ?
		RETURNING ` + columns)
	doc, err := scanDocument(tx.QueryRowContext(ctx, query, string(next), now(), id.Table, id.Key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("updating %s: %w", id, ErrStorageInvariant)
	}
	if err != nil {
		return nil, fmt.Errorf("updating %s: %w", id, classify(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing %s: %w", id, classify(err))
	}
	committed = true

	s.logger.Debug("merged record", "id", id.String())
	return doc, nil
}

// Delete removes a record and returns its last value, or nil if absent.
func (s *SQLStore) Delete(ctx context.Context, id entity.RecordID) (*Document, error) {
	query := s.dialect.rebind(`DELETE FROM records WHERE tb = ? AND id = ? RETURNING ` + columns)

	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, id.Table, id.Key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("deleting %s: %w", id, classify(err))
	}

	s.logger.Debug("deleted record", "id", id.String())
	return doc, nil
}

func (s *SQLStore) fieldExpr(name string) (string, string, error) {
	if !fieldName.MatchString(name) {
		return "", "", fmt.Errorf("invalid field name %q", name)
	}
	return fmt.Sprintf(s.dialect.field, "?"), s.dialect.path(name), nil
}

// Query lists records matching q, ordered by key.
func (s *SQLStore) Query(ctx context.Context, q Query) ([]*Document, error) {
	where := []string{"tb = ?"}
	args := []any{q.Table}

	if !q.In.IsZero() {
		where = append(where, "in_tb = ? AND in_id = ?")
		args = append(args, q.In.Table, q.In.Key)
	}
	if !q.Out.IsZero() {
		where = append(where, "out_tb = ? AND out_id = ?")
		args = append(args, q.Out.Table, q.Out.Key)
	}
	for _, f := range q.Fields {
		expr, path, err := s.fieldExpr(f.Name)
		if err != nil {
			return nil, err
		}
		where = append(where, expr+" = ?")
		args = append(args, path, f.Value)
	}

	query := `SELECT ` + columns + ` FROM records WHERE ` + strings.Join(where, " AND ") + ` ORDER BY ` + s.dialect.orderBy
	if q.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, q.Limit, max(q.Offset, 0))
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", q.Table, classify(err))
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", q.Table, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", q.Table, classify(err))
	}
	return docs, nil
}

// CountBy counts the records of table grouped by a content field. Records
// without the field are not counted.
func (s *SQLStore) CountBy(ctx context.Context, table, field string) (map[string]int, error) {
	expr, path, err := s.fieldExpr(field)
	if err != nil {
		return nil, err
	}

	query := s.dialect.rebind(`SELECT ` + expr + `, COUNT(*) FROM records WHERE tb = ? GROUP BY 1`)
	rows, err := s.db.QueryContext(ctx, query, path, table)
	if err != nil {
		return nil, fmt.Errorf("counting %s by %s: %w", table, field, classify(err))
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			value sql.NullString
			n     int
		)
		if err := rows.Scan(&value, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		if value.Valid {
			counts[value.String] += n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating counts: %w", classify(err))
	}
	return counts, nil
}
