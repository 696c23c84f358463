package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"archive-analyzer/models"
)

const insertBatchSize = 50

// recordColumns are the stored value columns, in models.ColumnOrder order.
var recordColumns = []string{
	"archive_key", "archived_at", "archived_url", "parsed_archived_url",
	"original_url", "parsed_original_url", "text", "is_retweet",
	"author_display_info", "mimetype", "status_code", "digest", "length",
	"resumption_key",
}

// dialect holds what differs between the SQL backends.
type dialect struct {
	name        string
	schema      string
	placeholder func(n int) string
}

// sqlStore implements RecordStore over database/sql.
type sqlStore struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

func newSQLStore(db *sql.DB, d dialect) (*sqlStore, error) {
	s := &sqlStore{db: db, dialect: d, now: time.Now}
	if _, err := db.Exec(d.schema); err != nil {
		return nil, fmt.Errorf("%s: migrate: %w", d.name, err)
	}
	return s, nil
}

// Save batch-inserts the table's rows. Rows are keyed by handle and a digest
// of every value, so re-saving the same capture is a no-op.
func (s *sqlStore) Save(ctx context.Context, handle string, t *models.Table) (int, error) {
	if t.Empty() {
		return 0, nil
	}
	handle = normalizeHandle(handle)
	present := strings.Join(valueColumns(t), ",")
	savedAt := s.now().Unix()

	inserted := 0
	for i := 0; i < t.Len(); i += insertBatchSize {
		end := min(i+insertBatchSize, t.Len())
		n, err := s.insertBatch(ctx, handle, present, savedAt, t.Records[i:end])
		if err != nil {
			return inserted, err
		}
		inserted += n
	}
	return inserted, nil
}

func (s *sqlStore) insertBatch(ctx context.Context, handle, present string, savedAt int64, batch []models.ArchiveRecord) (int, error) {
	const perRow = 18
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*perRow)

	for idx := range batch {
		rec := &batch[idx]
		base := idx * perRow
		marks := make([]string, perRow)
		for k := range marks {
			marks[k] = s.dialect.placeholder(base + k + 1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(marks, ",")+")")

		var archivedAt any
		if rec.ArchivedAt != nil {
			archivedAt = rec.ArchivedAt.UTC()
		}
		var isRetweet any
		if rec.IsRetweet != nil {
			isRetweet = *rec.IsRetweet
		}
		valueArgs = append(valueArgs,
			handle, RowDigest(rec), present,
			nullable(rec.ArchiveKey), archivedAt, nullable(rec.ArchivedURL), nullable(rec.ParsedArchivedURL),
			nullable(rec.OriginalURL), nullable(rec.ParsedOriginalURL), nullable(rec.Text), isRetweet,
			nullable(rec.AuthorInfo), nullable(rec.Mimetype), nullable(rec.StatusCode), nullable(rec.Digest),
			nullable(rec.Length), nullable(rec.ResumptionKey), savedAt,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO archive_records (handle, row_digest, present_columns, %s, saved_at)
		VALUES %s
		ON CONFLICT (handle, row_digest) DO NOTHING
	`, strings.Join(recordColumns, ", "), strings.Join(valueStrings, ","))

	res, err := s.db.ExecContext(ctx, query, valueArgs...)
	if err != nil {
		return 0, fmt.Errorf("%s: insert batch: %w", s.dialect.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: rows affected: %w", s.dialect.name, err)
	}
	return int(n), nil
}

// Load retrieves every stored row for handle, in insertion order.
func (s *sqlStore) Load(ctx context.Context, handle string) (*models.Table, error) {
	query := fmt.Sprintf(`
		SELECT present_columns, %s
		FROM archive_records
		WHERE handle = %s
		ORDER BY id
	`, strings.Join(recordColumns, ", "), s.dialect.placeholder(1))

	rows, err := s.db.QueryContext(ctx, query, normalizeHandle(handle))
	if err != nil {
		return nil, fmt.Errorf("%s: load: %w", s.dialect.name, err)
	}
	defer rows.Close()

	t := &models.Table{}
	present := make(map[string]bool)
	for rows.Next() {
		var cols string
		var key, url, parsedURL, orig, parsedOrig, text, info sql.NullString
		var mime, status, digest, length, resume sql.NullString
		var archivedAt sql.NullTime
		var isRetweet sql.NullBool
		if err := rows.Scan(&cols, &key, &archivedAt, &url, &parsedURL, &orig, &parsedOrig,
			&text, &isRetweet, &info, &mime, &status, &digest, &length, &resume); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", s.dialect.name, err)
		}
		for _, c := range strings.Split(cols, ",") {
			if c != "" {
				present[c] = true
			}
		}

		rec := models.ArchiveRecord{
			ArchiveKey:        stringOrNil(key),
			ArchivedURL:       stringOrNil(url),
			ParsedArchivedURL: stringOrNil(parsedURL),
			OriginalURL:       stringOrNil(orig),
			ParsedOriginalURL: stringOrNil(parsedOrig),
			Text:              stringOrNil(text),
			AuthorInfo:        stringOrNil(info),
			Mimetype:          stringOrNil(mime),
			StatusCode:        stringOrNil(status),
			Digest:            stringOrNil(digest),
			Length:            stringOrNil(length),
			ResumptionKey:     stringOrNil(resume),
		}
		if archivedAt.Valid {
			rec.ArchivedAt = models.TimePtr(archivedAt.Time.UTC())
		}
		if isRetweet.Valid {
			rec.IsRetweet = models.BoolPtr(isRetweet.Bool)
		}
		t.Records = append(t.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: load: %w", s.dialect.name, err)
	}

	for _, col := range models.ColumnOrder {
		if present[col] {
			t.Columns = append(t.Columns, col)
		}
	}
	return t, nil
}

// Handles lists stored handles with their row counts.
func (s *sqlStore) Handles(ctx context.Context) ([]HandleSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT handle, COUNT(*), MAX(saved_at)
		FROM archive_records
		GROUP BY handle
		ORDER BY handle
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: list handles: %w", s.dialect.name, err)
	}
	defer rows.Close()

	var out []HandleSummary
	for rows.Next() {
		var (
			h       HandleSummary
			savedAt int64
		)
		if err := rows.Scan(&h.Handle, &h.Rows, &savedAt); err != nil {
			return nil, fmt.Errorf("%s: scan handle: %w", s.dialect.name, err)
		}
		h.LastSaved = time.Unix(savedAt, 0).UTC()
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

// RowDigest is the hex SHA-256 of a record's canonical full-row encoding.
func RowDigest(rec *models.ArchiveRecord) string {
	single := &models.Table{Records: []models.ArchiveRecord{*rec}}
	sum := sha256.Sum256([]byte(single.RowKey(0)))
	return hex.EncodeToString(sum[:])
}

// valueColumns returns the table's materialized columns, without the
// keyword annotation.
func valueColumns(t *models.Table) []string {
	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c != models.ColMatchedKeyword {
			cols = append(cols, c)
		}
	}
	return cols
}

func normalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringOrNil(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
