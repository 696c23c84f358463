package storage

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"archive-analyzer/config"
	"archive-analyzer/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "db", "archive.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func storedTable() *models.Table {
	at := time.Date(2024, 6, 15, 12, 30, 45, 0, time.UTC)
	return &models.Table{
		Columns: []string{models.ColArchiveKey, models.ColArchivedAt, models.ColText, models.ColIsRetweet},
		Records: []models.ArchiveRecord{
			{ArchiveKey: str("k1"), ArchivedAt: &at, Text: str("hello"), IsRetweet: models.BoolPtr(false)},
			{ArchiveKey: str("k2"), Text: nil, IsRetweet: models.BoolPtr(true)},
			{ArchiveKey: str("k3")},
		},
	}
}

func TestSQLiteSaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n, err := store.Save(ctx, "@Jack", storedTable())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if n != 3 {
		t.Errorf("Save inserted %d rows, want 3", n)
	}

	got, err := store.Load(ctx, "jack")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := storedTable()
	if strings.Join(got.Columns, ",") != strings.Join(want.Columns, ",") {
		t.Errorf("Columns = %v; want %v", got.Columns, want.Columns)
	}
	if got.Len() != want.Len() {
		t.Fatalf("loaded %d rows, want %d", got.Len(), want.Len())
	}
	for i := range want.Records {
		if got.RowKey(i) != want.RowKey(i) {
			t.Errorf("row %d did not round-trip: got %+v", i, got.Records[i])
		}
	}
}

func TestSQLiteSaveIgnoresStoredRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, "jack", storedTable()); err != nil {
		t.Fatalf("save: %v", err)
	}
	n, err := store.Save(ctx, "jack", storedTable())
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if n != 0 {
		t.Errorf("second Save inserted %d rows, want 0", n)
	}

	// The same rows under another handle are distinct.
	if n, _ := store.Save(ctx, "biz", storedTable()); n != 3 {
		t.Errorf("Save for another handle inserted %d rows, want 3", n)
	}
}

func TestSQLiteHandles(t *testing.T) {
	store := newTestStore(t)
	store.now = func() time.Time { return time.Unix(1700000000, 0) }
	ctx := context.Background()

	store.Save(ctx, "jack", storedTable())
	one := &models.Table{Columns: []string{models.ColArchiveKey}, Records: []models.ArchiveRecord{{ArchiveKey: str("x")}}}
	store.Save(ctx, "biz", one)

	handles, err := store.Handles(ctx)
	if err != nil {
		t.Fatalf("handles: %v", err)
	}
	if len(handles) != 2 {
		t.Fatalf("got %d handles, want 2", len(handles))
	}
	if handles[0].Handle != "biz" || handles[0].Rows != 1 || handles[1].Rows != 3 {
		t.Errorf("handles = %+v", handles)
	}
	if handles[0].LastSaved.Unix() != 1700000000 {
		t.Errorf("LastSaved = %v", handles[0].LastSaved)
	}
}

func TestSQLiteLoadUnknownHandle(t *testing.T) {
	store := newTestStore(t)
	got, err := store.Load(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.Empty() {
		t.Errorf("expected an empty table, got %d rows", got.Len())
	}
}

func TestSaveLargeTableInBatches(t *testing.T) {
	store := newTestStore(t)
	table := &models.Table{Columns: []string{models.ColArchiveKey}}
	for i := 0; i < insertBatchSize*2+7; i++ {
		table.Records = append(table.Records, models.ArchiveRecord{ArchiveKey: str(strconv.Itoa(i))})
	}
	n, err := store.Save(context.Background(), "jack", table)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if n != table.Len() {
		t.Errorf("inserted %d rows, want %d", n, table.Len())
	}
}

func TestRowDigest(t *testing.T) {
	a := models.ArchiveRecord{ArchiveKey: str("k"), Text: str("")}
	b := models.ArchiveRecord{ArchiveKey: str("k")}
	c := models.ArchiveRecord{ArchiveKey: str("k"), Text: str("")}

	if RowDigest(&a) == RowDigest(&b) {
		t.Error("empty text and missing text must digest differently")
	}
	if RowDigest(&a) != RowDigest(&c) {
		t.Error("equal rows must digest equally")
	}
	if len(RowDigest(&a)) != 64 {
		t.Errorf("digest length = %d; want 64", len(RowDigest(&a)))
	}
}

func TestPlaceholders(t *testing.T) {
	if got := postgresDialect.placeholder(3); got != "$3" {
		t.Errorf("postgres placeholder = %q; want $3", got)
	}
	if got := sqliteDialect.placeholder(3); got != "?" {
		t.Errorf("sqlite placeholder = %q; want ?", got)
	}
}

func TestOpen(t *testing.T) {
	store, err := Open(&config.Config{StorageDriver: "none"})
	if err != nil || store != nil {
		t.Errorf("Open(none) = %v, %v; want nil, nil", store, err)
	}
	if _, err := Open(&config.Config{StorageDriver: "mongo"}); err == nil {
		t.Error("expected an error for an unknown driver")
	}

	store, err = Open(&config.Config{StorageDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "a.db")})
	if err != nil {
		t.Fatalf("Open(sqlite): %v", err)
	}
	defer store.Close()
	if _, ok := store.(*SQLiteStore); !ok {
		t.Errorf("Open(sqlite) returned %T", store)
	}
}
