package journal

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newStorages(t *testing.T) map[string]Storage {
	t.Helper()

	storages := map[string]Storage{"memory": NewMemoryStorage()}
	for _, driver := range []string{"sqlite", "sqlite3"} {
		s, err := NewSQLiteStorage(SQLiteConfig{
			Path:   filepath.Join(t.TempDir(), "journal.db"),
			Driver: driver,
		}, nil)
		if err != nil {
			// The cgo driver is a stub in CGO_ENABLED=0 builds.
			if driver == "sqlite3" && strings.Contains(err.Error(), "cgo") {
				continue
			}
			t.Fatalf("NewSQLiteStorage(%s) error = %v", driver, err)
		}
		storages[driver] = s
	}
	for _, s := range storages {
		s := s
		t.Cleanup(func() { _ = s.Close() })
	}
	return storages
}

func TestStorage_AppendAndList(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for name, s := range newStorages(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			entries := []*Entry{
				{Kind: KindListening, URL: "http://localhost:4200/", Time: base},
				{Kind: KindRestart, Cycle: 1, URL: "http://localhost:4200/", Duration: 40 * time.Millisecond, Revision: "4bf92f3577b3", Time: base.Add(time.Minute)},
				{Kind: KindRestartFailed, Cycle: 2, Error: "boom", Time: base.Add(2 * time.Minute)},
			}
			for _, e := range entries {
				if err := s.Append(ctx, e); err != nil {
					t.Fatalf("Append() error = %v", err)
				}
				if e.ID == "" {
					t.Error("Append() did not assign an ID")
				}
			}

			got, err := s.List(ctx, Query{})
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != 3 {
				t.Fatalf("len(List()) = %d, want 3", len(got))
			}
			if got[0].Kind != KindRestartFailed || got[2].Kind != KindListening {
				t.Errorf("order = %v, %v, %v, want newest first", got[0].Kind, got[1].Kind, got[2].Kind)
			}
			if got[0].Error != "boom" || got[0].Cycle != 2 {
				t.Errorf("got[0] = %+v, want cycle 2 error boom", got[0])
			}
			if got[1].Revision != "4bf92f3577b3" {
				t.Errorf("got[1].Revision = %q, want 4bf92f3577b3", got[1].Revision)
			}
			if got[1].Duration != 40*time.Millisecond {
				t.Errorf("got[1].Duration = %v, want 40ms", got[1].Duration)
			}
			if !got[1].Time.Equal(base.Add(time.Minute)) {
				t.Errorf("got[1].Time = %v, want %v", got[1].Time, base.Add(time.Minute))
			}

			limited, err := s.List(ctx, Query{Limit: 2})
			if err != nil {
				t.Fatalf("List(limit) error = %v", err)
			}
			if len(limited) != 2 {
				t.Errorf("len(List(limit 2)) = %d, want 2", len(limited))
			}

			restarts, err := s.List(ctx, Query{Kind: KindRestart})
			if err != nil {
				t.Fatalf("List(kind) error = %v", err)
			}
			if len(restarts) != 1 || restarts[0].Cycle != 1 {
				t.Errorf("List(kind restart) = %+v, want cycle 1 only", restarts)
			}

			recent, err := s.List(ctx, Query{Since: base.Add(30 * time.Second)})
			if err != nil {
				t.Fatalf("List(since) error = %v", err)
			}
			if len(recent) != 2 {
				t.Errorf("len(List(since)) = %d, want 2", len(recent))
			}
		})
	}
}

func TestStorage_DeleteBefore(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for name, s := range newStorages(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 5; i++ {
				if err := s.Append(ctx, &Entry{Kind: KindRestart, Cycle: uint64(i), Time: base.AddDate(0, 0, i)}); err != nil {
					t.Fatalf("Append() error = %v", err)
				}
			}

			deleted, err := s.DeleteBefore(ctx, base.AddDate(0, 0, 3))
			if err != nil {
				t.Fatalf("DeleteBefore() error = %v", err)
			}
			if deleted != 3 {
				t.Errorf("DeleteBefore() = %d, want 3", deleted)
			}

			n, err := s.Count(ctx)
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if n != 2 {
				t.Errorf("Count() = %d, want 2", n)
			}
		})
	}
}

func TestSQLiteStorage_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	ctx := context.Background()

	s, err := NewSQLiteStorage(SQLiteConfig{Path: path}, nil)
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	if err := s.Append(ctx, &Entry{Kind: KindListening}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s, err = NewSQLiteStorage(SQLiteConfig{Path: path}, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Count() after reopen = %d, want 1", n)
	}
}

func TestSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage(SQLiteConfig{}, nil)
	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StorageError", err)
	}
	if se.Op != "open" {
		t.Errorf("Op = %q, want open", se.Op)
	}
}

func TestMemoryStorage_AppendAfterClose(t *testing.T) {
	s := NewMemoryStorage()
	_ = s.Close()
	if err := s.Append(context.Background(), &Entry{Kind: KindRestart}); err == nil {
		t.Error("Append() after Close error = nil, want error")
	}
}

func TestEntries_Rows(t *testing.T) {
	es := Entries{
		{Kind: KindRestart, Cycle: 3, Duration: 1234567 * time.Nanosecond, URL: "http://localhost:4200/", Time: time.Now()},
		{Kind: KindRestartFailed, Cycle: 4, Error: "bind failed", Time: time.Now()},
	}

	if got := len(es.Header()); got != 7 {
		t.Fatalf("len(Header()) = %d, want 7", got)
	}
	rows := es.Rows()
	if len(rows) != 2 {
		t.Fatalf("len(Rows()) = %d, want 2", len(rows))
	}
	if rows[0][1] != "3" || rows[0][2] != "restart" || rows[0][3] != "1ms" {
		t.Errorf("rows[0] = %v, want cycle 3 restart 1ms", rows[0])
	}
	if rows[1][3] != "" || rows[1][5] != "bind failed" {
		t.Errorf("rows[1] = %v, want empty duration and error text", rows[1])
	}
}
