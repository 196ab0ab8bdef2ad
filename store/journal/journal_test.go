package journal_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"

	"github.com/xraph/fundme/store"
	"github.com/xraph/fundme/store/journal"
	"github.com/xraph/fundme/store/leveldb"
	"github.com/xraph/fundme/store/memory"
	fundmeredis "github.com/xraph/fundme/store/redis"
	"github.com/xraph/fundme/store/sqlite"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		driver string
		dsn    string
		check  func(store.Store) bool
	}{
		{"", "", func(s store.Store) bool { _, ok := s.(*memory.Store); return ok }},
		{journal.Memory, "", func(s store.Store) bool { _, ok := s.(*memory.Store); return ok }},
		{journal.LevelDB, filepath.Join(dir, "ldb"), func(s store.Store) bool { _, ok := s.(*leveldb.Store); return ok }},
		{"SQLite", filepath.Join(dir, "journal.db"), func(s store.Store) bool { _, ok := s.(*sqlite.Store); return ok }},
		{journal.Redis, "127.0.0.1:6379", func(s store.Store) bool { _, ok := s.(*fundmeredis.Store); return ok }},
		{journal.Redis, "redis://127.0.0.1:6379/2", func(s store.Store) bool { _, ok := s.(*fundmeredis.Store); return ok }},
	}

	for _, tt := range tests {
		t.Run(tt.driver+"/"+tt.dsn, func(t *testing.T) {
			s, err := journal.Open(context.Background(), tt.driver, tt.dsn)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer s.Close()
			if !tt.check(s) {
				t.Errorf("Open(%q): got %T", tt.driver, s)
			}
		})
	}
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := journal.Open(ctx, "cassandra", "x"); !errors.Is(err, journal.ErrUnknownDriver) {
		t.Errorf("unknown driver: got %v", err)
	}
	if _, err := journal.Open(ctx, journal.LevelDB, ""); err == nil {
		t.Error("leveldb without a directory should fail")
	}
	if _, err := journal.Open(ctx, journal.Redis, ""); err == nil {
		t.Error("redis without an address should fail")
	}
	if _, err := journal.FromGrove(nil); err == nil {
		t.Error("FromGrove(nil) should fail")
	}
}

func TestFromGrove(t *testing.T) {
	sdb := sqlitedriver.New()
	if err := sdb.Open(context.Background(), filepath.Join(t.TempDir(), "journal.db")); err != nil {
		t.Fatal(err)
	}
	db, err := grove.Open(sdb)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	s, err := journal.FromGrove(db)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*sqlite.Store); !ok {
		t.Errorf("FromGrove: got %T, want *sqlite.Store", s)
	}
}
