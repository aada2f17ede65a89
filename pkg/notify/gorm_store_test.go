package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pitabwire/frame/datastore/pool"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"
)

// dryRunPool hands out a gorm session that builds SQL without a database.
type dryRunPool struct {
	pool.Pool
	db *gorm.DB
}

func (p *dryRunPool) DB(ctx context.Context, _ bool) *gorm.DB {
	return p.db.WithContext(ctx)
}

func newDryRunStore(t *testing.T) (*GormStore, *[]string) {
	t.Helper()
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{DryRun: true})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}

	var statements []string
	record := func(kind string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			statements = append(statements, kind+" "+tx.Statement.SQL.String())
		}
	}
	if err := db.Callback().Create().After("gorm:create").Register("wordwise:record_create", record("create")); err != nil {
		t.Fatalf("register create callback: %v", err)
	}
	if err := db.Callback().Update().After("gorm:update").Register("wordwise:record_update", record("update")); err != nil {
		t.Fatalf("register update callback: %v", err)
	}
	return NewGormStore(&dryRunPool{db: db}), &statements
}

func TestGormStoreUpdateMissingListener(t *testing.T) {
	store, statements := newDryRunStore(t)

	l := &Listener{Name: "ghost", URL: "https://ghost.example"}
	l.ID = "missing"

	if err := store.UpdateListener(t.Context(), l); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateListener(missing) = %v, want ErrNotFound", err)
	}

	for _, s := range *statements {
		if strings.HasPrefix(s, "create") {
			t.Errorf("update must never insert, got %q", s)
		}
	}
	if len(*statements) != 1 {
		t.Fatalf("statements = %q, want a single update", *statements)
	}
	sql := (*statements)[0]
	if !strings.Contains(sql, "UPDATE") || !strings.Contains(sql, "deleted_at") {
		t.Errorf("update sql = %q, want an UPDATE scoped to live rows", sql)
	}
}
