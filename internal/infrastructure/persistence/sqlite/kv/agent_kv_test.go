package kv

import (
	"context"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"workpassport/internal/infrastructure/persistence/sqlite/model"
)

func setupAgentKV(t *testing.T) *AgentKV {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "kv.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(&model.AgentKV{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return NewAgentKV(db)
}

func TestAgentKVSetGetOverwriteDelete(t *testing.T) {
	store := setupAgentKV(t)
	ctx := context.Background()

	if _, found, err := store.Get(ctx, "monitor:credential:cursor"); err != nil || found {
		t.Fatalf("Get(missing) = found=%v err=%v", found, err)
	}

	if err := store.Set(ctx, "monitor:credential:cursor", "42"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value, found, err := store.Get(ctx, "monitor:credential:cursor")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found || value != "42" {
		t.Fatalf("Get() = %q found=%v", value, found)
	}

	if err := store.Set(ctx, "monitor:credential:cursor", "57"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	value, found, err = store.Get(ctx, "monitor:credential:cursor")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found || value != "57" {
		t.Fatalf("Get() after overwrite = %q found=%v", value, found)
	}

	if err := store.Delete(ctx, "monitor:credential:cursor"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, found, err = store.Get(ctx, "monitor:credential:cursor"); err != nil || found {
		t.Fatalf("Get(deleted) = found=%v err=%v", found, err)
	}
	// Deleting an absent key is a no-op.
	if err := store.Delete(ctx, "monitor:credential:cursor"); err != nil {
		t.Fatalf("Delete(absent) error = %v", err)
	}
}

func TestAgentKVRejectsEmptyKey(t *testing.T) {
	store := setupAgentKV(t)
	ctx := context.Background()

	if err := store.Set(ctx, "  ", "v"); err == nil {
		t.Fatalf("Set(blank key) expected error")
	}
	if _, _, err := store.Get(ctx, ""); err == nil {
		t.Fatalf("Get(empty key) expected error")
	}
}
