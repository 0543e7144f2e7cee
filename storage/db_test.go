package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

func exerciseBackend(t *testing.T, db Database) {
	t.Helper()
	if _, err := db.Get([]byte("missing")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := db.Put([]byte("a"), []byte("1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	batch := db.NewBatch()
	batch.Put([]byte("b"), []byte("2"))
	batch.Delete([]byte("a"))
	if batch.Len() != 2 {
		t.Fatalf("expected 2 buffered ops, got %d", batch.Len())
	}
	if ok, _ := db.Has([]byte("b")); ok {
		t.Fatalf("batch applied before Write")
	}
	if err := batch.Write(); err != nil {
		t.Fatalf("write: %v", err)
	}
	if ok, _ := db.Has([]byte("a")); ok {
		t.Fatalf("expected a deleted")
	}
	value, err := db.Get([]byte("b"))
	if err != nil || string(value) != "2" {
		t.Fatalf("unexpected b: %q %v", value, err)
	}
	if err := db.Delete([]byte("b")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := db.Has([]byte("b")); ok {
		t.Fatalf("expected b deleted")
	}
}

func TestMemDB(t *testing.T) {
	db := NewMemDB()
	defer db.Close()
	exerciseBackend(t, db)
}

func TestLevelDB(t *testing.T) {
	db, err := NewLevelDB(filepath.Join(t.TempDir(), "ledger"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	exerciseBackend(t, db)
}
