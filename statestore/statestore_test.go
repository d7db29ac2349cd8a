package statestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	return Open(filepath.Join(dir, "state.json"), zerolog.Nop())
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t)
	records, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("Load on missing file = %v, want empty", records)
	}
}

func TestSaveThenGet(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save("signer-a", 3, 10); err != nil {
		t.Fatalf("Save: %v", err)
	}
	rec, ok, err := s.Get("signer-a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("Get did not find saved record")
	}
	if rec.Index != 3 || rec.Height != 10 {
		t.Fatalf("Get = %+v, want index=3 height=10", rec)
	}
}

func TestSaveRejectsMonotonicityViolation(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save("signer-a", 5, 10); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save("signer-a", 4, 10); err == nil {
		t.Fatal("Save with a lower index should have failed")
	}
	rec, _, _ := s.Get("signer-a")
	if rec.Index != 5 {
		t.Fatalf("index moved backward: got %d, want 5", rec.Index)
	}
}

func TestSaveAllowsEqualOrHigherIndex(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save("signer-a", 5, 10); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save("signer-a", 5, 10); err != nil {
		t.Fatalf("Save with equal index should succeed: %v", err)
	}
	if err := s.Save("signer-a", 6, 10); err != nil {
		t.Fatalf("Save with higher index should succeed: %v", err)
	}
}

func TestEmptyFileTreatedAsEmptyMap(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.path, []byte(""), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	records, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("Load on empty file = %v, want empty", records)
	}
}

func TestMalformedEntryIsSkippedNotFatal(t *testing.T) {
	s := newTestStore(t)
	content := `{"good":{"identifier":"good","index":1,"height":10},"bad":"not-a-record"}`
	if err := os.WriteFile(s.path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	records, err := s.Load()
	if err == nil {
		t.Fatal("Load should report the malformed entry as a non-fatal error")
	}
	if len(records) != 1 || records["good"].Index != 1 {
		t.Fatalf("Load = %v, want the good entry preserved", records)
	}
}

func TestMalformedFileIsFatal(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.path, []byte("not json at all"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := s.Load(); err == nil {
		t.Fatal("Load on a non-JSON file should have failed")
	}
}

func TestDeleteRemovesRecord(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save("signer-a", 1, 10); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Delete("signer-a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, ok, err := s.Get("signer-a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("record should have been deleted")
	}
}

func TestSaveSurvivesConcurrentIdentifiers(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save("signer-a", 1, 10); err != nil {
		t.Fatalf("Save signer-a: %v", err)
	}
	if err := s.Save("signer-b", 2, 16); err != nil {
		t.Fatalf("Save signer-b: %v", err)
	}
	records, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Load = %v, want two signers", records)
	}
}
