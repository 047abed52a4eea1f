//go:build sql
// +build sql

package sql

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/paneprobe/paneprobe/types"
)

func testStorage(t *testing.T) Storage {
	t.Helper()
	return Storage{
		SqliteDBFile: filepath.Join(t.TempDir(), "paneprobe.db"),
		Create:       true,
	}
}

func TestStoreFetchGetIndex(t *testing.T) {
	s := testStorage(t)

	report := &types.RunReport{Session: "work", TotalAttempts: 3, TotalDelivered: 2}
	if err := s.Store(report); err != nil {
		t.Fatalf("Didn't expect an error: %v", err)
	}

	idx, err := s.GetIndex()
	if err != nil {
		t.Fatalf("Didn't expect an error: %v", err)
	}
	if got, want := len(idx), 1; got != want {
		t.Fatalf("Expected %d stored run, got %d", want, got)
	}

	for name := range idx {
		fetched, err := s.Fetch(name)
		if err != nil {
			t.Fatalf("Didn't expect an error: %v", err)
		}
		if got, want := fetched.Session, "work"; got != want {
			t.Errorf("Expected session '%s', got '%s'", want, got)
		}
		if got, want := fetched.TotalAttempts, 3; got != want {
			t.Errorf("Expected %d attempts, got %d", want, got)
		}
	}
}

func TestMaintainDeletesExpired(t *testing.T) {
	s := testStorage(t)
	s.ReportExpiry = time.Hour

	if err := s.Store(&types.RunReport{Session: "work"}); err != nil {
		t.Fatalf("Didn't expect an error: %v", err)
	}

	db, err := s.dbConnect()
	if err != nil {
		t.Fatalf("Didn't expect an error: %v", err)
	}
	old := time.Now().Add(-2 * time.Hour).UnixNano()
	_, err = db.Exec(db.Rebind(`INSERT INTO runs (name,timestamp,session,report) VALUES (?,?,?,?)`),
		"stale", old, "work", "{}")
	db.Close()
	if err != nil {
		t.Fatalf("Didn't expect an error: %v", err)
	}

	if err := s.Maintain(); err != nil {
		t.Fatalf("Didn't expect an error: %v", err)
	}

	idx, err := s.GetIndex()
	if err != nil {
		t.Fatalf("Didn't expect an error: %v", err)
	}
	if got, want := len(idx), 1; got != want {
		t.Fatalf("Expected %d surviving run, got %d", want, got)
	}
	if _, ok := idx["stale"]; ok {
		t.Error("Expected the expired run to be deleted")
	}
}

func TestMaintainNoExpiry(t *testing.T) {
	if err := (Storage{}).Maintain(); err != nil {
		t.Errorf("Didn't expect an error: %v", err)
	}
}

func TestDBConnectRejectsAmbiguousConfig(t *testing.T) {
	s := Storage{SqliteDBFile: "x.db", MySQL: "user:pass@tcp(localhost:3306)/paneprobe"}
	if _, err := s.dbConnect(); err == nil {
		t.Error("Expected an error with several backends configured")
	}
}
