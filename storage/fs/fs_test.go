package fs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paneprobe/paneprobe/types"
)

func TestFSStoreAndFetch(t *testing.T) {
	specimen := Storage{Dir: t.TempDir()}

	report := &types.RunReport{
		Session:        "work",
		TotalAttempts:  2,
		TotalDelivered: 2,
	}
	if err := specimen.Store(report); err != nil {
		t.Fatalf("Expected no error from Store(), got: %v", err)
	}

	index, err := specimen.GetIndex()
	if err != nil {
		t.Fatalf("Cannot read index: %v", err)
	}
	if len(index) != 1 {
		t.Fatalf("Expected length of index to be 1, but got %v", len(index))
	}

	var (
		name string
		nsec int64
	)
	for name, nsec = range index {
	}

	ts := time.Unix(0, nsec)
	if time.Since(ts) > 1*time.Second {
		t.Errorf("Timestamp of run is %s but expected something very recent", ts)
	}

	fetched, err := specimen.Fetch(name)
	if err != nil {
		t.Fatalf("Expected no error from Fetch(), got: %v", err)
	}
	if got, want := fetched.Session, "work"; got != want {
		t.Errorf("Expected session '%s', got '%s'", want, got)
	}
	if got, want := fetched.TotalAttempts, 2; got != want {
		t.Errorf("Expected TotalAttempts=%d, got %d", want, got)
	}
}

func TestFSMaintain(t *testing.T) {
	specimen := Storage{Dir: t.TempDir(), ReportExpiry: time.Hour}

	if err := specimen.Store(&types.RunReport{Session: "work"}); err != nil {
		t.Fatalf("Expected no error from Store(), got: %v", err)
	}

	// Fresh reports survive maintenance.
	if err := specimen.Maintain(); err != nil {
		t.Fatalf("Expected no error from Maintain(), got: %v", err)
	}
	index, err := specimen.GetIndex()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(index), 1; got != want {
		t.Fatalf("Expected fresh report to survive, index has %d entries", got)
	}

	// Backdate the index entry past the expiry and maintain again.
	var name string
	for name = range index {
	}
	index[name] = time.Now().Add(-2 * time.Hour).UnixNano()
	if err := writeBackdatedIndex(specimen.Dir, index); err != nil {
		t.Fatal(err)
	}

	if err := specimen.Maintain(); err != nil {
		t.Fatalf("Expected no error from Maintain(), got: %v", err)
	}
	index, err = specimen.GetIndex()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(index), 0; got != want {
		t.Errorf("Expected expired report to be deleted, index has %d entries", got)
	}
	if _, err := os.Stat(filepath.Join(specimen.Dir, name)); !os.IsNotExist(err) {
		t.Errorf("Expected report file to be removed, stat returned: %v", err)
	}
}

func writeBackdatedIndex(dir string, index map[string]int64) error {
	f, err := os.Create(filepath.Join(dir, IndexName))
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(index)
}

func TestNew(t *testing.T) {
	specimen, err := New([]byte(`{"dir": "/var/lib/paneprobe", "report_expiry": 3600000000000}`))
	if err != nil {
		t.Fatalf("Didn't expect an error: %v", err)
	}
	if got, want := specimen.Dir, "/var/lib/paneprobe"; got != want {
		t.Errorf("Expected Dir '%s', got '%s'", want, got)
	}
	if got, want := specimen.ReportExpiry, time.Hour; got != want {
		t.Errorf("Expected ReportExpiry %v, got %v", want, got)
	}
	if got, want := specimen.Type(), Type; got != want {
		t.Errorf("Expected type '%s', got '%s'", want, got)
	}
}
