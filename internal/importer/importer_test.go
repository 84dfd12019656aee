package importer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/claude/liftlog/internal/ingest"
)

const sampleCSV = "session_id,exercise,type,bodyweight_pct,date,complete_reps,negative_reps,failed_reps,sets,weight_kg,rest_sec,total_load\n" +
	",Squat,weight,,2025-06-01,5,0,0,5,100,180,2500\n" +
	",Squat,weight,,not-a-date,5,0,0,5,100,180,2500\n"

type fakeIngester struct {
	calls []string
	fail  map[string]bool
}

func (f *fakeIngester) Import(_ context.Context, source string, r io.Reader) (*ingest.Result, error) {
	f.calls = append(f.calls, source)
	if f.fail[source] {
		return nil, errors.New("boom")
	}
	if _, err := io.ReadAll(r); err != nil {
		return nil, err
	}
	return &ingest.Result{RowsReceived: 2, RowsSkipped: 1, SessionsInserted: 1}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func sampleDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.csv"), sampleCSV)
	writeFile(t, filepath.Join(dir, "a.CSV"), sampleCSV)
	writeFile(t, filepath.Join(dir, "nested", "c.csv"), sampleCSV)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignore me")
	writeFile(t, filepath.Join(dir, ".hidden", "d.csv"), sampleCSV)
	return dir
}

// TestFindCSV verifies the walk picks up .csv files in any case, recurses and
// skips hidden directories.
func TestFindCSV(t *testing.T) {
	dir := sampleDir(t)
	files, err := findCSV(dir)
	if err != nil {
		t.Fatalf("findCSV: %v", err)
	}
	var rel []string
	for _, f := range files {
		r, _ := filepath.Rel(dir, f)
		rel = append(rel, filepath.ToSlash(r))
	}
	want := []string{"a.CSV", "b.csv", "nested/c.csv"}
	if diff := cmp.Diff(want, rel); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

// TestImportSkipsUnchangedFiles verifies a second run against the same state
// database does not re-import anything.
func TestImportSkipsUnchangedFiles(t *testing.T) {
	dir := sampleDir(t)
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStateDB: %v", err)
	}
	defer state.Close()

	ing := &fakeIngester{}
	stats, err := New(ing, state, time.UTC, discardLogger(), false).Import(context.Background(), dir)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	want := Stats{FilesProcessed: 3, RowsReceived: 6, RowsSkipped: 3, SessionsInserted: 3}
	if diff := cmp.Diff(want, *stats); diff != "" {
		t.Errorf("first run stats (-want +got):\n%s", diff)
	}

	stats, err = New(ing, state, time.UTC, discardLogger(), false).Import(context.Background(), dir)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.FilesSkipped != 3 || stats.FilesProcessed != 0 {
		t.Errorf("second run stats = %+v, want 3 skipped", stats)
	}
	if len(ing.calls) != 3 {
		t.Errorf("ingester calls = %d, want 3", len(ing.calls))
	}

	// a changed file is imported again
	writeFile(t, filepath.Join(dir, "b.csv"), sampleCSV+",Squat,weight,,2025-06-02,5,0,0,5,100,180,2500\n")
	stats, err = New(ing, state, time.UTC, discardLogger(), false).Import(context.Background(), dir)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.FilesProcessed != 1 || stats.FilesSkipped != 2 {
		t.Errorf("after change stats = %+v, want 1 processed 2 skipped", stats)
	}
}

// TestImportContinuesAfterFailure verifies a failing file is counted and not
// marked as imported.
func TestImportContinuesAfterFailure(t *testing.T) {
	dir := sampleDir(t)
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStateDB: %v", err)
	}
	defer state.Close()

	ing := &fakeIngester{fail: map[string]bool{"b.csv": true}}
	stats, err := New(ing, state, time.UTC, discardLogger(), false).Import(context.Background(), dir)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.FilesErrored != 1 || stats.FilesProcessed != 2 {
		t.Errorf("stats = %+v, want 1 errored 2 processed", stats)
	}

	hash, _ := HashFile(filepath.Join(dir, "b.csv"))
	done, err := state.IsImported("b.csv", int64(len(sampleCSV)), hash)
	if err != nil {
		t.Fatalf("IsImported: %v", err)
	}
	if done {
		t.Error("failed file marked as imported")
	}
}

// TestImportDryRun verifies dry runs parse files without calling the ingester.
func TestImportDryRun(t *testing.T) {
	dir := sampleDir(t)
	ing := &fakeIngester{}
	stats, err := New(ing, nil, time.UTC, discardLogger(), true).Import(context.Background(), dir)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(ing.calls) != 0 {
		t.Errorf("ingester called %d times in dry run", len(ing.calls))
	}
	want := Stats{FilesProcessed: 3, RowsReceived: 6, RowsSkipped: 3}
	if diff := cmp.Diff(want, *stats); diff != "" {
		t.Errorf("stats (-want +got):\n%s", diff)
	}
}

// TestStateDBMarkReplaces verifies re-marking a path replaces its size and hash.
func TestStateDBMarkReplaces(t *testing.T) {
	state, err := OpenStateDB(filepath.Join(t.TempDir(), "nested"))
	if err != nil {
		t.Fatalf("OpenStateDB: %v", err)
	}
	defer state.Close()

	if err := state.MarkImported("log.csv", 10, "aaa", 3); err != nil {
		t.Fatalf("MarkImported: %v", err)
	}
	if err := state.MarkImported("log.csv", 12, "bbb", 4); err != nil {
		t.Fatalf("MarkImported: %v", err)
	}

	tests := []struct {
		size int64
		hash string
		want bool
	}{
		{10, "aaa", false},
		{12, "bbb", true},
		{12, "aaa", false},
	}
	for _, tt := range tests {
		got, err := state.IsImported("log.csv", tt.size, tt.hash)
		if err != nil {
			t.Fatalf("IsImported: %v", err)
		}
		if got != tt.want {
			t.Errorf("IsImported(%d, %s) = %v, want %v", tt.size, tt.hash, got, tt.want)
		}
	}
}
