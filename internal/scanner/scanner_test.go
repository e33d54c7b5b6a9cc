package scanner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"github.com/blackwell-systems/diskscope/internal/inventory"
)

// fakePolicy visits everything except the configured paths and can force
// stat failures, so skip and failure handling are testable on any host.
type fakePolicy struct {
	skip     map[string]bool
	statFail map[string]bool
}

func (p *fakePolicy) ShouldSkip(path string) bool { return p.skip[path] }

func (p *fakePolicy) Stat(path string) (inventory.FileRecord, bool) {
	if p.statFail[path] {
		return inventory.FileRecord{}, false
	}
	info, err := os.Lstat(path)
	if err != nil {
		return inventory.FileRecord{}, false
	}
	return inventory.FileRecord{
		Path:       path,
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
		IsSymlink:  info.Mode()&os.ModeSymlink != 0,
	}, true
}

func (p *fakePolicy) SupportsLinkIdentity() bool { return false }

func (p *fakePolicy) OS() string { return "fake" }

func newTestEngine() (*Engine, *fakePolicy) {
	policy := &fakePolicy{
		skip:     make(map[string]bool),
		statFail: make(map[string]bool),
	}
	return New(policy, nil), policy
}

// writeFile creates path (and its parents) holding size bytes.
func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create parent dirs for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte("x"), size), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func entrySizes(entries []inventory.Entry) map[string]int64 {
	out := make(map[string]int64, len(entries))
	for _, e := range entries {
		out[e.Path] = e.Size
	}
	return out
}

func TestScanAggregatesBottomUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "top.txt"), 25)
	writeFile(t, filepath.Join(root, "a", "1.txt"), 100)
	writeFile(t, filepath.Join(root, "a", "2.txt"), 200)
	writeFile(t, filepath.Join(root, "a", "sub", "3.txt"), 50)
	writeFile(t, filepath.Join(root, "b", "4.bin"), 500)

	engine, _ := newTestEngine()
	snap, err := engine.Scan(context.Background(), root, Options{TopK: 100})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if snap.TotalSize != 875 {
		t.Errorf("TotalSize = %d, want 875", snap.TotalSize)
	}
	if snap.TotalFiles != 5 {
		t.Errorf("TotalFiles = %d, want 5", snap.TotalFiles)
	}
	if snap.TotalDirs != 4 {
		t.Errorf("TotalDirs = %d, want 4", snap.TotalDirs)
	}
	if snap.AccessFailures != 0 {
		t.Errorf("AccessFailures = %d, want 0", snap.AccessFailures)
	}

	// Every directory total must equal direct file sizes plus child totals.
	dirs := entrySizes(snap.TopDirectories)
	want := map[string]int64{
		root:                            875,
		filepath.Join(root, "a"):        350,
		filepath.Join(root, "a", "sub"): 50,
		filepath.Join(root, "b"):        500,
	}
	if !reflect.DeepEqual(dirs, want) {
		t.Errorf("directory totals = %v, want %v", dirs, want)
	}

	wantExts := map[string]int64{".txt": 375, ".bin": 500}
	if !reflect.DeepEqual(snap.Extensions, wantExts) {
		t.Errorf("Extensions = %v, want %v", snap.Extensions, wantExts)
	}
}

func TestScanTopListsBoundedAndOrdered(t *testing.T) {
	root := t.TempDir()
	sizes := []int{3, 18, 7, 42, 1, 29, 16, 8}
	for i, size := range sizes {
		writeFile(t, filepath.Join(root, "f"+string(rune('a'+i))+".dat"), size)
	}

	engine, _ := newTestEngine()
	snap, err := engine.Scan(context.Background(), root, Options{TopK: 3})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(snap.TopFiles) != 3 {
		t.Fatalf("len(TopFiles) = %d, want 3", len(snap.TopFiles))
	}

	wantSizes := []int64{42, 29, 18}
	for i, e := range snap.TopFiles {
		if e.Size != wantSizes[i] {
			t.Errorf("TopFiles[%d].Size = %d, want %d", i, e.Size, wantSizes[i])
		}
	}
}

func TestScanTopFilesTieBreak(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"c.dat", "a.dat", "b.dat"} {
		writeFile(t, filepath.Join(root, name), 10)
	}

	engine, _ := newTestEngine()
	snap, err := engine.Scan(context.Background(), root, Options{TopK: 2})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	want := []inventory.Entry{
		{Path: filepath.Join(root, "a.dat"), Size: 10},
		{Path: filepath.Join(root, "b.dat"), Size: 10},
	}
	if !reflect.DeepEqual(snap.TopFiles, want) {
		t.Errorf("TopFiles = %v, want %v", snap.TopFiles, want)
	}
}

func TestScanDeterminism(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "x", "one.log"), 64)
	writeFile(t, filepath.Join(root, "x", "two.log"), 128)
	writeFile(t, filepath.Join(root, "y", "three.tmp"), 256)

	engine, _ := newTestEngine()
	first, err := engine.Scan(context.Background(), root, Options{TopK: 5})
	if err != nil {
		t.Fatalf("first Scan failed: %v", err)
	}
	second, err := engine.Scan(context.Background(), root, Options{TopK: 5})
	if err != nil {
		t.Fatalf("second Scan failed: %v", err)
	}

	if first.TotalSize != second.TotalSize {
		t.Errorf("TotalSize differs: %d vs %d", first.TotalSize, second.TotalSize)
	}
	if first.TotalFiles != second.TotalFiles {
		t.Errorf("TotalFiles differs: %d vs %d", first.TotalFiles, second.TotalFiles)
	}
	if !reflect.DeepEqual(first.Extensions, second.Extensions) {
		t.Errorf("Extensions differ: %v vs %v", first.Extensions, second.Extensions)
	}
	if !reflect.DeepEqual(first.TopDirectories, second.TopDirectories) {
		t.Errorf("TopDirectories differ: %v vs %v", first.TopDirectories, second.TopDirectories)
	}
	if !reflect.DeepEqual(first.TopFiles, second.TopFiles) {
		t.Errorf("TopFiles differ: %v vs %v", first.TopFiles, second.TopFiles)
	}
}

func TestScanPrunedSubtreeContributesNothing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep", "small.txt"), 10)
	big := filepath.Join(root, "skipme", "huge.bin")
	writeFile(t, big, 1<<20)

	engine, policy := newTestEngine()
	policy.skip[filepath.Join(root, "skipme")] = true

	snap, err := engine.Scan(context.Background(), root, Options{TopK: 10})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if snap.TotalSize != 10 {
		t.Errorf("TotalSize = %d, want 10 (pruned subtree leaked)", snap.TotalSize)
	}
	if snap.TotalFiles != 1 {
		t.Errorf("TotalFiles = %d, want 1", snap.TotalFiles)
	}
	if snap.TotalDirs != 2 {
		t.Errorf("TotalDirs = %d, want 2 (root and keep)", snap.TotalDirs)
	}
	for _, e := range snap.TopFiles {
		if e.Path == big {
			t.Error("pruned file appeared in TopFiles")
		}
	}
}

func TestScanRootNotAccessible(t *testing.T) {
	engine, _ := newTestEngine()

	_, err := engine.Scan(context.Background(), filepath.Join(t.TempDir(), "missing"), Options{})
	if !errors.Is(err, ErrRootNotAccessible) {
		t.Errorf("missing root: err = %v, want ErrRootNotAccessible", err)
	}

	file := filepath.Join(t.TempDir(), "plain.txt")
	writeFile(t, file, 1)
	_, err = engine.Scan(context.Background(), file, Options{})
	if !errors.Is(err, ErrRootNotAccessible) {
		t.Errorf("file root: err = %v, want ErrRootNotAccessible", err)
	}
}

func TestScanContinuesPastStatFailures(t *testing.T) {
	root := t.TempDir()
	good := filepath.Join(root, "good.txt")
	bad := filepath.Join(root, "bad.txt")
	writeFile(t, good, 40)
	writeFile(t, bad, 60)

	engine, policy := newTestEngine()
	policy.statFail[bad] = true

	snap, err := engine.Scan(context.Background(), root, Options{TopK: 10})
	if err != nil {
		t.Fatalf("Scan should survive per-entry failures: %v", err)
	}

	if snap.AccessFailures != 1 {
		t.Errorf("AccessFailures = %d, want 1", snap.AccessFailures)
	}
	if snap.TotalSize != 40 {
		t.Errorf("TotalSize = %d, want 40 (failed entry excluded)", snap.TotalSize)
	}
	if snap.TotalFiles != 1 {
		t.Errorf("TotalFiles = %d, want 1", snap.TotalFiles)
	}
}

func TestScanCountsUnreadableDirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("directory permission bits are not enforced the same way on windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ok.txt"), 5)
	locked := filepath.Join(root, "locked")
	writeFile(t, filepath.Join(locked, "secret.txt"), 7)
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("failed to chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	engine, _ := newTestEngine()
	snap, err := engine.Scan(context.Background(), root, Options{TopK: 10})
	if err != nil {
		t.Fatalf("Scan should survive an unreadable subdirectory: %v", err)
	}

	if snap.AccessFailures == 0 {
		t.Error("expected a non-zero access failure count")
	}
	if snap.TotalDirs != 2 {
		t.Errorf("TotalDirs = %d, want 2 (unreadable directory still counted)", snap.TotalDirs)
	}
	if snap.TotalSize != 5 {
		t.Errorf("TotalSize = %d, want 5", snap.TotalSize)
	}
}

func TestScanRetainFilesToggle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "one.txt"), 11)
	writeFile(t, filepath.Join(root, "nested", "two.txt"), 22)

	engine, _ := newTestEngine()

	dropped, err := engine.Scan(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if dropped.HasFileList() {
		t.Error("file list retained without RetainFiles")
	}

	kept, err := engine.Scan(context.Background(), root, Options{RetainFiles: true})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(kept.Files) != 2 {
		t.Fatalf("len(Files) = %d, want 2", len(kept.Files))
	}
	for _, rec := range kept.Files {
		if rec.ModifiedAt.IsZero() {
			t.Errorf("record %s has zero ModifiedAt", rec.Path)
		}
	}
}

func TestScanDoesNotTraverseSymlinkedDirectories(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on windows")
	}

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "real", "big.bin"), 4096)
	link := filepath.Join(root, "mirror")
	if err := os.Symlink(filepath.Join(root, "real"), link); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}

	engine, _ := newTestEngine()
	snap, err := engine.Scan(context.Background(), root, Options{TopK: 10, RetainFiles: true})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	// The link is recorded as itself, not walked into: one real file plus
	// the link entry, and the linked content counted exactly once.
	if snap.TotalFiles != 2 {
		t.Errorf("TotalFiles = %d, want 2", snap.TotalFiles)
	}
	if snap.TotalDirs != 2 {
		t.Errorf("TotalDirs = %d, want 2", snap.TotalDirs)
	}

	var linkRec *inventory.FileRecord
	for i := range snap.Files {
		if snap.Files[i].Path == link {
			linkRec = &snap.Files[i]
		}
	}
	if linkRec == nil {
		t.Fatal("symlink record missing from file list")
	}
	if !linkRec.IsSymlink {
		t.Error("symlink record not flagged")
	}
	if snap.TotalSize != 4096+linkRec.Size {
		t.Errorf("TotalSize = %d, want %d", snap.TotalSize, 4096+linkRec.Size)
	}
}

func TestScanCancellation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine, _ := newTestEngine()
	_, err := engine.Scan(ctx, root, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestScanProgressCounters(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), 30)
	writeFile(t, filepath.Join(root, "sub", "b.txt"), 70)

	engine, _ := newTestEngine()
	if _, err := engine.Scan(context.Background(), root, Options{}); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	progress := engine.Progress()
	if progress.Files != 2 {
		t.Errorf("Progress.Files = %d, want 2", progress.Files)
	}
	if progress.Dirs != 2 {
		t.Errorf("Progress.Dirs = %d, want 2", progress.Dirs)
	}
	if progress.Bytes != 100 {
		t.Errorf("Progress.Bytes = %d, want 100", progress.Bytes)
	}
}

func TestScanEmptyDirectory(t *testing.T) {
	root := t.TempDir()

	engine, _ := newTestEngine()
	snap, err := engine.Scan(context.Background(), root, Options{TopK: 5})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if snap.TotalSize != 0 || snap.TotalFiles != 0 {
		t.Errorf("empty tree: TotalSize=%d TotalFiles=%d, want zeros", snap.TotalSize, snap.TotalFiles)
	}
	if snap.TotalDirs != 1 {
		t.Errorf("TotalDirs = %d, want 1", snap.TotalDirs)
	}
	if len(snap.TopDirectories) != 1 || snap.TopDirectories[0].Size != 0 {
		t.Errorf("TopDirectories = %v, want the root with size 0", snap.TopDirectories)
	}
}
