package ledger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLedgerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "downloaded.json")

	l := Load(path, nil)
	if l.HasEntity(27205) {
		t.Fatal("fresh ledger should be empty")
	}

	l.MarkEntity(27205)
	l.MarkAsset(27205, "mtime:101")
	l.MarkAsset(27205, "mtime:102")
	l.MarkAsset(603, "mtime_url:https://img.example/a.jpg")
	if err := l.Save(); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	reloaded := Load(path, nil)
	if !reloaded.HasEntity(27205) {
		t.Fatal("entity lost across reload")
	}
	if !reloaded.HasAsset(27205, "mtime:101") || !reloaded.HasAsset(603, "mtime_url:https://img.example/a.jpg") {
		t.Fatal("assets lost across reload")
	}
	if reloaded.HasAsset(27205, "mtime:999") {
		t.Fatal("unexpected asset present")
	}
	if reloaded.EntityCount() != 1 || reloaded.AssetCount() != 3 {
		t.Fatalf("counts = %d/%d, want 1/3", reloaded.EntityCount(), reloaded.AssetCount())
	}
}

func TestLedgerCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "downloaded.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := Load(path, nil)
	if l.EntityCount() != 0 {
		t.Fatal("corrupt ledger should reinitialize empty")
	}

	// Saving over the corrupt file must work.
	l.MarkEntity(1)
	if err := l.Save(); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if !Load(path, nil).HasEntity(1) {
		t.Fatal("entity lost after recovery save")
	}
}

func TestFailuresDedupeAndRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed_downloads.json")

	f := LoadFailures(path, nil)
	f.Add(FailedJob{URL: "https://img.example/a.jpg", RemoteKey: "mtime:1", EntityID: 10})
	f.Add(FailedJob{URL: "https://img.example/b.jpg", RemoteKey: "mtime:2", EntityID: 10})
	f.Add(FailedJob{URL: "https://img.example/a2.jpg", RemoteKey: "mtime:1", EntityID: 10})
	if f.Len() != 2 {
		t.Fatalf("len = %d, want dedupe by remote key", f.Len())
	}
	if f.Items()[0].URL != "https://img.example/a2.jpg" {
		t.Fatal("duplicate add should replace the earlier entry")
	}

	f.Remove("mtime:1")
	if f.Len() != 1 || f.Items()[0].RemoteKey != "mtime:2" {
		t.Fatalf("unexpected items after remove: %#v", f.Items())
	}
	// Removing a missing key is a no-op.
	f.Remove("mtime:404")
	if f.Len() != 1 {
		t.Fatal("remove of missing key changed the list")
	}

	if err := f.Save(); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	reloaded := LoadFailures(path, nil)
	if reloaded.Len() != 1 || reloaded.Items()[0].RemoteKey != "mtime:2" {
		t.Fatalf("unexpected items after reload: %#v", reloaded.Items())
	}
}

func TestFailuresReplace(t *testing.T) {
	f := LoadFailures(filepath.Join(t.TempDir(), "failed_downloads.json"), nil)
	f.Add(FailedJob{RemoteKey: "mtime:1"})
	f.Add(FailedJob{RemoteKey: "mtime:2"})

	f.Replace([]FailedJob{{RemoteKey: "mtime:3"}})
	if f.Len() != 1 || f.Items()[0].RemoteKey != "mtime:3" {
		t.Fatalf("unexpected items after replace: %#v", f.Items())
	}

	f.Replace(nil)
	if f.Len() != 0 {
		t.Fatal("replace with nil should clear the list")
	}
}

func TestCheckpointDefaultsToPageOne(t *testing.T) {
	dir := t.TempDir()

	c := LoadCheckpoint(filepath.Join(dir, "scan_state.json"), nil)
	if c.LastPage() != 1 {
		t.Fatalf("fresh checkpoint = %d, want 1", c.LastPage())
	}

	c.SetLastPage(42)
	if err := c.Save(); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if got := LoadCheckpoint(filepath.Join(dir, "scan_state.json"), nil).LastPage(); got != 42 {
		t.Fatalf("reloaded checkpoint = %d, want 42", got)
	}

	c.SetLastPage(0)
	if c.LastPage() != 1 {
		t.Fatalf("page floor = %d, want 1", c.LastPage())
	}
}

func TestCheckpointCorruptFileDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan_state.json")
	if err := os.WriteFile(path, []byte("[[["), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := LoadCheckpoint(path, nil).LastPage(); got != 1 {
		t.Fatalf("corrupt checkpoint = %d, want 1", got)
	}
}
