package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := Outcome{
		SessionID: "session-a",
		EntityID:  27205,
		MatchedID: 70460,
		RemoteKey: "mtime:101",
		URL:       "https://img.example/101.jpg",
		SavePath:  "/stills/盗梦空间/posters/101.jpg",
		Status:    StatusOK,
	}
	if err := store.Record(ctx, first); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if err := store.Record(ctx, Outcome{
		SessionID: "session-a",
		EntityID:  603,
		RemoteKey: "mtime:202",
		URL:       "https://img.example/202.jpg",
		Status:    StatusFailed,
		Error:     "unexpected status 503",
	}); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	outcomes, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(outcomes))
	}
	if outcomes[0].RemoteKey != "mtime:202" {
		t.Fatalf("newest first expected, got %q", outcomes[0].RemoteKey)
	}
	if outcomes[1].SavePath != first.SavePath || outcomes[1].MatchedID != 70460 {
		t.Fatalf("fields lost: %#v", outcomes[1])
	}
	if outcomes[0].CreatedAt.IsZero() {
		t.Fatal("created_at not recorded")
	}
}

func TestRecordRejectsBadStatus(t *testing.T) {
	store := openTestStore(t)
	err := store.Record(context.Background(), Outcome{Status: "maybe"})
	if err == nil {
		t.Fatal("expected error for invalid status")
	}
}

func TestSummarize(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	when := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	for i, status := range []string{StatusOK, StatusOK, StatusFailed} {
		session := "session-a"
		if i == 2 {
			session = "session-b"
		}
		if err := store.Record(ctx, Outcome{
			SessionID: session,
			EntityID:  int64(i),
			RemoteKey: "mtime:" + string(rune('a'+i)),
			URL:       "https://img.example/x.jpg",
			Status:    status,
			CreatedAt: when,
		}); err != nil {
			t.Fatalf("Record returned error: %v", err)
		}
	}

	summary, err := store.Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if summary.Total != 3 || summary.OK != 2 || summary.Failed != 1 || summary.Sessions != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := store.Record(context.Background(), Outcome{
		SessionID: "s", EntityID: 1, RemoteKey: "mtime:1",
		URL: "https://img.example/1.jpg", Status: StatusOK,
	}); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })

	summary, err := reopened.Summarize(context.Background())
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if summary.Total != 1 {
		t.Fatalf("total = %d, want 1", summary.Total)
	}
}
