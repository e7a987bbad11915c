package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"stillsync/internal/breaker"
	"stillsync/internal/catalog"
	"stillsync/internal/fetch"
	"stillsync/internal/ledger"
)

type stubAssetLister struct {
	assets map[int64][]catalog.Asset
	err    error
}

func (s *stubAssetLister) ListAssets(_ context.Context, movieID int64) ([]catalog.Asset, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.assets[movieID], nil
}

type fixture struct {
	pipeline *Pipeline
	ledger   *ledger.Ledger
	failures *ledger.Failures
	breaker  *breaker.Breaker
	library  string
}

func newFixture(t *testing.T, lister catalog.AssetLister) *fixture {
	t.Helper()
	dir := t.TempDir()
	led := ledger.Load(filepath.Join(dir, "downloaded.json"), nil)
	failures := ledger.LoadFailures(filepath.Join(dir, "failed_downloads.json"), nil)
	brk := breaker.New(100, time.Millisecond, time.Millisecond, nil)
	library := filepath.Join(dir, "library")

	p := New(Options{
		AssetLister: lister,
		Fetcher: fetch.New(fetch.Options{
			Attempts:    2,
			InitialWait: time.Millisecond,
			MaxWait:     2 * time.Millisecond,
		}),
		Pacer:      fetch.NewPacer(0, 0, time.Second),
		Breaker:    brk,
		Ledger:     led,
		Failures:   failures,
		LibraryDir: library,
		Workers:    1,
		SessionID:  "test-session",
	})
	return &fixture{pipeline: p, ledger: led, failures: failures, breaker: brk, library: library}
}

func TestExpandAndDispatchDownloadsNewSkipsExisting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("image-bytes"))
	}))
	t.Cleanup(server.Close)

	lister := &stubAssetLister{assets: map[int64][]catalog.Asset{
		70460: {
			{ID: 101, URL: server.URL + "/images/101.jpg", TypeCode: 6},
			{ID: 102, URL: server.URL + "/images/102.jpg", TypeCode: 1},
		},
	}}
	fx := newFixture(t, lister)
	entity := catalog.Entity{ID: 27205, TitlePrimary: "盗梦空间", Year: 2010}

	// One asset is already recorded.
	fx.ledger.MarkAsset(entity.ID, "mtime:102")

	stats, err := fx.pipeline.ExpandAndDispatch(context.Background(), entity, 70460)
	if err != nil {
		t.Fatalf("ExpandAndDispatch returned error: %v", err)
	}
	if stats.New != 1 || stats.Skipped != 1 || stats.Failed != 0 {
		t.Fatalf("stats = %+v, want {New:1 Skipped:1 Failed:0}", stats)
	}

	savePath := filepath.Join(fx.library, "盗梦空间", "stills", "101.jpg")
	data, err := os.ReadFile(savePath)
	if err != nil {
		t.Fatalf("downloaded file missing: %v", err)
	}
	if string(data) != "image-bytes" {
		t.Fatalf("file content = %q", data)
	}
	if !fx.ledger.HasAsset(entity.ID, "mtime:101") {
		t.Fatal("asset not recorded in ledger")
	}

	// A second run has nothing left to do.
	stats, err = fx.pipeline.ExpandAndDispatch(context.Background(), entity, 70460)
	if err != nil {
		t.Fatalf("second ExpandAndDispatch returned error: %v", err)
	}
	if stats.New != 0 || stats.Skipped != 2 {
		t.Fatalf("second run stats = %+v, want all skipped", stats)
	}
}

func TestExpandAndDispatchRecordsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	lister := &stubAssetLister{assets: map[int64][]catalog.Asset{
		5: {{ID: 201, URL: server.URL + "/images/201.jpg", TypeCode: 6}},
	}}
	fx := newFixture(t, lister)

	stats, err := fx.pipeline.ExpandAndDispatch(context.Background(), catalog.Entity{ID: 9, TitlePrimary: "失败案例"}, 5)
	if err != nil {
		t.Fatalf("ExpandAndDispatch returned error: %v", err)
	}
	if stats.Failed != 1 || stats.New != 0 {
		t.Fatalf("stats = %+v, want one failure", stats)
	}
	if fx.breaker.Failures() != 1 {
		t.Fatalf("breaker failures = %d, want 1", fx.breaker.Failures())
	}

	items := fx.failures.Items()
	if len(items) != 1 || items[0].RemoteKey != "mtime:201" || items[0].EntityID != 9 {
		t.Fatalf("unexpected failure list: %#v", items)
	}
	if items[0].SavePath == "" || items[0].Label != "失败案例" {
		t.Fatalf("failure entry missing retry context: %#v", items[0])
	}
}

func TestExpandAndDispatchListingError(t *testing.T) {
	fx := newFixture(t, &stubAssetLister{err: context.DeadlineExceeded})
	if _, err := fx.pipeline.ExpandAndDispatch(context.Background(), catalog.Entity{ID: 1}, 2); err == nil {
		t.Fatal("expected error when asset listing fails")
	}
}

func TestRetryFailedClearsRecovered(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("recovered"))
	}))
	t.Cleanup(server.Close)

	fx := newFixture(t, &stubAssetLister{})
	savePath := filepath.Join(fx.library, "movie_9", "stills", "301.jpg")
	fx.failures.Add(ledger.FailedJob{
		URL:       server.URL + "/images/301.jpg",
		SavePath:  savePath,
		EntityID:  9,
		RemoteKey: "mtime:301",
		Label:     "恢复测试",
	})

	stats, err := fx.pipeline.RetryFailed(context.Background())
	if err != nil {
		t.Fatalf("RetryFailed returned error: %v", err)
	}
	if stats.New != 1 || stats.Failed != 0 {
		t.Fatalf("stats = %+v, want one recovery", stats)
	}
	if fx.failures.Len() != 0 {
		t.Fatalf("failure list len = %d, want empty", fx.failures.Len())
	}
	if !fx.ledger.HasAsset(9, "mtime:301") {
		t.Fatal("recovered asset not recorded in ledger")
	}
	if _, err := os.Stat(savePath); err != nil {
		t.Fatalf("recovered file missing: %v", err)
	}
}

func TestRetryFailedKeepsStillFailing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	fx := newFixture(t, &stubAssetLister{})
	fx.failures.Add(ledger.FailedJob{
		URL:       server.URL + "/images/404.jpg",
		SavePath:  filepath.Join(fx.library, "movie_1", "stills", "404.jpg"),
		EntityID:  1,
		RemoteKey: "mtime:404",
	})

	stats, err := fx.pipeline.RetryFailed(context.Background())
	if err != nil {
		t.Fatalf("RetryFailed returned error: %v", err)
	}
	if stats.Failed != 1 {
		t.Fatalf("stats = %+v, want one failure", stats)
	}
	if fx.failures.Len() != 1 || fx.failures.Items()[0].RemoteKey != "mtime:404" {
		t.Fatalf("still-failing job lost from list: %#v", fx.failures.Items())
	}
}

func TestRetryFailedEmptyList(t *testing.T) {
	fx := newFixture(t, &stubAssetLister{})
	stats, err := fx.pipeline.RetryFailed(context.Background())
	if err != nil {
		t.Fatalf("RetryFailed returned error: %v", err)
	}
	if stats != (Stats{}) {
		t.Fatalf("stats = %+v, want zero", stats)
	}
}

func TestAssetFileName(t *testing.T) {
	cases := []struct {
		asset catalog.Asset
		want  string
	}{
		{catalog.Asset{ID: 101, URL: "https://img.example/a/b/original.jpeg"}, "101.jpeg"},
		{catalog.Asset{ID: 102, URL: "https://img.example/no-extension"}, "102.jpg"},
		{catalog.Asset{URL: "https://img.example/a/raw-name.png"}, "raw-name.png"},
	}
	for _, tc := range cases {
		if got := assetFileName(tc.asset); got != tc.want {
			t.Errorf("assetFileName(%+v) = %q, want %q", tc.asset, got, tc.want)
		}
	}
}
