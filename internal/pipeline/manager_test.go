package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/handiism/concert-scanner/internal/config"
	"github.com/handiism/concert-scanner/internal/extract"
	"github.com/handiism/concert-scanner/internal/model"
	"github.com/handiism/concert-scanner/internal/watch"
)

// stubExtractor returns canned results keyed by media type and records the
// calls it receives.
type stubExtractor struct {
	mu     sync.Mutex
	calls  []string
	result *model.ConcertExtraction
	err    error
	delay  time.Duration
	called chan struct{}
}

func (s *stubExtractor) Extract(ctx context.Context, data []byte, mediaType string) (*model.ConcertExtraction, error) {
	s.mu.Lock()
	s.calls = append(s.calls, mediaType)
	s.mu.Unlock()
	if s.called != nil {
		s.called <- struct{}{}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.result, s.err
}

func (s *stubExtractor) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func posterResult() *model.ConcertExtraction {
	return &model.ConcertExtraction{Bands: []model.BandInfo{{
		BandName: "X",
		Concerts: []model.Concert{
			{Venue: "V1", Location: "L1", Date: "D1", EventName: model.StringPtr("E1")},
			{Venue: "V2", Location: "L2", Date: "D2"},
		},
	}}}
}

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	dir := t.TempDir()
	s := config.DefaultSettings()
	s.WatchFolder = filepath.Join(dir, "watch")
	s.CSVOutput = filepath.Join(dir, "concerts.csv")
	s.SettleDelay = 0
	if err := os.Mkdir(s.WatchFolder, 0755); err != nil {
		t.Fatal(err)
	}
	return s
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("not really an image"), 0644); err != nil {
		t.Fatal(err)
	}
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return records
}

// eventLog collects progress events from any goroutine.
type eventLog struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (l *eventLog) add(e ProgressEvent) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) count(level ProgressLevel) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if e.Level == level {
			n++
		}
	}
	return n
}

func TestManager_ProcessFile(t *testing.T) {
	s := testSettings(t)
	ex := &stubExtractor{result: posterResult()}
	m := NewManager(s, ex, nil)
	if _, err := m.csv.Initialize(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(s.WatchFolder, "poster.jpg")
	writeFile(t, path)

	res := m.ProcessFile(context.Background(), path)
	if res.Kind != KindOK || res.Rows != 2 || res.Err != nil {
		t.Fatalf("ProcessFile() = %+v", res)
	}
	if ex.calls[0] != "image/jpeg" {
		t.Errorf("media type = %q", ex.calls[0])
	}

	records := readRows(t, s.CSVOutput)
	if len(records) != 3 {
		t.Fatalf("got %d lines, want 3", len(records))
	}
	if records[1][1] != "poster.jpg" || records[1][6] != "E1" || records[2][6] != "" {
		t.Errorf("rows = %v", records[1:])
	}

	st := m.Stats()
	if st.Processed != 1 || st.Rows != 2 || st.Failed != 0 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestManager_ProcessFileFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"auth", fmt.Errorf("%w: 401", extract.ErrAuth), KindAuth},
		{"transport", fmt.Errorf("%w: connection refused", extract.ErrTransport), KindTransport},
		{"schema", fmt.Errorf("%w: not json", extract.ErrSchema), KindSchema},
		{"unclassified", errors.New("boom"), KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSettings(t)
			var log eventLog
			m := NewManager(s, &stubExtractor{err: tt.err}, log.add)
			if _, err := m.csv.Initialize(); err != nil {
				t.Fatal(err)
			}

			path := filepath.Join(s.WatchFolder, "bad.png")
			writeFile(t, path)

			res := m.ProcessFile(context.Background(), path)
			if res.Kind != tt.want {
				t.Errorf("Kind = %s, want %s", res.Kind, tt.want)
			}
			if !res.Kind.Failed() || !errors.Is(res.Err, tt.err) {
				t.Errorf("Result = %+v", res)
			}
			if log.count(LevelError) != 1 {
				t.Errorf("expected one error event, got %d", log.count(LevelError))
			}
			if got := len(readRows(t, s.CSVOutput)); got != 1 {
				t.Errorf("failed extraction wrote rows: %d lines", got)
			}
			if m.Stats().Failed != 1 {
				t.Errorf("Failed = %d", m.Stats().Failed)
			}
		})
	}
}

func TestManager_ProcessFileReadFailure(t *testing.T) {
	s := testSettings(t)
	ex := &stubExtractor{result: posterResult()}
	m := NewManager(s, ex, nil)

	res := m.ProcessFile(context.Background(), filepath.Join(s.WatchFolder, "gone.png"))
	if res.Kind != KindRead {
		t.Errorf("Kind = %s, want read failure", res.Kind)
	}
	if ex.callCount() != 0 {
		t.Error("extractor called for unreadable file")
	}
}

func TestManager_ProcessFileSinkFailure(t *testing.T) {
	s := testSettings(t)
	s.CSVOutput = s.WatchFolder // a directory cannot be opened for append
	m := NewManager(s, &stubExtractor{result: posterResult()}, nil)

	path := filepath.Join(s.WatchFolder, "poster.png")
	writeFile(t, path)

	if res := m.ProcessFile(context.Background(), path); res.Kind != KindSink {
		t.Errorf("Kind = %s, want sink failure", res.Kind)
	}
}

func TestManager_ProcessFileSkipsNonImages(t *testing.T) {
	s := testSettings(t)
	ex := &stubExtractor{result: posterResult()}
	m := NewManager(s, ex, nil)

	path := filepath.Join(s.WatchFolder, "notes.txt")
	writeFile(t, path)

	if res := m.ProcessFile(context.Background(), path); res.Kind != KindSkipped {
		t.Errorf("Kind = %s, want skipped", res.Kind)
	}
	if ex.callCount() != 0 {
		t.Error("extractor called for a non-image")
	}
	if m.Stats().Skipped != 1 {
		t.Errorf("Skipped = %d", m.Stats().Skipped)
	}
}

func TestManager_ProcessFileNoConcerts(t *testing.T) {
	s := testSettings(t)
	m := NewManager(s, &stubExtractor{result: &model.ConcertExtraction{}}, nil)
	if _, err := m.csv.Initialize(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(s.WatchFolder, "blank.gif")
	writeFile(t, path)

	res := m.ProcessFile(context.Background(), path)
	if res.Kind != KindOK || res.Rows != 0 {
		t.Errorf("ProcessFile() = %+v", res)
	}
	if got := len(readRows(t, s.CSVOutput)); got != 1 {
		t.Errorf("got %d lines, want header only", got)
	}
}

func TestManager_ProcessFileNilExtraction(t *testing.T) {
	s := testSettings(t)
	m := NewManager(s, &stubExtractor{}, nil)
	if _, err := m.csv.Initialize(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(s.WatchFolder, "odd.png")
	writeFile(t, path)

	res := m.ProcessFile(context.Background(), path)
	if res.Kind != KindSchema || !errors.Is(res.Err, extract.ErrSchema) {
		t.Errorf("ProcessFile() = %+v, want schema failure", res)
	}
	if got := len(readRows(t, s.CSVOutput)); got != 1 {
		t.Errorf("got %d lines, want header only", got)
	}
	if m.Stats().Failed != 1 {
		t.Errorf("Failed = %d", m.Stats().Failed)
	}
}

func TestManager_ProcessFileCalendarExport(t *testing.T) {
	s := testSettings(t)
	s.ICalOutput = filepath.Join(t.TempDir(), "concerts.ics")
	result := &model.ConcertExtraction{Bands: []model.BandInfo{{
		BandName: "A",
		Concerts: []model.Concert{
			{Venue: "V", Location: "L", Date: "2025-11-01"},
			{Venue: "W", Location: "M", Date: "Unknown"},
		},
	}}}
	m := NewManager(s, &stubExtractor{result: result}, nil)
	if _, err := m.csv.Initialize(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(s.WatchFolder, "poster.png")
	writeFile(t, path)

	res := m.ProcessFile(context.Background(), path)
	if res.Kind != KindOK || res.Rows != 2 {
		t.Fatalf("ProcessFile() = %+v", res)
	}
	if _, err := os.Stat(s.ICalOutput); err != nil {
		t.Errorf("calendar not written: %v", err)
	}
}

func TestManager_RunMissingFolder(t *testing.T) {
	s := testSettings(t)
	s.WatchFolder = filepath.Join(t.TempDir(), "missing")
	m := NewManager(s, &stubExtractor{}, nil)

	err := m.Run(context.Background())
	if !errors.Is(err, ErrWatchFolderMissing) {
		t.Fatalf("Run() = %v, want ErrWatchFolderMissing", err)
	}
	if _, err := os.Stat(s.CSVOutput); !os.IsNotExist(err) {
		t.Error("CSV should not be created when the watch folder is missing")
	}
}

func TestManager_RunBacklogAndWatch(t *testing.T) {
	s := testSettings(t)
	writeFile(t, filepath.Join(s.WatchFolder, "poster.jpg"))
	writeFile(t, filepath.Join(s.WatchFolder, "notes.txt"))

	ex := &stubExtractor{result: posterResult(), called: make(chan struct{}, 10)}
	var log eventLog
	m := NewManager(s, ex, log.add)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	select {
	case <-ex.called:
	case <-time.After(5 * time.Second):
		t.Fatal("backlog image not processed")
	}

	deadline := time.Now().Add(5 * time.Second)
	for m.WatcherState() != watch.StateObserving {
		if time.Now().After(deadline) {
			t.Fatal("watcher never started")
		}
		time.Sleep(10 * time.Millisecond)
	}

	writeFile(t, filepath.Join(s.WatchFolder, "later.txt"))
	writeFile(t, filepath.Join(s.WatchFolder, "flyer.png"))

	select {
	case <-ex.called:
	case <-time.After(5 * time.Second):
		t.Fatal("new image not processed")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() after interrupt = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if ex.callCount() != 2 {
		t.Errorf("extractor called %d times, want 2", ex.callCount())
	}
	if got := len(readRows(t, s.CSVOutput)); got != 5 {
		t.Errorf("got %d lines, want header + 4 rows", got)
	}
	st := m.Stats()
	if st.Backlog != 1 || st.BacklogDone != 1 {
		t.Errorf("backlog stats = %+v", st)
	}
	if m.WatcherState() != watch.StateStopped {
		t.Errorf("watcher state = %s after Run", m.WatcherState())
	}
}

func TestManager_RunFinishesInFlightItem(t *testing.T) {
	s := testSettings(t)
	s.ProcessBacklog = false

	ex := &stubExtractor{result: posterResult(), called: make(chan struct{}, 1), delay: 200 * time.Millisecond}
	m := NewManager(s, ex, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for m.WatcherState() != watch.StateObserving {
		if time.Now().After(deadline) {
			t.Fatal("watcher never started")
		}
		time.Sleep(10 * time.Millisecond)
	}

	writeFile(t, filepath.Join(s.WatchFolder, "slow.jpg"))
	select {
	case <-ex.called:
	case <-time.After(5 * time.Second):
		t.Fatal("image not processed")
	}
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if got := len(readRows(t, s.CSVOutput)); got != 3 {
		t.Errorf("in-flight rows not written: %d lines", got)
	}
}

func TestManager_RunProcessesBacklogInOrder(t *testing.T) {
	s := testSettings(t)
	for _, name := range []string{"c.png", "a.jpg", "b.webp"} {
		writeFile(t, filepath.Join(s.WatchFolder, name))
	}

	var mu sync.Mutex
	var order []string
	m := NewManager(s, &stubExtractor{result: posterResult()}, func(e ProgressEvent) {
		if e.Level == LevelSuccess {
			mu.Lock()
			order = append(order, e.File)
			mu.Unlock()
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for m.WatcherState() != watch.StateObserving {
		if time.Now().After(deadline) {
			t.Fatal("watcher never started")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	want := []string{"a.jpg", "b.webp", "c.png"}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Errorf("backlog order = %v, want %v", order, want)
	}
}
