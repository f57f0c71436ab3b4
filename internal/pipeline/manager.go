package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/handiism/concert-scanner/internal/config"
	"github.com/handiism/concert-scanner/internal/extract"
	ioutils "github.com/handiism/concert-scanner/internal/io"
	"github.com/handiism/concert-scanner/internal/model"
	"github.com/handiism/concert-scanner/internal/sink"
	"github.com/handiism/concert-scanner/internal/watch"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a pipeline progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel

	// File is the base name of the image concerned, if any.
	File string
	// Rows is the number of rows written, set on success events.
	Rows int
}

// ErrWatchFolderMissing is returned by Run when the watch folder does not
// exist or is not a directory.
var ErrWatchFolderMissing = errors.New("watch folder does not exist")

// Stats is a snapshot of the pipeline counters.
type Stats struct {
	Processed   int64
	Failed      int64
	Skipped     int64
	Rows        int64
	Backlog     int64
	BacklogDone int64
}

// Manager runs the scan pipeline: settle, read, normalise, extract, append.
type Manager struct {
	settings  *config.Settings
	extractor extract.Extractor
	csv       *sink.CSV
	extras    []sink.Sink
	images    *ioutils.ImageService
	exts      ioutils.ExtensionSet

	processed   atomic.Int64
	failed      atomic.Int64
	skipped     atomic.Int64
	rows        atomic.Int64
	backlog     atomic.Int64
	backlogDone atomic.Int64

	watcher *watch.Watcher
	mu      sync.Mutex

	onProgress func(ProgressEvent)
}

// NewManager creates a Manager writing to the sinks named in settings.
func NewManager(settings *config.Settings, extractor extract.Extractor, onProgress func(ProgressEvent)) *Manager {
	m := &Manager{
		settings:   settings,
		extractor:  extractor,
		csv:        sink.NewCSV(settings.CSVOutput),
		images:     ioutils.NewImageService(settings.MaxImageSize, settings.AutoOrient),
		exts:       ioutils.NewExtensionSet(settings.ImageExtensions...),
		onProgress: onProgress,
	}
	if settings.ICalOutput != "" {
		m.extras = append(m.extras, sink.NewICal(settings.ICalOutput))
	}
	return m
}

// Stats returns the current counters. Safe to call from any goroutine.
func (m *Manager) Stats() Stats {
	return Stats{
		Processed:   m.processed.Load(),
		Failed:      m.failed.Load(),
		Skipped:     m.skipped.Load(),
		Rows:        m.rows.Load(),
		Backlog:     m.backlog.Load(),
		BacklogDone: m.backlogDone.Load(),
	}
}

// WatcherState returns the state of the folder watcher, idle before Run
// has started it.
func (m *Manager) WatcherState() watch.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watcher == nil {
		return watch.StateIdle
	}
	return m.watcher.State()
}

// Run processes the backlog and then every image added to the watch folder
// until ctx is cancelled. It returns nil after a clean shutdown.
//
// Items are processed on a context detached from ctx, so an extraction in
// flight when ctx is cancelled completes and its rows are written.
func (m *Manager) Run(ctx context.Context) error {
	dir := m.settings.WatchFolder
	if !ioutils.IsDir(dir) {
		return fmt.Errorf("%w: %s", ErrWatchFolderMissing, dir)
	}

	created, err := m.csv.Initialize()
	if err != nil {
		return fmt.Errorf("initialize %s: %w", m.csv.Path(), err)
	}
	if created {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Created %s", m.csv.Path()), Level: LevelInfo})
	}

	work := context.WithoutCancel(ctx)
	w := watch.NewWatcher(dir, m.exts, func(path string) {
		m.ProcessFile(work, path)
	})
	w.OnError(func(err error) {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Watcher error: %v", err), Level: LevelWarning})
	})

	m.mu.Lock()
	m.watcher = w
	m.mu.Unlock()

	if m.settings.ProcessBacklog {
		if err := m.processBacklog(ctx, work, w); err != nil {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Error listing %s: %v", dir, err), Level: LevelError})
		}
	}

	if ctx.Err() != nil {
		w.Stop()
		return nil
	}

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	m.progress(ProgressEvent{Message: fmt.Sprintf("Watching %s for new images", dir), Level: LevelInfo})

	<-ctx.Done()

	m.progress(ProgressEvent{Message: "Stopping watcher", Level: LevelInfo})
	if err := w.Stop(); err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error stopping watcher: %v", err), Level: LevelWarning})
	}
	return nil
}

// processBacklog handles files already in the folder, one at a time. It
// stops between items once ctx is cancelled.
func (m *Manager) processBacklog(ctx, work context.Context, w *watch.Watcher) error {
	files, err := w.Backlog()
	if err != nil {
		return err
	}
	m.backlog.Store(int64(len(files)))
	if len(files) == 0 {
		return nil
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Processing %d existing images", len(files)), Level: LevelInfo})
	for _, path := range files {
		if ctx.Err() != nil {
			return nil
		}
		m.processFile(work, path, false)
		m.backlogDone.Add(1)
	}
	return nil
}

// ProcessFile runs the full pipeline for one file and reports the outcome.
// Failures are reported through progress events and the returned Result;
// they never stop the caller.
func (m *Manager) ProcessFile(ctx context.Context, path string) Result {
	return m.processFile(ctx, path, true)
}

func (m *Manager) processFile(ctx context.Context, path string, settle bool) Result {
	name := filepath.Base(path)

	if !m.exts.Match(path) {
		m.skipped.Add(1)
		m.progress(ProgressEvent{Message: fmt.Sprintf("Skipping %s: not an image", name), Level: LevelVerbose, File: name})
		return Result{Path: path, Kind: KindSkipped}
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("New image detected: %s", name), Level: LevelInfo, File: name})

	if settle {
		m.settle(ctx, path, name)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return m.fail(path, KindRead, err)
	}

	mediaType := ioutils.MediaType(path, m.settings.DefaultMediaType)
	data, mediaType, err = m.images.Prepare(ctx, data, mediaType)
	if err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Could not normalise %s, sending original: %v", name, err), Level: LevelWarning, File: name})
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Extracting concerts from %s (%s, %d bytes)", name, mediaType, len(data)), Level: LevelVerbose, File: name})

	extractCtx := ctx
	if timeout := m.settings.RequestTimeoutDuration(); timeout > 0 {
		var cancel context.CancelFunc
		extractCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	extraction, err := m.extractor.Extract(extractCtx, data, mediaType)
	if err != nil {
		return m.fail(path, extractKind(err), err)
	}
	if extraction == nil {
		return m.fail(path, KindSchema, fmt.Errorf("%w: no extraction returned", extract.ErrSchema))
	}

	m.reportExtraction(name, extraction)

	rows, err := m.csv.Append(name, extraction)
	if err != nil {
		return m.fail(path, KindSink, err)
	}

	for _, s := range m.extras {
		m.appendExtra(s, name, extraction)
	}

	m.processed.Add(1)
	m.rows.Add(int64(rows))

	if rows == 0 {
		m.progress(ProgressEvent{Message: fmt.Sprintf("No concerts found in %s", name), Level: LevelWarning, File: name})
	} else {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Appended %d rows from %s", rows, name), Level: LevelSuccess, File: name, Rows: rows})
	}
	return Result{Path: path, Kind: KindOK, Rows: rows}
}

// settle waits before reading so the producer can finish writing. A file
// that is still changing when the stable check times out is read anyway.
func (m *Manager) settle(ctx context.Context, path, name string) {
	if !m.settings.StableCheck {
		ioutils.Sleep(ctx, m.settings.SettleDelayDuration())
		return
	}
	err := ioutils.WaitStable(ctx, path, m.settings.StablePollDuration(), m.settings.StableTimeoutDuration())
	if err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Reading %s anyway: %v", name, err), Level: LevelWarning, File: name})
	}
}

func (m *Manager) reportExtraction(name string, extraction *model.ConcertExtraction) {
	for _, band := range extraction.Bands {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Band: %s (%d concerts)", band.BandName, len(band.Concerts)), Level: LevelVerbose, File: name})
		for _, c := range band.Concerts {
			msg := fmt.Sprintf("  %s, %s, %s", c.Venue, c.Location, c.Date)
			if c.HasEvent() {
				msg += fmt.Sprintf(" [%s]", c.Event())
			}
			m.progress(ProgressEvent{Message: msg, Level: LevelVerbose, File: name})
		}
	}
}

func (m *Manager) appendExtra(s sink.Sink, name string, extraction *model.ConcertExtraction) {
	n, err := s.Append(name, extraction)
	if err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Calendar export failed for %s: %v", name, err), Level: LevelWarning, File: name})
		return
	}
	if skipped := extraction.ConcertCount() - n; skipped > 0 {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Exported %d calendar events, %d without a readable date", n, skipped), Level: LevelVerbose, File: name})
	} else if n > 0 {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Exported %d calendar events", n), Level: LevelVerbose, File: name})
	}
}

func (m *Manager) fail(path string, kind Kind, err error) Result {
	name := filepath.Base(path)
	m.failed.Add(1)
	m.progress(ProgressEvent{Message: fmt.Sprintf("Error processing %s (%s): %v", name, kind, err), Level: LevelError, File: name})
	return Result{Path: path, Kind: kind, Err: err}
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
