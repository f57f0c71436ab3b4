package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/handiism/concert-scanner/internal/config"
	"github.com/handiism/concert-scanner/internal/extract"
	"github.com/handiism/concert-scanner/internal/pipeline"
)

func main() {
	// Command line flags
	var (
		configFlag    = flag.String("config", "", "Path to config file")
		envFlag       = flag.String("env", ".env", "Path to a dotenv file with credentials")
		watchFlag     = flag.String("watch", "", "Folder to watch for images (overrides config)")
		outputFlag    = flag.String("output", "", "CSV output file (overrides config)")
		icalFlag      = flag.String("ical", "", "Also export concerts to this .ics file")
		providerFlag  = flag.String("provider", "", "Extraction backend: gemini or vertex")
		modelFlag     = flag.String("model", "", "Model name (overrides config)")
		maxSizeFlag   = flag.Int("max-size", -1, "Downscale images to this longest edge in pixels, 0 to send originals")
		stableFlag    = flag.Bool("stable", false, "Wait until file size stops changing instead of a fixed delay")
		noBacklogFlag = flag.Bool("no-backlog", false, "Ignore images already in the watch folder")
		verboseFlag   = flag.Bool("verbose", false, "Show verbose output")
		writeFlag     = flag.String("write-config", "", "Write the effective settings to this file and exit")
	)

	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "concert-scanner",
	})
	if *verboseFlag {
		logger.SetLevel(log.DebugLevel)
	}

	if err := config.LoadEnvFiles(*envFlag); err != nil {
		logger.Error("loading env file", "path", *envFlag, "error", err)
		os.Exit(1)
	}

	// Load config
	settings := config.DefaultSettings()
	if *configFlag != "" {
		var err error
		settings, err = config.Load(*configFlag)
		if err != nil {
			logger.Error("loading config", "error", err)
			os.Exit(1)
		}
	}

	// Apply flags
	if *watchFlag != "" {
		settings.WatchFolder = *watchFlag
	}
	if *outputFlag != "" {
		settings.CSVOutput = *outputFlag
	}
	if *icalFlag != "" {
		settings.ICalOutput = *icalFlag
	}
	if *providerFlag != "" {
		settings.Provider = *providerFlag
	}
	if *modelFlag != "" {
		settings.Model = *modelFlag
	}
	if *maxSizeFlag >= 0 {
		settings.MaxImageSize = *maxSizeFlag
	}
	if *stableFlag {
		settings.StableCheck = true
	}
	if *noBacklogFlag {
		settings.ProcessBacklog = false
	}

	if err := settings.Validate(); err != nil {
		logger.Error("invalid settings", "error", err)
		os.Exit(1)
	}

	if *writeFlag != "" {
		if err := settings.Save(*writeFlag); err != nil {
			logger.Error("saving config", "error", err)
			os.Exit(1)
		}
		logger.Info("Settings written", "path", *writeFlag)
		return
	}

	if err := run(settings, logger); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func run(settings *config.Settings, logger *log.Logger) error {
	creds := config.LoadCredentials()
	if settings.Provider == config.ProviderGemini && creds.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY is not set, every extraction will fail with an auth error")
	}

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Interrupted, finishing current image...")
		cancel()
	}()

	extractor, err := extract.New(ctx, settings, creds)
	if err != nil {
		return fmt.Errorf("creating %s extractor: %w", settings.Provider, err)
	}
	if c, ok := extractor.(io.Closer); ok {
		defer c.Close()
	}

	logger.Info("Starting",
		"watch", settings.WatchFolder,
		"output", settings.CSVOutput,
		"provider", settings.Provider,
		"model", settings.Model,
	)

	// Create manager with progress callback
	manager := pipeline.NewManager(settings, extractor, func(event pipeline.ProgressEvent) {
		logEvent(logger, event)
	})

	if err := manager.Run(ctx); err != nil {
		return err
	}

	stats := manager.Stats()
	logger.Info("Stopped",
		"images", stats.Processed,
		"rows", stats.Rows,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
	)
	return nil
}

// logEvent renders a pipeline event through the logger. Verbose events are
// logged at debug level.
func logEvent(logger *log.Logger, event pipeline.ProgressEvent) {
	var keyvals []any
	if event.File != "" {
		keyvals = append(keyvals, "file", event.File)
	}
	if event.Rows > 0 {
		keyvals = append(keyvals, "rows", event.Rows)
	}

	switch event.Level {
	case pipeline.LevelVerbose:
		logger.Debug(event.Message, keyvals...)
	case pipeline.LevelWarning:
		logger.Warn(event.Message, keyvals...)
	case pipeline.LevelError:
		logger.Error(event.Message, keyvals...)
	default:
		logger.Info(event.Message, keyvals...)
	}
}
