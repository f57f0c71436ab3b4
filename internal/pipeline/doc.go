// Package pipeline wires the watcher, the extractor and the sinks together.
//
// # Manager
//
// The Manager processes one image at a time:
//
//  1. Skip files without a recognised image extension
//  2. Wait for the file to settle (fixed delay or size/mtime check)
//  3. Read the bytes and resolve the media type from the extension
//  4. Optionally auto-orient and downscale the image
//  5. Call the extractor
//  6. Append one CSV row per concert, then export calendar events
//
// # Basic Usage
//
//	manager := pipeline.NewManager(settings, extractor, func(event pipeline.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := manager.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Failures
//
// Nothing that goes wrong with a single image stops the pipeline. Each
// failure is reported as a LevelError event naming the file and counted in
// Stats; ProcessFile also returns it as a typed Result:
//
//	res := manager.ProcessFile(ctx, "/posters/gig.jpg")
//	if res.Kind == pipeline.KindAuth {
//	    // every following image will fail the same way
//	}
//
// # Progress Events
//
// Events carry one of five levels:
//
//   - LevelInfo: file detected, backlog started, watcher started/stopped
//   - LevelVerbose: extracted bands and concerts, calendar export counts
//   - LevelWarning: no concerts found, image not normalised, sink warnings
//   - LevelError: per-file failures
//   - LevelSuccess: rows appended
package pipeline
