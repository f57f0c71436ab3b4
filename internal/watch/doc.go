// Package watch observes a folder for newly added image files.
//
// A Watcher moves through three states:
//
//	idle --Start--> observing --Stop--> stopped
//
// Files already present are not reported by notifications; list them once
// with Backlog before starting:
//
//	w := watch.NewWatcher(dir, ioutils.NewExtensionSet(".png", ".jpg"), handle)
//	backlog, err := w.Backlog()
//	for _, path := range backlog {
//	    handle(path)
//	}
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// Only file creation is observed. Modifications, renames inside the folder
// and deletions are ignored, as are subdirectories and files whose
// extension is not in the set. The handler runs on the watcher's event
// goroutine, one file at a time.
package watch
