// Package ioutils provides file system utilities for concert-scanner.
//
// This package contains functions for:
//   - Image extension matching
//   - Media type lookup
//   - Waiting for a freshly created file to settle
//
// All functions that accept a context.Context return early when it is
// cancelled.
package ioutils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// mediaTypes maps lowercase extensions to the content type sent to the model.
var mediaTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// DefaultMediaType is used for extensions missing from the lookup table.
const DefaultMediaType = "image/jpeg"

// MediaType returns the content type for path based on its extension.
//
// Unknown extensions silently map to fallback (DefaultMediaType when
// fallback is empty); this is not a validation step.
//
// Example:
//
//	MediaType("poster.PNG", "")  // "image/png"
//	MediaType("poster.tiff", "") // "image/jpeg"
func MediaType(path, fallback string) string {
	if mt, ok := mediaTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mt
	}
	if fallback == "" {
		return DefaultMediaType
	}
	return fallback
}

// ExtensionSet is a set of lowercase file extensions including the dot.
type ExtensionSet map[string]bool

// NewExtensionSet builds an ExtensionSet. Extensions are lowercased and a
// missing leading dot is added.
func NewExtensionSet(exts ...string) ExtensionSet {
	set := make(ExtensionSet, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return set
}

// Match reports whether the extension of path is in the set.
func (s ExtensionSet) Match(path string) bool {
	return s[strings.ToLower(filepath.Ext(path))]
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WaitStable polls path every interval until two consecutive observations
// report the same non-zero size and modification time, or timeout elapses.
//
// This narrows the window in which a producer is still writing the file;
// it cannot close it. A timeout is reported as an error so the caller can
// decide whether to read anyway.
func WaitStable(ctx context.Context, path string, interval, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	prev, err := os.Stat(path)
	if err != nil {
		return err
	}

	for {
		if err := Sleep(ctx, interval); err != nil {
			return err
		}
		cur, err := os.Stat(path)
		if err != nil {
			return err
		}
		// An empty file is a producer that has not started writing yet.
		if cur.Size() > 0 && cur.Size() == prev.Size() && cur.ModTime().Equal(prev.ModTime()) {
			return nil
		}
		if time.Now().After(deadline) {
			if cur.Size() == 0 {
				return fmt.Errorf("%s still empty after %v", filepath.Base(path), timeout)
			}
			return fmt.Errorf("%s still changing after %v", filepath.Base(path), timeout)
		}
		prev = cur
	}
}

// EnsureDir creates a directory and all parent directories if they don't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
