package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay is how long a result file must sit quiet before it is read.
// Scanners write results in multiple syscalls; reading on the first event
// would see a truncated document.
const settleDelay = 500 * time.Millisecond

// Watch ingests existing result files in dir, then follows the directory
// with fsnotify and ingests each new *.json file as the scanner produces
// it. Blocks until ctx is cancelled. Duplicate events are harmless: the
// store deduplicates appends.
func (in *Ingestor) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	// Catch up on anything written before the watch started.
	if _, err := in.IngestDir(ctx, dir); err != nil {
		return err
	}

	in.log.Info("watching for scan results", "dir", dir)

	// Files seen recently are debounced until their write events settle.
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(settleDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !strings.HasSuffix(event.Name, ".json") {
				continue
			}
			pending[event.Name] = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			in.log.Warn("watch error", "dir", dir, "error", err)

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < settleDelay {
					continue
				}
				delete(pending, path)

				var sum Summary
				in.IngestFile(path, &sum)
				if sum.Ingested > 0 {
					in.log.Info("ingested scan result", "file", filepath.Base(path))
				}
			}
		}
	}
}
