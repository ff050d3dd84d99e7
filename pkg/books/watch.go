package books

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultDebounce collapses the burst of events an editor produces when it
// saves a file.
const DefaultDebounce = 250 * time.Millisecond

// Watch reloads the dataset at path whenever it changes and passes the new
// books to onChange. It blocks until ctx is cancelled.
//
// The parent directory is watched rather than the file itself so that
// atomic saves, which replace the file, keep being observed. A reload that
// fails to parse is logged and skipped.
func Watch(ctx context.Context, path string, debounce time.Duration, logger zerolog.Logger, onChange func([]Book)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create watcher")
	}
	defer watcher.Close()

	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return errors.Wrapf(err, "failed to watch %s", path)
	}

	logger = logger.With().Str("component", "watcher").Str("path", path).Logger()
	logger.Debug().Msg("watching dataset")

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("watcher error")

		case <-timer.C:
			books, err := Load(path)
			if err != nil {
				logger.Warn().Err(err).Msg("failed to reload dataset")
				continue
			}
			logger.Info().Int("books", len(books)).Msg("dataset reloaded")
			onChange(books)
		}
	}
}
