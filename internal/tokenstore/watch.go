package tokenstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch subscribes to external changes of the token file. It returns a
// channel that emits the stored value after each create, write, or
// removal — "" after removal. Watching the directory rather than the file
// survives atomic rename-over writes. The channel is closed when ctx is
// canceled.
func (s *Store) Watch(ctx context.Context) (<-chan string, error) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, DirPerms); err != nil {
		return nil, fmt.Errorf("tokenstore: creating directory %s: %w", dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("tokenstore: creating watcher: %w", err)
	}

	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("tokenstore: watching %s: %w", dir, err)
	}

	ch := make(chan string, 1)
	go s.watchLoop(ctx, watcher, ch)

	return ch, nil
}

// watchLoop is the select loop for Watch. It filters events down to the
// token file and re-reads the value on each content change.
func (s *Store) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, ch chan<- string) {
	defer watcher.Close()
	defer close(ch)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != filepath.Clean(s.path) {
				continue
			}

			// Chmod-only events carry no content change.
			if event.Has(fsnotify.Chmod) &&
				!event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			token, err := s.Load()
			if err != nil {
				s.logger.Warn("token store re-read failed", slog.String("error", err.Error()))

				continue
			}

			select {
			case ch <- token:
			case <-ctx.Done():
				return
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}

			s.logger.Warn("token store watcher error", slog.String("error", err.Error()))
		}
	}
}
