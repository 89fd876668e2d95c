package credentials

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Reload replaces the profiles with the ones in path. On error the current
// profiles are kept.
func (s *FileStore) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read credentials file %s: %w", path, err)
	}
	users, err := parseUsers(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.users = users
	s.mu.Unlock()
	return nil
}

// Watch reloads the store whenever path is written or created, until ctx is
// done. The directory is watched so editors that swap files are seen too.
func (s *FileStore) Watch(ctx context.Context, path string, log zerolog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create credentials watcher: %w", err)
	}

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", target, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := s.Reload(target); err != nil {
					log.Warn().Err(err).Str("file", target).Msg("credentials reload failed, keeping previous")
					continue
				}
				log.Info().Str("file", target).Msg("credentials reloaded")
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error().Err(err).Msg("credentials watcher")
			}
		}
	}()

	return nil
}
