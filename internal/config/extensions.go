package config

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ExtensionStatus answers whether a content extension is administratively
// enabled. Extension identifiers may be compound ("ext_articles.category");
// the owning element is the part before the first dot, and disabling the
// owner disables every sub-extension under it.
//
// The status can follow the config file on disk: Watch reloads the
// enablement map whenever the file changes, so toggling an extension takes
// effect without a restart.
type ExtensionStatus struct {
	mu      sync.RWMutex
	enabled map[string]bool

	watcher *fsnotify.Watcher
	doneCh  chan struct{}
}

// NewExtensionStatus builds a status service from the enablement map.
// Extensions absent from the map are enabled.
func NewExtensionStatus(enabled map[string]bool) *ExtensionStatus {
	copied := make(map[string]bool, len(enabled))
	for k, v := range enabled {
		copied[k] = v
	}
	return &ExtensionStatus{enabled: copied}
}

// OwnerElement returns the owning element of a compound extension
// identifier: the part before the first dot.
func OwnerElement(extension string) string {
	if i := strings.IndexByte(extension, '.'); i >= 0 {
		return extension[:i]
	}
	return extension
}

// IsEnabled reports whether extension and its owning element are both
// enabled.
func (s *ExtensionStatus) IsEnabled(extension string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if on, ok := s.enabled[extension]; ok && !on {
		return false
	}
	owner := OwnerElement(extension)
	if on, ok := s.enabled[owner]; ok && !on {
		return false
	}
	return true
}

// SetEnabled flips one extension's flag in place.
func (s *ExtensionStatus) SetEnabled(extension string, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled[extension] = on
}

// Reload replaces the whole enablement map.
func (s *ExtensionStatus) Reload(enabled map[string]bool) {
	copied := make(map[string]bool, len(enabled))
	for k, v := range enabled {
		copied[k] = v
	}
	s.mu.Lock()
	s.enabled = copied
	s.mu.Unlock()
}

// Watch follows the config file at path and reloads the enablement map on
// every write. Stops when Close is called.
func (s *ExtensionStatus) Watch(path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	s.watcher = watcher
	s.doneCh = make(chan struct{})

	go func() {
		defer close(s.doneCh)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					slog.Warn("config_reload_failed",
						slog.String("path", path),
						slog.String("error", err.Error()))
					continue
				}
				s.Reload(cfg.Extensions)
				slog.Info("extension_status_reloaded",
					slog.String("path", path),
					slog.Int("extensions", len(cfg.Extensions)))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("config_watch_error", slog.String("error", err.Error()))
			}
		}
	}()

	return nil
}

// Close stops the file watch, if any.
func (s *ExtensionStatus) Close() error {
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	<-s.doneCh
	s.watcher = nil
	return err
}
