// Package watcher pushes build-output changes into the payload store.
// It watches each extension's build directory; when a bundle is
// rewritten, the extension's asset timestamp and dev status are
// patched through the normal update channel, so every connected
// client hears about it the same way it hears about any other change.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/grovetools/extdev/core"
	"github.com/grovetools/extdev/logging"
	"github.com/grovetools/extdev/payload"
	"github.com/moby/patternmatcher"
	"github.com/sirupsen/logrus"
)

// DefaultIgnorePatterns covers editor droppings and temp files that
// show up next to build output.
var DefaultIgnorePatterns = []string{
	"*.swp",
	"*.tmp",
	"*~",
	".DS_Store",
}

// Options configures a bundle watcher.
type Options struct {
	// Debounce suppresses rapid successive events for the same
	// extension. Defaults to 100ms.
	Debounce time.Duration
	// IgnorePatterns extend DefaultIgnorePatterns.
	IgnorePatterns []string
}

// Watcher maps filesystem events in build directories to update
// patches on the payload store.
type Watcher struct {
	watcher     *fsnotify.Watcher
	store       *payload.Store
	descriptors []core.ExtensionDescriptor
	matcher     *patternmatcher.PatternMatcher
	debounce    time.Duration
	logger      *logrus.Entry

	mu         sync.Mutex
	lastChange map[string]time.Time
}

// New builds a watcher over the build directories of the given
// descriptors. Directories that don't exist yet are skipped with a
// warning; the build pipeline creates them on first build.
func New(store *payload.Store, descriptors []core.ExtensionDescriptor, options Options) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	matcher, err := patternmatcher.New(append(append([]string{}, DefaultIgnorePatterns...), options.IgnorePatterns...))
	if err != nil {
		fsWatcher.Close()
		return nil, err
	}

	if options.Debounce <= 0 {
		options.Debounce = 100 * time.Millisecond
	}

	logger := logging.NewLogger("bundle-watcher")

	watched := make(map[string]bool)
	for _, descriptor := range descriptors {
		dir := descriptor.BuildDirectory()
		if watched[dir] {
			continue
		}
		if _, err := os.Stat(dir); err != nil {
			logger.WithField("dir", dir).Warn("build directory missing, not watching it")
			continue
		}
		if err := fsWatcher.Add(dir); err != nil {
			logger.WithError(err).WithField("dir", dir).Warn("failed to watch build directory")
			continue
		}
		watched[dir] = true
		logger.WithField("dir", dir).Debug("watching build directory")
	}

	return &Watcher{
		watcher:     fsWatcher,
		store:       store,
		descriptors: descriptors,
		matcher:     matcher,
		debounce:    options.Debounce,
		logger:      logger,
		lastChange:  make(map[string]time.Time),
	}, nil
}

// Start processes events until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.handleEvent(event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Error("watcher error")
		case <-ctx.Done():
			w.watcher.Close()
			return
		}
	}
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) handleEvent(path string) {
	if ignored, err := w.matcher.MatchesOrParentMatches(filepath.Base(path)); err == nil && ignored {
		w.logger.WithField("path", path).Debug("ignoring filtered change")
		return
	}

	for i := range w.descriptors {
		descriptor := w.descriptors[i]
		if !pathInDir(path, descriptor.BuildDirectory()) {
			continue
		}
		if w.debounced(descriptor.DevUUID) {
			continue
		}
		w.publishChange(descriptor)
	}
}

// debounced reports whether a change for this extension arrived inside
// the debounce window, updating the window otherwise.
func (w *Watcher) debounced(uuid string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if time.Since(w.lastChange[uuid]) < w.debounce {
		return true
	}
	w.lastChange[uuid] = time.Now()
	return false
}

// publishChange re-stats the bundle and patches the extension's asset
// timestamp and status.
func (w *Watcher) publishChange(descriptor core.ExtensionDescriptor) {
	status := core.StatusSuccess
	var lastUpdated int64
	if info, err := os.Stat(descriptor.OutputBundlePath); err == nil {
		lastUpdated = info.ModTime().UnixMilli()
	} else {
		status = core.StatusError
	}

	w.logger.WithFields(logrus.Fields{
		"uuid":   descriptor.DevUUID,
		"status": status,
	}).Debug("bundle changed")

	w.store.ApplyUpdate(core.UpdatePatch{
		Extensions: []core.ExtensionPatch{
			{
				UUID: descriptor.DevUUID,
				Assets: map[string]core.AssetPatch{
					"main": {LastUpdated: &lastUpdated},
				},
				Development: &core.DevelopmentPatch{Status: &status},
			},
		},
	})
}

func pathInDir(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}
