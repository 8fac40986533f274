// Package watch reloads a document when its file changes on disk.
package watch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultQuiet is how long the file must stay unchanged before a reload.
// Editors often write a file in several steps.
const DefaultQuiet = 200 * time.Millisecond

// Watcher reports the content of one file each time it settles after a change.
type Watcher struct {
	path     string
	fsw      *fsnotify.Watcher
	log      *zap.Logger
	quiet    time.Duration
	onChange func(content []byte)
	last     []byte
}

// New watches path. The parent directory is watched rather than the file,
// so atomic replace-by-rename saves are seen too.
func New(path string, onChange func(content []byte), log *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	last, _ := os.ReadFile(abs)
	return &Watcher{
		path:     abs,
		fsw:      fsw,
		log:      log,
		quiet:    DefaultQuiet,
		onChange: onChange,
		last:     last,
	}, nil
}

// Run delivers changes until ctx is cancelled, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	timer := time.NewTimer(w.quiet)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.log.Debug("document file event", zap.String("path", w.path), zap.Stringer("op", event.Op))
			timer.Reset(w.quiet)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("file watch error", zap.Error(err))

		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	content, err := os.ReadFile(w.path)
	if err != nil {
		// Renamed away mid-save; the following create event brings it back.
		w.log.Debug("document file unreadable", zap.String("path", w.path), zap.Error(err))
		return
	}
	if bytes.Equal(content, w.last) {
		return
	}
	w.last = content
	w.log.Info("document file changed", zap.String("path", w.path), zap.Int("bytes", len(content)))
	w.onChange(content)
}
