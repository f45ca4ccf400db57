// Package watch feeds the dispatcher from a drop directory: files created
// there are submitted as singletons, directories as one labeled batch. It is
// the terminal stand-in for the browser's folder drag-and-drop.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dmitrijs2005/picdrop/internal/item"
	"github.com/dmitrijs2005/picdrop/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// Submitter hands a collected batch to the dispatch engine.
type Submitter func(ctx context.Context, items []*item.Binary, dir string)

// defaultSettle is how long a new path gets to finish being written before
// it is read.
const defaultSettle = 500 * time.Millisecond

type Watcher struct {
	dir    string
	settle time.Duration
	submit Submitter
	log    logging.Logger
}

func New(dir string, submit Submitter, log logging.Logger) *Watcher {
	return &Watcher{dir: dir, settle: defaultSettle, submit: submit, log: log}
}

// Run watches the drop directory until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	if w.log != nil {
		w.log.Info(ctx, "watching drop directory", "dir", w.dir)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op.Has(fsnotify.Create) {
				go w.ingest(ctx, ev.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			if w.log != nil {
				w.log.Warn(ctx, "watch error", "error", err)
			}
		}
	}
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	time.Sleep(w.settle)

	info, err := os.Stat(path)
	if err != nil {
		if w.log != nil {
			w.log.Warn(ctx, "dropped path vanished", "path", path, "error", err)
		}
		return
	}

	if info.IsDir() {
		items, err := ReadDirBatch(path)
		if err != nil {
			if w.log != nil {
				w.log.Warn(ctx, "reading dropped directory", "path", path, "error", err)
			}
			return
		}
		if len(items) > 0 {
			w.submit(ctx, items, filepath.Base(path))
		}
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if w.log != nil {
			w.log.Warn(ctx, "reading dropped file", "path", path, "error", err)
		}
		return
	}
	w.submit(ctx, []*item.Binary{item.NewBinary(info.Name(), data)}, "")
}

// ReadDirBatch reads every regular file directly under dir into binary
// items, in name order. Subdirectories are skipped.
func ReadDirBatch(dir string) ([]*item.Binary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var items []*item.Binary
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		items = append(items, item.NewBinary(e.Name(), data))
	}
	return items, nil
}
