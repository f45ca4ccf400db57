package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/picdrop/internal/clipx"
	"github.com/dmitrijs2005/picdrop/internal/item"
	"github.com/dmitrijs2005/picdrop/internal/paste"
	"github.com/dmitrijs2005/picdrop/internal/settings"
	"github.com/dmitrijs2005/picdrop/internal/transform"
	"github.com/dmitrijs2005/picdrop/internal/watch"
)

// Paste uploads whatever the clipboard holds: newline-separated URLs are
// fetched and submitted as one batch.
func (a *App) Paste(ctx context.Context) error {
	text, err := clipx.Read()
	if err != nil {
		printlnFn("Clipboard read failed:", err)
		return err
	}

	batch := a.ingestor.Collect(ctx, paste.Event{Texts: []string{text}})
	if len(batch) == 0 {
		printlnFn("Nothing to upload")
		return nil
	}
	a.dispatcher.Submit(ctx, batch, "")
	printlnFn(fmt.Sprintf("Queued %d item(s)", len(batch)))
	return nil
}

// Add uploads the named files as one unlabeled batch. Unreadable files are
// reported and skipped.
func (a *App) Add(ctx context.Context, paths []string) error {
	var batch []*item.Binary
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			printlnFn("Skipping:", err)
			continue
		}
		batch = append(batch, item.NewBinary(filepath.Base(p), data))
	}
	if len(batch) == 0 {
		printlnFn("Nothing to upload")
		return nil
	}
	a.dispatcher.Submit(ctx, batch, "")
	printlnFn(fmt.Sprintf("Queued %d item(s)", len(batch)))
	return nil
}

// AddDir uploads every file in a directory as one group labeled with the
// directory name.
func (a *App) AddDir(ctx context.Context, path string) error {
	batch, err := watch.ReadDirBatch(path)
	if err != nil {
		printlnFn("Cannot read directory:", err)
		return err
	}
	if len(batch) == 0 {
		printlnFn("Nothing to upload")
		return nil
	}
	a.dispatcher.Submit(ctx, batch, filepath.Base(path))
	printlnFn(fmt.Sprintf("Queued %d item(s) as %q", len(batch), filepath.Base(path)))
	return nil
}

// Copy extracts links from a section and puts them on the clipboard.
// args: [kind] [section number], both optional; kind defaults to url and the
// section defaults to the most recent one.
func (a *App) Copy(ctx context.Context, args []string) error {
	kindName := "url"
	if len(args) > 0 {
		kindName = args[0]
	}
	kind, ok := transform.ParseKind(kindName)
	if !ok {
		printlnFn("Usage: copy [url|html|ubb|markdown] [n]")
		return nil
	}

	handle := ""
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		sections := a.registry.Sections()
		if err != nil || n < 1 || n > len(sections) {
			printlnFn("No such section:", args[1])
			return nil
		}
		handle = sections[n-1].Handle()
	}

	payload, err := a.registry.Extract(kind, a.settings.BatchCopy(), handle)
	if err != nil {
		printlnFn("Nothing to copy:", err)
		return nil
	}
	if err := a.clipWrite(payload); err != nil {
		a.notifier.Notify(ctx, "Copy failed", err.Error())
		return err
	}
	printlnFn(fmt.Sprintf("Copied %d line(s)", strings.Count(payload, "\n")+1))
	return nil
}

// ToggleMode flips between single and batch copy for this session.
func (a *App) ToggleMode(ctx context.Context) error {
	if a.settings.ToggleBatchCopy() {
		printlnFn("Copy mode: batch")
	} else {
		printlnFn("Copy mode: single")
	}
	return nil
}

func (a *App) SetScheme(ctx context.Context, value string) error {
	if err := a.settings.SetScheme(ctx, settings.Scheme(value)); err != nil {
		printlnFn("Cannot set scheme:", err)
		return err
	}
	printlnFn("Scheme:", value)
	return nil
}

// SetCrop applies a named preset, or stores anything else as the custom
// crop value.
func (a *App) SetCrop(ctx context.Context, value string) error {
	var err error
	switch c := settings.Crop(value); c {
	case settings.CropOriginal, settings.CropMedium, settings.CropThumbnail:
		err = a.settings.SetCrop(ctx, c)
	default:
		err = a.settings.SetCustomCrop(ctx, value)
	}
	if err != nil {
		printlnFn("Cannot set crop:", err)
		return err
	}
	printlnFn("Crop:", value)
	return nil
}

// Template sets the URL-template override, or disables it with "off".
func (a *App) Template(ctx context.Context, args []string) error {
	var err error
	if len(args) == 1 && args[0] == "off" {
		err = a.settings.SetTemplate(ctx, false, a.settings.Snapshot().Template)
	} else {
		err = a.settings.SetTemplate(ctx, true, strings.Join(args, " "))
	}
	if err != nil {
		printlnFn("Cannot set template:", err)
		return err
	}
	printlnFn("Template updated")
	return nil
}

// List prints the rendered sections, most recent last. Groups show the
// directory marker the same way the copyable output does.
func (a *App) List(ctx context.Context) error {
	sections := a.registry.Sections()
	if len(sections) == 0 {
		printlnFn("No sections")
		return nil
	}
	for i, s := range sections {
		label := ""
		if s.Group() {
			label = fmt.Sprintf(" [%s]", s.Directory())
		}
		printlnFn(fmt.Sprintf("%d.%s %s", i+1, label, s.Representative().URL))
	}
	return nil
}

func (a *App) Clear(ctx context.Context) error {
	a.registry.Clear()
	printlnFn("Cleared")
	return nil
}

// Watch starts the drop-directory watcher once; later calls are no-ops.
func (a *App) Watch(ctx context.Context) error {
	if a.watcher == nil {
		printlnFn("No watch directory configured")
		return nil
	}
	a.watchOnce.Do(func() {
		go func() {
			if err := a.watcher.Run(ctx); err != nil && a.log != nil {
				a.log.Error(ctx, "watcher stopped", "error", err)
			}
		}()
		printlnFn("Watching", a.config.WatchDir)
	})
	return nil
}
