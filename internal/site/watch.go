package site

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ziadkadry99/studyguide/internal/content"
)

// DefaultDebounce groups the burst of events an editor save produces.
const DefaultDebounce = 200 * time.Millisecond

// Watch regenerates the site after the content directory changes, until ctx
// is done. Events closer together than debounce trigger a single build.
// onBuild, when set, is called after every rebuild.
func (g *Generator) Watch(ctx context.Context, debounce time.Duration, onBuild func(Result, error)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := g.addRecursive(w, g.contentDir); err != nil {
		return fmt.Errorf("watching %s: %w", g.contentDir, err)
	}
	g.logger.Info("watching for changes", "dir", g.contentDir)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !g.relevant(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
					if err := g.addRecursive(w, ev.Name); err != nil {
						g.logger.Warn("watching new directory", "dir", ev.Name, "error", err)
					}
				}
			}
			g.logger.Debug("content changed", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			res, err := g.Generate(ctx)
			if err != nil {
				g.logger.Error("rebuilding site", "error", err)
			}
			if onBuild != nil {
				onBuild(res, err)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			g.logger.Warn("watcher error", "error", err)
		}
	}
}

func (g *Generator) addRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && !g.relevant(p) {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}

// relevant reports whether a change at p can affect the generated site.
func (g *Generator) relevant(p string) bool {
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	if out, err := filepath.Abs(g.outputDir); err == nil {
		if abs == out || strings.HasPrefix(abs, out+string(filepath.Separator)) {
			return false
		}
	}
	rel, err := filepath.Rel(g.contentDir, p)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == "public" {
			return true
		}
		for _, excl := range content.DefaultExcludes {
			if strings.EqualFold(part, excl) {
				return false
			}
		}
	}
	base := filepath.Base(p)
	return !strings.HasSuffix(base, "~") && !strings.HasSuffix(base, ".swp") && !strings.HasPrefix(base, ".#")
}
