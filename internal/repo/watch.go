package repo

import (
	"context"
	"path/filepath"
	"time"

	"github.com/edirooss/picam-panel/internal/domain/streamconfig"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reports every settled change of the backing file to onChange, until ctx is done.
// It covers writes made through this repository (rename into place) as well as
// edits made by hand or by another process.
//
// Events are debounced: editors and atomic renames emit bursts, and only the
// record that is on disk once the burst settles is reported. A file that does
// not decode is logged and skipped.
//
// Watch blocks; run it in its own goroutine.
func (r *StreamConfigRepository) Watch(ctx context.Context, debounce time.Duration, onChange func(context.Context, streamconfig.StreamConfig)) error {
	if debounce <= 0 {
		debounce = 750 * time.Millisecond
	}

	abs, err := filepath.Abs(r.path)
	if err != nil {
		abs = r.path
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory: the file itself is replaced on every save.
	dir := filepath.Dir(abs)
	if err := w.Add(dir); err != nil {
		return err
	}
	r.log.Info("watching", zap.String("path", abs))

	trigger := func() {
		cfg, err := r.Load()
		if err != nil {
			r.log.Warn("reload after change failed", zap.Error(err))
			return
		}
		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		onChange(cctx, cfg)
	}

	var t *time.Timer
	defer func() {
		if t != nil {
			t.Stop()
		}
	}()
	reset := func() {
		if t != nil {
			t.Stop()
		}
		t = time.AfterFunc(debounce, trigger)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name != abs {
				continue
			}
			// Remove means the file is gone; the next read yields defaults but nothing changed on disk yet.
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				reset()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.log.Warn("watch error", zap.Error(err))
		}
	}
}
