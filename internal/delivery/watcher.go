package delivery

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"beacon/internal/logging"
)

// Watch emits the session id of every drop-box entry as it is written,
// for wrappers that prefer push over polling. The channel closes when ctx
// is done or the underlying watcher fails.
func (d *Dropbox) Watch(ctx context.Context) (<-chan string, error) {
	if err := os.MkdirAll(d.dir, 0o700); err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(d.dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	ch := make(chan string, 16)
	go func() {
		defer close(ch)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				id, found := strings.CutSuffix(filepath.Base(event.Name), inputSuffix)
				if !found || id == "" {
					continue
				}
				select {
				case ch <- id:
				default:
					d.logger.Warn("inbox_watch_dropped", logging.F("session_id", id))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				d.logger.Warn("inbox_watch_error", logging.Err(err))
			}
		}
	}()
	return ch, nil
}
