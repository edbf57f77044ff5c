// Package watch hot-reloads the on-disk inputs a gdbserver.Server
// demonstration target reads at startup (the ProgramDebugInfo JSON file),
// without restarting the listener. It is grounded on the teacher's
// internal/runtime/vfs.FSNotifyWatcher, which wraps fsnotify with the same
// event-channel shape this package reuses.
package watch

import (
	"os"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc is invoked with the changed file's contents whenever a
// watched path is written or created.
type ReloadFunc func(path string, data []byte) error

// FileWatcher watches a fixed set of files and calls a ReloadFunc on
// write/create events, reading the changed file itself so callers never
// race the write.
type FileWatcher struct {
	w      *fsnotify.Watcher
	reload ReloadFunc
	errC   chan error
	done   chan struct{}
}

// NewFileWatcher creates a FileWatcher that calls reload for every watched
// path's write/create events, reporting read or callback errors on Errors.
func NewFileWatcher(reload ReloadFunc) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		w:      w,
		reload: reload,
		errC:   make(chan error, 8),
		done:   make(chan struct{}),
	}

	go fw.loop()

	return fw, nil
}

func (fw *FileWatcher) loop() {
	defer close(fw.done)

	for {
		select {
		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			data, err := os.ReadFile(ev.Name)
			if err != nil {
				fw.errC <- err
				continue
			}

			if err := fw.reload(ev.Name, data); err != nil {
				fw.errC <- err
			}
		case err, ok := <-fw.w.Errors:
			if !ok {
				return
			}

			fw.errC <- err
		}
	}
}

// Errors reports read or reload-callback errors encountered while
// processing watch events.
func (fw *FileWatcher) Errors() <-chan error { return fw.errC }

// Add begins watching path for writes.
func (fw *FileWatcher) Add(path string) error { return fw.w.Add(path) }

// Close stops the watcher and its event loop.
func (fw *FileWatcher) Close() error {
	err := fw.w.Close()
	<-fw.done

	return err
}
