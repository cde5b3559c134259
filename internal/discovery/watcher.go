package discovery

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// HotplugWatcher watches /dev/input for new event nodes so the reconnect
// loop can attempt rediscovery as soon as the kernel enumerates the
// controller, instead of waiting out the full retry interval.
type HotplugWatcher struct {
	watcher *fsnotify.Watcher
	events  chan struct{}
	done    chan struct{}
}

// NewHotplugWatcher starts watching dir (normally /dev/input). The caller
// falls back to plain interval polling when this fails.
func NewHotplugWatcher(dir string, logger *slog.Logger) (*HotplugWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}

	hw := &HotplugWatcher{
		watcher: w,
		events:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go hw.run(logger)
	return hw, nil
}

// Events delivers one (coalesced) signal per burst of node creations.
func (hw *HotplugWatcher) Events() <-chan struct{} {
	return hw.events
}

func (hw *HotplugWatcher) run(logger *slog.Logger) {
	for {
		select {
		case <-hw.done:
			return
		case ev, ok := <-hw.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) {
				continue
			}
			if !strings.HasPrefix(filepath.Base(ev.Name), "event") {
				continue
			}
			logger.Debug("input node appeared", "path", ev.Name)
			select {
			case hw.events <- struct{}{}:
			default:
			}
		case err, ok := <-hw.watcher.Errors:
			if !ok {
				return
			}
			logger.Debug("hotplug watch error", "error", err)
		}
	}
}

func (hw *HotplugWatcher) Close() error {
	close(hw.done)
	return hw.watcher.Close()
}
