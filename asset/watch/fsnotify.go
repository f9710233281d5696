package watch

import (
	"github.com/fsnotify/fsnotify"
)

// NotifyWatcher is the OS-native alternative to PollingWatcher mentioned
// by the REDESIGN FLAGS: it satisfies the same Watcher interface by
// draining fsnotify's event channel on each Poll call rather than
// diffing directory snapshots.
type NotifyWatcher struct {
	inner *fsnotify.Watcher
}

// NewNotifyWatcher wraps a freshly created fsnotify watcher.
func NewNotifyWatcher() (*NotifyWatcher, error) {
	inner, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &NotifyWatcher{inner: inner}, nil
}

// AddDirectory subscribes to OS-level change notifications for dir.
func (w *NotifyWatcher) AddDirectory(dir string) error {
	return w.inner.Add(dir)
}

// Poll drains whatever fsnotify events have arrived since the last call,
// without blocking.
func (w *NotifyWatcher) Poll() ([]Event, error) {
	var events []Event
	for {
		select {
		case ev, ok := <-w.inner.Events:
			if !ok {
				return events, nil
			}
			kind, handled := translateOp(ev.Op)
			if handled {
				events = append(events, Event{Path: ev.Name, Kind: kind})
			}
		case err, ok := <-w.inner.Errors:
			if !ok {
				return events, nil
			}
			return events, err
		default:
			return events, nil
		}
	}
}

// Close releases the underlying OS watch handles.
func (w *NotifyWatcher) Close() error { return w.inner.Close() }

func translateOp(op fsnotify.Op) (EventKind, bool) {
	switch {
	case op&fsnotify.Create != 0:
		return Created, true
	case op&fsnotify.Write != 0:
		return Modified, true
	case op&fsnotify.Remove != 0, op&fsnotify.Rename != 0:
		return Deleted, true
	default:
		return 0, false
	}
}
