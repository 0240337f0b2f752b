package models

import "github.com/PizzaHomicide/lectern/internal/playback"

// keyDispatcher is the document-level key source the player's shortcut router attaches to.  The app offers every key
// to it before any view sees the key.
type keyDispatcher struct {
	nextID    int
	listeners []keyListenerEntry
}

type keyListenerEntry struct {
	id int
	fn playback.KeyListener
}

func newKeyDispatcher() *keyDispatcher {
	return &keyDispatcher{}
}

func (d *keyDispatcher) AddKeyListener(fn playback.KeyListener) func() {
	id := d.nextID
	d.nextID++
	d.listeners = append(d.listeners, keyListenerEntry{id: id, fn: fn})
	return func() {
		for i, l := range d.listeners {
			if l.id == id {
				d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
				return
			}
		}
	}
}

// dispatch offers the key to each listener in registration order and reports whether one consumed it
func (d *keyDispatcher) dispatch(ev playback.KeyEvent) bool {
	for _, l := range append([]keyListenerEntry(nil), d.listeners...) {
		if l.fn(ev) {
			return true
		}
	}
	return false
}

func (d *keyDispatcher) count() int {
	return len(d.listeners)
}
