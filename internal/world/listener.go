package world

// Listener observes chunk lifecycle events. Renderers use it to keep GPU
// state in step with the chunk set.
type Listener interface {
	ChunkAdded(c *Chunk)
	ChunkRemoved(c *Chunk)
	ChunkRebuilt(c *Chunk)
}

// listeners is an ordered set of observers. Changes made while a
// notification is running are queued and applied once it finishes.
type listeners struct {
	items         []Listener
	pendingAdd    []Listener
	pendingRemove []Listener
	notifying     int
}

func (l *listeners) add(x Listener) {
	if l.notifying > 0 {
		l.pendingAdd = append(l.pendingAdd, x)
		return
	}
	l.items = append(l.items, x)
}

func (l *listeners) remove(x Listener) {
	if l.notifying > 0 {
		l.pendingRemove = append(l.pendingRemove, x)
		return
	}
	for i, it := range l.items {
		if it == x {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return
		}
	}
}

func (l *listeners) each(fn func(Listener)) {
	l.notifying++
	for _, it := range l.items {
		fn(it)
	}
	l.notifying--
	if l.notifying > 0 {
		return
	}
	adds, removes := l.pendingAdd, l.pendingRemove
	l.pendingAdd, l.pendingRemove = nil, nil
	for _, x := range adds {
		l.add(x)
	}
	for _, x := range removes {
		l.remove(x)
	}
}

func (l *listeners) len() int { return len(l.items) }
