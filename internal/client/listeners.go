package client

import "sync"

// listeners is a set of change callbacks run in subscription order.
type listeners struct {
	mu     sync.Mutex
	fns    map[uint64]func()
	nextID uint64
}

func (l *listeners) add(fn func()) Subscription {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[uint64]func())
	}
	l.nextID++
	id := l.nextID
	l.fns[id] = fn
	return &subscription{cancel: func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.fns, id)
	}}
}

func (l *listeners) notify() {
	l.mu.Lock()
	fns := make([]func(), 0, len(l.fns))
	for _, id := range sortedKeys(l.fns) {
		fns = append(fns, l.fns[id])
	}
	l.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
