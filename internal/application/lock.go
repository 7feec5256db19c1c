package application

import "sync"

type eventKey struct {
	guild  int64
	hoster int64
}

// keyedMutex hands out one mutex per event. Entries are dropped once no
// goroutine holds or waits on them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[eventKey]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

// Lock blocks until the event's mutex is held and returns the unlock func.
func (k *keyedMutex) Lock(key eventKey) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[eventKey]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
