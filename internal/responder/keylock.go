package responder

import "sync"

// keyedMutex serializes work per identity. Distinct identities proceed in
// parallel; two read-modify-write cycles for the same identity must not
// interleave, or one of them loses its update.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for key and returns its unlock func.
func (km *keyedMutex) lock(key string) func() {
	km.mu.Lock()
	l, ok := km.locks[key]
	if !ok {
		l = &sync.Mutex{}
		km.locks[key] = l
	}
	km.mu.Unlock()

	l.Lock()
	return l.Unlock
}
