package host

import (
	"sync"

	"github.com/gagliardetto/solana-go"
)

type keyedEntry struct {
	mtx  sync.Mutex
	refs int
}

// keyedMutex serializes writers per auction address. Entries are dropped
// once nobody holds or waits for them.
type keyedMutex struct {
	mtx     sync.Mutex
	entries map[solana.PublicKey]*keyedEntry
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{entries: make(map[solana.PublicKey]*keyedEntry)}
}

func (k *keyedMutex) Lock(key solana.PublicKey) func() {
	k.mtx.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &keyedEntry{}
		k.entries[key] = e
	}
	e.refs++
	k.mtx.Unlock()

	e.mtx.Lock()
	return func() {
		e.mtx.Unlock()

		k.mtx.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.mtx.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mtx.Lock()
	defer k.mtx.Unlock()
	return len(k.entries)
}
