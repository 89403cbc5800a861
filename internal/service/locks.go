package service

import (
	"slices"
	"sync"
)

// tabLocks serializes read-modify-write sequences per spreadsheet tab within
// this process. Writers in other processes are not excluded.
type tabLocks struct {
	mu    sync.Mutex
	byTab map[string]*sync.Mutex
}

func newTabLocks() *tabLocks {
	return &tabLocks{byTab: make(map[string]*sync.Mutex)}
}

// lock acquires the locks for tabs in sorted order and returns the release
// func.
func (l *tabLocks) lock(tabs ...string) func() {
	sorted := slices.Clone(tabs)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	held := make([]*sync.Mutex, 0, len(sorted))
	for _, tab := range sorted {
		m := l.get(tab)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func (l *tabLocks) get(tab string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.byTab[tab]
	if !ok {
		m = &sync.Mutex{}
		l.byTab[tab] = m
	}
	return m
}
