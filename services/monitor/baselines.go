package monitor

import "sync"

// Baselines holds the most recently accepted snapshot per kind, in
// process memory only. Written exclusively by the scheduled cycle,
// read by both the cycle and the on-demand query path. Replacement is
// atomic per kind: readers never observe a partially updated snapshot.
type Baselines struct {
	mu        sync.RWMutex
	snapshots map[Kind]Snapshot
}

func NewBaselines() *Baselines {
	return &Baselines{snapshots: map[Kind]Snapshot{}}
}

func (b *Baselines) Get(kind Kind) (Snapshot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	snapshot, ok := b.snapshots[kind]
	return snapshot, ok
}

func (b *Baselines) Put(snapshot Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snapshots[snapshot.Kind] = snapshot
}
