package memtable

import (
	"github.com/ChinmayNoob/lsm-go/ikey"
	"github.com/ChinmayNoob/lsm-go/status"
)

// Iterator walks every internal-key-encoded entry in a Memtable in
// ascending order, including every sequenced version of a user key (the
// merging iterator relies on seeing them all to pick the freshest).
// Unlike Iter/CollectEntries it does no user-key dedup of its own.
type Iterator struct {
	m   *Memtable
	cur *node
}

// NewIterator returns an Iterator over m positioned before the first
// entry.
func (m *Memtable) NewIterator() *Iterator {
	return &Iterator{m: m}
}

func (it *Iterator) SeekToFirst() {
	it.m.mu.RLock()
	defer it.m.mu.RUnlock()
	it.cur = it.m.table.first()
}

func (it *Iterator) Seek(target ikey.Key) {
	it.m.mu.RLock()
	defer it.m.mu.RUnlock()
	it.cur = it.m.table.seekGE(target)
}

func (it *Iterator) Valid() bool { return it.cur != nil }

func (it *Iterator) Next() {
	if it.cur == nil {
		return
	}
	it.m.mu.RLock()
	defer it.m.mu.RUnlock()
	it.cur = it.cur.forward[0]
}

func (it *Iterator) Key() ikey.Key { return ikey.Key(it.cur.key) }
func (it *Iterator) Value() []byte { return it.cur.value }
func (it *Iterator) Err() *status.Status { return nil }
