package txn

import (
	"sync"
	"sync/atomic"

	"github.com/ChinmayNoob/lsm-go/cf"
	"github.com/ChinmayNoob/lsm-go/status"
)

// fakeDB is a minimal in-memory implementation of the DB interface,
// enough to exercise WriteBatch application and transaction commit
// paths without needing a real engine.
type fakeDB struct {
	mu            sync.Mutex
	data          map[uint32]map[string][]byte
	seq           atomic.Uint64
	defaultHandle cf.Handle
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		data:          make(map[uint32]map[string][]byte),
		defaultHandle: cf.NewHandle(0, "default"),
	}
}

func (f *fakeDB) PutCF(handle cf.Handle, key, value []byte) *status.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfData, ok := f.data[handle.ID()]
	if !ok {
		cfData = make(map[string][]byte)
		f.data[handle.ID()] = cfData
	}
	cfData[string(key)] = append([]byte(nil), value...)
	f.seq.Add(1)
	return nil
}

func (f *fakeDB) DeleteCF(handle cf.Handle, key []byte) *status.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cfData, ok := f.data[handle.ID()]; ok {
		delete(cfData, string(key))
	}
	f.seq.Add(1)
	return nil
}

func (f *fakeDB) GetCF(handle cf.Handle, key []byte) ([]byte, bool, *status.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfData, ok := f.data[handle.ID()]
	if !ok {
		return nil, false, nil
	}
	value, ok := cfData[string(key)]
	if !ok {
		return nil, false, nil
	}
	return value, true, nil
}

func (f *fakeDB) DefaultHandle() cf.Handle { return f.defaultHandle }

func (f *fakeDB) CurrentSequence() uint64 { return f.seq.Load() }
