package memtable

import (
	"math/rand"

	"github.com/ChinmayNoob/lsm-go/ikey"
)

const maxLevel = 32

// node is one entry in the skip list, keyed by an already-encoded internal
// key (see package ikey), ordered via ikey.Compare so that a user key
// which is a byte-prefix of another still sorts correctly.
type node struct {
	key     ikey.Key
	value   []byte
	forward []*node
}

// skipList is a sorted map from encoded internal key to value bytes.
// Mutation always inserts a fresh node (see Insert) — the memtable never
// overwrites in place, matching spec.md §4.2's `add`/`delete` contract.
// Grounded on PriyanshuSharma23-FlashLog's generic SkipList, generalized
// from a map-keyed generic structure to raw []byte keys with explicit
// ikey.Compare ordering and no in-place update on key collision.
type skipList struct {
	head   *node
	levels int
	size   int
}

func newSkipList() *skipList {
	return &skipList{head: &node{forward: make([]*node, maxLevel+1)}, levels: 0}
}

func randomLevel() int {
	level := 0
	for rand.Int31()&1 == 0 && level < maxLevel {
		level++
	}
	return level
}

// Insert always adds a new node, even if key already exists — callers
// (Memtable.Add/Delete) rely on this to preserve every sequenced version.
func (sl *skipList) Insert(key ikey.Key, value []byte) {
	update := make([]*node, maxLevel+1)
	x := sl.head
	for level := sl.levels; level >= 0; level-- {
		for x.forward[level] != nil && ikey.Compare(x.forward[level].key, key) < 0 {
			x = x.forward[level]
		}
		update[level] = x
	}

	newLevel := randomLevel()
	if newLevel > sl.levels {
		for level := sl.levels + 1; level <= newLevel; level++ {
			update[level] = sl.head
		}
		sl.levels = newLevel
	}

	n := &node{key: key, value: value, forward: make([]*node, newLevel+1)}
	for level := 0; level <= newLevel; level++ {
		n.forward[level] = update[level].forward[level]
		update[level].forward[level] = n
	}
	sl.size++
}

// seekGE returns the first node whose key is >= key, or nil.
func (sl *skipList) seekGE(key ikey.Key) *node {
	x := sl.head
	for level := sl.levels; level >= 0; level-- {
		for x.forward[level] != nil && ikey.Compare(x.forward[level].key, key) < 0 {
			x = x.forward[level]
		}
	}
	return x.forward[0]
}

func (sl *skipList) first() *node { return sl.head.forward[0] }

func (sl *skipList) Len() int { return sl.size }
