package fstree

import (
	"bytes"
	"sort"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// treeLock serializes mutations of one tree. refs counts holders and waiters
// so the entry can be dropped from the map once nobody needs it.
type treeLock struct {
	mu   sync.Mutex
	refs int
}

// lockMap hands out one mutex per tree root.
type lockMap struct {
	m *xsync.Map[primitive.ObjectID, *treeLock]
}

func newLockMap() *lockMap {
	return &lockMap{m: xsync.NewMap[primitive.ObjectID, *treeLock]()}
}

func (l *lockMap) acquire(key primitive.ObjectID) *treeLock {
	tl, _ := l.m.Compute(key, func(old *treeLock, loaded bool) (*treeLock, xsync.ComputeOp) {
		if !loaded {
			old = &treeLock{}
		}
		old.refs++
		return old, xsync.UpdateOp
	})
	tl.mu.Lock()
	return tl
}

func (l *lockMap) release(key primitive.ObjectID, tl *treeLock) {
	tl.mu.Unlock()
	l.m.Compute(key, func(old *treeLock, loaded bool) (*treeLock, xsync.ComputeOp) {
		if !loaded {
			return nil, xsync.CancelOp
		}
		old.refs--
		if old.refs <= 0 {
			return nil, xsync.DeleteOp
		}
		return old, xsync.UpdateOp
	})
}

// Lock acquires the locks for every key, in a fixed order so that two
// callers locking overlapping sets cannot deadlock. Duplicate keys are
// locked once. The returned func releases them all.
func (l *lockMap) Lock(keys ...primitive.ObjectID) (unlock func()) {
	keys = uniqueSorted(keys)
	held := make([]*treeLock, len(keys))
	for i, k := range keys {
		held[i] = l.acquire(k)
	}
	return func() {
		for i := len(keys) - 1; i >= 0; i-- {
			l.release(keys[i], held[i])
		}
	}
}

// Size returns the number of tracked locks (for tests).
func (l *lockMap) Size() int {
	return l.m.Size()
}

func uniqueSorted(keys []primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(keys))
	seen := make(map[primitive.ObjectID]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}
