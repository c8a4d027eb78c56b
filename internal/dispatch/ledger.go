package dispatch

import (
	"sort"
	"sync"
	"time"

	"github.com/danmuck/ibctl/internal/protocol/schema"
)

// DefaultLedgerSize bounds the number of correlation ids remembered.
const DefaultLedgerSize = 4096

// PendingRequest tracks one sent request that carried a correlation id.
type PendingRequest struct {
	ID     int64
	Kind   schema.IDKind
	Opcode schema.Opcode
	Name   string
	SentAt time.Time

	seq uint64
}

type ledgerKey struct {
	kind schema.IDKind
	id   int64
}

type ledgerSlot struct {
	key ledgerKey
	seq uint64
}

// Ledger stores sent requests by correlation id so inbound errors can be
// attributed. When full, the oldest entry is evicted.
type Ledger struct {
	mu    sync.RWMutex
	limit int
	seq   uint64
	items map[ledgerKey]PendingRequest
	queue []ledgerSlot
}

func NewLedger(limit int) *Ledger {
	if limit <= 0 {
		limit = DefaultLedgerSize
	}
	return &Ledger{
		limit: limit,
		items: make(map[ledgerKey]PendingRequest),
	}
}

// Record upserts item. Re-recording an id refreshes its age.
func (l *Ledger) Record(item PendingRequest) {
	if item.Kind == schema.IDNone {
		return
	}
	key := ledgerKey{kind: item.Kind, id: item.ID}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	item.seq = l.seq
	l.items[key] = item
	l.queue = append(l.queue, ledgerSlot{key: key, seq: item.seq})
	for len(l.items) > l.limit {
		l.evictOldestLocked()
	}
	if len(l.queue) > 2*l.limit {
		l.compactLocked()
	}
}

func (l *Ledger) evictOldestLocked() {
	for len(l.queue) > 0 {
		slot := l.queue[0]
		l.queue = l.queue[1:]
		if cur, ok := l.items[slot.key]; ok && cur.seq == slot.seq {
			delete(l.items, slot.key)
			return
		}
	}
}

// compactLocked drops queue slots for removed or refreshed entries.
func (l *Ledger) compactLocked() {
	live := make([]ledgerSlot, 0, len(l.items))
	for _, slot := range l.queue {
		if cur, ok := l.items[slot.key]; ok && cur.seq == slot.seq {
			live = append(live, slot)
		}
	}
	l.queue = live
}

func (l *Ledger) Remove(kind schema.IDKind, id int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.items, ledgerKey{kind: kind, id: id})
}

func (l *Ledger) Get(kind schema.IDKind, id int64) (PendingRequest, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	item, ok := l.items[ledgerKey{kind: kind, id: id}]
	return item, ok
}

// Attribute resolves the id of an ErrMsg carrying code. Order and request
// ids share one numeric range, so the code picks which kind is tried
// first. other is the live entry of the second kind, if any.
func (l *Ledger) Attribute(id, code int64) (item, other PendingRequest, ok, ambiguous bool) {
	first, second := schema.IDRequest, schema.IDOrder
	if OrderErrorCode(code) {
		first, second = schema.IDOrder, schema.IDRequest
	}
	a, okA := l.Get(first, id)
	b, okB := l.Get(second, id)
	switch {
	case okA && okB:
		return a, b, true, true
	case okA:
		return a, PendingRequest{}, true, false
	case okB:
		return b, PendingRequest{}, true, false
	}
	return PendingRequest{}, PendingRequest{}, false, false
}

// OrderErrorCode reports whether the gateway uses code for errors about a
// specific order rather than a data request.
func OrderErrorCode(code int64) bool {
	switch {
	case code >= 103 && code <= 161:
		return true
	case code == 201, code == 202, code == 399:
		return true
	case code >= 10147 && code <= 10149:
		return true
	}
	return false
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// List returns live entries oldest first.
func (l *Ledger) List() []PendingRequest {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]PendingRequest, 0, len(l.items))
	for _, item := range l.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].seq < out[j].seq
	})
	return out
}

// Reset forgets every entry. Ids do not survive a new session.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = make(map[ledgerKey]PendingRequest)
	l.queue = nil
}
