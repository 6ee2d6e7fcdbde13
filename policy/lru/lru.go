// Package lru implements the exact least-recently-used eviction policy.
package lru

import (
	"math/rand"
	"sync"

	"github.com/methodcache/methodcache/policy"
)

// element is the intrusive list node stored in each entry's order reference.
// head is MRU, tail is LRU.
type element struct {
	n          policy.Node
	prev, next *element
}

// lru keeps a doubly linked recency list guarded by its own mutex,
// distinct from the store's concurrent map. Victim selection is O(1):
// the list tail is the true least-recently-used entry.
type lru struct {
	mu   sync.Mutex
	head *element // MRU
	tail *element // LRU
}

type factory struct{}

// New returns the LRU policy factory.
func New() policy.Policy { return factory{} }

func (factory) New(policy.Store) policy.Index { return &lru{} }

// OnAdd links the entry at MRU. The order handle is written under the list
// mutex; every other access to it goes through the same lock.
func (p *lru) OnAdd(n policy.Node) {
	e := &element{n: n}
	p.mu.Lock()
	n.SetOrderRef(e)
	p.pushFront(e)
	p.mu.Unlock()
}

func (p *lru) OnAccess(n policy.Node) { p.promote(n) }

// OnUpdate treats a replacement as recent use.
func (p *lru) OnUpdate(n policy.Node) { p.promote(n) }

func (p *lru) OnRemove(n policy.Node) {
	p.mu.Lock()
	if e, ok := n.OrderRef().(*element); ok {
		p.unlink(e)
		n.SetOrderRef(nil)
	}
	p.mu.Unlock()
}

func (p *lru) Victim(_ *rand.Rand) policy.Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	for e := p.tail; e != nil; e = e.prev {
		if e.n.Live() {
			return e.n
		}
	}
	return nil
}

func (p *lru) promote(n policy.Node) {
	p.mu.Lock()
	if e, ok := n.OrderRef().(*element); ok && p.head != e {
		p.unlink(e)
		p.pushFront(e)
	}
	p.mu.Unlock()
}

// pushFront inserts e at MRU in O(1). Caller holds mu.
func (p *lru) pushFront(e *element) {
	e.prev = nil
	e.next = p.head
	if p.head != nil {
		p.head.prev = e
	}
	p.head = e
	if p.tail == nil {
		p.tail = e
	}
}

// unlink detaches e in O(1). Caller holds mu. Safe to call twice.
func (p *lru) unlink(e *element) {
	if e.prev != nil {
		e.prev.next = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	}
	if p.head == e {
		p.head = e.next
	}
	if p.tail == e {
		p.tail = e.prev
	}
	e.prev, e.next = nil, nil
}
