package view

import (
	"sort"
	"sync"
	"time"
)

const subscriberBuffer = 100

// MemoryDocument is an in-memory implementation of [Document].
//
// Writes that leave a node's content unchanged are not broadcast, so
// re-rendering the same data produces no traffic.
type MemoryDocument struct {
	mu    sync.RWMutex
	nodes map[string]Node
	now   func() time.Time

	subMu       sync.RWMutex
	subscribers map[chan Node]struct{}
}

// NewMemoryDocument creates an empty [MemoryDocument].
func NewMemoryDocument() *MemoryDocument {
	return &MemoryDocument{
		nodes:       make(map[string]Node),
		now:         time.Now,
		subscribers: make(map[chan Node]struct{}),
	}
}

// SetText replaces the node's content with plain text.
func (d *MemoryDocument) SetText(id, text string) {
	d.set(Node{ID: id, Text: text})
}

// SetHTML replaces the node's content with markup.
func (d *MemoryDocument) SetHTML(id, markup string) {
	d.set(Node{ID: id, HTML: markup, Markup: true})
}

func (d *MemoryDocument) set(n Node) {
	d.mu.Lock()
	prev, ok := d.nodes[n.ID]
	if ok && prev.Markup == n.Markup && prev.Text == n.Text && prev.HTML == n.HTML {
		d.mu.Unlock()
		return
	}
	n.UpdatedAt = d.now()
	d.nodes[n.ID] = n
	d.mu.Unlock()

	d.notifySubscribers(n)
}

// Get returns the node with the given id.
func (d *MemoryDocument) Get(id string) (Node, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.nodes[id]
	return n, ok
}

// All returns a snapshot of all nodes ordered by id.
func (d *MemoryDocument) All() []Node {
	d.mu.RLock()
	nodes := make([]Node, 0, len(d.nodes))
	for _, n := range d.nodes {
		nodes = append(nodes, n)
	}
	d.mu.RUnlock()

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// Subscribe creates a new subscription with a buffer of 100 nodes.
//
// Caller must call [MemoryDocument.Unsubscribe] when done.
func (d *MemoryDocument) Subscribe() <-chan Node {
	ch := make(chan Node, subscriberBuffer)
	d.subMu.Lock()
	d.subscribers[ch] = struct{}{}
	d.subMu.Unlock()
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (d *MemoryDocument) Unsubscribe(ch <-chan Node) {
	d.subMu.Lock()
	defer d.subMu.Unlock()

	for subCh := range d.subscribers {
		if subCh == ch {
			delete(d.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers is non-blocking: a full subscriber buffer drops the node.
func (d *MemoryDocument) notifySubscribers(n Node) {
	d.subMu.RLock()
	defer d.subMu.RUnlock()

	for ch := range d.subscribers {
		select {
		case ch <- n:
		default:
		}
	}
}
