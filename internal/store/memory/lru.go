package memory

import "github.com/couchcryptid/vessel-position-service/internal/domain"

// lruIndex bounds the number of vessel keys held. Callers hold the cache lock.
type lruIndex struct {
	maxEntries int
	entries    map[domain.VesselKey]*node
	head       *node // most recently used
	tail       *node // least recently used
}

type node struct {
	key     domain.VesselKey
	entries []domain.CacheEntry // oldest first
	prev    *node
	next    *node
}

func newLRUIndex(maxEntries int) *lruIndex {
	return &lruIndex{
		maxEntries: maxEntries,
		entries:    make(map[domain.VesselKey]*node),
	}
}

func (c *lruIndex) get(key domain.VesselKey) (*node, bool) {
	n, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(n)
	return n, true
}

// getOrCreate returns the node for key, evicting the least recently used key
// when the bound is exceeded.
func (c *lruIndex) getOrCreate(key domain.VesselKey) *node {
	if n, ok := c.get(key); ok {
		return n
	}

	n := &node{key: key}
	c.entries[key] = n
	c.addToFront(n)

	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.evictTail()
	}
	return n
}

func (c *lruIndex) delete(n *node) {
	delete(c.entries, n.key)
	c.remove(n)
}

func (c *lruIndex) len() int { return len(c.entries) }

func (c *lruIndex) moveToFront(n *node) {
	if n == c.head {
		return
	}
	c.remove(n)
	c.addToFront(n)
}

func (c *lruIndex) addToFront(n *node) {
	n.next = c.head
	n.prev = nil
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *lruIndex) remove(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

func (c *lruIndex) evictTail() {
	if c.tail == nil {
		return
	}
	c.delete(c.tail)
}
