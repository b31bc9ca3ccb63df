package slideshow

import (
	"container/list"
	"sync"
)

// Cache is a bounded, thread-safe LRU mapping from asset position to raw
// media bytes. Positions are stable within one slideshow run, which makes
// them a better key than asset IDs: look-ahead and look-behind are just
// position arithmetic.
//
// A zero count or byte limit disables that bound. Get never blocks and a
// miss is an ordinary outcome, not an error.
type Cache struct {
	mu         sync.Mutex
	countLimit int
	byteLimit  int
	bytes      int
	evictList  *list.List
	items      map[int]*list.Element
}

type cacheEntry struct {
	position int
	data     []byte
}

// NewCache creates a cache bounded by entry count and/or total byte cost.
func NewCache(countLimit, byteLimit int) *Cache {
	return &Cache{
		countLimit: countLimit,
		byteLimit:  byteLimit,
		evictList:  list.New(),
		items:      make(map[int]*list.Element),
	}
}

// Get retrieves the media stored for a position, marking it recently used.
func (c *Cache) Get(position int) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.items[position]
	if !ok {
		return nil, false
	}

	c.evictList.MoveToFront(node)
	return node.Value.(*cacheEntry).data, true
}

// Set stores media for a position, evicting least-recently-used entries
// until both bounds hold again.
func (c *Cache) Set(position int, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.items[position]; ok {
		c.evictList.MoveToFront(node)
		ent := node.Value.(*cacheEntry)
		c.bytes += len(data) - len(ent.data)
		ent.data = data
	} else {
		node := c.evictList.PushFront(&cacheEntry{position: position, data: data})
		c.items[position] = node
		c.bytes += len(data)
	}

	for c.overBudget() {
		c.removeOldest()
	}
}

func (c *Cache) overBudget() bool {
	if c.evictList.Len() <= 1 {
		return false
	}
	if c.countLimit > 0 && c.evictList.Len() > c.countLimit {
		return true
	}
	if c.byteLimit > 0 && c.bytes > c.byteLimit {
		return true
	}
	return false
}

func (c *Cache) removeOldest() {
	node := c.evictList.Back()
	if node == nil {
		return
	}
	c.evictList.Remove(node)
	ent := node.Value.(*cacheEntry)
	delete(c.items, ent.position)
	c.bytes -= len(ent.data)
}

// Clear drops everything, bounding memory across slideshow sessions.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[int]*list.Element)
	c.evictList.Init()
	c.bytes = 0
}

// Len returns the number of resident entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.evictList.Len()
}
