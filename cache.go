package mossy

import (
	"container/list"
	"sync"
	"time"
)

// reportCache is a bounded, process-local LRU keyed by report ID
// (spec §4.8), adapted from a generic doubly-linked-list LRU with an
// added mutex and optional per-entry TTL. Eviction drops the Report
// value, releasing its owned token/fragment buffers to the garbage
// collector.
type reportCache struct {
	mu         sync.Mutex
	maxEntries int
	ttl        time.Duration
	ll         *list.List
	index      map[string]*list.Element
	now        func() time.Time
	onEvict    func(id string)
}

type cacheEntry struct {
	key      string
	report   *Report
	storedAt time.Time
}

func newReportCache(maxEntries int, ttl time.Duration) *reportCache {
	return &reportCache{
		maxEntries: maxEntries,
		ttl:        ttl,
		ll:         list.New(),
		index:      make(map[string]*list.Element),
		now:        time.Now,
	}
}

func (c *reportCache) Put(r *Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ele, ok := c.index[r.ID]; ok {
		c.ll.MoveToFront(ele)
		ele.Value.(*cacheEntry).report = r
		ele.Value.(*cacheEntry).storedAt = c.now()
		return
	}

	ele := c.ll.PushFront(&cacheEntry{key: r.ID, report: r, storedAt: c.now()})
	c.index[r.ID] = ele
	if c.maxEntries > 0 && c.ll.Len() > c.maxEntries {
		c.removeOldest()
	}
}

func (c *reportCache) Get(id string) (*Report, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ele, ok := c.index[id]
	if !ok {
		return nil, false
	}
	entry := ele.Value.(*cacheEntry)
	if c.ttl > 0 && c.now().Sub(entry.storedAt) > c.ttl {
		c.removeElement(ele)
		return nil, false
	}

	c.ll.MoveToFront(ele)
	return entry.report, true
}

func (c *reportCache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, ok := c.index[id]; ok {
		c.removeElement(ele)
	}
}

func (c *reportCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *reportCache) removeOldest() {
	if ele := c.ll.Back(); ele != nil {
		c.removeElement(ele)
	}
}

func (c *reportCache) removeElement(e *list.Element) {
	c.ll.Remove(e)
	entry := e.Value.(*cacheEntry)
	delete(c.index, entry.key)
	if c.onEvict != nil {
		c.onEvict(entry.key)
	}
}
