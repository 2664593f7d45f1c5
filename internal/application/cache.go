package application

import (
	"container/list"
	"sync"
	"time"

	"github.com/bnema/annoirc/internal/domain"
	"github.com/bnema/annoirc/internal/ports"
)

type cacheEntry struct {
	command    domain.Command
	handle     *Handle
	admittedAt time.Time
}

// Cache maps commands to their in-flight or completed handles. Lookup and
// admission happen under one lock so a command is admitted at most once
// while its entry is live.
type Cache struct {
	mu       sync.Mutex
	clock    ports.Clock
	ttl      time.Duration
	capacity int
	entries  map[domain.Command]*list.Element
	lru      *list.List
}

func NewCache(ttl time.Duration, capacity int, clock ports.Clock) *Cache {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	c := &Cache{clock: clock}
	c.reset(ttl, capacity)
	return c
}

func (c *Cache) reset(ttl time.Duration, capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	c.ttl = ttl
	c.capacity = capacity
	c.entries = make(map[domain.Command]*list.Element, capacity)
	c.lru = list.New()
}

// LookupOrAdmit returns the live handle for command, or admits a new
// unresolved one and reports isNew.
func (c *Cache) LookupOrAdmit(command domain.Command) (handle *Handle, isNew bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()

	if elem, ok := c.entries[command]; ok {
		entry := elem.Value.(*cacheEntry)
		if now.Sub(entry.admittedAt) < c.ttl {
			c.lru.MoveToFront(elem)
			return entry.handle, false
		}
		c.removeElement(elem)
	}

	for c.lru.Len() >= c.capacity {
		c.removeElement(c.lru.Back())
	}

	handle = newHandle(command)
	c.entries[command] = c.lru.PushFront(&cacheEntry{
		command:    command,
		handle:     handle,
		admittedAt: now,
	})
	return handle, true
}

// Forget drops command only while it still maps to handle.
func (c *Cache) Forget(command domain.Command, handle *Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[command]; ok && elem.Value.(*cacheEntry).handle == handle {
		c.removeElement(elem)
	}
}

// Reconfigure replaces the contents with an empty cache. Handles already
// handed out keep resolving but are no longer reachable.
func (c *Cache) Reconfigure(ttl time.Duration, capacity int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset(ttl, capacity)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *Cache) Settings() (time.Duration, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl, c.capacity
}

func (c *Cache) removeElement(elem *list.Element) {
	entry := c.lru.Remove(elem).(*cacheEntry)
	delete(c.entries, entry.command)
}
