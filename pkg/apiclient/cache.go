package apiclient

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

type entry struct {
	data     json.RawMessage
	storedAt time.Time
	ttl      time.Duration
}

// Cache - in-memory кэш ответов API с TTL на каждую запись. Протухшие
// записи не удаляются при чтении, а перезаписываются следующим успешным
// запросом. Кэш живет в памяти процесса и сбрасывается при рестарте
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry

	// подменяется в тестах
	now func() time.Time
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get возвращает данные, если запись есть и ее TTL не истек
func (c *Cache) Get(key string) (json.RawMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	// Запись свежая, пока возраст строго меньше TTL
	if c.now().Sub(e.storedAt) >= e.ttl {
		return nil, false
	}

	return e.data, true
}

// Set сохраняет данные с заданным TTL
func (c *Cache) Set(key string, data json.RawMessage, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{data: data, storedAt: c.now(), ttl: ttl}
}

// Invalidate удаляет записи, ключ которых содержит pattern.
// Пустой pattern очищает кэш целиком
func (c *Cache) Invalidate(pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pattern == "" {
		c.entries = make(map[string]entry)
		return
	}

	for key := range c.entries {
		if strings.Contains(key, pattern) {
			delete(c.entries, key)
		}
	}
}

// Len возвращает количество записей, включая протухшие
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
