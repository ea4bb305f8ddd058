package extract

import "sync"

// Store persists extraction results keyed by relative path plus content hash.
// A Get miss (nil, false) and a corrupt entry look the same to callers: the
// file is simply re-extracted.
type Store interface {
	Get(relPath, hash string) (*SourceFile, bool)
	Put(sf *SourceFile) error
}

// MemoryStore is the in-process Store used for single-shot runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*SourceFile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*SourceFile)}
}

func memKey(relPath, hash string) string {
	return relPath + "\x00" + hash
}

func (m *MemoryStore) Get(relPath, hash string) (*SourceFile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sf, ok := m.entries[memKey(relPath, hash)]
	if !ok {
		return nil, false
	}
	return sf.Clone(), true
}

func (m *MemoryStore) Put(sf *SourceFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[memKey(sf.RelPath, sf.Hash)] = sf.Clone()
	return nil
}

// CachedExtractor serves extraction results from a Store when the content
// hash matches and extracts (then stores) otherwise. Returned records are
// always private copies; callers may mutate them freely.
type CachedExtractor struct {
	extractor *Extractor
	store     Store

	mu     sync.Mutex
	hits   int
	misses int
}

func NewCachedExtractor(e *Extractor, store Store) *CachedExtractor {
	return &CachedExtractor{extractor: e, store: store}
}

func (c *CachedExtractor) Extract(relPath string, content []byte) (*SourceFile, error) {
	hash := ContentHash(content)
	if sf, ok := c.store.Get(relPath, hash); ok && sf != nil {
		c.count(true)
		return sf, nil
	}
	c.count(false)

	sf := c.extractor.Extract(relPath, content)
	if err := c.store.Put(sf); err != nil {
		return nil, err
	}
	return sf.Clone(), nil
}

func (c *CachedExtractor) count(hit bool) {
	c.mu.Lock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
}

// Stats reports cache effectiveness for the run summary.
func (c *CachedExtractor) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
