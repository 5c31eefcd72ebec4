// Package cache memoizes per-token segmentation results.
package cache

import (
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"morphsplit/internal/domain"
	"morphsplit/internal/port"
)

// DefaultSize is the number of distinct tokens kept when no size is given.
const DefaultSize = 1 << 16

// SegmentCache is an LRU of token to morphs. Cached slices are shared and
// must not be modified.
type SegmentCache struct {
	entries *lru.Cache[string, []string]

	mu     sync.Mutex
	hits   int
	misses int
}

// NewSegmentCache creates a cache holding up to maxSize tokens.
func NewSegmentCache(maxSize int) (*SegmentCache, error) {
	if maxSize <= 0 {
		maxSize = DefaultSize
	}
	entries, err := lru.New[string, []string](maxSize)
	if err != nil {
		return nil, err
	}
	return &SegmentCache{entries: entries}, nil
}

func (c *SegmentCache) get(token string) ([]string, bool) {
	morphs, ok := c.entries.Get(token)
	c.mu.Lock()
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
	return morphs, ok
}

func (c *SegmentCache) put(token string, morphs []string) {
	c.entries.Add(token, morphs)
}

// Purge drops every entry.
func (c *SegmentCache) Purge() {
	c.entries.Purge()
}

// Size returns the number of cached tokens.
func (c *SegmentCache) Size() int {
	return c.entries.Len()
}

// Stats returns the hit and miss counts.
func (c *SegmentCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// CachedSegmenter serves known tokens from the cache and passes the rest of
// a sentence to the wrapped segmenter in a single call. Sentences made only
// of known tokens never reach the wrapped segmenter, so it must segment each
// token independently of its neighbours.
type CachedSegmenter struct {
	segmenter port.Segmenter
	cache     *SegmentCache
}

// NewCachedSegmenter wraps segmenter with cache.
func NewCachedSegmenter(segmenter port.Segmenter, cache *SegmentCache) *CachedSegmenter {
	return &CachedSegmenter{
		segmenter: segmenter,
		cache:     cache,
	}
}

// Segment returns in with every word split into morphs. The input
// segmentation is ignored.
func (s *CachedSegmenter) Segment(in domain.Sentence) (domain.Sentence, error) {
	out := domain.Sentence{Words: make([]domain.Word, len(in.Words))}

	var pending domain.Sentence
	var slots []int
	for i, w := range in.Words {
		token := w.Text()
		if morphs, ok := s.cache.get(token); ok {
			out.Words[i] = domain.Word{Morphs: morphs}
			continue
		}
		pending.Words = append(pending.Words, domain.NewWord(token))
		slots = append(slots, i)
	}
	if len(slots) == 0 {
		return out, nil
	}

	segmented, err := s.segmenter.Segment(pending)
	if err != nil {
		return domain.Sentence{}, err
	}
	if len(segmented.Words) != len(pending.Words) {
		return domain.Sentence{}, &domain.SegmentationError{
			Token:   strings.Join(pending.Tokens(), " "),
			Message: fmt.Sprintf("model returned %d words for %d tokens", len(segmented.Words), len(pending.Words)),
		}
	}
	for j, w := range segmented.Words {
		out.Words[slots[j]] = w
		s.cache.put(pending.Words[j].Text(), w.Morphs)
	}
	return out, nil
}
