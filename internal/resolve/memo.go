package resolve

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rotisserie/eris"

	"github.com/sells-group/hubmatch/internal/geo"
)

type memoEntry struct {
	point geo.Point
	ok    bool
}

// Memo remembers recent answers of another resolver in a bounded LRU, so a
// code listed under several hubs or looked up again by the API is resolved
// once.
type Memo struct {
	inner Resolver
	cache *lru.Cache[string, memoEntry]
}

// NewMemo wraps inner with an LRU of the given size.
func NewMemo(inner Resolver, size int) (*Memo, error) {
	cache, err := lru.New[string, memoEntry](size)
	if err != nil {
		return nil, eris.Wrap(err, "resolve: create memo")
	}
	return &Memo{inner: inner, cache: cache}, nil
}

// Resolve answers from memory or asks the inner resolver. Answers given
// while ctx is cancelled are not remembered, nor are misses caused by a
// failure of an inner Source.
func (m *Memo) Resolve(ctx context.Context, code string) (geo.Point, bool) {
	if e, ok := m.cache.Get(code); ok {
		return e.point, e.ok
	}
	p, ok, err := lookup(ctx, m.inner, code)
	if err != nil {
		logFailure(ctx, code, err)
		return geo.Point{}, false
	}
	if ctx.Err() == nil {
		m.cache.Add(code, memoEntry{point: p, ok: ok})
	}
	return p, ok
}

// Len returns the number of remembered codes.
func (m *Memo) Len() int { return m.cache.Len() }
