package resolve

import (
	"fmt"
	"strings"

	"crest/internal/ir"
	"crest/internal/types"
)

// cacheKey identifies a wrapper by its origin function and a canonical
// signature of what the wrapper absorbs: the omitted formals for a default
// wrapper, the promoted formal-to-type map for a promotion wrapper.
type cacheKey struct {
	fn  ir.FuncID
	sig string
}

// WrapperCache deduplicates synthesized wrappers across call sites. A hit
// returns a wrapper with identical observable behavior for that key. Entries
// are added only after a wrapper is fully constructed, so a second call site
// with the same key sees either a miss or a complete wrapper, never a
// partially built one.
type WrapperCache struct {
	entries map[cacheKey]ir.FuncID
}

// NewWrapperCache returns an empty cache.
func NewWrapperCache() *WrapperCache {
	return &WrapperCache{entries: make(map[cacheKey]ir.FuncID)}
}

// Lookup returns the cached wrapper for (fn, sig), or NoFuncID.
func (c *WrapperCache) Lookup(fn ir.FuncID, sig string) ir.FuncID {
	return c.entries[cacheKey{fn: fn, sig: sig}]
}

// Add records a fully constructed wrapper under (fn, sig).
func (c *WrapperCache) Add(fn ir.FuncID, sig string, wrapper ir.FuncID) {
	c.entries[cacheKey{fn: fn, sig: sig}] = wrapper
}

// Len reports the number of cached wrappers.
func (c *WrapperCache) Len() int { return len(c.entries) }

// defaultsKey canonicalizes an omitted-formal list (already in declaration
// order).
func defaultsKey(omitted []ir.FormalID) string {
	var b strings.Builder
	b.WriteString("d:")
	for i, f := range omitted {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", f)
	}
	return b.String()
}

// promotionsKey canonicalizes a promoted-formal substitution. order holds the
// promoted formals in declaration order.
func promotionsKey(order []ir.FormalID, subs map[ir.FormalID]types.TypeID) string {
	var b strings.Builder
	b.WriteString("p:")
	for i, f := range order {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d=%d", f, subs[f])
	}
	return b.String()
}
