package serializer

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/tagwire/tagwire/pkg/tagval"
)

type registryEntry struct {
	conv    Converter
	builtin bool
	seq     int
}

// registry holds the converter chain and answers type lookups. Lookups are
// memoized per type; registering a converter invalidates the cache.
type registry struct {
	mu      sync.RWMutex
	entries []registryEntry
	names   map[string]struct{}
	nextSeq int
	cache   map[reflect.Type]Converter
}

func newRegistry() *registry {
	return &registry{
		names: make(map[string]struct{}),
		cache: make(map[reflect.Type]Converter),
	}
}

func (r *registry) add(c Converter, builtin bool) error {
	if c == nil {
		return fmt.Errorf("converter must not be nil")
	}
	if c.Name() == "" {
		return fmt.Errorf("converter name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.names[c.Name()]; ok {
		return fmt.Errorf("%w: %q", ErrConverterExists, c.Name())
	}
	r.names[c.Name()] = struct{}{}
	r.entries = append(r.entries, registryEntry{conv: c, builtin: builtin, seq: r.nextSeq})
	r.nextSeq++

	slices.SortStableFunc(r.entries, func(a, b registryEntry) int {
		if c := cmp.Compare(b.conv.Priority(), a.conv.Priority()); c != 0 {
			return c
		}
		if a.builtin != b.builtin {
			if a.builtin {
				return 1
			}
			return -1
		}
		return cmp.Compare(a.seq, b.seq)
	})

	r.cache = make(map[reflect.Type]Converter)
	return nil
}

// lookup returns the converter for t, or false when no converter claims it.
// Both hits and misses are cached.
func (r *registry) lookup(t reflect.Type) (Converter, bool) {
	r.mu.RLock()
	conv, ok := r.cache[t]
	r.mu.RUnlock()
	if ok {
		return conv, conv != nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if conv, ok := r.cache[t]; ok {
		return conv, conv != nil
	}
	for _, e := range r.entries {
		if e.conv.CanConvert(t) {
			r.cache[t] = e.conv
			return e.conv, true
		}
	}
	r.cache[t] = nil
	return nil, false
}

// guessType asks converters, in selection order, which Go type an incoming
// tag and kind suggest.
func (r *registry) guessType(tag uint64, kind tagval.Kind) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		g, ok := e.conv.(TypeGuesser)
		if !ok {
			continue
		}
		if t, ok := g.GuessType(tag, kind); ok {
			return t, true
		}
	}
	return nil, false
}

// validateIncoming gates a value against the converter's advertised tags
// and kinds before deserialization.
func validateIncoming(c Converter, t reflect.Type, val tagval.Value) error {
	tag := val.Tag()
	if tag != tagval.NoTag {
		if allowed := c.Tags(t); len(allowed) > 0 && !slices.Contains(allowed, tag) {
			return fmt.Errorf("%w: converter %q does not accept tag %d", ErrTagMismatch, c.Name(), tag)
		}
	}
	if kinds := c.Kinds(t, tag); len(kinds) > 0 && !slices.Contains(kinds, val.Kind()) {
		return fmt.Errorf("%w: converter %q does not accept %s", ErrKindMismatch, c.Name(), val.Kind())
	}
	return nil
}
