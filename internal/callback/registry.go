// Package callback provides a tagged publish/subscribe list.
//
// A Registry is owned by exactly one component (a mirror, an entity, a grid)
// and lives as long as that component. There is no process-wide registry.
package callback

// Registry maps an event tag to an insertion-ordered list of subscribers.
//
// Registry is not safe for concurrent use. Owners run it from a single
// dispatch goroutine.
type Registry[K comparable, P any] struct {
	subs map[K][]func(P)
}

// New creates an empty registry.
func New[K comparable, P any]() *Registry[K, P] {
	return &Registry[K, P]{subs: make(map[K][]func(P))}
}

// On appends fn to the subscriber list for tag.
func (r *Registry[K, P]) On(tag K, fn func(P)) {
	if r.subs == nil {
		r.subs = make(map[K][]func(P))
	}
	r.subs[tag] = append(r.subs[tag], fn)
}

// Run invokes every subscriber registered for tag with payload, in
// registration order. A panicking subscriber propagates to the caller and the
// remaining subscribers are not invoked.
//
// Subscribers added by a subscriber during Run are not invoked until the next Run.
func (r *Registry[K, P]) Run(tag K, payload P) {
	subs := r.subs[tag]
	for _, fn := range subs {
		fn(payload)
	}
}

// Len returns the number of subscribers registered for tag.
func (r *Registry[K, P]) Len(tag K) int {
	return len(r.subs[tag])
}
