package platform

import "sync"

// OnceCell lazily initializes a value exactly once on success; if the
// initializer returns an error the attempt is not committed and the next
// caller retries, matching the once-init primitive's get_or_try_init
// semantics this gateway's global catalogs rely on (spec §9, "Once-
// initialized globals").
type OnceCell[V any] struct {
	mu   sync.Mutex
	done bool
	val  V
}

func (o *OnceCell[V]) GetOrInit(init func() (V, error)) (V, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.done {
		return o.val, nil
	}

	v, err := init()
	if err != nil {
		var zero V
		return zero, err
	}

	o.val = v
	o.done = true
	return o.val, nil
}
