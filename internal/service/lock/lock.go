// Package lock serializes work per key: in process with a keyed mutex and
// across bot instances with a Redis lease.
package lock

import "context"

// Locker acquires an exclusive hold on key. The returned release func must be
// called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// Chain acquires each locker in order and releases them in reverse.
type Chain []Locker

func (c Chain) Lock(ctx context.Context, key string) (func(), error) {
	releases := make([]func(), 0, len(c))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	for _, l := range c {
		if l == nil {
			continue
		}
		release, err := l.Lock(ctx, key)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}
