// Package assignee resolves external user ids to email addresses for one
// sync run at a time.
package assignee

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// UserLookup fetches one user's email address from the external system.
type UserLookup interface {
	GetUserEmail(ctx context.Context, userGID string) (string, error)
}

// lookupWorkers bounds the fan-out against the external API.
const lookupWorkers = 4

// Resolver batches email lookups for a single sync invocation. Within one
// invocation the same id is never looked up twice; the cache does not
// survive across invocations.
type Resolver struct {
	lookup UserLookup
	log    zerolog.Logger

	mu    sync.Mutex
	cache map[string]string
}

// NewResolver creates a resolver for one sync run.
func NewResolver(lookup UserLookup, log zerolog.Logger) *Resolver {
	return &Resolver{
		lookup: lookup,
		log:    log,
		cache:  make(map[string]string),
	}
}

// Resolve maps each id to its email address. Ids are deduplicated before
// any lookup is made and resolved with a bounded worker fan-out. An id
// that fails to resolve is omitted from the result; it never aborts the
// others.
func (r *Resolver) Resolve(ctx context.Context, gids []string) map[string]string {
	var pending []string
	seen := make(map[string]bool)
	for _, gid := range gids {
		if gid == "" || seen[gid] {
			continue
		}
		seen[gid] = true
		r.mu.Lock()
		_, cached := r.cache[gid]
		r.mu.Unlock()
		if !cached {
			pending = append(pending, gid)
		}
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	for range lookupWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for gid := range jobs {
				email, err := r.lookup.GetUserEmail(ctx, gid)
				if err != nil {
					r.log.Debug().Err(err).Str("user_gid", gid).Msg("assignee email lookup failed")
					continue
				}
				r.mu.Lock()
				r.cache[gid] = email
				r.mu.Unlock()
			}
		}()
	}
	for _, gid := range pending {
		jobs <- gid
	}
	close(jobs)
	wg.Wait()

	result := make(map[string]string, len(seen))
	r.mu.Lock()
	defer r.mu.Unlock()
	for gid := range seen {
		if email, ok := r.cache[gid]; ok {
			result[gid] = email
		}
	}
	return result
}
