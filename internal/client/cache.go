package client

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/servicebook/internal/access"
	"github.com/frahmantamala/servicebook/internal/core/events"
	gocache "github.com/patrickmn/go-cache"
)

// FacetsCache keeps facets per collection and per viewer, since the API computes them from
// the rows the viewer can see.
type FacetsCache struct {
	cache  *gocache.Cache
	logger *slog.Logger
}

func NewFacetsCache(ttl time.Duration, logger *slog.Logger) *FacetsCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &FacetsCache{
		cache:  gocache.New(ttl, 2*ttl),
		logger: logger,
	}
}

func facetsKey(collection access.Collection, viewer string) string {
	return string(collection) + "|" + viewer
}

// Get returns cached facets or fetches them with c. Failures are not cached.
func (fc *FacetsCache) Get(ctx context.Context, c *Client, collection access.Collection, viewer string) (Facets, error) {
	key := facetsKey(collection, viewer)
	if cached, found := fc.cache.Get(key); found {
		return cached.(Facets), nil
	}

	facets, err := c.Facets(ctx, collection)
	if err != nil {
		return nil, err
	}
	fc.cache.SetDefault(key, facets)
	return facets, nil
}

// Invalidate drops every viewer's facets for the given collections.
func (fc *FacetsCache) Invalidate(collections ...string) {
	for key := range fc.cache.Items() {
		for _, collection := range collections {
			if strings.HasPrefix(key, collection+"|") {
				fc.cache.Delete(key)
				break
			}
		}
	}
	fc.logger.Debug("facets invalidated", "collections", collections)
}

// OnCollectionInvalidated is the event handler for events.EventTypeCollectionInvalidated.
func (fc *FacetsCache) OnCollectionInvalidated(_ context.Context, event events.Event) error {
	ev, ok := event.(*events.CollectionInvalidatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	fc.Invalidate(ev.Collections...)
	return nil
}

// Affected lists the collections whose derived data a write to collection makes stale.
// Machine rows feed the serial and service company facets of the other two.
func Affected(collection access.Collection) []string {
	if collection == access.Machines {
		return []string{string(access.Machines), string(access.Maintenance), string(access.Claims)}
	}
	return []string{string(collection)}
}
