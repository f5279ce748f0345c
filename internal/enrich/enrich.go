// Package enrich fills in missing facility coordinates by consulting the
// geocode cache first and the live resolver only on a miss. Live calls are
// paced with a fixed pause so the upstream geocoding service is never
// hammered, and failures are soft: a facility that cannot be resolved stays
// in the list without coordinates.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/smkmitra/pkl-location-service/internal/domain"
	"github.com/smkmitra/pkl-location-service/internal/geocache"
	"github.com/smkmitra/pkl-location-service/internal/notify"
	"github.com/smkmitra/pkl-location-service/internal/observability"
)

// Resolver turns a free-form address query into a coordinate. A nil
// coordinate with a nil error means the query produced no usable result.
type Resolver interface {
	Resolve(ctx context.Context, query string) (*domain.Coordinate, error)
}

// Enricher resolves coordinates for facilities that lack them.
type Enricher struct {
	resolver Resolver
	cache    *geocache.Cache
	notifier notify.Notifier
	metrics  *observability.Metrics
	logger   *slog.Logger
	delay    time.Duration

	mu        sync.Mutex
	resolving map[int64]struct{}
}

// New builds an Enricher. delay is the pause inserted after every live
// resolver call, successful or not; cache hits are never delayed. A nil
// resolver disables live geocoding while still serving cached coordinates.
func New(resolver Resolver, cache *geocache.Cache, notifier notify.Notifier, metrics *observability.Metrics, logger *slog.Logger, delay time.Duration) *Enricher {
	if notifier == nil {
		notifier = notify.Nop
	}
	return &Enricher{
		resolver:  resolver,
		cache:     cache,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger,
		delay:     delay,
		resolving: make(map[int64]struct{}),
	}
}

// EnrichAll returns a new slice in the same order as list, with coordinates
// filled in where the cache or the resolver could supply them. Records that
// already carry coordinates pass through untouched and cost no network call.
// Resolution failures are logged and skipped; the record stays in the result
// without coordinates. Cancelling ctx stops further lookups but never drops
// records.
func (e *Enricher) EnrichAll(ctx context.Context, list []domain.Facility) []domain.Facility {
	out := make([]domain.Facility, 0, len(list))
	for _, f := range list {
		if ctx.Err() != nil {
			out = append(out, f)
			continue
		}
		enriched, live := e.enrichRecord(ctx, f)
		out = append(out, enriched)
		if live {
			e.pause(ctx)
		}
	}
	return out
}

// enrichRecord resolves a single facility. The second return reports whether
// a live resolver call was made, which is what triggers the pacing pause.
func (e *Enricher) enrichRecord(ctx context.Context, f domain.Facility) (domain.Facility, bool) {
	if f.HasCoordinates() {
		return f, false
	}
	query := f.GeocodeQuery()
	if query == "" {
		return f, false
	}
	if coord, ok := e.cache.Get(query); ok {
		e.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		f.Coord = &coord
		return f, false
	}
	e.metrics.GeocodeCache.WithLabelValues("miss").Inc()
	if e.resolver == nil {
		return f, false
	}

	coord, err := e.resolver.Resolve(ctx, query)
	if err != nil {
		e.logger.Warn("geocoding failed", "facility_id", f.ID, "query", query, "error", err)
		return f, true
	}
	if coord == nil {
		e.logger.Debug("no geocoding result", "facility_id", f.ID, "query", query)
		return f, true
	}
	e.cache.Put(ctx, query, *coord)
	f.Coord = coord
	return f, true
}

// Locate resolves coordinates for a single facility on demand. Unlike the
// batch path it reports failures to the notifier so the user sees why the
// map could not jump to the facility. The returned coordinate is nil when
// resolution failed.
func (e *Enricher) Locate(ctx context.Context, f domain.Facility) (domain.Facility, *domain.Coordinate) {
	if f.HasCoordinates() {
		e.metrics.LocateRequests.WithLabelValues("resolved").Inc()
		return f, f.Coord
	}
	query := f.GeocodeQuery()
	if query == "" {
		e.notifier.Error("Alamat tidak tersedia. Tidak dapat mencari koordinat lokasi.")
		e.metrics.LocateRequests.WithLabelValues("miss").Inc()
		return f, nil
	}
	if coord, ok := e.cache.Get(query); ok {
		e.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		e.metrics.LocateRequests.WithLabelValues("resolved").Inc()
		f.Coord = &coord
		return f, &coord
	}
	e.metrics.GeocodeCache.WithLabelValues("miss").Inc()
	if e.resolver == nil {
		e.notifier.Error("Pencarian koordinat sedang dinonaktifkan.")
		e.metrics.LocateRequests.WithLabelValues("miss").Inc()
		return f, nil
	}

	e.markResolving(f.ID)
	defer e.clearResolving(f.ID)

	coord, err := e.resolver.Resolve(ctx, query)
	if err != nil {
		e.logger.Warn("locate geocoding failed", "facility_id", f.ID, "query", query, "error", err)
		e.notifier.Error(fmt.Sprintf("Gagal mencari koordinat untuk %q. Silakan coba lagi nanti.", query))
		e.metrics.LocateRequests.WithLabelValues("miss").Inc()
		return f, nil
	}
	if coord == nil {
		e.notifier.Error(fmt.Sprintf("Tidak dapat menemukan koordinat untuk %q. Pastikan alamat lengkap dan valid.", query))
		e.metrics.LocateRequests.WithLabelValues("miss").Inc()
		return f, nil
	}
	e.cache.Put(ctx, query, *coord)
	e.metrics.LocateRequests.WithLabelValues("resolved").Inc()
	f.Coord = coord
	return f, coord
}

// Resolving reports whether a Locate call for the given facility is in
// flight. The HTTP layer uses it to mark the spinner state in responses.
func (e *Enricher) Resolving(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.resolving[id]
	return ok
}

func (e *Enricher) markResolving(id int64) {
	e.mu.Lock()
	e.resolving[id] = struct{}{}
	e.mu.Unlock()
}

func (e *Enricher) clearResolving(id int64) {
	e.mu.Lock()
	delete(e.resolving, id)
	e.mu.Unlock()
}

// pause waits out the inter-request delay, returning early if ctx is
// cancelled.
func (e *Enricher) pause(ctx context.Context) {
	if e.delay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-clock.After(e.delay):
	}
}
