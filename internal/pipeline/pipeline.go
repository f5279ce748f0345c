// Package pipeline runs the periodic refresh loop: fetch the facility list
// from the backend, enrich missing coordinates, swap the served snapshot,
// and push the result to the map controller. A refresh failure keeps the
// previous snapshot so the dashboard degrades instead of going blank.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smkmitra/pkl-location-service/internal/domain"
	"github.com/smkmitra/pkl-location-service/internal/mapview"
	"github.com/smkmitra/pkl-location-service/internal/notify"
	"github.com/smkmitra/pkl-location-service/internal/observability"
)

// ErrNotFound is returned by Locate for an unknown facility ID.
var ErrNotFound = errors.New("facility not found")

// FacilityFetcher retrieves the full facility list from the backend.
type FacilityFetcher interface {
	FetchFacilities(ctx context.Context) ([]domain.Facility, error)
}

// Enricher fills in missing coordinates.
type Enricher interface {
	EnrichAll(ctx context.Context, list []domain.Facility) []domain.Facility
	Locate(ctx context.Context, f domain.Facility) (domain.Facility, *domain.Coordinate)
	Resolving(id int64) bool
}

// EventPublisher receives newly resolved coordinates. Optional; a nil
// publisher disables publishing.
type EventPublisher interface {
	PublishResolved(ctx context.Context, events []domain.ResolvedLocation) error
}

// Service orchestrates the fetch-enrich-serve loop and answers queries
// against the latest snapshot.
type Service struct {
	fetcher   FacilityFetcher
	enricher  Enricher
	publisher EventPublisher
	mapctl    *mapview.Controller
	notifier  notify.Notifier
	logger    *slog.Logger
	metrics   *observability.Metrics
	interval  time.Duration
	ready     atomic.Bool

	mu         sync.RWMutex
	facilities []domain.Facility
}

// New creates a Service. publisher may be nil.
func New(fetcher FacilityFetcher, enricher Enricher, publisher EventPublisher, mapctl *mapview.Controller, notifier notify.Notifier, logger *slog.Logger, metrics *observability.Metrics, interval time.Duration) *Service {
	if notifier == nil {
		notifier = notify.Nop
	}
	return &Service{
		fetcher:   fetcher,
		enricher:  enricher,
		publisher: publisher,
		mapctl:    mapctl,
		notifier:  notifier,
		logger:    logger,
		metrics:   metrics,
		interval:  interval,
	}
}

// CheckReadiness returns nil once at least one refresh has succeeded.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("no facility snapshot loaded yet")
	}
	return nil
}

// Run executes the refresh loop until the context is cancelled. The first
// refresh happens immediately; afterwards refreshes run every interval, with
// exponential backoff replacing the interval while the backend is down.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("refresh loop started", "interval", s.interval)
	s.metrics.PipelineRunning.Set(1)
	defer s.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		if ctx.Err() != nil {
			s.logger.Info("refresh loop stopping", "reason", ctx.Err())
			return nil
		}

		if err := s.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error("refresh failed", "error", err)
			if !sleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}

		backoff = 200 * time.Millisecond
		if !sleepWithContext(ctx, s.interval) {
			return nil
		}
	}
}

// Refresh performs one fetch-enrich-swap cycle. On fetch failure the
// previous snapshot stays in place and the user-facing notifier shows the
// load failure banner.
func (s *Service) Refresh(ctx context.Context) error {
	start := time.Now()

	fetched, err := s.fetcher.FetchFacilities(ctx)
	if err != nil {
		s.metrics.FetchErrors.Inc()
		s.notifier.Error("Gagal memuat data lokasi PKL.")
		return err
	}
	s.metrics.FacilitiesFetched.Add(float64(len(fetched)))

	enriched := s.enricher.EnrichAll(ctx, fetched)

	s.mu.Lock()
	previous := s.facilities
	s.facilities = enriched
	s.mu.Unlock()

	s.mapctl.SetLocations(enriched)
	s.updateGauges(enriched)
	s.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	s.ready.Store(true)

	// Publish coordinates enrichment added this cycle, except those already
	// resolved in the previous snapshot (cache hits recur on every refresh).
	events := domain.DiffResolved(fetched, enriched, domain.SourceBatch, time.Now().UTC())
	prevResolved := make(map[int64]bool, len(previous))
	for _, f := range previous {
		if f.HasCoordinates() {
			prevResolved[f.ID] = true
		}
	}
	fresh := events[:0]
	for _, ev := range events {
		if !prevResolved[ev.FacilityID] {
			fresh = append(fresh, ev)
		}
	}
	events = fresh
	s.publish(ctx, events)

	s.logger.Info("snapshot refreshed",
		"facilities", len(enriched),
		"newly_resolved", len(events),
		"duration", time.Since(start),
	)
	return nil
}

// Facilities returns the current snapshot, optionally filtered by free-text
// query and sector.
func (s *Service) Facilities(query, sector string) []domain.Facility {
	s.mu.RLock()
	snapshot := s.facilities
	s.mu.RUnlock()
	return domain.FilterFacilities(snapshot, query, sector)
}

// Sectors lists the distinct sectors present in the snapshot.
func (s *Service) Sectors() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.UniqueSectors(s.facilities)
}

// Locate resolves coordinates for one facility on demand, updates the
// snapshot, and points the map at the result. A facility that cannot be
// resolved is returned without coordinates; the enricher has already told
// the user why.
func (s *Service) Locate(ctx context.Context, id int64) (domain.Facility, error) {
	s.mu.RLock()
	var target *domain.Facility
	for i := range s.facilities {
		if s.facilities[i].ID == id {
			f := s.facilities[i]
			target = &f
			break
		}
	}
	s.mu.RUnlock()
	if target == nil {
		return domain.Facility{}, ErrNotFound
	}

	updated, coord := s.enricher.Locate(ctx, *target)
	if coord == nil {
		return updated, nil
	}

	// Copy-on-write: published slices are read lock-free after RUnlock, so
	// the update goes into a fresh slice and the field is swapped wholesale.
	s.mu.Lock()
	snapshot := make([]domain.Facility, len(s.facilities))
	copy(snapshot, s.facilities)
	for i := range snapshot {
		if snapshot[i].ID == id {
			snapshot[i] = updated
			break
		}
	}
	s.facilities = snapshot
	s.mu.Unlock()

	s.mapctl.SetLocations(snapshot)
	s.mapctl.FocusOn(*coord)
	s.updateGauges(snapshot)

	s.publish(ctx, []domain.ResolvedLocation{{
		FacilityID: updated.ID,
		Name:       updated.Name,
		Query:      updated.GeocodeQuery(),
		Coordinate: *coord,
		Source:     domain.SourceLocate,
		ResolvedAt: time.Now().UTC(),
	}})
	return updated, nil
}

// Resolving reports whether an on-demand lookup for the facility is in
// flight.
func (s *Service) Resolving(id int64) bool {
	return s.enricher.Resolving(id)
}

func (s *Service) publish(ctx context.Context, events []domain.ResolvedLocation) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.PublishResolved(ctx, events); err != nil {
		// publishing is best-effort, the snapshot is already serving
		s.logger.Warn("publish resolved locations failed", "error", err, "count", len(events))
	}
}

func (s *Service) updateGauges(list []domain.Facility) {
	unresolved := 0
	for _, f := range list {
		if !f.HasCoordinates() {
			unresolved++
		}
	}
	s.metrics.FacilitiesTotal.Set(float64(len(list)))
	s.metrics.FacilitiesUnresolved.Set(float64(unresolved))
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
