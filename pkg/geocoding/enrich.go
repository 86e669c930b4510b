package geocoding

import (
	"context"
	"errors"

	"parcel-courier/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Lookuper resolves a single (location, country) pair.
type Lookuper interface {
	Resolve(ctx context.Context, location, country string) (*models.Coordinates, error)
}

// Enricher attaches coordinates to transport events. A failed lookup leaves the
// event's coordinates nil and never affects the other events.
type Enricher struct {
	lookup      Lookuper
	concurrency int
	logger      *zap.Logger
}

func NewEnricher(lookup Lookuper, concurrency int, logger *zap.Logger) *Enricher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Enricher{lookup: lookup, concurrency: concurrency, logger: logger}
}

// Lookup resolves one pair, degrading every failure to nil.
func (e *Enricher) Lookup(ctx context.Context, location, country string) *models.Coordinates {
	coords, err := e.lookup.Resolve(ctx, location, country)
	if err != nil {
		if !errors.Is(err, ErrNoMatch) {
			e.logger.Debug("Geocoding lookup failed",
				zap.String("location", location),
				zap.String("country", country),
				zap.Error(err))
		}
		return nil
	}
	return coords
}

// Events returns a copy of events with Coordinates filled in. Lookups run
// concurrently and are joined back by position, so the result keeps the input order.
func (e *Enricher) Events(ctx context.Context, events []models.TransportEvent) []models.TransportEvent {
	out := make([]models.TransportEvent, len(events))
	copy(out, events)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i := range out {
		i := i
		g.Go(func() error {
			out[i].Coordinates = e.Lookup(gctx, out[i].Location, out[i].Country)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Shipments enriches the transport history of every shipment.
func (e *Enricher) Shipments(ctx context.Context, shipments []models.Shipment) []models.Shipment {
	out := make([]models.Shipment, len(shipments))
	for i, s := range shipments {
		s.TransportHistory = e.Events(ctx, s.TransportHistory)
		out[i] = s
	}
	return out
}
