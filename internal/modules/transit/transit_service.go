package transit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"parcel-courier/internal/models"
	"parcel-courier/internal/store"
	"parcel-courier/pkg/utils"

	"go.uber.org/zap"
)

// Geocoder attaches coordinates to events, degrading failures to nil.
type Geocoder interface {
	Lookup(ctx context.Context, location, country string) *models.Coordinates
	Events(ctx context.Context, events []models.TransportEvent) []models.TransportEvent
}

// ServiceInterface defines business logic for transport history.
type ServiceInterface interface {
	FetchAll(ctx context.Context) ([]models.TransportEvent, error)
	History(ctx context.Context, parcelID string) ([]models.TransportEvent, error)
	Add(ctx context.Context, parcelID string, req models.TransportEventRequest) (*models.TransportEvent, error)
	Edit(ctx context.Context, id string, req models.TransportEventRequest) (*models.TransportEvent, error)
	Delete(ctx context.Context, id string) (*models.TransportEvent, error)
	State() store.Snapshot[models.TransportEvent]
}

// Service implements ServiceInterface on top of the Transit container.
type Service struct {
	repo     RepositoryInterface
	geocoder Geocoder
	state    *store.Transit
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(repo RepositoryInterface, geocoder Geocoder, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		geocoder: geocoder,
		state:    store.NewTransit(),
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) Name() string { return "transit" }

// Refresh reloads the container; it lets the cache refresher drive this service.
func (s *Service) Refresh(ctx context.Context) error {
	_, err := s.FetchAll(ctx)
	return err
}

// FetchAll loads every event and geocodes it.
func (s *Service) FetchAll(ctx context.Context) ([]models.TransportEvent, error) {
	s.state.Begin()
	events, err := s.repo.List(ctx)
	if err != nil {
		s.state.Reject(err)
		s.logger.Error("Failed to fetch transport history", zap.Error(err))
		return nil, fmt.Errorf("service.FetchAll: %w", err)
	}
	events = s.geocoder.Events(ctx, events)
	s.state.Replace(events)
	return events, nil
}

// History returns the geocoded history of one parcel, oldest first.
func (s *Service) History(ctx context.Context, parcelID string) ([]models.TransportEvent, error) {
	events, err := s.repo.ListByParcel(ctx, parcelID)
	if err != nil {
		return nil, fmt.Errorf("service.History: %w", err)
	}
	return s.geocoder.Events(ctx, events), nil
}

func parseEventRequest(req models.TransportEventRequest) (models.TransportEvent, error) {
	req.Location = strings.TrimSpace(req.Location)
	req.Country = strings.TrimSpace(req.Country)
	if err := utils.GetValidator().Validate(req); err != nil {
		return models.TransportEvent{}, err
	}
	date, err := time.Parse(models.DateLayout, req.Date)
	if err != nil {
		return models.TransportEvent{}, fmt.Errorf("%w: invalid date %q", models.ErrValidation, req.Date)
	}
	return models.TransportEvent{Location: req.Location, Country: req.Country, Date: date}, nil
}

// Add records a new stop for parcelID, stamped with the current time of day.
func (s *Service) Add(ctx context.Context, parcelID string, req models.TransportEventRequest) (*models.TransportEvent, error) {
	ev, err := parseEventRequest(req)
	if err != nil {
		return nil, err
	}
	ev.ParcelID = parcelID
	ev.Time = s.now().Format(models.TimeLayout)

	s.state.Begin()
	if err := s.repo.Create(ctx, &ev); err != nil {
		s.state.Reject(err)
		return nil, fmt.Errorf("service.Add: %w", err)
	}
	ev.Coordinates = s.geocoder.Lookup(ctx, ev.Location, ev.Country)
	s.state.Put(ev)
	s.state.Resolve()
	return &ev, nil
}

// Edit changes the location, country and date of an event.
func (s *Service) Edit(ctx context.Context, id string, req models.TransportEventRequest) (*models.TransportEvent, error) {
	ev, err := parseEventRequest(req)
	if err != nil {
		return nil, err
	}
	ev.ID = id

	s.state.Begin()
	if err := s.repo.Update(ctx, &ev); err != nil {
		s.state.Reject(err)
		return nil, fmt.Errorf("service.Edit: %w", err)
	}
	ev.Coordinates = s.geocoder.Lookup(ctx, ev.Location, ev.Country)
	s.state.Put(ev)
	s.state.Resolve()
	return &ev, nil
}

// Delete removes an event and returns it so callers know its parcel.
func (s *Service) Delete(ctx context.Context, id string) (*models.TransportEvent, error) {
	s.state.Begin()
	ev, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.state.Reject(err)
		return nil, fmt.Errorf("service.Delete: %w", err)
	}
	s.state.Drop(id)
	s.state.Resolve()
	return ev, nil
}

func (s *Service) State() store.Snapshot[models.TransportEvent] {
	return s.state.Snapshot()
}
