package addresschange

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"parcel-courier/internal/models"
	"parcel-courier/internal/realtime"
	"parcel-courier/internal/store"
	"parcel-courier/pkg/utils"

	"go.uber.org/zap"
)

// Shipments is the part of the shipment service a request decision touches.
type Shipments interface {
	Find(ctx context.Context, parcelID string) (*models.Shipment, error)
	Update(ctx context.Context, parcelID string, patch models.ShipmentPatch) (*models.Shipment, error)
}

// ServiceInterface defines the contract for the address-change service.
type ServiceInterface interface {
	FetchAll(ctx context.Context) ([]models.AddressChangeRequest, error)
	Lookup(ctx context.Context, parcelID string) (*models.AddressChangeRequest, error)
	Create(ctx context.Context, parcelID string, req models.CreateAddressChangeRequest) (*models.AddressChangeRequest, error)
	Approve(ctx context.Context, parcelID string) (*models.AddressChangeRequest, error)
	Reject(ctx context.Context, parcelID string) (*models.AddressChangeRequest, error)
	Delete(ctx context.Context, parcelID string) error
	State() store.Snapshot[models.AddressChangeRequest]
}

// deletePayload is the body of a DELETE event: only the record key.
type deletePayload struct {
	ParcelID string `json:"parcel_id"`
}

// Service implements address-change requests. Every mutation is applied to the
// local container and broadcast on realtime.TopicAddressChangeRequest; the
// subscription started by Start merges the broadcasts of all instances.
type Service struct {
	repo      RepositoryInterface
	shipments Shipments
	broker    realtime.Broker
	state     *store.AddressRequests
	logger    *zap.Logger
}

func NewService(repo RepositoryInterface, shipments Shipments, broker realtime.Broker, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		shipments: shipments,
		broker:    broker,
		state:     store.NewAddressRequests(),
		logger:    logger,
	}
}

func (s *Service) Name() string { return "address_change_requests" }

func (s *Service) Refresh(ctx context.Context) error {
	_, err := s.FetchAll(ctx)
	return err
}

func (s *Service) State() store.Snapshot[models.AddressChangeRequest] {
	return s.state.Snapshot()
}

// Start subscribes the container to the request topic.
func (s *Service) Start() (realtime.Subscription, error) {
	sub, err := s.broker.Subscribe(realtime.TopicAddressChangeRequest, realtime.Handlers{
		OnInsert: func(ctx context.Context, ev realtime.Event) error {
			var r models.AddressChangeRequest
			if err := ev.Decode(&r); err != nil {
				return err
			}
			s.state.ApplyInsert(r)
			return nil
		},
		OnUpdate: func(ctx context.Context, ev realtime.Event) error {
			var r models.AddressChangeRequest
			if err := ev.Decode(&r); err != nil {
				return err
			}
			s.state.ApplyUpdate(r)
			return nil
		},
		OnDelete: func(ctx context.Context, ev realtime.Event) error {
			var p deletePayload
			if err := ev.Decode(&p); err != nil {
				return err
			}
			s.state.ApplyDelete(p.ParcelID)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("service.Start: %w", err)
	}
	return sub, nil
}

func (s *Service) publish(ctx context.Context, kind realtime.Kind, payload any) {
	if err := s.broker.Publish(ctx, realtime.TopicAddressChangeRequest, kind, payload); err != nil {
		s.logger.Warn("Failed to broadcast address-change request",
			zap.String("event", string(kind)), zap.Error(err))
	}
}

func (s *Service) FetchAll(ctx context.Context) ([]models.AddressChangeRequest, error) {
	s.state.Begin()
	list, err := s.repo.List(ctx)
	if err != nil {
		s.state.Reject(err)
		s.logger.Error("Failed to fetch address-change requests", zap.Error(err))
		return nil, fmt.Errorf("service.FetchAll: %w", err)
	}
	s.state.Replace(list)
	return list, nil
}

// Lookup returns the request for parcelID, or nil when the parcel has none.
func (s *Service) Lookup(ctx context.Context, parcelID string) (*models.AddressChangeRequest, error) {
	r, err := s.repo.FindByParcelID(ctx, parcelID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("service.Lookup: %w", err)
	}
	return r, nil
}

// Create files a Pending request to deliver parcelID to a new address. The old
// address is the shipment's current destination. A parcel has at most one
// Pending request; a second one is models.ErrConflict.
func (s *Service) Create(ctx context.Context, parcelID string, req models.CreateAddressChangeRequest) (*models.AddressChangeRequest, error) {
	req.NewAddress = strings.TrimSpace(req.NewAddress)
	if err := utils.GetValidator().Validate(req); err != nil {
		return nil, err
	}

	s.state.Begin()
	shipment, err := s.shipments.Find(ctx, parcelID)
	if err != nil {
		s.state.Reject(err)
		return nil, fmt.Errorf("service.Create: %w", err)
	}

	r := &models.AddressChangeRequest{
		ParcelID:   shipment.ParcelID,
		OldAddress: shipment.Destination,
		NewAddress: req.NewAddress,
		Status:     models.RequestPending,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		s.state.Reject(err)
		return nil, fmt.Errorf("service.Create: %w", err)
	}

	s.state.ApplyInsert(*r)
	s.state.Resolve()
	s.publish(ctx, realtime.Insert, r)
	return r, nil
}

// Approve moves a Pending request to Approved and sets the shipment's
// destination to the new address. Approving an Approved request only
// re-applies the destination, so a retry after a partial failure completes it.
func (s *Service) Approve(ctx context.Context, parcelID string) (*models.AddressChangeRequest, error) {
	s.state.Begin()
	r, _, err := s.decide(ctx, parcelID, models.RequestApproved)
	if err != nil {
		s.state.Reject(err)
		return nil, fmt.Errorf("service.Approve: %w", err)
	}

	dest := r.NewAddress
	if _, err := s.shipments.Update(ctx, parcelID, models.ShipmentPatch{Destination: &dest}); err != nil {
		s.state.Reject(err)
		return nil, fmt.Errorf("service.Approve: update destination: %w", err)
	}

	// Broadcast even when the status was already Approved: an earlier attempt
	// may have stopped before reaching this point.
	s.state.ApplyUpdate(*r)
	s.state.Resolve()
	s.publish(ctx, realtime.Update, r)
	return r, nil
}

// Reject moves a Pending request to Rejected. The shipment is not touched.
func (s *Service) Reject(ctx context.Context, parcelID string) (*models.AddressChangeRequest, error) {
	s.state.Begin()
	r, changed, err := s.decide(ctx, parcelID, models.RequestRejected)
	if err != nil {
		s.state.Reject(err)
		return nil, fmt.Errorf("service.Reject: %w", err)
	}
	if changed {
		s.state.ApplyUpdate(*r)
	}
	s.state.Resolve()
	if changed {
		s.publish(ctx, realtime.Update, r)
	}
	return r, nil
}

// decide moves the request to target. Deciding it the same way twice is a
// no-op; deciding it the other way is models.ErrInvalidTransition.
func (s *Service) decide(ctx context.Context, parcelID string, target models.RequestStatus) (*models.AddressChangeRequest, bool, error) {
	// Two attempts: a concurrent decision between the read and the conditional
	// update is resolved by reading again.
	for attempt := 0; attempt < 2; attempt++ {
		current, err := s.repo.FindByParcelID(ctx, parcelID)
		if err != nil {
			return nil, false, err
		}

		switch current.Status {
		case target:
			return current, false, nil
		case models.RequestPending:
			updated, err := s.repo.UpdateStatus(ctx, parcelID, models.RequestPending, target)
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, false, err
			}
			return updated, true, nil
		default:
			return nil, false, models.ErrInvalidTransition
		}
	}
	return nil, false, models.ErrInvalidTransition
}

// Delete removes the request for parcelID.
func (s *Service) Delete(ctx context.Context, parcelID string) error {
	s.state.Begin()
	if err := s.repo.Delete(ctx, parcelID); err != nil {
		s.state.Reject(err)
		return fmt.Errorf("service.Delete: %w", err)
	}
	s.state.ApplyDelete(parcelID)
	s.state.Resolve()
	s.publish(ctx, realtime.Delete, deletePayload{ParcelID: parcelID})
	return nil
}
