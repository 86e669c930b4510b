package shipments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"parcel-courier/internal/models"
	"parcel-courier/internal/storage"
	"parcel-courier/internal/store"
	"parcel-courier/pkg/utils"

	"go.uber.org/zap"
)

// Geocoder attaches coordinates to transport histories, degrading failures to nil.
type Geocoder interface {
	Events(ctx context.Context, events []models.TransportEvent) []models.TransportEvent
	Shipments(ctx context.Context, shipments []models.Shipment) []models.Shipment
}

// ServiceInterface defines the contract for the shipment service.
type ServiceInterface interface {
	FetchAll(ctx context.Context) ([]models.Shipment, error)
	Find(ctx context.Context, parcelID string) (*models.Shipment, error)
	Create(ctx context.Context, req models.CreateShipmentRequest, image *models.Upload) (*models.Shipment, error)
	Update(ctx context.Context, parcelID string, patch models.ShipmentPatch) (*models.Shipment, error)
	Delete(ctx context.Context, parcelID string) error
	DeleteAll(ctx context.Context) error
	State() store.Snapshot[models.Shipment]
}

// Service implements the shipment service logic on top of the Shipments container.
type Service struct {
	repo     RepositoryInterface
	bucket   storage.Bucket
	geocoder Geocoder
	state    *store.Shipments
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(repo RepositoryInterface, bucket storage.Bucket, geocoder Geocoder, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		bucket:   bucket,
		geocoder: geocoder,
		state:    store.NewShipments(),
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) Name() string { return "shipments" }

func (s *Service) Refresh(ctx context.Context) error {
	_, err := s.FetchAll(ctx)
	return err
}

// FetchAll loads every shipment and geocodes its transport history.
func (s *Service) FetchAll(ctx context.Context) ([]models.Shipment, error) {
	s.state.Begin()
	list, err := s.repo.List(ctx)
	if err != nil {
		s.state.Reject(err)
		s.logger.Error("Failed to fetch shipments", zap.Error(err))
		return nil, fmt.Errorf("service.FetchAll: %w", err)
	}
	list = s.geocoder.Shipments(ctx, list)
	s.state.Replace(list)
	return list, nil
}

// Find loads one shipment with its geocoded history. An unknown parcel id is
// models.ErrNotFound. Lookups come from public tracking pages, so they refresh
// the cached record but never change the container's operation status.
func (s *Service) Find(ctx context.Context, parcelID string) (*models.Shipment, error) {
	parcelID = strings.TrimSpace(parcelID)
	if parcelID == "" {
		return nil, models.ErrNotFound
	}

	shipment, err := s.repo.FindByParcelID(ctx, parcelID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("Failed to load shipment", zap.String("parcel_id", parcelID), zap.Error(err))
		}
		return nil, fmt.Errorf("service.Find: %w", err)
	}
	shipment.TransportHistory = s.geocoder.Events(ctx, shipment.TransportHistory)
	s.state.Put(*shipment)
	return shipment, nil
}

func trimCreateRequest(req *models.CreateShipmentRequest) {
	for _, f := range []*string{
		&req.ParcelID, &req.SenderName, &req.SenderAddress, &req.SenderPhone,
		&req.RecipientName, &req.RecipientAddress, &req.RecipientPhone,
		&req.Origin, &req.Destination, &req.PackageName, &req.PackageDesc,
		&req.PickupDate, &req.DeliveryDate, &req.Status,
	} {
		*f = strings.TrimSpace(*f)
	}
}

// Create validates the form, uploads the package image, then stores the shipment
// together with a first transport event at its origin on the pickup date.
// Nothing is uploaded or inserted when validation fails.
func (s *Service) Create(ctx context.Context, req models.CreateShipmentRequest, image *models.Upload) (*models.Shipment, error) {
	trimCreateRequest(&req)
	if err := utils.GetValidator().Validate(req); err != nil {
		return nil, err
	}
	if image == nil || image.Size == 0 || image.Body == nil {
		return nil, models.ErrMissingImage
	}

	pickup, err := time.Parse(models.DateLayout, req.PickupDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid pickup date", models.ErrValidation)
	}
	delivery, err := time.Parse(models.DateLayout, req.DeliveryDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid delivery date", models.ErrValidation)
	}
	status := models.ShipmentStatus(req.Status)
	if status == "" {
		status = models.StatusPending
	}

	now := s.now()
	s.state.Begin()

	imageURL, err := storage.Put(ctx, s.bucket, *image, now)
	if err != nil {
		s.state.Reject(err)
		s.logger.Error("Package image upload failed", zap.String("parcel_id", req.ParcelID), zap.Error(err))
		return nil, fmt.Errorf("service.Create: %w", err)
	}

	shipment := &models.Shipment{
		ParcelID:         req.ParcelID,
		SenderName:       req.SenderName,
		SenderAddress:    req.SenderAddress,
		SenderPhone:      req.SenderPhone,
		RecipientName:    req.RecipientName,
		RecipientAddress: req.RecipientAddress,
		RecipientPhone:   req.RecipientPhone,
		Origin:           req.Origin,
		Destination:      req.Destination,
		PackageName:      req.PackageName,
		PackageDesc:      req.PackageDesc,
		Quantity:         req.Quantity,
		PickupDate:       pickup,
		DeliveryDate:     delivery,
		Status:           status,
		ImageURL:         imageURL,
	}
	seed := &models.TransportEvent{
		Location: shipment.Origin,
		Date:     pickup,
		Time:     now.Format(models.TimeLayout),
	}

	if err := s.repo.Create(ctx, shipment, seed); err != nil {
		s.state.Reject(err)
		return nil, fmt.Errorf("service.Create: %w", err)
	}

	shipment.TransportHistory = s.geocoder.Events(ctx, shipment.TransportHistory)
	s.state.Put(*shipment)
	s.state.Resolve()
	s.logger.Info("Shipment created", zap.String("parcel_id", shipment.ParcelID))
	return shipment, nil
}

// transitionEvent records a stop at the current origin whenever an update actually
// changes the status, origin or destination. Re-applying the same values adds nothing.
func (s *Service) transitionEvent(before, after models.Shipment) *models.TransportEvent {
	if before.Status == after.Status && before.Origin == after.Origin && before.Destination == after.Destination {
		return nil
	}
	return &models.TransportEvent{
		Location: after.Origin,
		Date:     after.PickupDate,
		Time:     s.now().Format(models.TimeLayout),
	}
}

// Update applies patch. Address-change approval goes through here as well.
func (s *Service) Update(ctx context.Context, parcelID string, patch models.ShipmentPatch) (*models.Shipment, error) {
	s.state.Begin()
	shipment, err := s.repo.Update(ctx, parcelID, patch, s.transitionEvent)
	if err != nil {
		s.state.Reject(err)
		return nil, fmt.Errorf("service.Update: %w", err)
	}
	shipment.TransportHistory = s.geocoder.Events(ctx, shipment.TransportHistory)
	s.state.Put(*shipment)
	s.state.Resolve()
	return shipment, nil
}

func (s *Service) Delete(ctx context.Context, parcelID string) error {
	s.state.Begin()
	if err := s.repo.Delete(ctx, parcelID); err != nil {
		s.state.Reject(err)
		return fmt.Errorf("service.Delete: %w", err)
	}
	s.state.Drop(parcelID)
	s.state.Resolve()
	return nil
}

func (s *Service) DeleteAll(ctx context.Context) error {
	s.state.Begin()
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		s.state.Reject(err)
		return fmt.Errorf("service.DeleteAll: %w", err)
	}
	s.state.Clear()
	s.state.Resolve()
	s.logger.Info("All shipments deleted", zap.Int64("count", n))
	return nil
}

func (s *Service) State() store.Snapshot[models.Shipment] {
	return s.state.Snapshot()
}

// PatchFromForm converts the edit form into a patch. Blank fields are left unchanged.
func PatchFromForm(req models.EditShipmentRequest) (models.ShipmentPatch, error) {
	if err := utils.GetValidator().Validate(req); err != nil {
		return models.ShipmentPatch{}, err
	}

	var p models.ShipmentPatch
	str := func(v string) *string {
		v = strings.TrimSpace(v)
		if v == "" {
			return nil
		}
		return &v
	}
	p.SenderName = str(req.SenderName)
	p.SenderAddress = str(req.SenderAddress)
	p.SenderPhone = str(req.SenderPhone)
	p.RecipientName = str(req.RecipientName)
	p.RecipientAddress = str(req.RecipientAddress)
	p.RecipientPhone = str(req.RecipientPhone)
	p.Origin = str(req.Origin)
	p.Destination = str(req.Destination)
	p.PackageName = str(req.PackageName)
	p.PackageDesc = str(req.PackageDesc)

	if q := str(req.Quantity); q != nil {
		n, err := strconv.Atoi(*q)
		if err != nil || n < 0 {
			return models.ShipmentPatch{}, fmt.Errorf("%w: quantity must be a non-negative integer", models.ErrValidation)
		}
		p.Quantity = &n
	}
	if d := str(req.PickupDate); d != nil {
		t, err := time.Parse(models.DateLayout, *d)
		if err != nil {
			return models.ShipmentPatch{}, fmt.Errorf("%w: invalid pickup date", models.ErrValidation)
		}
		p.PickupDate = &t
	}
	if d := str(req.DeliveryDate); d != nil {
		t, err := time.Parse(models.DateLayout, *d)
		if err != nil {
			return models.ShipmentPatch{}, fmt.Errorf("%w: invalid delivery date", models.ErrValidation)
		}
		p.DeliveryDate = &t
	}
	if st := str(req.Status); st != nil {
		status := models.ShipmentStatus(*st)
		p.Status = &status
	}
	return p, nil
}
