package addresschange

import (
	"context"
	"errors"
	"testing"
	"time"

	"parcel-courier/internal/models"
	"parcel-courier/internal/realtime"
	"parcel-courier/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	requests map[string]models.AddressChangeRequest
	listErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{requests: make(map[string]models.AddressChangeRequest)}
}

func (f *fakeRepo) List(ctx context.Context) ([]models.AddressChangeRequest, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.AddressChangeRequest
	for _, r := range f.requests {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRepo) FindByParcelID(ctx context.Context, parcelID string) (*models.AddressChangeRequest, error) {
	r, ok := f.requests[parcelID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &r, nil
}

func (f *fakeRepo) Create(ctx context.Context, r *models.AddressChangeRequest) error {
	if cur, ok := f.requests[r.ParcelID]; ok && cur.Status == models.RequestPending {
		return models.ErrConflict
	}
	r.Status = models.RequestPending
	r.CreatedAt = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	r.UpdatedAt = r.CreatedAt
	f.requests[r.ParcelID] = *r
	return nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, parcelID string, from, to models.RequestStatus) (*models.AddressChangeRequest, error) {
	r, ok := f.requests[parcelID]
	if !ok || r.Status != from {
		return nil, models.ErrNotFound
	}
	r.Status = to
	f.requests[parcelID] = r
	return &r, nil
}

func (f *fakeRepo) Delete(ctx context.Context, parcelID string) error {
	if _, ok := f.requests[parcelID]; !ok {
		return models.ErrNotFound
	}
	delete(f.requests, parcelID)
	return nil
}

type fakeShipments struct {
	shipments map[string]*models.Shipment
	patches   []models.ShipmentPatch
	updateErr error
	onUpdate  func()
}

func newFakeShipments() *fakeShipments {
	return &fakeShipments{shipments: map[string]*models.Shipment{
		"P100": {ParcelID: "P100", Origin: "Lagos", Destination: "Accra"},
	}}
}

func (f *fakeShipments) Find(ctx context.Context, parcelID string) (*models.Shipment, error) {
	s, ok := f.shipments[parcelID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeShipments) Update(ctx context.Context, parcelID string, patch models.ShipmentPatch) (*models.Shipment, error) {
	if f.onUpdate != nil {
		f.onUpdate()
	}
	if f.updateErr != nil {
		err := f.updateErr
		f.updateErr = nil
		return nil, err
	}
	s, ok := f.shipments[parcelID]
	if !ok {
		return nil, models.ErrNotFound
	}
	f.patches = append(f.patches, patch)
	if patch.Destination != nil {
		s.Destination = *patch.Destination
	}
	cp := *s
	return &cp, nil
}

func newTestService(repo *fakeRepo, shipments *fakeShipments) (*Service, realtime.Broker) {
	broker := realtime.NewLocalBroker(zap.NewNop())
	return NewService(repo, shipments, broker, zap.NewNop()), broker
}

func TestApproveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo, ships := newFakeRepo(), newFakeShipments()
	svc, _ := newTestService(repo, ships)

	created, err := svc.Create(ctx, "P100", models.CreateAddressChangeRequest{NewAddress: " Tema "})
	require.NoError(t, err)
	assert.Equal(t, "Accra", created.OldAddress)
	assert.Equal(t, "Tema", created.NewAddress)
	assert.Equal(t, models.RequestPending, created.Status)

	for i := 0; i < 3; i++ {
		r, err := svc.Approve(ctx, "P100")
		require.NoError(t, err)
		assert.Equal(t, models.RequestApproved, r.Status)
	}

	assert.Equal(t, "Tema", ships.shipments["P100"].Destination)
	assert.Equal(t, models.RequestApproved, repo.requests["P100"].Status)

	got, ok := svc.state.Get("P100")
	require.True(t, ok)
	assert.Equal(t, models.RequestApproved, got.Status)
}

func TestRejectLeavesDestination(t *testing.T) {
	ctx := context.Background()
	repo, ships := newFakeRepo(), newFakeShipments()
	svc, _ := newTestService(repo, ships)

	_, err := svc.Create(ctx, "P100", models.CreateAddressChangeRequest{NewAddress: "Kumasi"})
	require.NoError(t, err)

	r, err := svc.Reject(ctx, "P100")
	require.NoError(t, err)
	assert.Equal(t, models.RequestRejected, r.Status)
	assert.Equal(t, "Accra", ships.shipments["P100"].Destination)
	assert.Empty(t, ships.patches)

	_, err = svc.Reject(ctx, "P100")
	assert.NoError(t, err, "rejecting twice is a no-op")
}

func TestDecisionCannotBeReversed(t *testing.T) {
	ctx := context.Background()
	repo, ships := newFakeRepo(), newFakeShipments()
	svc, _ := newTestService(repo, ships)

	_, err := svc.Create(ctx, "P100", models.CreateAddressChangeRequest{NewAddress: "Kumasi"})
	require.NoError(t, err)
	_, err = svc.Reject(ctx, "P100")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, "P100")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	assert.Equal(t, "Accra", ships.shipments["P100"].Destination)

	ships.shipments["P200"] = &models.Shipment{ParcelID: "P200", Destination: "Abuja"}
	_, err = svc.Create(ctx, "P200", models.CreateAddressChangeRequest{NewAddress: "Kano"})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, "P200")
	require.NoError(t, err)

	_, err = svc.Reject(ctx, "P200")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	assert.Equal(t, "Kano", ships.shipments["P200"].Destination)
}

func TestApproveRetryCompletesDestination(t *testing.T) {
	ctx := context.Background()
	repo, ships := newFakeRepo(), newFakeShipments()
	svc, _ := newTestService(repo, ships)

	_, err := svc.Create(ctx, "P100", models.CreateAddressChangeRequest{NewAddress: "Tema"})
	require.NoError(t, err)

	ships.updateErr = errors.New("connection reset")
	_, err = svc.Approve(ctx, "P100")
	require.Error(t, err)
	assert.Equal(t, models.RequestApproved, repo.requests["P100"].Status)
	assert.Equal(t, "Accra", ships.shipments["P100"].Destination)

	_, err = svc.Approve(ctx, "P100")
	require.NoError(t, err)
	assert.Equal(t, "Tema", ships.shipments["P100"].Destination)
}

func TestCreateWhilePendingConflicts(t *testing.T) {
	ctx := context.Background()
	repo, ships := newFakeRepo(), newFakeShipments()
	svc, _ := newTestService(repo, ships)

	_, err := svc.Create(ctx, "P100", models.CreateAddressChangeRequest{NewAddress: "Tema"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, "P100", models.CreateAddressChangeRequest{NewAddress: "Kumasi"})
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = svc.Reject(ctx, "P100")
	require.NoError(t, err)

	r, err := svc.Create(ctx, "P100", models.CreateAddressChangeRequest{NewAddress: "Kumasi"})
	require.NoError(t, err, "a decided request is replaced")
	assert.Equal(t, models.RequestPending, r.Status)
	assert.Equal(t, "Kumasi", repo.requests["P100"].NewAddress)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	repo, ships := newFakeRepo(), newFakeShipments()
	svc, _ := newTestService(repo, ships)

	_, err := svc.Create(ctx, "P100", models.CreateAddressChangeRequest{NewAddress: "   "})
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Empty(t, repo.requests)

	_, err = svc.Create(ctx, "P404", models.CreateAddressChangeRequest{NewAddress: "Tema"})
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Empty(t, repo.requests)
}

func TestOwnBroadcastAppliesOnce(t *testing.T) {
	ctx := context.Background()
	repo, ships := newFakeRepo(), newFakeShipments()
	svc, broker := newTestService(repo, ships)
	other := NewService(repo, ships, broker, zap.NewNop())

	sub, err := svc.Start()
	require.NoError(t, err)
	defer sub.Unsubscribe()
	otherSub, err := other.Start()
	require.NoError(t, err)
	defer otherSub.Unsubscribe()

	_, err = svc.Create(ctx, "P100", models.CreateAddressChangeRequest{NewAddress: "Tema"})
	require.NoError(t, err)
	assert.Equal(t, 1, svc.state.Len())
	assert.Equal(t, 1, other.state.Len(), "other instances see the insert")

	_, err = svc.Approve(ctx, "P100")
	require.NoError(t, err)
	mine, _ := svc.state.Get("P100")
	theirs, _ := other.state.Get("P100")
	assert.Equal(t, mine, theirs)
	assert.Equal(t, models.RequestApproved, theirs.Status)

	require.NoError(t, svc.Delete(ctx, "P100"))
	assert.Equal(t, 0, svc.state.Len())
	assert.Equal(t, 0, other.state.Len())
}

func TestFetchAllAndLookup(t *testing.T) {
	ctx := context.Background()
	repo, ships := newFakeRepo(), newFakeShipments()
	svc, _ := newTestService(repo, ships)

	r, err := svc.Lookup(ctx, "P100")
	require.NoError(t, err)
	assert.Nil(t, r)

	_, err = svc.Create(ctx, "P100", models.CreateAddressChangeRequest{NewAddress: "Tema"})
	require.NoError(t, err)

	r, err = svc.Lookup(ctx, "P100")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "Tema", r.NewAddress)

	list, err := svc.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, store.Ok, svc.State().Status)

	repo.listErr = errors.New("gateway down")
	_, err = svc.FetchAll(ctx)
	require.Error(t, err)
	snap := svc.State()
	assert.Equal(t, store.Err, snap.Status)
	assert.Len(t, snap.Data, 1, "last good data is kept")
}

func TestFailedMutationsRejectTheContainer(t *testing.T) {
	errBackendDown := errors.New("backend down")

	tests := []struct {
		name    string
		prepare func(t *testing.T, svc *Service, ships *fakeShipments)
		run     func(svc *Service) error
		wantErr error
	}{
		{
			name: "create while pending",
			prepare: func(t *testing.T, svc *Service, ships *fakeShipments) {
				_, err := svc.Create(context.Background(), "P100", models.CreateAddressChangeRequest{NewAddress: "Tema"})
				require.NoError(t, err)
			},
			run: func(svc *Service) error {
				_, err := svc.Create(context.Background(), "P100", models.CreateAddressChangeRequest{NewAddress: "Kumasi"})
				return err
			},
			wantErr: models.ErrConflict,
		},
		{
			name: "create for unknown parcel",
			run: func(svc *Service) error {
				_, err := svc.Create(context.Background(), "NOPE", models.CreateAddressChangeRequest{NewAddress: "Tema"})
				return err
			},
			wantErr: models.ErrNotFound,
		},
		{
			name: "approve with failing shipment update",
			prepare: func(t *testing.T, svc *Service, ships *fakeShipments) {
				_, err := svc.Create(context.Background(), "P100", models.CreateAddressChangeRequest{NewAddress: "Tema"})
				require.NoError(t, err)
				ships.updateErr = errBackendDown
			},
			run: func(svc *Service) error {
				_, err := svc.Approve(context.Background(), "P100")
				return err
			},
			wantErr: errBackendDown,
		},
		{
			name: "reject an approved request",
			prepare: func(t *testing.T, svc *Service, ships *fakeShipments) {
				_, err := svc.Create(context.Background(), "P100", models.CreateAddressChangeRequest{NewAddress: "Tema"})
				require.NoError(t, err)
				_, err = svc.Approve(context.Background(), "P100")
				require.NoError(t, err)
			},
			run: func(svc *Service) error {
				_, err := svc.Reject(context.Background(), "P100")
				return err
			},
			wantErr: models.ErrInvalidTransition,
		},
		{
			name: "delete unknown parcel",
			run: func(svc *Service) error {
				return svc.Delete(context.Background(), "NOPE")
			},
			wantErr: models.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ships := newFakeShipments()
			svc, _ := newTestService(newFakeRepo(), ships)
			_, err := svc.FetchAll(context.Background())
			require.NoError(t, err)
			if tt.prepare != nil {
				tt.prepare(t, svc, ships)
			}
			require.Equal(t, store.Ok, svc.State().Status)

			err = tt.run(svc)
			require.ErrorIs(t, err, tt.wantErr)

			snap := svc.State()
			assert.Equal(t, store.Err, snap.Status)
			assert.ErrorIs(t, snap.Err, tt.wantErr)
		})
	}
}

func TestSuccessfulMutationsResolveTheContainer(t *testing.T) {
	ctx := context.Background()
	ships := newFakeShipments()
	svc, _ := newTestService(newFakeRepo(), ships)

	_, err := svc.Create(ctx, "P100", models.CreateAddressChangeRequest{NewAddress: "Tema"})
	require.NoError(t, err)
	assert.Equal(t, store.Ok, svc.State().Status)

	var during store.Status
	ships.onUpdate = func() { during = svc.State().Status }
	ships.updateErr = errors.New("backend down")
	_, err = svc.Approve(ctx, "P100")
	require.Error(t, err)
	assert.Equal(t, store.Loading, during)
	assert.Equal(t, store.Err, svc.State().Status)

	_, err = svc.Approve(ctx, "P100")
	require.NoError(t, err)
	snap := svc.State()
	assert.Equal(t, store.Ok, snap.Status)
	assert.NoError(t, snap.Err)

	ships.shipments["P200"] = &models.Shipment{ParcelID: "P200", Destination: "Abuja"}
	_, err = svc.Create(ctx, "P200", models.CreateAddressChangeRequest{NewAddress: "Kano"})
	require.NoError(t, err)
	_, err = svc.Reject(ctx, "P200")
	require.NoError(t, err)
	_, err = svc.Reject(ctx, "P200")
	require.NoError(t, err, "rejecting twice is a no-op")
	assert.Equal(t, store.Ok, svc.State().Status)

	require.NoError(t, svc.Delete(ctx, "P200"))
	assert.Equal(t, store.Ok, svc.State().Status)
	assert.Len(t, svc.State().Data, 1)
}
