package addresschange

import (
	"context"
	"errors"
	"fmt"

	"parcel-courier/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface declares database operations for address-change requests.
type RepositoryInterface interface {
	List(ctx context.Context) ([]models.AddressChangeRequest, error)
	FindByParcelID(ctx context.Context, parcelID string) (*models.AddressChangeRequest, error)
	Create(ctx context.Context, r *models.AddressChangeRequest) error
	UpdateStatus(ctx context.Context, parcelID string, from, to models.RequestStatus) (*models.AddressChangeRequest, error)
	Delete(ctx context.Context, parcelID string) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const requestColumns = `parcel_id, old_address, new_address, status, created_at, updated_at`

func scanRequest(row pgx.Row) (*models.AddressChangeRequest, error) {
	var r models.AddressChangeRequest
	if err := row.Scan(&r.ParcelID, &r.OldAddress, &r.NewAddress, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (r *Repository) List(ctx context.Context) ([]models.AddressChangeRequest, error) {
	rows, err := r.db.Query(ctx, `SELECT `+requestColumns+` FROM address_change_request ORDER BY updated_at DESC, parcel_id`)
	if err != nil {
		return nil, fmt.Errorf("repository.List.Query: %w", err)
	}
	defer rows.Close()

	var requests []models.AddressChangeRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.List.Scan: %w", err)
		}
		requests = append(requests, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.List.Rows: %w", err)
	}
	return requests, nil
}

func (r *Repository) FindByParcelID(ctx context.Context, parcelID string) (*models.AddressChangeRequest, error) {
	req, err := scanRequest(r.db.QueryRow(ctx, `SELECT `+requestColumns+` FROM address_change_request WHERE parcel_id = $1`, parcelID))
	if err != nil {
		return nil, fmt.Errorf("repository.FindByParcelID: %w", err)
	}
	return req, nil
}

// Create stores a Pending request. A decided request for the same parcel is
// replaced; a Pending one is kept and models.ErrConflict returned.
func (r *Repository) Create(ctx context.Context, req *models.AddressChangeRequest) error {
	query := `
		INSERT INTO address_change_request (parcel_id, old_address, new_address, status)
		VALUES ($1, $2, $3, 'Pending')
		ON CONFLICT (parcel_id) DO UPDATE
		SET old_address = EXCLUDED.old_address,
		    new_address = EXCLUDED.new_address,
		    status = 'Pending',
		    created_at = NOW(),
		    updated_at = NOW()
		WHERE address_change_request.status <> 'Pending'
		RETURNING ` + requestColumns

	created, err := scanRequest(r.db.QueryRow(ctx, query, req.ParcelID, req.OldAddress, req.NewAddress))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrConflict
		}
		return fmt.Errorf("repository.Create: %w", err)
	}
	*req = *created
	return nil
}

// UpdateStatus moves a request from one status to another. It returns
// models.ErrNotFound when no request for parcelID currently has status from.
func (r *Repository) UpdateStatus(ctx context.Context, parcelID string, from, to models.RequestStatus) (*models.AddressChangeRequest, error) {
	query := `
		UPDATE address_change_request
		SET status = $1, updated_at = NOW()
		WHERE parcel_id = $2 AND status = $3
		RETURNING ` + requestColumns
	req, err := scanRequest(r.db.QueryRow(ctx, query, to, parcelID, from))
	if err != nil {
		return nil, fmt.Errorf("repository.UpdateStatus: %w", err)
	}
	return req, nil
}

func (r *Repository) Delete(ctx context.Context, parcelID string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM address_change_request WHERE parcel_id = $1`, parcelID)
	if err != nil {
		return fmt.Errorf("repository.Delete: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
