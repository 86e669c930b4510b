package shipments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"parcel-courier/internal/database"
	"parcel-courier/internal/models"
	"parcel-courier/internal/modules/transit"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventFunc decides, from a shipment before and after an update, which transport
// event (if any) the update records.
type EventFunc func(before, after models.Shipment) *models.TransportEvent

// RepositoryInterface defines the contract for the shipment repository.
type RepositoryInterface interface {
	List(ctx context.Context) ([]models.Shipment, error)
	FindByParcelID(ctx context.Context, parcelID string) (*models.Shipment, error)
	Create(ctx context.Context, s *models.Shipment, seed *models.TransportEvent) error
	Update(ctx context.Context, parcelID string, patch models.ShipmentPatch, onChange EventFunc) (*models.Shipment, error)
	Delete(ctx context.Context, parcelID string) error
	DeleteAll(ctx context.Context) (int64, error)
}

// Repository implements the RepositoryInterface.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const shipmentColumns = `shipment_id, parcel_id, sender_name, sender_address, sender_phone_no,
	recipient_name, recipient_address, recipient_phone_no, origin, destination,
	package_name, package_desc, quantity, pickup_date, delivery_date, status, img_url,
	created_at, updated_at`

// scanShipment is a helper function to scan a row into a Shipment model.
func scanShipment(row pgx.Row) (*models.Shipment, error) {
	var s models.Shipment
	err := row.Scan(
		&s.ID,
		&s.ParcelID,
		&s.SenderName,
		&s.SenderAddress,
		&s.SenderPhone,
		&s.RecipientName,
		&s.RecipientAddress,
		&s.RecipientPhone,
		&s.Origin,
		&s.Destination,
		&s.PackageName,
		&s.PackageDesc,
		&s.Quantity,
		&s.PickupDate,
		&s.DeliveryDate,
		&s.Status,
		&s.ImageURL,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan shipment: %w", err)
	}
	return &s, nil
}

// List returns every shipment, newest first, with its transport history.
func (r *Repository) List(ctx context.Context) ([]models.Shipment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+shipmentColumns+` FROM shipment ORDER BY created_at DESC, parcel_id`)
	if err != nil {
		return nil, fmt.Errorf("repository.List.Query: %w", err)
	}
	defer rows.Close()

	var shipments []models.Shipment
	index := make(map[string]int)
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.List.Scan: %w", err)
		}
		index[s.ParcelID] = len(shipments)
		shipments = append(shipments, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.List.Rows: %w", err)
	}

	events, err := transit.NewRepository(r.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository.List.History: %w", err)
	}
	for _, ev := range events {
		if i, ok := index[ev.ParcelID]; ok {
			shipments[i].TransportHistory = append(shipments[i].TransportHistory, ev)
		}
	}
	return shipments, nil
}

// FindByParcelID retrieves one shipment with its transport history.
func (r *Repository) FindByParcelID(ctx context.Context, parcelID string) (*models.Shipment, error) {
	s, err := scanShipment(r.db.QueryRow(ctx, `SELECT `+shipmentColumns+` FROM shipment WHERE parcel_id = $1`, parcelID))
	if err != nil {
		return nil, fmt.Errorf("repository.FindByParcelID: %w", err)
	}
	history, err := transit.NewRepository(r.db).ListByParcel(ctx, parcelID)
	if err != nil {
		return nil, fmt.Errorf("repository.FindByParcelID.History: %w", err)
	}
	s.TransportHistory = history
	return s, nil
}

// Create inserts the shipment and its first transport event in one transaction.
// A duplicate parcel id maps to models.ErrConflict.
func (r *Repository) Create(ctx context.Context, s *models.Shipment, seed *models.TransportEvent) error {
	query := `
		INSERT INTO shipment (parcel_id, sender_name, sender_address, sender_phone_no,
			recipient_name, recipient_address, recipient_phone_no, origin, destination,
			package_name, package_desc, quantity, pickup_date, delivery_date, status, img_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING ` + shipmentColumns

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		created, err := scanShipment(tx.QueryRow(ctx, query,
			s.ParcelID, s.SenderName, s.SenderAddress, s.SenderPhone,
			s.RecipientName, s.RecipientAddress, s.RecipientPhone, s.Origin, s.Destination,
			s.PackageName, s.PackageDesc, s.Quantity, s.PickupDate, s.DeliveryDate, s.Status, s.ImageURL,
		))
		if err != nil {
			if database.IsUniqueViolation(err) {
				return models.ErrConflict
			}
			return err
		}
		seed.ParcelID = created.ParcelID
		if err := transit.InsertEvent(ctx, tx, seed); err != nil {
			return err
		}
		*s = *created
		s.TransportHistory = []models.TransportEvent{*seed}
		return nil
	})
	if err != nil {
		return fmt.Errorf("repository.Create: %w", err)
	}
	return nil
}

// Update applies the non-nil fields of patch and, in the same transaction, stores
// the event onChange derives from the row before and after the change.
func (r *Repository) Update(ctx context.Context, parcelID string, patch models.ShipmentPatch, onChange EventFunc) (*models.Shipment, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	set := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}
	if patch.SenderName != nil {
		set("sender_name", *patch.SenderName)
	}
	if patch.SenderAddress != nil {
		set("sender_address", *patch.SenderAddress)
	}
	if patch.SenderPhone != nil {
		set("sender_phone_no", *patch.SenderPhone)
	}
	if patch.RecipientName != nil {
		set("recipient_name", *patch.RecipientName)
	}
	if patch.RecipientAddress != nil {
		set("recipient_address", *patch.RecipientAddress)
	}
	if patch.RecipientPhone != nil {
		set("recipient_phone_no", *patch.RecipientPhone)
	}
	if patch.Origin != nil {
		set("origin", *patch.Origin)
	}
	if patch.Destination != nil {
		set("destination", *patch.Destination)
	}
	if patch.PackageName != nil {
		set("package_name", *patch.PackageName)
	}
	if patch.PackageDesc != nil {
		set("package_desc", *patch.PackageDesc)
	}
	if patch.Quantity != nil {
		set("quantity", *patch.Quantity)
	}
	if patch.PickupDate != nil {
		set("pickup_date", *patch.PickupDate)
	}
	if patch.DeliveryDate != nil {
		set("delivery_date", *patch.DeliveryDate)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}

	if len(setClauses) == 0 {
		// No fields to update, return the current shipment
		return r.FindByParcelID(ctx, parcelID)
	}

	set("updated_at", time.Now())
	args = append(args, parcelID) // For the WHERE clause

	query := fmt.Sprintf(`UPDATE shipment SET %s WHERE parcel_id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, shipmentColumns)

	var after *models.Shipment
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		before, err := scanShipment(tx.QueryRow(ctx, `SELECT `+shipmentColumns+` FROM shipment WHERE parcel_id = $1 FOR UPDATE`, parcelID))
		if err != nil {
			return err
		}
		after, err = scanShipment(tx.QueryRow(ctx, query, args...))
		if err != nil {
			return err
		}
		if onChange == nil {
			return nil
		}
		if ev := onChange(*before, *after); ev != nil {
			ev.ParcelID = after.ParcelID
			return transit.InsertEvent(ctx, tx, ev)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("repository.Update: %w", err)
	}

	history, err := transit.NewRepository(r.db).ListByParcel(ctx, parcelID)
	if err != nil {
		return nil, fmt.Errorf("repository.Update.History: %w", err)
	}
	after.TransportHistory = history
	return after, nil
}

// Delete removes a shipment; its transport history goes with it.
func (r *Repository) Delete(ctx context.Context, parcelID string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM shipment WHERE parcel_id = $1`, parcelID)
	if err != nil {
		return fmt.Errorf("repository.Delete: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteAll removes every shipment and returns how many were deleted.
func (r *Repository) DeleteAll(ctx context.Context) (int64, error) {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM shipment`)
	if err != nil {
		return 0, fmt.Errorf("repository.DeleteAll: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}
