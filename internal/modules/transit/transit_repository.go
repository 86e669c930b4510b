package transit

import (
	"context"
	"errors"
	"fmt"

	"parcel-courier/internal/database"
	"parcel-courier/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is satisfied by both the pool and a transaction, so events can be
// written as part of a shipment transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RepositoryInterface declares database operations for transport events.
type RepositoryInterface interface {
	List(ctx context.Context) ([]models.TransportEvent, error)
	ListByParcel(ctx context.Context, parcelID string) ([]models.TransportEvent, error)
	FindByID(ctx context.Context, id string) (*models.TransportEvent, error)
	Create(ctx context.Context, ev *models.TransportEvent) error
	Update(ctx context.Context, ev *models.TransportEvent) error
	Delete(ctx context.Context, id string) (*models.TransportEvent, error)
}

// Repository is a PostgreSQL implementation of RepositoryInterface.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const eventColumns = `transport_id, parcel_id, location, country, event_date, event_time, created_at`

// ScanEvent reads one transport_history row selected with the standard column list.
// A missing row and a malformed transport id are both models.ErrNotFound.
func ScanEvent(row pgx.Row) (models.TransportEvent, error) {
	var ev models.TransportEvent
	err := row.Scan(&ev.ID, &ev.ParcelID, &ev.Location, &ev.Country, &ev.Date, &ev.Time, &ev.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || database.IsInvalidText(err) {
			return ev, models.ErrNotFound
		}
		return ev, err
	}
	return ev, nil
}

// InsertEvent stores ev through q and fills in its id and creation time.
// An unknown parcel id maps to models.ErrNotFound.
func InsertEvent(ctx context.Context, q Querier, ev *models.TransportEvent) error {
	query := `
		INSERT INTO transport_history (parcel_id, location, country, event_date, event_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING transport_id, created_at`
	err := q.QueryRow(ctx, query, ev.ParcelID, ev.Location, ev.Country, ev.Date, ev.Time).Scan(&ev.ID, &ev.CreatedAt)
	if err != nil {
		if database.HasCode(err, database.PgErrForeignKeyViolation) {
			return models.ErrNotFound
		}
		return err
	}
	return nil
}

func collectEvents(rows pgx.Rows) ([]models.TransportEvent, error) {
	defer rows.Close()
	var events []models.TransportEvent
	for rows.Next() {
		ev, err := ScanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// List returns every event grouped by parcel, oldest first.
func (r *Repository) List(ctx context.Context) ([]models.TransportEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM transport_history ORDER BY parcel_id, created_at, transport_id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository.List.Query: %w", err)
	}
	events, err := collectEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("repository.List.Scan: %w", err)
	}
	return events, nil
}

// ListByParcel returns the history of one parcel, oldest first.
func (r *Repository) ListByParcel(ctx context.Context, parcelID string) ([]models.TransportEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM transport_history WHERE parcel_id = $1 ORDER BY created_at, transport_id`
	rows, err := r.db.Query(ctx, query, parcelID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListByParcel.Query: %w", err)
	}
	events, err := collectEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("repository.ListByParcel.Scan: %w", err)
	}
	return events, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*models.TransportEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM transport_history WHERE transport_id = $1`
	ev, err := ScanEvent(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return &ev, nil
}

func (r *Repository) Create(ctx context.Context, ev *models.TransportEvent) error {
	if err := InsertEvent(ctx, r.db, ev); err != nil {
		return fmt.Errorf("repository.Create: %w", err)
	}
	return nil
}

// Update overwrites the location, country and date of an event.
func (r *Repository) Update(ctx context.Context, ev *models.TransportEvent) error {
	query := `
		UPDATE transport_history
		SET location = $1, country = $2, event_date = $3
		WHERE transport_id = $4
		RETURNING ` + eventColumns
	updated, err := ScanEvent(r.db.QueryRow(ctx, query, ev.Location, ev.Country, ev.Date, ev.ID))
	if err != nil {
		return fmt.Errorf("repository.Update: %w", err)
	}
	*ev = updated
	return nil
}

// Delete removes an event and returns it.
func (r *Repository) Delete(ctx context.Context, id string) (*models.TransportEvent, error) {
	query := `DELETE FROM transport_history WHERE transport_id = $1 RETURNING ` + eventColumns
	ev, err := ScanEvent(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("repository.Delete: %w", err)
	}
	return &ev, nil
}
