package support

import (
	"context"
	"fmt"

	"parcel-courier/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface declares database operations for customer-support messages.
type RepositoryInterface interface {
	List(ctx context.Context) ([]models.SupportMessage, error)
	Create(ctx context.Context, msg *models.SupportMessage) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

func scanMessage(row pgx.Row) (*models.SupportMessage, error) {
	var m models.SupportMessage
	if err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Message, &m.AttachmentURL, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns the inbox, newest first.
func (r *Repository) List(ctx context.Context) ([]models.SupportMessage, error) {
	query := `
		SELECT support_id, name, email, message, img_url, created_at
		FROM customer_support
		ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository.List.Query: %w", err)
	}
	defer rows.Close()

	var messages []models.SupportMessage
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.List.Scan: %w", err)
		}
		messages = append(messages, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.List.Rows: %w", err)
	}
	return messages, nil
}

// Create inserts msg with its preassigned id and fills in the creation time.
func (r *Repository) Create(ctx context.Context, msg *models.SupportMessage) error {
	query := `
		INSERT INTO customer_support (support_id, name, email, message, img_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`
	if err := r.db.QueryRow(ctx, query, msg.ID, msg.Name, msg.Email, msg.Message, msg.AttachmentURL).Scan(&msg.CreatedAt); err != nil {
		return fmt.Errorf("repository.Create: %w", err)
	}
	return nil
}
