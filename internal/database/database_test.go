package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: PgErrUniqueViolation, ConstraintName: "shipment_parcel_id_key"}

	assert.True(t, IsUniqueViolation(dup))
	assert.True(t, IsUniqueViolation(fmt.Errorf("repository.Create: %w", dup)))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: PgErrForeignKeyViolation}))
	assert.False(t, IsUniqueViolation(errors.New("connection refused")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestIsInvalidText(t *testing.T) {
	bad := &pgconn.PgError{Code: PgErrInvalidText, Message: `invalid input syntax for type uuid: "abc"`}

	assert.True(t, IsInvalidText(bad))
	assert.True(t, IsInvalidText(fmt.Errorf("repository.FindByID: %w", bad)))
	assert.False(t, IsInvalidText(&pgconn.PgError{Code: PgErrUniqueViolation}))
	assert.False(t, IsInvalidText(nil))
}

func TestSchemaDeclaresEveryCollection(t *testing.T) {
	for _, table := range []string{"shipment", "transport_history", "address_change_request", "customer_support"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
}
