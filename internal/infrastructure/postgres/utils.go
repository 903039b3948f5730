package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isSerializationFailure verifica si un error es un conflicto de serialización
// o un deadlock detectado (40001 / 40P01).
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// IsRetryable decide si el coordinador debe reintentar la transacción completa:
// conflictos de serialización/deadlock y colisiones de unicidad (ej. el número
// de factura, si dos creaciones concurrentes chocan pese al contador).
func IsRetryable(err error) bool {
	return isSerializationFailure(err) || isUniqueViolation(err)
}
