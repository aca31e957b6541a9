package usecase

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Unique constraints the usecases translate into domain errors
const (
	constraintActiveAppointmentSlot = "idx_appointments_active_slot"
	constraintDoctorsPkey           = "doctors_pkey"
)

// isDuplicateKeyError checks if the error is a PostgreSQL unique violation
// on the specified constraint name
func isDuplicateKeyError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// PostgreSQL error code 23505 = unique_violation
		if pgErr.Code == "23505" && strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraintName)) {
			return true
		}
	}
	return false
}
