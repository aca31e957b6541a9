package repository

import (
	"context"
	"time"

	"clinic-appointment-service/internal/domain/entity"
)

type DoctorSlotRepository interface {
	FindByDoctorAndDate(ctx context.Context, doctorID int64, date time.Time) ([]entity.DoctorSlot, error)
	// CreateMissing inserts slots that do not exist yet and leaves existing ones untouched.
	CreateMissing(ctx context.Context, slots []entity.DoctorSlot) error
	// SetBooked sets the booked flag of one slot. When onlyIfBooked is non-nil the update
	// applies only if the current flag equals *onlyIfBooked. Returns affected rows.
	SetBooked(ctx context.Context, doctorID int64, date time.Time, slotTime string, booked bool, onlyIfBooked *bool) (int64, error)
}
