package repository

import (
	"context"
	"time"

	"clinic-appointment-service/internal/domain/entity"

	"github.com/google/uuid"
)

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *entity.Appointment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error)
	FindByUserID(ctx context.Context, userID string) ([]entity.Appointment, error)
	// TransitionStatus moves an appointment from one status to another only if it is
	// still in the from status. Returns affected rows: 0 means a concurrent change won.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to entity.AppointmentStatus, updatedAt time.Time) (int64, error)
}
