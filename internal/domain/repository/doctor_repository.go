package repository

import (
	"context"

	"clinic-appointment-service/internal/domain/entity"
)

type DoctorRepository interface {
	Create(ctx context.Context, doctor *entity.Doctor) error
	FindByID(ctx context.Context, id int64) (*entity.Doctor, error)
	FindByIDs(ctx context.Context, ids []int64) ([]entity.Doctor, error)
	FindAll(ctx context.Context) ([]entity.Doctor, error)
	FindBySpecialization(ctx context.Context, specialization string) ([]entity.Doctor, error)
}
