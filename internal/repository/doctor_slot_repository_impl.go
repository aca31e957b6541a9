package repository

import (
	"context"
	"time"

	"clinic-appointment-service/internal/domain/entity"
	domainRepo "clinic-appointment-service/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type doctorSlotRepository struct {
	db *gorm.DB
}

func NewDoctorSlotRepository(db *gorm.DB) domainRepo.DoctorSlotRepository {
	return &doctorSlotRepository{db: db}
}

func (r *doctorSlotRepository) FindByDoctorAndDate(ctx context.Context, doctorID int64, date time.Time) ([]entity.DoctorSlot, error) {
	var slots []entity.DoctorSlot
	err := conn(ctx, r.db).
		Where("doctor_id = ? AND slot_date = ?", doctorID, date.Format(entity.DateLayout)).
		Order("id ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *doctorSlotRepository) CreateMissing(ctx context.Context, slots []entity.DoctorSlot) error {
	if len(slots) == 0 {
		return nil
	}
	return conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "doctor_id"}, {Name: "slot_date"}, {Name: "slot_time"}},
			DoNothing: true,
		}).
		Create(&slots).Error
}

// SetBooked bumps version on every change so concurrent writers can be detected.
func (r *doctorSlotRepository) SetBooked(ctx context.Context, doctorID int64, date time.Time, slotTime string, booked bool, onlyIfBooked *bool) (int64, error) {
	query := conn(ctx, r.db).Model(&entity.DoctorSlot{}).
		Where("doctor_id = ? AND slot_date = ? AND slot_time = ?", doctorID, date.Format(entity.DateLayout), slotTime)
	if onlyIfBooked != nil {
		query = query.Where("is_booked = ?", *onlyIfBooked)
	}
	result := query.Updates(map[string]interface{}{
		"is_booked":  booked,
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now(),
	})
	return result.RowsAffected, result.Error
}
