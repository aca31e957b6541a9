package repository

import (
	"context"
	"errors"

	"clinic-appointment-service/internal/domain/entity"
	domainRepo "clinic-appointment-service/internal/domain/repository"

	"gorm.io/gorm"
)

type doctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepository(db *gorm.DB) domainRepo.DoctorRepository {
	return &doctorRepository{db: db}
}

func (r *doctorRepository) Create(ctx context.Context, doctor *entity.Doctor) error {
	return conn(ctx, r.db).Omit("Slots").Create(doctor).Error
}

func (r *doctorRepository) FindByID(ctx context.Context, id int64) (*entity.Doctor, error) {
	var doctor entity.Doctor
	err := conn(ctx, r.db).Preload("Slots", orderSlots).Where("id = ?", id).First(&doctor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doctor, nil
}

func (r *doctorRepository) FindByIDs(ctx context.Context, ids []int64) ([]entity.Doctor, error) {
	var doctors []entity.Doctor
	if len(ids) == 0 {
		return doctors, nil
	}
	err := conn(ctx, r.db).Where("id IN ?", ids).Find(&doctors).Error
	if err != nil {
		return nil, err
	}
	return doctors, nil
}

func (r *doctorRepository) FindAll(ctx context.Context) ([]entity.Doctor, error) {
	var doctors []entity.Doctor
	err := conn(ctx, r.db).Preload("Slots", orderSlots).Order("id ASC").Find(&doctors).Error
	if err != nil {
		return nil, err
	}
	return doctors, nil
}

func (r *doctorRepository) FindBySpecialization(ctx context.Context, specialization string) ([]entity.Doctor, error) {
	var doctors []entity.Doctor
	err := conn(ctx, r.db).Preload("Slots", orderSlots).
		Where("specialization = ?", specialization).
		Order("id ASC").
		Find(&doctors).Error
	if err != nil {
		return nil, err
	}
	return doctors, nil
}

func orderSlots(db *gorm.DB) *gorm.DB {
	return db.Order("slot_date ASC, id ASC")
}
