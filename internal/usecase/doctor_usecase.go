package usecase

import (
	"context"
	"errors"
	"fmt"

	"clinic-appointment-service/internal/converter"
	"clinic-appointment-service/internal/delivery/dto"
	"clinic-appointment-service/internal/domain/entity"
	"clinic-appointment-service/internal/domain/repository"
	"clinic-appointment-service/internal/service"

	"github.com/sirupsen/logrus"
)

var (
	ErrDoctorNotFound = errors.New("doctor not found")
	ErrDoctorExists   = errors.New("doctor with this id already exists")
	ErrDateNotFound   = errors.New("date not found")
	ErrSlotNotFound   = errors.New("time slot not found")
	ErrInvalidDate    = errors.New("invalid date format, use YYYY-MM-DD")
	ErrInvalidTime    = errors.New("invalid time format, use e.g. 10:00 AM")
)

type DoctorUsecase interface {
	GetAllDoctors(ctx context.Context) ([]dto.DoctorResponse, error)
	GetDoctorsBySpecialization(ctx context.Context, specialization string) ([]dto.DoctorResponse, error)
	GetDoctor(ctx context.Context, doctorID int64) (*dto.DoctorResponse, error)
	GetAvailableSlots(ctx context.Context, doctorID int64, date string) ([]string, error)
	SetSlotBooked(ctx context.Context, actorID string, doctorID int64, req *dto.UpdateSlotRequest) (*dto.DoctorResponse, error)
	CreateDoctor(ctx context.Context, actorID string, req *dto.CreateDoctorRequest) (*dto.DoctorResponse, error)
	AddAvailability(ctx context.Context, actorID string, doctorID int64, req *dto.AvailabilityRequest) (*dto.DoctorResponse, error)
}

type doctorUsecase struct {
	txManager    repository.TxManager
	log          *logrus.Logger
	doctorRepo   repository.DoctorRepository
	slotRepo     repository.DoctorSlotRepository
	auditService service.AuditService
}

func NewDoctorUsecase(
	txManager repository.TxManager,
	log *logrus.Logger,
	doctorRepo repository.DoctorRepository,
	slotRepo repository.DoctorSlotRepository,
	auditService service.AuditService,
) DoctorUsecase {
	return &doctorUsecase{
		txManager:    txManager,
		log:          log,
		doctorRepo:   doctorRepo,
		slotRepo:     slotRepo,
		auditService: auditService,
	}
}

func (u *doctorUsecase) GetAllDoctors(ctx context.Context) ([]dto.DoctorResponse, error) {
	doctors, err := u.doctorRepo.FindAll(ctx)
	if err != nil {
		u.log.Warnf("Failed to find all doctors: %+v", err)
		return nil, err
	}

	return converter.DoctorsToResponses(doctors), nil
}

func (u *doctorUsecase) GetDoctorsBySpecialization(ctx context.Context, specialization string) ([]dto.DoctorResponse, error) {
	doctors, err := u.doctorRepo.FindBySpecialization(ctx, specialization)
	if err != nil {
		u.log.Warnf("Failed to find doctors by specialization %q: %+v", specialization, err)
		return nil, err
	}

	return converter.DoctorsToResponses(doctors), nil
}

func (u *doctorUsecase) GetDoctor(ctx context.Context, doctorID int64) (*dto.DoctorResponse, error) {
	doctor, err := u.doctorRepo.FindByID(ctx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %d: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	return converter.DoctorToResponse(doctor), nil
}

// GetAvailableSlots returns the unbooked time labels of a doctor on date, ordered by clock time.
// An existing date with every slot booked yields an empty list.
func (u *doctorUsecase) GetAvailableSlots(ctx context.Context, doctorID int64, date string) ([]string, error) {
	day, ok := entity.ParseDate(date)
	if !ok {
		return nil, ErrInvalidDate
	}

	doctor, err := u.doctorRepo.FindByID(ctx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %d: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	slots, err := u.slotRepo.FindByDoctorAndDate(ctx, doctorID, day)
	if err != nil {
		u.log.Warnf("Failed to find slots for doctor %d on %s: %+v", doctorID, date, err)
		return nil, err
	}
	if len(slots) == 0 {
		return nil, ErrDateNotFound
	}

	entity.SortSlots(slots)
	available := make([]string, 0, len(slots))
	for _, slot := range slots {
		if !slot.IsBooked {
			available = append(available, slot.SlotTime)
		}
	}
	return available, nil
}

// SetSlotBooked flips the booked flag of one slot.
func (u *doctorUsecase) SetSlotBooked(ctx context.Context, actorID string, doctorID int64, req *dto.UpdateSlotRequest) (*dto.DoctorResponse, error) {
	day, ok := entity.ParseDate(req.Date)
	if !ok {
		return nil, ErrInvalidDate
	}
	slotTime, ok := entity.NormalizeTimeLabel(req.Time)
	if !ok {
		return nil, ErrInvalidTime
	}
	booked := *req.IsBooked

	var doctor *entity.Doctor
	err := u.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		found, err := u.doctorRepo.FindByID(ctx, doctorID)
		if err != nil {
			return err
		}
		if found == nil {
			return ErrDoctorNotFound
		}

		slots, err := u.slotRepo.FindByDoctorAndDate(ctx, doctorID, day)
		if err != nil {
			return err
		}
		if len(slots) == 0 {
			return ErrDateNotFound
		}

		var current *entity.DoctorSlot
		for i := range slots {
			if slots[i].SlotTime == slotTime {
				current = &slots[i]
				break
			}
		}
		if current == nil {
			return ErrSlotNotFound
		}

		if _, err := u.slotRepo.SetBooked(ctx, doctorID, day, slotTime, booked, nil); err != nil {
			return err
		}

		if err := u.auditService.LogUpdate(ctx, actorID, entity.AuditActionSlotUpdate, "doctor_slot",
			slotEntityID(doctorID, req.Date, slotTime),
			map[string]interface{}{"isBooked": current.IsBooked},
			map[string]interface{}{"isBooked": booked},
		); err != nil {
			return err
		}

		doctor, err = u.doctorRepo.FindByID(ctx, doctorID)
		return err
	})
	if err != nil {
		if !isDoctorLookupError(err) {
			u.log.Warnf("Failed to update slot %s for doctor %d: %+v", slotTime, doctorID, err)
		}
		return nil, err
	}

	u.log.Infof("Slot updated: doctor=%d, date=%s, time=%s, booked=%t, by=%s", doctorID, day.Format(entity.DateLayout), slotTime, booked, actorID)
	return converter.DoctorToResponse(doctor), nil
}

func (u *doctorUsecase) CreateDoctor(ctx context.Context, actorID string, req *dto.CreateDoctorRequest) (*dto.DoctorResponse, error) {
	doctor := converter.CreateDoctorRequestToEntity(req)

	var slots []entity.DoctorSlot
	for i := range req.AvailableDates {
		built, err := buildSlots(req.ID, &req.AvailableDates[i])
		if err != nil {
			return nil, err
		}
		slots = append(slots, built...)
	}

	err := u.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := u.doctorRepo.FindByID(ctx, req.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDoctorExists
		}

		if err := u.doctorRepo.Create(ctx, doctor); err != nil {
			if isDuplicateKeyError(err, constraintDoctorsPkey) {
				return ErrDoctorExists
			}
			return err
		}
		if err := u.slotRepo.CreateMissing(ctx, slots); err != nil {
			return err
		}

		return u.auditService.LogCreate(ctx, actorID, entity.AuditActionDoctorCreate, "doctor",
			fmt.Sprint(doctor.ID), map[string]interface{}{"name": doctor.Name, "specialization": doctor.Specialization})
	})
	if err != nil {
		if !errors.Is(err, ErrDoctorExists) {
			u.log.Warnf("Failed to create doctor %d: %+v", req.ID, err)
		}
		return nil, err
	}

	created, err := u.doctorRepo.FindByID(ctx, doctor.ID)
	if err != nil || created == nil {
		u.log.Warnf("Failed to reload doctor %d: %+v", doctor.ID, err)
		doctor.Slots = slots
		return converter.DoctorToResponse(doctor), nil
	}

	u.log.Infof("Doctor created: id=%d, specialization=%s, slots=%d", doctor.ID, doctor.Specialization, len(slots))
	return converter.DoctorToResponse(created), nil
}

// AddAvailability publishes new unbooked slots for a date. Existing slots keep their booked flag.
func (u *doctorUsecase) AddAvailability(ctx context.Context, actorID string, doctorID int64, req *dto.AvailabilityRequest) (*dto.DoctorResponse, error) {
	slots, err := buildSlots(doctorID, req)
	if err != nil {
		return nil, err
	}

	var doctor *entity.Doctor
	err = u.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		found, err := u.doctorRepo.FindByID(ctx, doctorID)
		if err != nil {
			return err
		}
		if found == nil {
			return ErrDoctorNotFound
		}

		if err := u.slotRepo.CreateMissing(ctx, slots); err != nil {
			return err
		}

		if err := u.auditService.LogCreate(ctx, actorID, entity.AuditActionAvailabilityAdd, "doctor",
			fmt.Sprint(doctorID), map[string]interface{}{"date": req.Date, "times": req.Times}); err != nil {
			return err
		}

		doctor, err = u.doctorRepo.FindByID(ctx, doctorID)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrDoctorNotFound) {
			u.log.Warnf("Failed to add availability for doctor %d: %+v", doctorID, err)
		}
		return nil, err
	}

	return converter.DoctorToResponse(doctor), nil
}

func buildSlots(doctorID int64, req *dto.AvailabilityRequest) ([]entity.DoctorSlot, error) {
	day, ok := entity.ParseDate(req.Date)
	if !ok {
		return nil, ErrInvalidDate
	}

	slots := make([]entity.DoctorSlot, 0, len(req.Times))
	seen := make(map[string]bool, len(req.Times))
	for _, raw := range req.Times {
		slotTime, ok := entity.NormalizeTimeLabel(raw)
		if !ok {
			return nil, ErrInvalidTime
		}
		if seen[slotTime] {
			continue
		}
		seen[slotTime] = true
		slots = append(slots, entity.DoctorSlot{
			DoctorID: doctorID,
			SlotDate: day,
			SlotTime: slotTime,
		})
	}
	return slots, nil
}

func slotEntityID(doctorID int64, date, slotTime string) string {
	return fmt.Sprintf("%d/%s/%s", doctorID, date, slotTime)
}

func isDoctorLookupError(err error) bool {
	return errors.Is(err, ErrDoctorNotFound) || errors.Is(err, ErrDateNotFound) || errors.Is(err, ErrSlotNotFound)
}
