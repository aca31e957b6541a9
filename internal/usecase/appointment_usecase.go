package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"clinic-appointment-service/internal/converter"
	"clinic-appointment-service/internal/delivery/dto"
	"clinic-appointment-service/internal/domain/entity"
	"clinic-appointment-service/internal/domain/repository"
	"clinic-appointment-service/internal/infrastructure/metrics"
	"clinic-appointment-service/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrAppointmentNotFound    = errors.New("appointment not found")
	ErrAppointmentNotOwned    = errors.New("not authorized to change this appointment")
	ErrInvalidStateTransition = errors.New("only scheduled appointments can be changed")
	ErrInvalidAppointmentType = errors.New("invalid appointment type")
	ErrSlotAlreadyBooked      = errors.New("time slot is already booked")
)

// Metric outcomes
const (
	outcomeSuccess  = "success"
	outcomeConflict = "conflict"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

type AppointmentUsecase interface {
	GetMyAppointments(ctx context.Context, userID string) (*dto.AppointmentListResponse, error)
	BookAppointment(ctx context.Context, userID string, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error)
	CancelAppointment(ctx context.Context, userID string, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	CompleteAppointment(ctx context.Context, actorID string, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
}

// SlotLocker guards a doctor slot while a booking is being written.
type SlotLocker interface {
	Acquire(ctx context.Context, doctorID int64, date string, slotTime string) (*service.SlotLock, error)
}

// AppointmentOption customizes an AppointmentUsecase.
type AppointmentOption func(*appointmentUsecase)

// WithClock replaces time.Now as the source of the current instant.
func WithClock(now func() time.Time) AppointmentOption {
	return func(u *appointmentUsecase) {
		u.now = now
	}
}

// WithSlotLocker enables the distributed slot lock in front of the booking transaction.
func WithSlotLocker(locker SlotLocker) AppointmentOption {
	return func(u *appointmentUsecase) {
		u.slotLocker = locker
	}
}

type appointmentUsecase struct {
	txManager       repository.TxManager
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	doctorRepo      repository.DoctorRepository
	slotRepo        repository.DoctorSlotRepository
	auditService    service.AuditService
	metrics         *metrics.BookingMetrics
	location        *time.Location
	slotLocker      SlotLocker
	now             func() time.Time
}

func NewAppointmentUsecase(
	txManager repository.TxManager,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	doctorRepo repository.DoctorRepository,
	slotRepo repository.DoctorSlotRepository,
	auditService service.AuditService,
	bookingMetrics *metrics.BookingMetrics,
	location *time.Location,
	opts ...AppointmentOption,
) AppointmentUsecase {
	if location == nil {
		location = time.UTC
	}
	u := &appointmentUsecase{
		txManager:       txManager,
		log:             log,
		appointmentRepo: appointmentRepo,
		doctorRepo:      doctorRepo,
		slotRepo:        slotRepo,
		auditService:    auditService,
		metrics:         bookingMetrics,
		location:        location,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// GetMyAppointments returns the user's appointments split into upcoming and previous
func (u *appointmentUsecase) GetMyAppointments(ctx context.Context, userID string) (*dto.AppointmentListResponse, error) {
	appointments, err := u.appointmentRepo.FindByUserID(ctx, userID)
	if err != nil {
		u.log.Warnf("Failed to find appointments for user %s: %+v", userID, err)
		return nil, err
	}

	if err := u.attachDoctors(ctx, appointments); err != nil {
		return nil, err
	}

	upcoming, previous := PartitionAppointments(appointments, u.today())

	return &dto.AppointmentListResponse{
		Upcoming: converter.AppointmentsToResponses(upcoming),
		Previous: converter.AppointmentsToResponses(previous),
	}, nil
}

// BookAppointment reserves the requested slot and creates a scheduled appointment.
// Reservation and creation commit together or not at all.
func (u *appointmentUsecase) BookAppointment(ctx context.Context, userID string, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	appointmentType := entity.AppointmentType(req.Type)
	if !appointmentType.IsValid() {
		u.metrics.ObserveBooking(req.Type, outcomeRejected)
		return nil, ErrInvalidAppointmentType
	}

	date, ok := entity.ParseDate(req.Date)
	if !ok {
		u.metrics.ObserveBooking(req.Type, outcomeRejected)
		return nil, ErrInvalidDate
	}
	dateLabel := date.Format(entity.DateLayout)

	slotTime, ok := entity.NormalizeTimeLabel(req.Time)
	if !ok {
		u.metrics.ObserveBooking(req.Type, outcomeRejected)
		return nil, ErrInvalidTime
	}

	doctorID := int64(req.DoctorID)
	doctor, err := u.doctorRepo.FindByID(ctx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %d: %+v", doctorID, err)
		u.metrics.ObserveBooking(req.Type, outcomeError)
		return nil, err
	}
	if doctor == nil {
		u.metrics.ObserveBooking(req.Type, outcomeRejected)
		return nil, ErrDoctorNotFound
	}

	if u.slotLocker != nil {
		lock, err := u.slotLocker.Acquire(ctx, doctorID, dateLabel, slotTime)
		switch {
		case errors.Is(err, service.ErrSlotLocked):
			u.metrics.ObserveSlotConflict()
			u.metrics.ObserveBooking(req.Type, outcomeConflict)
			return nil, ErrSlotAlreadyBooked
		case err != nil:
			// Lock store unavailable, the transaction below still guarantees exclusivity
			u.log.Warnf("Slot lock unavailable, continuing without it: %+v", err)
		default:
			defer func() {
				if releaseErr := lock.Release(context.WithoutCancel(ctx)); releaseErr != nil {
					u.log.Warnf("Failed to release slot lock: %+v", releaseErr)
				}
			}()
		}
	}

	now := u.now()
	appointment := &entity.Appointment{
		ID:        uuid.New(),
		UserID:    userID,
		DoctorID:  doctorID,
		Date:      date,
		Time:      slotTime,
		Type:      appointmentType,
		Symptoms:  req.Symptoms,
		Status:    entity.AppointmentStatusScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = u.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := u.reserveSlot(ctx, doctorID, date, slotTime); err != nil {
			return err
		}

		if err := u.appointmentRepo.Create(ctx, appointment); err != nil {
			if isDuplicateKeyError(err, constraintActiveAppointmentSlot) {
				return ErrSlotAlreadyBooked
			}
			return err
		}

		return u.auditService.LogCreate(ctx, userID, entity.AuditActionAppointmentCreate, "appointment",
			appointment.ID.String(), map[string]interface{}{
				"doctorId": doctorID,
				"date":     dateLabel,
				"time":     slotTime,
				"type":     string(appointmentType),
			})
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrSlotAlreadyBooked):
			u.metrics.ObserveSlotConflict()
			u.metrics.ObserveBooking(req.Type, outcomeConflict)
		case errors.Is(err, ErrSlotNotFound):
			u.metrics.ObserveBooking(req.Type, outcomeRejected)
		default:
			u.log.Warnf("Failed to book appointment for user %s: %+v", userID, err)
			u.metrics.ObserveBooking(req.Type, outcomeError)
		}
		return nil, err
	}

	markSlotBooked(doctor, date, slotTime)
	appointment.Doctor = doctor

	u.metrics.ObserveBooking(req.Type, outcomeSuccess)
	u.log.Infof("Appointment booked: id=%s, user=%s, doctor=%d, slot=%s %s", appointment.ID, userID, doctorID, dateLabel, slotTime)

	return converter.AppointmentToResponse(appointment), nil
}

// reserveSlot flips the slot from free to booked. A doctor that publishes no slots for
// the date accepts any time; the active-slot unique index still rejects duplicates.
func (u *appointmentUsecase) reserveSlot(ctx context.Context, doctorID int64, date time.Time, slotTime string) error {
	free := false
	affected, err := u.slotRepo.SetBooked(ctx, doctorID, date, slotTime, true, &free)
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	slots, err := u.slotRepo.FindByDoctorAndDate(ctx, doctorID, date)
	if err != nil {
		return err
	}
	if len(slots) == 0 {
		return nil
	}
	for _, slot := range slots {
		if slot.SlotTime == slotTime {
			return ErrSlotAlreadyBooked
		}
	}
	return ErrSlotNotFound
}

// CancelAppointment cancels a scheduled appointment owned by userID and frees its slot
func (u *appointmentUsecase) CancelAppointment(ctx context.Context, userID string, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	appointment, err := u.appointmentRepo.FindByID(ctx, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	if !appointment.IsOwnedBy(userID) {
		u.metrics.ObserveTransition(string(entity.AppointmentStatusCancelled), outcomeRejected)
		return nil, ErrAppointmentNotOwned
	}

	now := u.now()
	previous := appointment.Status
	if !appointment.Cancel(now) {
		u.metrics.ObserveTransition(string(entity.AppointmentStatusCancelled), outcomeRejected)
		return nil, ErrInvalidStateTransition
	}

	err = u.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		affected, err := u.appointmentRepo.TransitionStatus(ctx, appointment.ID, previous, appointment.Status, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInvalidStateTransition
		}

		booked := true
		if _, err := u.slotRepo.SetBooked(ctx, appointment.DoctorID, appointment.Date, appointment.Time, false, &booked); err != nil {
			return err
		}

		return u.auditService.LogUpdate(ctx, userID, entity.AuditActionAppointmentCancel, "appointment",
			appointment.ID.String(),
			map[string]interface{}{"status": string(previous)},
			map[string]interface{}{"status": string(appointment.Status)},
		)
	})
	if err != nil {
		return nil, u.transitionFailed(appointment, entity.AppointmentStatusCancelled, err)
	}

	u.metrics.ObserveTransition(string(entity.AppointmentStatusCancelled), outcomeSuccess)
	u.log.Infof("Appointment cancelled: id=%s, user=%s", appointment.ID, userID)

	return u.withDoctor(ctx, appointment), nil
}

// CompleteAppointment marks a scheduled appointment as completed. The slot stays consumed.
func (u *appointmentUsecase) CompleteAppointment(ctx context.Context, actorID string, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	appointment, err := u.appointmentRepo.FindByID(ctx, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}

	now := u.now()
	previous := appointment.Status
	if !appointment.Complete(now) {
		u.metrics.ObserveTransition(string(entity.AppointmentStatusCompleted), outcomeRejected)
		return nil, ErrInvalidStateTransition
	}

	err = u.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		affected, err := u.appointmentRepo.TransitionStatus(ctx, appointment.ID, previous, appointment.Status, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInvalidStateTransition
		}

		return u.auditService.LogUpdate(ctx, actorID, entity.AuditActionAppointmentComplete, "appointment",
			appointment.ID.String(),
			map[string]interface{}{"status": string(previous)},
			map[string]interface{}{"status": string(appointment.Status)},
		)
	})
	if err != nil {
		return nil, u.transitionFailed(appointment, entity.AppointmentStatusCompleted, err)
	}

	u.metrics.ObserveTransition(string(entity.AppointmentStatusCompleted), outcomeSuccess)
	u.log.Infof("Appointment completed: id=%s, by=%s", appointment.ID, actorID)

	return u.withDoctor(ctx, appointment), nil
}

func (u *appointmentUsecase) transitionFailed(appointment *entity.Appointment, to entity.AppointmentStatus, err error) error {
	if errors.Is(err, ErrInvalidStateTransition) {
		u.metrics.ObserveTransition(string(to), outcomeConflict)
		return err
	}
	u.log.Warnf("Failed to move appointment %s to %s: %+v", appointment.ID, to, err)
	u.metrics.ObserveTransition(string(to), outcomeError)
	return err
}

func (u *appointmentUsecase) withDoctor(ctx context.Context, appointment *entity.Appointment) *dto.AppointmentResponse {
	doctor, err := u.doctorRepo.FindByID(ctx, appointment.DoctorID)
	switch {
	case err != nil:
		u.log.Warnf("Failed to find doctor %d: %+v", appointment.DoctorID, err)
	case doctor == nil:
		u.log.Errorf("Data integrity: appointment %s references missing doctor %d", appointment.ID, appointment.DoctorID)
	default:
		appointment.Doctor = doctor
	}
	return converter.AppointmentToResponse(appointment)
}

// attachDoctors resolves each appointment's doctor with a single lookup.
// Appointments whose doctor no longer exists are kept with a nil doctor.
func (u *appointmentUsecase) attachDoctors(ctx context.Context, appointments []entity.Appointment) error {
	if len(appointments) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(appointments))
	seen := make(map[int64]bool, len(appointments))
	for _, appointment := range appointments {
		if !seen[appointment.DoctorID] {
			seen[appointment.DoctorID] = true
			ids = append(ids, appointment.DoctorID)
		}
	}

	doctors, err := u.doctorRepo.FindByIDs(ctx, ids)
	if err != nil {
		u.log.Warnf("Failed to find doctors %v: %+v", ids, err)
		return err
	}

	byID := make(map[int64]*entity.Doctor, len(doctors))
	for i := range doctors {
		byID[doctors[i].ID] = &doctors[i]
	}

	for i := range appointments {
		doctor, ok := byID[appointments[i].DoctorID]
		if !ok {
			u.log.Errorf("Data integrity: appointment %s references missing doctor %d", appointments[i].ID, appointments[i].DoctorID)
			continue
		}
		appointments[i].Doctor = doctor
	}
	return nil
}

// today returns the current calendar day in the clinic time zone as a UTC midnight
func (u *appointmentUsecase) today() time.Time {
	now := u.now().In(u.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// PartitionAppointments splits appointments into upcoming (scheduled, on or after today)
// and previous (everything else). Upcoming is ordered soonest first, previous most recent first.
func PartitionAppointments(appointments []entity.Appointment, today time.Time) (upcoming, previous []entity.Appointment) {
	upcoming = make([]entity.Appointment, 0)
	previous = make([]entity.Appointment, 0)
	for _, appointment := range appointments {
		if appointment.IsUpcoming(today) {
			upcoming = append(upcoming, appointment)
		} else {
			previous = append(previous, appointment)
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return appointmentBefore(&upcoming[i], &upcoming[j])
	})
	sort.SliceStable(previous, func(i, j int) bool {
		return appointmentBefore(&previous[j], &previous[i])
	})
	return upcoming, previous
}

func appointmentBefore(a, b *entity.Appointment) bool {
	ad, bd := a.Date.Format(entity.DateLayout), b.Date.Format(entity.DateLayout)
	if ad != bd {
		return ad < bd
	}
	am, aok := entity.ParseTimeLabel(a.Time)
	bm, bok := entity.ParseTimeLabel(b.Time)
	if aok && bok && am != bm {
		return am < bm
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func markSlotBooked(doctor *entity.Doctor, date time.Time, slotTime string) {
	for i := range doctor.Slots {
		if entity.SameDate(doctor.Slots[i].SlotDate, date) && doctor.Slots[i].SlotTime == slotTime {
			doctor.Slots[i].IsBooked = true
		}
	}
}
