package usecase

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"clinic-appointment-service/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

// memStore is an in-memory stand-in for the postgres repositories. A transaction
// holds the store mutex for its whole duration and rolls back to a snapshot on error.
type memStore struct {
	mu           sync.Mutex
	doctors      map[int64]entity.Doctor
	slots        []entity.DoctorSlot
	appointments map[uuid.UUID]entity.Appointment
	audits       []entity.AuditLog

	failAppointmentCreate error
}

type memTxKey struct{}

func newMemStore() *memStore {
	return &memStore{
		doctors:      make(map[int64]entity.Doctor),
		appointments: make(map[uuid.UUID]entity.Appointment),
	}
}

func (s *memStore) lock(ctx context.Context) func() {
	if ctx.Value(memTxKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *memStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doctors := make(map[int64]entity.Doctor, len(s.doctors))
	for k, v := range s.doctors {
		doctors[k] = v
	}
	slots := append([]entity.DoctorSlot(nil), s.slots...)
	appointments := make(map[uuid.UUID]entity.Appointment, len(s.appointments))
	for k, v := range s.appointments {
		appointments[k] = v
	}
	audits := append([]entity.AuditLog(nil), s.audits...)

	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		s.doctors, s.slots, s.appointments, s.audits = doctors, slots, appointments, audits
		return err
	}
	return nil
}

func (s *memStore) addDoctor(id int64, specialization string, availability map[string][]string) {
	s.doctors[id] = entity.Doctor{ID: id, Name: "Dr. Test", Specialization: specialization}
	for date, times := range availability {
		day, _ := entity.ParseDate(date)
		for _, slotTime := range times {
			s.slots = append(s.slots, entity.DoctorSlot{ID: int64(len(s.slots) + 1), DoctorID: id, SlotDate: day, SlotTime: slotTime})
		}
	}
}

func (s *memStore) slot(doctorID int64, date, slotTime string) (entity.DoctorSlot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	day, _ := entity.ParseDate(date)
	for _, slot := range s.slots {
		if slot.DoctorID == doctorID && entity.SameDate(slot.SlotDate, day) && slot.SlotTime == slotTime {
			return slot, true
		}
	}
	return entity.DoctorSlot{}, false
}

func (s *memStore) appointmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.appointments)
}

func (s *memStore) auditActions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	actions := make([]string, 0, len(s.audits))
	for _, a := range s.audits {
		actions = append(actions, a.Action)
	}
	return actions
}

func (s *memStore) doctorWithSlots(id int64) entity.Doctor {
	doctor := s.doctors[id]
	doctor.Slots = nil
	for _, slot := range s.slots {
		if slot.DoctorID == id {
			doctor.Slots = append(doctor.Slots, slot)
		}
	}
	return doctor
}

type memDoctorRepo struct{ *memStore }

func (r memDoctorRepo) Create(ctx context.Context, doctor *entity.Doctor) error {
	defer r.lock(ctx)()
	if _, ok := r.doctors[doctor.ID]; ok {
		return &pgconn.PgError{Code: "23505", ConstraintName: "doctors_pkey"}
	}
	r.doctors[doctor.ID] = *doctor
	return nil
}

func (r memDoctorRepo) FindByID(ctx context.Context, id int64) (*entity.Doctor, error) {
	defer r.lock(ctx)()
	if _, ok := r.doctors[id]; !ok {
		return nil, nil
	}
	doctor := r.doctorWithSlots(id)
	return &doctor, nil
}

func (r memDoctorRepo) FindByIDs(ctx context.Context, ids []int64) ([]entity.Doctor, error) {
	defer r.lock(ctx)()
	var doctors []entity.Doctor
	for _, id := range ids {
		if doctor, ok := r.doctors[id]; ok {
			doctors = append(doctors, doctor)
		}
	}
	return doctors, nil
}

func (r memDoctorRepo) FindAll(ctx context.Context) ([]entity.Doctor, error) {
	defer r.lock(ctx)()
	var doctors []entity.Doctor
	for id := range r.doctors {
		doctors = append(doctors, r.doctorWithSlots(id))
	}
	sort.Slice(doctors, func(i, j int) bool { return doctors[i].ID < doctors[j].ID })
	return doctors, nil
}

func (r memDoctorRepo) FindBySpecialization(ctx context.Context, specialization string) ([]entity.Doctor, error) {
	all, _ := r.FindAll(ctx)
	var doctors []entity.Doctor
	for _, doctor := range all {
		if doctor.Specialization == specialization {
			doctors = append(doctors, doctor)
		}
	}
	return doctors, nil
}

type memSlotRepo struct{ *memStore }

func (r memSlotRepo) FindByDoctorAndDate(ctx context.Context, doctorID int64, date time.Time) ([]entity.DoctorSlot, error) {
	defer r.lock(ctx)()
	var slots []entity.DoctorSlot
	for _, slot := range r.slots {
		if slot.DoctorID == doctorID && entity.SameDate(slot.SlotDate, date) {
			slots = append(slots, slot)
		}
	}
	return slots, nil
}

func (r memSlotRepo) CreateMissing(ctx context.Context, slots []entity.DoctorSlot) error {
	defer r.lock(ctx)()
	for _, slot := range slots {
		exists := false
		for _, current := range r.slots {
			if current.DoctorID == slot.DoctorID && entity.SameDate(current.SlotDate, slot.SlotDate) && current.SlotTime == slot.SlotTime {
				exists = true
				break
			}
		}
		if !exists {
			slot.ID = int64(len(r.slots) + 1)
			r.slots = append(r.slots, slot)
		}
	}
	return nil
}

func (r memSlotRepo) SetBooked(ctx context.Context, doctorID int64, date time.Time, slotTime string, booked bool, onlyIfBooked *bool) (int64, error) {
	defer r.lock(ctx)()
	for i := range r.slots {
		slot := &r.slots[i]
		if slot.DoctorID != doctorID || !entity.SameDate(slot.SlotDate, date) || slot.SlotTime != slotTime {
			continue
		}
		if onlyIfBooked != nil && slot.IsBooked != *onlyIfBooked {
			return 0, nil
		}
		slot.IsBooked = booked
		slot.Version++
		return 1, nil
	}
	return 0, nil
}

type memAppointmentRepo struct{ *memStore }

func (r memAppointmentRepo) Create(ctx context.Context, appointment *entity.Appointment) error {
	defer r.lock(ctx)()
	if r.failAppointmentCreate != nil {
		return r.failAppointmentCreate
	}
	if appointment.IsScheduled() {
		for _, current := range r.appointments {
			if current.IsScheduled() && current.DoctorID == appointment.DoctorID &&
				entity.SameDate(current.Date, appointment.Date) && current.Time == appointment.Time {
				return &pgconn.PgError{Code: "23505", ConstraintName: "idx_appointments_active_slot"}
			}
		}
	}
	stored := *appointment
	stored.Doctor = nil
	r.appointments[appointment.ID] = stored
	return nil
}

func (r memAppointmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	defer r.lock(ctx)()
	appointment, ok := r.appointments[id]
	if !ok {
		return nil, nil
	}
	return &appointment, nil
}

func (r memAppointmentRepo) FindByUserID(ctx context.Context, userID string) ([]entity.Appointment, error) {
	defer r.lock(ctx)()
	var appointments []entity.Appointment
	for _, appointment := range r.appointments {
		if appointment.UserID == userID {
			appointments = append(appointments, appointment)
		}
	}
	sort.Slice(appointments, func(i, j int) bool { return appointments[i].CreatedAt.Before(appointments[j].CreatedAt) })
	return appointments, nil
}

func (r memAppointmentRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to entity.AppointmentStatus, updatedAt time.Time) (int64, error) {
	defer r.lock(ctx)()
	appointment, ok := r.appointments[id]
	if !ok || appointment.Status != from {
		return 0, nil
	}
	appointment.Status = to
	appointment.UpdatedAt = updatedAt
	r.appointments[id] = appointment
	return 1, nil
}

type memAuditRepo struct{ *memStore }

func (r memAuditRepo) Create(ctx context.Context, log *entity.AuditLog) error {
	defer r.lock(ctx)()
	log.ID = int64(len(r.audits) + 1)
	r.audits = append(r.audits, *log)
	return nil
}

func (r memAuditRepo) FindAll(ctx context.Context, limit int) ([]entity.AuditLog, error) {
	defer r.lock(ctx)()
	var logs []entity.AuditLog
	for i := len(r.audits) - 1; i >= 0 && len(logs) < limit; i-- {
		logs = append(logs, r.audits[i])
	}
	return logs, nil
}

func (r memAuditRepo) FindByID(ctx context.Context, id int64) (*entity.AuditLog, error) {
	defer r.lock(ctx)()
	for _, log := range r.audits {
		if log.ID == id {
			found := log
			return &found, nil
		}
	}
	return nil, nil
}

var errStoreDown = errors.New("store unavailable")

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
