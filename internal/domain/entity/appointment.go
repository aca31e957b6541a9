package entity

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus represents the lifecycle state of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// AppointmentType represents the kind of visit requested
type AppointmentType string

const (
	AppointmentTypeConsultation AppointmentType = "consultation"
	AppointmentTypeFollowUp     AppointmentType = "follow-up"
	AppointmentTypeEmergency    AppointmentType = "emergency"
)

// IsValid reports whether t is one of the supported appointment types
func (t AppointmentType) IsValid() bool {
	switch t {
	case AppointmentTypeConsultation, AppointmentTypeFollowUp, AppointmentTypeEmergency:
		return true
	}
	return false
}

// Appointment binds a user to a doctor slot.
// Cancellation is a status change, rows are never deleted.
type Appointment struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string            `gorm:"type:varchar(128);not null;index" json:"user"`
	DoctorID  int64             `gorm:"not null;index" json:"doctorId"`
	Date      time.Time         `gorm:"type:date;not null;index" json:"date"`
	Time      string            `gorm:"type:varchar(20);not null" json:"time"`
	Type      AppointmentType   `gorm:"type:varchar(20);not null" json:"type"`
	Symptoms  string            `gorm:"type:text;not null" json:"symptoms"`
	Status    AppointmentStatus `gorm:"type:varchar(20);not null;default:'scheduled';index" json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`

	// Resolved at read time, not a database relation
	Doctor *Doctor `gorm:"-" json:"doctor,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// IsScheduled checks if the appointment is still active
func (a *Appointment) IsScheduled() bool {
	return a.Status == AppointmentStatusScheduled
}

// IsOwnedBy checks if the appointment belongs to userID
func (a *Appointment) IsOwnedBy(userID string) bool {
	return a.UserID == userID
}

// Cancel moves a scheduled appointment to cancelled. Returns false from any other state.
func (a *Appointment) Cancel(now time.Time) bool {
	return a.transition(AppointmentStatusCancelled, now)
}

// Complete moves a scheduled appointment to completed. Returns false from any other state.
func (a *Appointment) Complete(now time.Time) bool {
	return a.transition(AppointmentStatusCompleted, now)
}

func (a *Appointment) transition(to AppointmentStatus, now time.Time) bool {
	if !a.IsScheduled() {
		return false
	}
	a.Status = to
	a.UpdatedAt = now
	return true
}

// IsUpcoming reports whether the appointment is scheduled on today or a later date.
// today must be truncated to midnight of the clinic's calendar day.
func (a *Appointment) IsUpcoming(today time.Time) bool {
	if !a.IsScheduled() {
		return false
	}
	return a.Date.Format(DateLayout) >= today.Format(DateLayout)
}
