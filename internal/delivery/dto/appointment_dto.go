package dto

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Request DTOs

// DoctorID accepts both a JSON number and a numeric string.
type DoctorID int64

func (d *DoctorID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = 0
		return nil
	}
	raw := strings.Trim(string(data), `"`)
	if raw == "" {
		*d = 0
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("doctorId must be an integer, got %s", data)
	}
	*d = DoctorID(id)
	return nil
}

type CreateAppointmentRequest struct {
	DoctorID DoctorID `json:"doctorId" validate:"required,min=1"`
	Date     string   `json:"date" validate:"required"` // Format: YYYY-MM-DD
	Time     string   `json:"time" validate:"required"` // e.g. "10:00 AM"
	Type     string   `json:"type" validate:"required,oneof=consultation follow-up emergency"`
	Symptoms string   `json:"symptoms" validate:"required"`
}

// Response DTOs

type AppointmentResponse struct {
	ID        uuid.UUID       `json:"id"`
	UserID    string          `json:"user"`
	DoctorID  int64           `json:"doctorId"`
	Doctor    *DoctorResponse `json:"doctor"`
	Date      string          `json:"date"`
	Time      string          `json:"time"`
	Type      string          `json:"type"`
	Symptoms  string          `json:"symptoms"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type AppointmentListResponse struct {
	Upcoming []AppointmentResponse `json:"upcoming"`
	Previous []AppointmentResponse `json:"previous"`
}
