package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"clinic-appointment-service/internal/delivery/dto"
	"clinic-appointment-service/internal/delivery/http/middleware"
	"clinic-appointment-service/internal/usecase"
	"clinic-appointment-service/pkg/identity"
	"clinic-appointment-service/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAppointmentUsecase struct {
	bookErr     error
	cancelErr   error
	completeErr error
	listErr     error

	gotUserID string
	gotReq    *dto.CreateAppointmentRequest
}

func (s *stubAppointmentUsecase) GetMyAppointments(_ context.Context, userID string) (*dto.AppointmentListResponse, error) {
	s.gotUserID = userID
	if s.listErr != nil {
		return nil, s.listErr
	}
	return &dto.AppointmentListResponse{Upcoming: []dto.AppointmentResponse{}, Previous: []dto.AppointmentResponse{}}, nil
}

func (s *stubAppointmentUsecase) BookAppointment(_ context.Context, userID string, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	s.gotUserID, s.gotReq = userID, req
	if s.bookErr != nil {
		return nil, s.bookErr
	}
	return &dto.AppointmentResponse{ID: uuid.New(), UserID: userID, DoctorID: int64(req.DoctorID), Status: "scheduled"}, nil
}

func (s *stubAppointmentUsecase) CancelAppointment(_ context.Context, userID string, id uuid.UUID) (*dto.AppointmentResponse, error) {
	s.gotUserID = userID
	if s.cancelErr != nil {
		return nil, s.cancelErr
	}
	return &dto.AppointmentResponse{ID: id, UserID: userID, Status: "cancelled"}, nil
}

func (s *stubAppointmentUsecase) CompleteAppointment(_ context.Context, actorID string, id uuid.UUID) (*dto.AppointmentResponse, error) {
	s.gotUserID = actorID
	if s.completeErr != nil {
		return nil, s.completeErr
	}
	return &dto.AppointmentResponse{ID: id, Status: "completed"}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func authed(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), &identity.Identity{UserID: userID, EmailVerified: true}))
}

func TestCreateAppointment(t *testing.T) {
	validBody := `{"doctorId":"3","date":"2024-03-20","time":"10:00 AM","type":"consultation","symptoms":"cough"}`

	tests := []struct {
		name       string
		body       string
		bookErr    error
		wantStatus int
	}{
		{"created", validBody, nil, http.StatusCreated},
		{"malformed json", `{"doctorId":`, nil, http.StatusBadRequest},
		{"missing fields", `{"doctorId":3,"date":"2024-03-20"}`, nil, http.StatusBadRequest},
		{"unknown type", `{"doctorId":3,"date":"2024-03-20","time":"10:00 AM","type":"surgery","symptoms":"x"}`, nil, http.StatusBadRequest},
		{"invalid date", validBody, usecase.ErrInvalidDate, http.StatusBadRequest},
		{"doctor missing", validBody, usecase.ErrDoctorNotFound, http.StatusNotFound},
		{"slot missing", validBody, usecase.ErrSlotNotFound, http.StatusNotFound},
		{"slot taken", validBody, usecase.ErrSlotAlreadyBooked, http.StatusConflict},
		{"storage failure", validBody, errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &stubAppointmentUsecase{bookErr: tt.bookErr}
			h := NewAppointmentHandler(uc, validator.NewValidator(), ErrorReporter{ExposeDetails: true})

			req := authed(httptest.NewRequest(http.MethodPost, "/api/appointments", bytes.NewBufferString(tt.body)), "user-a")
			rec := httptest.NewRecorder()
			h.CreateAppointment(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.Equal(t, tt.wantStatus == http.StatusCreated, env.Success)
			if tt.wantStatus == http.StatusCreated {
				assert.Equal(t, "user-a", uc.gotUserID)
				assert.Equal(t, dto.DoctorID(3), uc.gotReq.DoctorID)
			}
		})
	}
}

func TestCreateAppointment_RequiresIdentity(t *testing.T) {
	h := NewAppointmentHandler(&stubAppointmentUsecase{}, validator.NewValidator(), ErrorReporter{})

	rec := httptest.NewRecorder()
	h.CreateAppointment(rec, httptest.NewRequest(http.MethodPost, "/api/appointments", bytes.NewBufferString(`{}`)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInternalErrorDetailsHiddenInProduction(t *testing.T) {
	for _, expose := range []bool{true, false} {
		uc := &stubAppointmentUsecase{listErr: errors.New("pq: relation does not exist")}
		h := NewAppointmentHandler(uc, validator.NewValidator(), ErrorReporter{ExposeDetails: expose})

		rec := httptest.NewRecorder()
		h.GetMyAppointments(rec, authed(httptest.NewRequest(http.MethodGet, "/api/appointments", nil), "user-a"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		env := decodeEnvelope(t, rec)
		if expose {
			assert.Contains(t, string(env.Error), "relation does not exist")
		} else {
			assert.Empty(t, env.Error)
		}
	}
}

func TestGetMyAppointments_ReturnsBothLists(t *testing.T) {
	uc := &stubAppointmentUsecase{}
	h := NewAppointmentHandler(uc, validator.NewValidator(), ErrorReporter{})

	rec := httptest.NewRecorder()
	h.GetMyAppointments(rec, authed(httptest.NewRequest(http.MethodGet, "/api/appointments", nil), "user-a"))

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"upcoming":[],"previous":[]}`, string(env.Data))
	assert.Equal(t, "user-a", uc.gotUserID)
}

func TestCancelAppointment(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		cancelErr  error
		wantStatus int
	}{
		{"cancelled", uuid.NewString(), nil, http.StatusOK},
		{"malformed id", "not-a-uuid", nil, http.StatusNotFound},
		{"not found", uuid.NewString(), usecase.ErrAppointmentNotFound, http.StatusNotFound},
		{"not owner", uuid.NewString(), usecase.ErrAppointmentNotOwned, http.StatusForbidden},
		{"already cancelled", uuid.NewString(), usecase.ErrInvalidStateTransition, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAppointmentHandler(&stubAppointmentUsecase{cancelErr: tt.cancelErr}, validator.NewValidator(), ErrorReporter{})

			req := authed(httptest.NewRequest(http.MethodPatch, "/api/appointments/"+tt.id+"/cancel", nil), "user-a")
			req = mux.SetURLVars(req, map[string]string{"id": tt.id})
			rec := httptest.NewRecorder()
			h.CancelAppointment(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

type stubDoctorUsecase struct {
	usecase.DoctorUsecase
	slots []string
	err   error
}

func (s *stubDoctorUsecase) GetAvailableSlots(_ context.Context, _ int64, _ string) ([]string, error) {
	return s.slots, s.err
}

func (s *stubDoctorUsecase) SetSlotBooked(_ context.Context, _ string, doctorID int64, _ *dto.UpdateSlotRequest) (*dto.DoctorResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.DoctorResponse{ID: doctorID}, nil
}

func TestGetAvailableSlots(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		query      string
		slots      []string
		err        error
		wantStatus int
		wantData   string
	}{
		{"slots", "1", "?date=2024-03-20", []string{"9:00 AM", "10:00 AM"}, nil, http.StatusOK, `["9:00 AM","10:00 AM"]`},
		{"fully booked", "1", "?date=2024-03-20", []string{}, nil, http.StatusOK, `[]`},
		{"missing date", "1", "", nil, nil, http.StatusBadRequest, ""},
		{"bad id", "0", "?date=2024-03-20", nil, nil, http.StatusBadRequest, ""},
		{"unknown doctor", "1", "?date=2024-03-20", nil, usecase.ErrDoctorNotFound, http.StatusNotFound, ""},
		{"unknown date", "1", "?date=2024-03-21", nil, usecase.ErrDateNotFound, http.StatusNotFound, ""},
		{"bad date", "1", "?date=soon", nil, usecase.ErrInvalidDate, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &stubDoctorUsecase{err: tt.err, slots: tt.slots}
			h := NewDoctorHandler(uc, validator.NewValidator(), ErrorReporter{})

			req := httptest.NewRequest(http.MethodGet, "/api/doctors/"+tt.id+"/available-slots"+tt.query, nil)
			req = mux.SetURLVars(req, map[string]string{"id": tt.id})
			rec := httptest.NewRecorder()
			h.GetAvailableSlots(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantData != "" {
				assert.JSONEq(t, tt.wantData, string(decodeEnvelope(t, rec).Data))
			}
		})
	}
}

func TestUpdateSlot(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{"updated", `{"date":"2024-03-20","time":"9:00 AM","isBooked":true}`, nil, http.StatusOK},
		{"missing flag", `{"date":"2024-03-20","time":"9:00 AM"}`, nil, http.StatusBadRequest},
		{"unknown slot", `{"date":"2024-03-20","time":"9:30 AM","isBooked":false}`, usecase.ErrSlotNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewDoctorHandler(&stubDoctorUsecase{err: tt.err}, validator.NewValidator(), ErrorReporter{})

			req := authed(httptest.NewRequest(http.MethodPatch, "/api/doctors/1/available-slots", bytes.NewBufferString(tt.body)), "user-a")
			req = mux.SetURLVars(req, map[string]string{"id": "1"})
			rec := httptest.NewRecorder()
			h.UpdateSlot(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestCompleteAppointment_MalformedIDIsNotFound(t *testing.T) {
	h := NewAppointmentHandler(&stubAppointmentUsecase{}, validator.NewValidator(), ErrorReporter{})

	req := httptest.NewRequest(http.MethodPatch, "/api/admin/appointments/42/complete", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "42"})
	rec := httptest.NewRecorder()
	h.CompleteAppointment(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
