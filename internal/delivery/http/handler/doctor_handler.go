package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"clinic-appointment-service/internal/delivery/dto"
	"clinic-appointment-service/internal/delivery/http/middleware"
	"clinic-appointment-service/internal/usecase"
	"clinic-appointment-service/pkg/response"
	"clinic-appointment-service/pkg/validator"

	"github.com/gorilla/mux"
)

type DoctorHandler struct {
	doctorUsecase usecase.DoctorUsecase
	validator     *validator.CustomValidator
	errors        ErrorReporter
}

func NewDoctorHandler(doctorUsecase usecase.DoctorUsecase, validator *validator.CustomValidator, reporter ErrorReporter) *DoctorHandler {
	return &DoctorHandler{
		doctorUsecase: doctorUsecase,
		validator:     validator,
		errors:        reporter,
	}
}

func (h *DoctorHandler) GetAllDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.doctorUsecase.GetAllDoctors(r.Context())
	if err != nil {
		h.errors.internal(w, "Failed to get doctors", err)
		return
	}

	response.Success(w, http.StatusOK, "", doctors)
}

func (h *DoctorHandler) GetDoctorsBySpecialization(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.doctorUsecase.GetDoctorsBySpecialization(r.Context(), mux.Vars(r)["specialization"])
	if err != nil {
		h.errors.internal(w, "Failed to get doctors", err)
		return
	}

	response.Success(w, http.StatusOK, "", doctors)
}

func (h *DoctorHandler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := parseDoctorID(w, r)
	if !ok {
		return
	}

	doctor, err := h.doctorUsecase.GetDoctor(r.Context(), doctorID)
	if err != nil {
		h.writeError(w, err, "Failed to get doctor")
		return
	}

	response.Success(w, http.StatusOK, "", doctor)
}

func (h *DoctorHandler) GetAvailableSlots(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := parseDoctorID(w, r)
	if !ok {
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		response.BadRequest(w, "Query parameter date is required")
		return
	}

	slots, err := h.doctorUsecase.GetAvailableSlots(r.Context(), doctorID, date)
	if err != nil {
		h.writeError(w, err, "Failed to get available slots")
		return
	}

	response.Success(w, http.StatusOK, "", slots)
}

func (h *DoctorHandler) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := parseDoctorID(w, r)
	if !ok {
		return
	}

	var req dto.UpdateSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	doctor, err := h.doctorUsecase.SetSlotBooked(r.Context(), userID, doctorID, &req)
	if err != nil {
		h.writeError(w, err, "Failed to update slot")
		return
	}

	response.Success(w, http.StatusOK, "", doctor)
}

func (h *DoctorHandler) CreateDoctor(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	doctor, err := h.doctorUsecase.CreateDoctor(r.Context(), userID, &req)
	if err != nil {
		h.writeError(w, err, "Failed to create doctor")
		return
	}

	response.Success(w, http.StatusCreated, "Doctor created successfully", doctor)
}

func (h *DoctorHandler) AddAvailability(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := parseDoctorID(w, r)
	if !ok {
		return
	}

	var req dto.AvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	doctor, err := h.doctorUsecase.AddAvailability(r.Context(), userID, doctorID, &req)
	if err != nil {
		h.writeError(w, err, "Failed to add availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability added successfully", doctor)
}

func (h *DoctorHandler) writeError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, usecase.ErrDoctorNotFound):
		response.NotFound(w, "Doctor not found")
	case errors.Is(err, usecase.ErrDateNotFound):
		response.NotFound(w, "Date not found")
	case errors.Is(err, usecase.ErrSlotNotFound):
		response.NotFound(w, "Time slot not found")
	case errors.Is(err, usecase.ErrDoctorExists):
		response.Conflict(w, "Doctor already exists")
	case errors.Is(err, usecase.ErrInvalidDate), errors.Is(err, usecase.ErrInvalidTime):
		response.BadRequest(w, err.Error())
	default:
		h.errors.internal(w, message, err)
	}
}

func parseDoctorID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	doctorID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || doctorID < 1 {
		response.BadRequest(w, "Invalid doctor ID")
		return 0, false
	}
	return doctorID, true
}
