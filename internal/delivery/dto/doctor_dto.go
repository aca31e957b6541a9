package dto

import "time"

// Request DTOs

type AddressRequest struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
}

type ContactRequest struct {
	Email   string         `json:"email" validate:"omitempty,email"`
	Phone   string         `json:"phone"`
	Address AddressRequest `json:"address"`
}

type QualificationRequest struct {
	Degree      string `json:"degree" validate:"required"`
	Institution string `json:"institution" validate:"required"`
	Year        int    `json:"year" validate:"omitempty,gte=1900"`
}

type CreateDoctorRequest struct {
	ID             int64                  `json:"id" validate:"required,min=1"`
	Name           string                 `json:"name" validate:"required,min=2"`
	Specialization string                 `json:"specialization" validate:"required"`
	Expertise      string                 `json:"expertise" validate:"required"`
	Experience     string                 `json:"experience" validate:"required"`
	Education      string                 `json:"education" validate:"required"`
	Rating         float64                `json:"rating" validate:"gte=0,lte=5"`
	Image          string                 `json:"image" validate:"required"`
	Description    string                 `json:"description" validate:"required"`
	Patients       int                    `json:"patients" validate:"gte=0"`
	Contact        ContactRequest         `json:"contact"`
	Qualifications []QualificationRequest `json:"qualifications" validate:"omitempty,dive"`
	AvailableDates []AvailabilityRequest  `json:"availableDates" validate:"omitempty,dive"`
}

type AvailabilityRequest struct {
	Date  string   `json:"date" validate:"required"` // Format: YYYY-MM-DD
	Times []string `json:"times" validate:"required,min=1,dive,required"`
}

type UpdateSlotRequest struct {
	Date     string `json:"date" validate:"required"` // Format: YYYY-MM-DD
	Time     string `json:"time" validate:"required"`
	IsBooked *bool  `json:"isBooked" validate:"required"`
}

// Response DTOs

type AddressResponse struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
}

type ContactResponse struct {
	Email   string          `json:"email,omitempty"`
	Phone   string          `json:"phone,omitempty"`
	Address AddressResponse `json:"address"`
}

type QualificationResponse struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        int    `json:"year"`
}

type SlotResponse struct {
	Time     string `json:"time"`
	IsBooked bool   `json:"isBooked"`
}

type AvailableDateResponse struct {
	Date  string         `json:"date"`
	Slots []SlotResponse `json:"slots"`
}

type DoctorResponse struct {
	ID             int64                   `json:"id"`
	Name           string                  `json:"name"`
	Specialization string                  `json:"specialization"`
	Expertise      string                  `json:"expertise"`
	Experience     string                  `json:"experience"`
	Education      string                  `json:"education"`
	Rating         float64                 `json:"rating"`
	Image          string                  `json:"image"`
	Description    string                  `json:"description"`
	Patients       int                     `json:"patients"`
	Contact        ContactResponse         `json:"contact"`
	Qualifications []QualificationResponse `json:"qualifications"`
	AvailableDates []AvailableDateResponse `json:"availableDates"`
	CreatedAt      time.Time               `json:"createdAt"`
	UpdatedAt      time.Time               `json:"updatedAt"`
}
