package converter

import (
	"clinic-appointment-service/internal/delivery/dto"
	"clinic-appointment-service/internal/domain/entity"

	"github.com/shopspring/decimal"
)

// DoctorToResponse converts a Doctor entity to DoctorResponse DTO.
// Slots are grouped per date and ordered by clock time.
func DoctorToResponse(doctor *entity.Doctor) *dto.DoctorResponse {
	if doctor == nil {
		return nil
	}

	qualifications := make([]dto.QualificationResponse, len(doctor.Qualifications))
	for i, q := range doctor.Qualifications {
		qualifications[i] = dto.QualificationResponse{
			Degree:      q.Degree,
			Institution: q.Institution,
			Year:        q.Year,
		}
	}

	return &dto.DoctorResponse{
		ID:             doctor.ID,
		Name:           doctor.Name,
		Specialization: doctor.Specialization,
		Expertise:      doctor.Expertise,
		Experience:     doctor.Experience,
		Education:      doctor.Education,
		Rating:         doctor.Rating.InexactFloat64(),
		Image:          doctor.Image,
		Description:    doctor.Description,
		Patients:       doctor.Patients,
		Contact: dto.ContactResponse{
			Email: doctor.Contact.Email,
			Phone: doctor.Contact.Phone,
			Address: dto.AddressResponse{
				Street:  doctor.Contact.Address.Street,
				City:    doctor.Contact.Address.City,
				State:   doctor.Contact.Address.State,
				ZipCode: doctor.Contact.Address.ZipCode,
			},
		},
		Qualifications: qualifications,
		AvailableDates: SlotsToAvailableDates(doctor.Slots),
		CreatedAt:      doctor.CreatedAt,
		UpdatedAt:      doctor.UpdatedAt,
	}
}

// DoctorsToResponses converts a slice of Doctor entities to slice of DoctorResponse DTOs
func DoctorsToResponses(doctors []entity.Doctor) []dto.DoctorResponse {
	responses := make([]dto.DoctorResponse, len(doctors))
	for i := range doctors {
		responses[i] = *DoctorToResponse(&doctors[i])
	}
	return responses
}

// SlotsToAvailableDates groups slots by date, dates ascending
func SlotsToAvailableDates(slots []entity.DoctorSlot) []dto.AvailableDateResponse {
	sorted := make([]entity.DoctorSlot, len(slots))
	copy(sorted, slots)
	entity.SortSlots(sorted)

	dates := make([]dto.AvailableDateResponse, 0)
	for _, slot := range sorted {
		date := slot.SlotDate.Format(entity.DateLayout)
		if len(dates) == 0 || dates[len(dates)-1].Date != date {
			dates = append(dates, dto.AvailableDateResponse{Date: date, Slots: []dto.SlotResponse{}})
		}
		last := &dates[len(dates)-1]
		last.Slots = append(last.Slots, dto.SlotResponse{Time: slot.SlotTime, IsBooked: slot.IsBooked})
	}
	return dates
}

// CreateDoctorRequestToEntity builds a Doctor without slots
func CreateDoctorRequestToEntity(req *dto.CreateDoctorRequest) *entity.Doctor {
	qualifications := make(entity.Qualifications, len(req.Qualifications))
	for i, q := range req.Qualifications {
		qualifications[i] = entity.Qualification{
			Degree:      q.Degree,
			Institution: q.Institution,
			Year:        q.Year,
		}
	}

	return &entity.Doctor{
		ID:             req.ID,
		Name:           req.Name,
		Specialization: req.Specialization,
		Expertise:      req.Expertise,
		Experience:     req.Experience,
		Education:      req.Education,
		Rating:         decimal.NewFromFloat(req.Rating).Round(2),
		Image:          req.Image,
		Description:    req.Description,
		Patients:       req.Patients,
		Contact: entity.Contact{
			Email: req.Contact.Email,
			Phone: req.Contact.Phone,
			Address: entity.Address{
				Street:  req.Contact.Address.Street,
				City:    req.Contact.Address.City,
				State:   req.Contact.Address.State,
				ZipCode: req.Contact.Address.ZipCode,
			},
		},
		Qualifications: qualifications,
	}
}
