package http

import (
	"github.com/google/uuid"

	"github.com/cschrachta/telephony-tracker/internal/numbering_service/domain"
)

// SaveRangeRequestDTO is the body of create and edit requests.
type SaveRangeRequestDTO struct {
	StartNumber       string  `json:"start_number" validate:"required,max=32"`
	EndNumber         *string `json:"end_number,omitempty" validate:"omitempty,max=32"`
	RegionCode        string  `json:"region_code" validate:"required_without=CallingCode,max=3"`
	CallingCode       string  `json:"calling_code" validate:"max=5"`
	ServiceProviderID int64   `json:"service_provider_id" validate:"required,gt=0"`
	LocationID        int64   `json:"location_id" validate:"required,gt=0"`
	UsageTypeID       int64   `json:"usage_type_id" validate:"required,gt=0"`
	CircuitID         *int64  `json:"circuit_id,omitempty" validate:"omitempty,gt=0"`
	Notes             string  `json:"notes" validate:"max=1000"`
}

func (d SaveRangeRequestDTO) toInput(id *uuid.UUID) domain.NumberRangeInput {
	return domain.NumberRangeInput{
		ID:          id,
		StartNumber: d.StartNumber,
		EndNumber:   d.EndNumber,
		Country:     domain.Country{RegionCode: d.RegionCode, CallingCode: d.CallingCode},
		Owner: domain.OwnerAttributes{
			ServiceProviderID: d.ServiceProviderID,
			LocationID:        d.LocationID,
			UsageTypeID:       d.UsageTypeID,
			CircuitID:         d.CircuitID,
		},
		Notes: d.Notes,
	}
}

type ResyncRequestDTO struct {
	RangeIDs []uuid.UUID `json:"range_ids" validate:"required,min=1,max=100"`
}

type ResyncResponseDTO struct {
	Ranges []*domain.RangeSaveSummary `json:"ranges"`
}

type ListNumbersResponseDTO struct {
	RangeID uuid.UUID             `json:"range_id"`
	Offset  int                   `json:"offset"`
	Limit   int                   `json:"limit"`
	Numbers []*domain.PhoneNumber `json:"numbers"`
}

type ErrorResponseDTO struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
