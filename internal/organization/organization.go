package organization

import (
	"time"

	organizationDatamodel "github.com/Kauel-Chile/MERN-Boilerplate/internal/core/datamodel/organization"
	"github.com/google/uuid"
)

type Organization struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewOrganization(name, description string) *Organization {
	now := time.Now()
	return &Organization{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (o *Organization) Rename(name, description string) {
	o.Name = name
	o.Description = description
	o.UpdatedAt = time.Now()
}

func (o *Organization) ToResponse() OrganizationResponse {
	return OrganizationResponse{
		ID:          o.ID,
		Name:        o.Name,
		Description: o.Description,
	}
}

func ToDataModel(o *Organization) *organizationDatamodel.Organization {
	return &organizationDatamodel.Organization{
		ID:          o.ID,
		Name:        o.Name,
		Description: o.Description,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func FromDataModel(o *organizationDatamodel.Organization) *Organization {
	if o == nil {
		return nil
	}
	return &Organization{
		ID:          o.ID,
		Name:        o.Name,
		Description: o.Description,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}
