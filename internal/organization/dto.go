package organization

import "strings"

type OrganizationDTO struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=500"`
}

func (d *OrganizationDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
}

type OrganizationResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type OrganizationsResponse struct {
	Organizations []OrganizationResponse `json:"organizations"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
