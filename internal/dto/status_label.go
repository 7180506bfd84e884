package dto

// CreateStatusLabelRequest adds a management status label to the tenant catalog.
type CreateStatusLabelRequest struct {
	Name         string `json:"name" validate:"required,max=64"`
	DisplayOrder int    `json:"displayOrder" validate:"gte=0"`
	Color        string `json:"color" validate:"omitempty,hexcolor"`
}

// UpdateStatusLabelRequest edits an existing label.
type UpdateStatusLabelRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=64"`
	DisplayOrder *int    `json:"displayOrder" validate:"omitempty,gte=0"`
	Color        *string `json:"color" validate:"omitempty,hexcolor"`
}
