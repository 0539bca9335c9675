package attachment

import "github.com/cflux/backoffice/internal"

type UpdateMetadataDTO struct {
	Description string `json:"description"`
}

func (dto UpdateMetadataDTO) Validate() error {
	if len(dto.Description) > 2000 {
		return internal.NewValidationError("description must be at most 2000 characters", internal.ErrCodeValidationFailed)
	}
	return nil
}
