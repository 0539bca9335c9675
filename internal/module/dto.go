package module

import (
	"github.com/cflux/backoffice/internal"
)

// CreateModuleDTO is the request payload for registering a feature module.
type CreateModuleDTO struct {
	Name        string  `json:"name"`
	Key         string  `json:"key"`
	Description *string `json:"description,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	Route       *string `json:"route,omitempty"`
	SortOrder   int     `json:"sort_order"`
}

func (dto CreateModuleDTO) Validate() error {
	if dto.Name == "" {
		return internal.NewValidationError("module name is required", internal.ErrCodeValidationFailed)
	}
	if dto.Key == "" {
		return internal.NewValidationError("module key is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

// UpdateModuleDTO carries partial module updates; nil fields are untouched.
type UpdateModuleDTO struct {
	Name        *string `json:"name,omitempty"`
	Key         *string `json:"key,omitempty"`
	Description *string `json:"description,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	Route       *string `json:"route,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	SortOrder   *int    `json:"sort_order,omitempty"`
}

func (dto UpdateModuleDTO) Apply(m *Module) {
	if dto.Name != nil {
		m.Name = *dto.Name
	}
	if dto.Key != nil {
		m.Key = *dto.Key
	}
	if dto.Description != nil {
		m.Description = dto.Description
	}
	if dto.Icon != nil {
		m.Icon = dto.Icon
	}
	if dto.Route != nil {
		m.Route = dto.Route
	}
	if dto.IsActive != nil {
		m.IsActive = *dto.IsActive
	}
	if dto.SortOrder != nil {
		m.SortOrder = *dto.SortOrder
	}
}

// GrantAccessDTO is the request payload for granting group access to a module.
type GrantAccessDTO struct {
	ModuleID    string `json:"module_id"`
	UserGroupID string `json:"user_group_id"`
	CanView     bool   `json:"can_view"`
	CanCreate   bool   `json:"can_create"`
	CanEdit     bool   `json:"can_edit"`
	CanDelete   bool   `json:"can_delete"`
}

func (dto GrantAccessDTO) Validate() error {
	if dto.ModuleID == "" {
		return internal.NewValidationError("module_id is required", internal.ErrCodeValidationFailed)
	}
	if dto.UserGroupID == "" {
		return internal.NewValidationError("user_group_id is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

// UpdatePermissionsDTO carries partial permission-flag updates for a grant.
type UpdatePermissionsDTO struct {
	CanView   *bool `json:"can_view,omitempty"`
	CanCreate *bool `json:"can_create,omitempty"`
	CanEdit   *bool `json:"can_edit,omitempty"`
	CanDelete *bool `json:"can_delete,omitempty"`
}

func (dto UpdatePermissionsDTO) Apply(a *Access) {
	if dto.CanView != nil {
		a.CanView = *dto.CanView
	}
	if dto.CanCreate != nil {
		a.CanCreate = *dto.CanCreate
	}
	if dto.CanEdit != nil {
		a.CanEdit = *dto.CanEdit
	}
	if dto.CanDelete != nil {
		a.CanDelete = *dto.CanDelete
	}
}
