package document

import "github.com/cflux/backoffice/internal"

// InitialPermissionDTO attaches a group permission to a node at creation so
// callers can close a node before it ever becomes world accessible.
type InitialPermissionDTO struct {
	UserGroupID     string          `json:"user_group_id"`
	PermissionLevel PermissionLevel `json:"permission_level"`
}

// CreateNodeDTO is the request payload for creating a folder or document.
type CreateNodeDTO struct {
	Title       string                 `json:"title"`
	Type        string                 `json:"type"`
	ParentID    *string                `json:"parent_id,omitempty"`
	Content     *string                `json:"content,omitempty"`
	SortOrder   *int                   `json:"sort_order,omitempty"`
	Permissions []InitialPermissionDTO `json:"permissions,omitempty"`
}

func (dto CreateNodeDTO) Validate() error {
	if dto.Title == "" || dto.Type == "" {
		return internal.NewValidationError("Title and type are required", internal.ErrCodeValidationFailed)
	}
	if dto.Type != NodeTypeFolder && dto.Type != NodeTypeDocument {
		return internal.NewValidationError("Invalid type. Must be FOLDER or DOCUMENT", internal.ErrCodeValidationFailed)
	}
	for _, perm := range dto.Permissions {
		switch perm.PermissionLevel {
		case PermissionRead, PermissionWrite, PermissionAdmin:
		default:
			return internal.NewValidationError("Invalid permission level", internal.ErrCodeValidationFailed)
		}
		if perm.UserGroupID == "" {
			return internal.NewValidationError("user_group_id is required for permissions", internal.ErrCodeValidationFailed)
		}
	}
	return nil
}

// UpdateNodeDTO carries partial node updates; nil fields are untouched.
type UpdateNodeDTO struct {
	Title     *string `json:"title,omitempty"`
	Content   *string `json:"content,omitempty"`
	SortOrder *int    `json:"sort_order,omitempty"`
}
