package module

import (
	"time"

	"github.com/cflux/backoffice/internal"
)

// Permission is the coarse capability asked for by feature code.
type Permission string

const (
	PermissionRead  Permission = "READ"
	PermissionWrite Permission = "WRITE"
)

// Action is the fine-grained flag checked by route middleware.
type Action string

const (
	ActionView   Action = "canView"
	ActionCreate Action = "canCreate"
	ActionEdit   Action = "canEdit"
	ActionDelete Action = "canDelete"
)

const RoleAdmin = "ADMIN"

// Module is a named feature area gated by group-based permissions.
type Module struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Key         string    `json:"key" gorm:"uniqueIndex;not null"`
	Description *string   `json:"description,omitempty"`
	Icon        *string   `json:"icon,omitempty"`
	Route       *string   `json:"route,omitempty"`
	IsActive    bool      `json:"is_active" gorm:"column:is_active;default:true"`
	SortOrder   int       `json:"sort_order" gorm:"column:sort_order;default:0"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Module) TableName() string {
	return "modules"
}

// Access grants view/create/edit/delete on one module to one user group.
type Access struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	ModuleID    string    `json:"module_id" gorm:"column:module_id;not null"`
	UserGroupID string    `json:"user_group_id" gorm:"column:user_group_id;not null"`
	CanView     bool      `json:"can_view" gorm:"column:can_view;default:false"`
	CanCreate   bool      `json:"can_create" gorm:"column:can_create;default:false"`
	CanEdit     bool      `json:"can_edit" gorm:"column:can_edit;default:false"`
	CanDelete   bool      `json:"can_delete" gorm:"column:can_delete;default:false"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Access) TableName() string {
	return "module_access"
}

// Permissions is the merged per-flag view a user holds on a module.
type Permissions struct {
	CanView   bool `json:"canView"`
	CanCreate bool `json:"canCreate"`
	CanEdit   bool `json:"canEdit"`
	CanDelete bool `json:"canDelete"`
}

// UserModule is a module decorated with the caller's merged permissions.
type UserModule struct {
	Module
	Permissions Permissions `json:"permissions"`
}

// UserInfo is the slice of the user record the resolver needs.
type UserInfo struct {
	ID       string
	Role     string
	IsActive bool
}

var (
	ErrModuleNotFound = internal.NewNotFoundError("Module not found", internal.ErrCodeModuleNotFound)
	ErrAccessNotFound = internal.NewNotFoundError("Module access not found", internal.ErrCodeModuleNotFound)
	ErrUserNotFound   = internal.NewNotFoundError("User not found", internal.ErrCodeUserNotFound)
)
