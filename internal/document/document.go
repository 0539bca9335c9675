package document

import (
	"time"

	"github.com/cflux/backoffice/internal"
)

// ModuleKey gates every intranet operation.
const ModuleKey = "INTRANET"

const (
	NodeTypeFolder   = "FOLDER"
	NodeTypeDocument = "DOCUMENT"
)

// PermissionLevel is the per-node grant granularity.
type PermissionLevel string

const (
	PermissionRead  PermissionLevel = "READ"
	PermissionWrite PermissionLevel = "WRITE"
	PermissionAdmin PermissionLevel = "ADMIN"
)

// Node is a hierarchical intranet content unit (folder or page).
type Node struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	ParentID    *string    `json:"parent_id,omitempty" gorm:"column:parent_id"`
	Title       string     `json:"title" gorm:"not null"`
	Content     *string    `json:"content,omitempty"`
	Type        string     `json:"type" gorm:"default:DOCUMENT"`
	SortOrder   int        `json:"sort_order" gorm:"column:sort_order;default:0"`
	CreatedByID string     `json:"created_by_id" gorm:"column:created_by_id"`
	UpdatedByID *string    `json:"updated_by_id,omitempty" gorm:"column:updated_by_id"`
	CreatedAt   time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"column:updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" gorm:"column:deleted_at"`
}

func (Node) TableName() string {
	return "document_nodes"
}

// Version is an immutable snapshot of a node's content at a point in time.
type Version struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	NodeID      string    `json:"document_node_id" gorm:"column:document_node_id;not null"`
	Version     int       `json:"version" gorm:"not null"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	CreatedByID string    `json:"created_by_id" gorm:"column:created_by_id"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
}

func (Version) TableName() string {
	return "document_versions"
}

// GroupPermission maps a user group to a permission level for one node.
// A node with no permission rows is readable and writable by everyone.
type GroupPermission struct {
	ID              string          `json:"id" gorm:"primaryKey"`
	NodeID          string          `json:"document_node_id" gorm:"column:document_node_id;not null"`
	UserGroupID     string          `json:"user_group_id" gorm:"column:user_group_id;not null"`
	PermissionLevel PermissionLevel `json:"permission_level" gorm:"column:permission_level;default:READ"`
	CreatedAt       time.Time       `json:"created_at" gorm:"column:created_at"`
}

func (GroupPermission) TableName() string {
	return "document_node_group_permissions"
}

// CreatorName is the joined display name attached to search hits.
type CreatorName struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

var (
	ErrNodeNotFound   = internal.NewNotFoundError("Document node not found", internal.ErrCodeNodeNotFound)
	ErrSearchTooShort = internal.NewValidationError("Search term must be at least 2 characters", internal.ErrCodeInvalidQuery)
	ErrQueryRequired  = internal.NewValidationError("Search query is required", internal.ErrCodeInvalidQuery)
	ErrNoReadAccess   = internal.NewForbiddenError("No permission to read intranet documents", internal.ErrCodeModuleAccessDenied)
	ErrNoWriteAccess  = internal.NewForbiddenError("No permission to modify intranet documents", internal.ErrCodeModuleAccessDenied)
)
