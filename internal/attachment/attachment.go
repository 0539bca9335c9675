package attachment

import (
	"time"

	"github.com/cflux/backoffice/internal"
)

// Attachment is the current state of one uploaded file on a document
// node. Superseded file contents live in the version log; the row here
// always points at the latest physical file.
type Attachment struct {
	ID               string     `json:"id" gorm:"primaryKey"`
	NodeID           string     `json:"document_node_id" gorm:"column:document_node_id;not null"`
	Filename         string     `json:"filename" gorm:"not null"`
	OriginalFilename string     `json:"original_filename" gorm:"column:original_filename;not null"`
	FilePath         string     `json:"file_path" gorm:"column:file_path;not null"`
	FileSize         int64      `json:"file_size" gorm:"column:file_size"`
	MimeType         string     `json:"mime_type" gorm:"column:mime_type"`
	Description      string     `json:"description"`
	Version          int        `json:"version" gorm:"default:1"`
	IsActive         bool       `json:"is_active" gorm:"column:is_active;default:true"`
	UploadedByID     string     `json:"uploaded_by_id" gorm:"column:uploaded_by_id"`
	CreatedAt        time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt        time.Time  `json:"updated_at" gorm:"column:updated_at"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty" gorm:"column:deleted_at"`
}

func (Attachment) TableName() string {
	return "document_node_attachments"
}

// AttachmentVersion is one append-only entry in an attachment's
// revision log. Rows are never updated or deleted.
type AttachmentVersion struct {
	ID               string    `json:"id" gorm:"primaryKey"`
	AttachmentID     string    `json:"attachment_id" gorm:"column:attachment_id;not null"`
	Version          int       `json:"version" gorm:"not null"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename" gorm:"column:original_filename"`
	FilePath         string    `json:"file_path" gorm:"column:file_path"`
	FileSize         int64     `json:"file_size" gorm:"column:file_size"`
	MimeType         string    `json:"mime_type" gorm:"column:mime_type"`
	ChangeReason     string    `json:"change_reason" gorm:"column:change_reason"`
	UploadedByID     string    `json:"uploaded_by_id" gorm:"column:uploaded_by_id"`
	CreatedAt        time.Time `json:"created_at" gorm:"column:created_at"`
}

func (AttachmentVersion) TableName() string {
	return "document_node_attachment_versions"
}

var (
	ErrAttachmentNotFound = internal.NewNotFoundError("Attachment not found", internal.ErrCodeAttachmentNotFound)
	ErrVersionNotFound    = internal.NewNotFoundError("Attachment version not found", internal.ErrCodeVersionNotFound)
	ErrFileMissing        = internal.NewNotFoundError("File not found on disk", internal.ErrCodeFileNotFound)
)
