package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/cflux/backoffice/internal/attachment"
	"github.com/cflux/backoffice/internal/document"
)

// AttachmentRepository implements attachment.Repository using GORM.
type AttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) attachment.Repository {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) NodeExists(nodeID string) (bool, error) {
	var count int64
	err := r.db.Model(&document.Node{}).
		Where("id = ? AND deleted_at IS NULL", nodeID).
		Count(&count).Error
	return count > 0, err
}

func (r *AttachmentRepository) CreateAttachment(a *attachment.Attachment) error {
	return r.db.Create(a).Error
}

func (r *AttachmentRepository) GetAttachmentByID(id string) (*attachment.Attachment, error) {
	var att attachment.Attachment
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&att).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, attachment.ErrAttachmentNotFound
		}
		return nil, err
	}
	return &att, nil
}

func (r *AttachmentRepository) ListByNode(nodeID string) ([]attachment.Attachment, error) {
	var attachments []attachment.Attachment
	err := r.db.Where("document_node_id = ? AND deleted_at IS NULL", nodeID).
		Order("created_at ASC").
		Find(&attachments).Error
	return attachments, err
}

func (r *AttachmentRepository) UpdateAttachment(a *attachment.Attachment) error {
	return r.db.Save(a).Error
}

func (r *AttachmentRepository) SoftDeleteAttachment(id string, deletedAt time.Time) error {
	return r.db.Model(&attachment.Attachment{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"deleted_at": deletedAt,
			"updated_at": deletedAt,
		}).Error
}

func (r *AttachmentRepository) CreateVersion(v *attachment.AttachmentVersion) error {
	return r.db.Create(v).Error
}

func (r *AttachmentRepository) ListVersions(attachmentID string) ([]attachment.AttachmentVersion, error) {
	var versions []attachment.AttachmentVersion
	err := r.db.Where("attachment_id = ?", attachmentID).
		Order("version DESC").
		Find(&versions).Error
	return versions, err
}

func (r *AttachmentRepository) GetVersionByID(id string) (*attachment.AttachmentVersion, error) {
	var v attachment.AttachmentVersion
	err := r.db.Where("id = ?", id).First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, attachment.ErrVersionNotFound
		}
		return nil, err
	}
	return &v, nil
}
