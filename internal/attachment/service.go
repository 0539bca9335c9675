package attachment

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/cflux/backoffice/internal"
	"github.com/cflux/backoffice/internal/document"
	"github.com/cflux/backoffice/internal/module"
)

type Repository interface {
	NodeExists(nodeID string) (bool, error)

	CreateAttachment(a *Attachment) error
	GetAttachmentByID(id string) (*Attachment, error)
	ListByNode(nodeID string) ([]Attachment, error)
	UpdateAttachment(a *Attachment) error
	SoftDeleteAttachment(id string, deletedAt time.Time) error

	CreateVersion(v *AttachmentVersion) error
	ListVersions(attachmentID string) ([]AttachmentVersion, error)
	GetVersionByID(id string) (*AttachmentVersion, error)
}

// NodeAccessAPI is the node-level gate from the document package.
type NodeAccessAPI interface {
	HasNodeAccess(userID, nodeID string) (bool, error)
	HasNodeWriteAccess(userID, nodeID string) (bool, error)
}

type PermissionChecker interface {
	CheckPermission(userID, moduleKey string, perm module.Permission) (bool, error)
}

// Upload carries one incoming multipart file.
type Upload struct {
	OriginalFilename string
	MimeType         string
	Description      string
	Body             io.Reader
}

// Download is a resolved file stream for the client.
type Download struct {
	Filename string
	MimeType string
	Size     int64
	Body     io.ReadCloser
}

type Service struct {
	repo   Repository
	store  FileStore
	access NodeAccessAPI
	perms  PermissionChecker
	logger *slog.Logger
}

func NewService(repo Repository, store FileStore, access NodeAccessAPI, perms PermissionChecker, logger *slog.Logger) *Service {
	return &Service{repo: repo, store: store, access: access, perms: perms, logger: logger}
}

// UploadAttachment stores the file first, the way a multipart pipeline
// does, so every failure path afterwards must clean it up again.
func (s *Service) UploadAttachment(userID, nodeID string, up *Upload) (*Attachment, error) {
	storedName := uuid.New().String() + filepath.Ext(up.OriginalFilename)
	relPath, size, err := s.store.Save(storedName, up.Body)
	if err != nil {
		return nil, internal.NewInternalServerError("failed to store uploaded file", internal.ErrCodeFileUpload).WithCause(err)
	}

	if err := s.requireWrite(userID, nodeID); err != nil {
		s.cleanup(relPath)
		return nil, err
	}

	exists, err := s.repo.NodeExists(nodeID)
	if err != nil {
		s.cleanup(relPath)
		return nil, err
	}
	if !exists {
		s.cleanup(relPath)
		return nil, document.ErrNodeNotFound
	}

	now := time.Now()
	att := &Attachment{
		ID:               uuid.New().String(),
		NodeID:           nodeID,
		Filename:         storedName,
		OriginalFilename: up.OriginalFilename,
		FilePath:         relPath,
		FileSize:         size,
		MimeType:         up.MimeType,
		Description:      up.Description,
		Version:          1,
		IsActive:         true,
		UploadedByID:     userID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.CreateAttachment(att); err != nil {
		s.cleanup(relPath)
		return nil, err
	}

	v := &AttachmentVersion{
		ID:               uuid.New().String(),
		AttachmentID:     att.ID,
		Version:          1,
		Filename:         storedName,
		OriginalFilename: up.OriginalFilename,
		FilePath:         relPath,
		FileSize:         size,
		MimeType:         up.MimeType,
		ChangeReason:     "Initial upload",
		UploadedByID:     userID,
		CreatedAt:        now,
	}
	if err := s.repo.CreateVersion(v); err != nil {
		s.cleanup(relPath)
		return nil, err
	}

	s.logger.Info("attachment uploaded",
		"attachment_id", att.ID,
		"node_id", nodeID,
		"filename", up.OriginalFilename)
	return att, nil
}

// UpdateAttachment replaces the current file with a new version. The
// superseded file is moved into the archive under v{n}-{filename}
// before the pointer row is advanced.
func (s *Service) UpdateAttachment(userID, attachmentID string, up *Upload, changeReason string) (*Attachment, error) {
	storedName := uuid.New().String() + filepath.Ext(up.OriginalFilename)
	relPath, size, err := s.store.Save(storedName, up.Body)
	if err != nil {
		return nil, internal.NewInternalServerError("failed to store uploaded file", internal.ErrCodeFileUpload).WithCause(err)
	}

	att, err := s.repo.GetAttachmentByID(attachmentID)
	if err != nil {
		s.cleanup(relPath)
		return nil, err
	}

	if err := s.requireWrite(userID, att.NodeID); err != nil {
		s.cleanup(relPath)
		return nil, err
	}

	if s.store.Exists(att.FilePath) {
		archiveName := ArchiveName(att.Version, att.Filename)
		if err := s.store.Archive(att.FilePath, archiveName); err != nil {
			s.cleanup(relPath)
			return nil, internal.NewInternalServerError("failed to archive previous version", internal.ErrCodeFileUpload).WithCause(err)
		}
	}

	newVersion := att.Version + 1
	if changeReason == "" {
		changeReason = fmt.Sprintf("Updated to version %d", newVersion)
	}

	now := time.Now()
	v := &AttachmentVersion{
		ID:               uuid.New().String(),
		AttachmentID:     att.ID,
		Version:          newVersion,
		Filename:         storedName,
		OriginalFilename: up.OriginalFilename,
		FilePath:         relPath,
		FileSize:         size,
		MimeType:         up.MimeType,
		ChangeReason:     changeReason,
		UploadedByID:     userID,
		CreatedAt:        now,
	}
	if err := s.repo.CreateVersion(v); err != nil {
		s.cleanup(relPath)
		return nil, err
	}

	att.Filename = storedName
	att.OriginalFilename = up.OriginalFilename
	att.FilePath = relPath
	att.FileSize = size
	att.MimeType = up.MimeType
	if up.Description != "" {
		att.Description = up.Description
	}
	att.Version = newVersion
	att.UploadedByID = userID
	att.UpdatedAt = now
	if err := s.repo.UpdateAttachment(att); err != nil {
		s.cleanup(relPath)
		return nil, err
	}

	s.logger.Info("attachment updated",
		"attachment_id", att.ID,
		"version", newVersion)
	return att, nil
}

// DeleteAttachment soft-deletes only. Physical files and the version
// log stay in place so every revision remains recoverable.
func (s *Service) DeleteAttachment(userID, attachmentID string) error {
	att, err := s.repo.GetAttachmentByID(attachmentID)
	if err != nil {
		return err
	}
	if err := s.requireWrite(userID, att.NodeID); err != nil {
		return err
	}
	return s.repo.SoftDeleteAttachment(attachmentID, time.Now())
}

func (s *Service) ListAttachments(userID, nodeID string) ([]Attachment, error) {
	if err := s.requireRead(userID, nodeID); err != nil {
		return nil, err
	}
	return s.repo.ListByNode(nodeID)
}

func (s *Service) ListVersions(userID, attachmentID string) ([]AttachmentVersion, error) {
	att, err := s.repo.GetAttachmentByID(attachmentID)
	if err != nil {
		return nil, err
	}
	if err := s.requireRead(userID, att.NodeID); err != nil {
		return nil, err
	}
	return s.repo.ListVersions(attachmentID)
}

// DownloadAttachment streams the current file.
func (s *Service) DownloadAttachment(userID, attachmentID string) (*Download, error) {
	att, err := s.repo.GetAttachmentByID(attachmentID)
	if err != nil {
		return nil, err
	}
	if err := s.requireRead(userID, att.NodeID); err != nil {
		return nil, err
	}

	body, err := s.store.Open(att.FilePath)
	if err != nil {
		return nil, ErrFileMissing
	}
	return &Download{
		Filename: att.OriginalFilename,
		MimeType: att.MimeType,
		Size:     att.FileSize,
		Body:     body,
	}, nil
}

// DownloadVersion streams a specific version, falling back to the
// archive naming convention when the stored path has been moved.
func (s *Service) DownloadVersion(userID, versionID string) (*Download, error) {
	v, err := s.repo.GetVersionByID(versionID)
	if err != nil {
		return nil, err
	}
	att, err := s.repo.GetAttachmentByID(v.AttachmentID)
	if err != nil {
		return nil, err
	}
	if err := s.requireRead(userID, att.NodeID); err != nil {
		return nil, err
	}

	body, err := s.store.Open(v.FilePath)
	if err != nil {
		body, err = s.store.OpenArchived(ArchiveName(v.Version, v.Filename))
		if err != nil {
			return nil, ErrFileMissing
		}
	}
	return &Download{
		Filename: v.OriginalFilename,
		MimeType: v.MimeType,
		Size:     v.FileSize,
		Body:     body,
	}, nil
}

// UpdateMetadata changes the description without touching file or
// version state.
func (s *Service) UpdateMetadata(userID, attachmentID string, dto *UpdateMetadataDTO) (*Attachment, error) {
	att, err := s.repo.GetAttachmentByID(attachmentID)
	if err != nil {
		return nil, err
	}
	if err := s.requireWrite(userID, att.NodeID); err != nil {
		return nil, err
	}

	att.Description = dto.Description
	att.UpdatedAt = time.Now()
	if err := s.repo.UpdateAttachment(att); err != nil {
		return nil, err
	}
	return att, nil
}

func (s *Service) requireWrite(userID, nodeID string) error {
	ok, err := s.perms.CheckPermission(userID, document.ModuleKey, module.PermissionWrite)
	if err != nil {
		return err
	}
	if !ok {
		return document.ErrNoWriteAccess
	}
	ok, err = s.access.HasNodeWriteAccess(userID, nodeID)
	if err != nil {
		return err
	}
	if !ok {
		return document.ErrNoWriteAccess
	}
	return nil
}

func (s *Service) requireRead(userID, nodeID string) error {
	ok, err := s.perms.CheckPermission(userID, document.ModuleKey, module.PermissionRead)
	if err != nil {
		return err
	}
	if !ok {
		return document.ErrNoReadAccess
	}
	ok, err = s.access.HasNodeAccess(userID, nodeID)
	if err != nil {
		return err
	}
	if !ok {
		return document.ErrNoReadAccess
	}
	return nil
}

func (s *Service) cleanup(relPath string) {
	if err := s.store.Remove(relPath); err != nil {
		s.logger.Warn("failed to clean up uploaded file", "path", relPath, "error", err)
	}
}
